package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/vbonduro/stampcam/internal/domain"
)

const maxJSONBody = 64 * 1024

type errorResponse struct {
	Error string `json:"error"`
	// Focus and Threshold are set when a capture was rejected as blurry.
	Focus     *float64 `json:"focus,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMissingSelection):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEncoding), errors.Is(err, domain.ErrTooBlurry):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "error", err)
		resp.Error = op + " failed"
	}
	var blur *domain.BlurError
	if errors.As(err, &blur) {
		resp.Focus = &blur.Score
		resp.Threshold = &blur.Threshold
	}
	writeJSON(w, status, resp, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("write json failed", "error", err)
	}
}

func writeBadRequest(w http.ResponseWriter, msg string, logger *slog.Logger) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg}, logger)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// parseID extracts the {id} path variable and returns it as int64.
func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}

type metaJSON struct {
	ProjectName        string   `json:"project_name"`
	RoomDraft          string   `json:"room_draft"`
	RegisteredRooms    []string `json:"registered_rooms"`
	ActiveRoom         string   `json:"active_room"`
	ActiveDeviceKey    string   `json:"active_device_key"`
	LastShotID         *int64   `json:"last_shot_id"`
	ShowIncompleteOnly bool     `json:"show_incomplete_only"`
}

func toMetaJSON(m *domain.AppMeta) metaJSON {
	return metaJSON{
		ProjectName:        m.ProjectName,
		RoomDraft:          m.RoomDraft,
		RegisteredRooms:    m.RegisteredRooms,
		ActiveRoom:         m.ActiveRoom,
		ActiveDeviceKey:    m.ActiveDeviceKey,
		LastShotID:         m.LastShotID,
		ShowIncompleteOnly: m.ShowIncompleteOnly,
	}
}

type roomJSON struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type deviceJSON struct {
	Key        string    `json:"key"`
	Room       string    `json:"room"`
	Index      int       `json:"index"`
	DeviceType string    `json:"device_type"`
	Checked    bool      `json:"checked"`
	UpdatedAt  time.Time `json:"updated_at"`
	Kinds      []string  `json:"kinds,omitempty"`
	Missing    []string  `json:"missing,omitempty"`
	Shots      int       `json:"shots"`
}

func toDeviceJSON(d *domain.Device) deviceJSON {
	return deviceJSON{
		Key:        d.Key,
		Room:       d.RoomName,
		Index:      d.Index,
		DeviceType: d.DeviceType,
		Checked:    d.Checked,
		UpdatedAt:  d.UpdatedAt,
	}
}

func toProgressJSON(p *domain.DeviceProgress) deviceJSON {
	out := toDeviceJSON(p.Device)
	out.Shots = p.Shots
	for _, k := range domain.FixedKinds {
		if p.Kinds.Has(k) {
			out.Kinds = append(out.Kinds, k.String())
		}
	}
	var free []string
	for k := range p.Kinds {
		if k.IsFree() {
			free = append(free, k.String())
		}
	}
	slices.Sort(free)
	out.Kinds = append(out.Kinds, free...)
	for _, k := range p.Missing() {
		out.Missing = append(out.Missing, k.String())
	}
	return out
}

type shotJSON struct {
	ID        int64     `json:"id"`
	DeviceKey string    `json:"device_key"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Size      int64     `json:"size"`
	ThumbURL  string    `json:"thumb_url"`
	FullURL   string    `json:"full_url"`
}

func toShotJSON(sh *domain.Shot) shotJSON {
	base := "/api/shots/" + strconv.FormatInt(sh.ID, 10)
	return shotJSON{
		ID:        sh.ID,
		DeviceKey: sh.DeviceKey,
		Kind:      sh.Kind.String(),
		CreatedAt: sh.CreatedAt,
		Width:     sh.Full.Width,
		Height:    sh.Full.Height,
		Size:      sh.FullSize,
		ThumbURL:  base + "/thumb",
		FullURL:   base + "/full",
	}
}

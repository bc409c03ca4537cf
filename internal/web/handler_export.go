package web

import (
	"fmt"
	"net/http"

	"github.com/vbonduro/stampcam/internal/quota"
)

// attachment defers the download headers until the first byte of the archive
// is written, so an export that fails early can still answer with an error.
type attachment struct {
	w        http.ResponseWriter
	filename string
	started  bool
}

func (a *attachment) Write(p []byte) (int, error) {
	if !a.started {
		a.started = true
		h := a.w.Header()
		h.Set("Content-Type", "application/zip")
		h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.filename))
		a.w.WriteHeader(http.StatusOK)
	}
	return a.w.Write(p)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	out := &attachment{w: w, filename: s.service.ArchiveName(s.now())}
	res, err := s.service.Export(r.Context(), out)
	if err != nil {
		if out.started {
			// Headers are gone; the client sees a truncated archive.
			s.logger.Error("export failed mid-stream", "error", err)
			return
		}
		s.writeError(w, "export", err)
		return
	}
	s.logger.Info("export sent",
		"file", out.filename,
		"photos", res.Photos,
		"missing_blobs", res.MissingBlobs,
		"bytes", res.Bytes,
	)
}

func (s *Server) handleWipe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := decodeJSON(r, &req); err != nil || !req.Confirm {
		writeBadRequest(w, `wipe requires {"confirm": true}`, s.logger)
		return
	}

	if err := s.service.Wipe(r.Context()); err != nil {
		s.writeError(w, "wipe", err)
		return
	}
	s.thumbs.Flush()
	w.WriteHeader(http.StatusNoContent)
}

type storageJSON struct {
	Path    string      `json:"path"`
	Used    uint64      `json:"used"`
	Total   uint64      `json:"total"`
	Ratio   float64     `json:"ratio"`
	Level   quota.Level `json:"level"`
	Summary string      `json:"summary"`
}

type statusResponse struct {
	Rooms   int          `json:"rooms"`
	Devices int          `json:"devices"`
	Checked int          `json:"checked"`
	Shots   int          `json:"shots"`
	Storage *storageJSON `json:"storage,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.writeError(w, "status", err)
		return
	}
	resp := statusResponse{
		Rooms:   stats.Rooms,
		Devices: stats.Devices,
		Checked: stats.Checked,
		Shots:   stats.Shots,
	}

	// Storage is advisory; a failing probe leaves it out.
	if est, err := s.service.StorageStatus(r.Context()); err != nil {
		s.logger.Warn("storage estimate unavailable", "error", err)
	} else {
		resp.Storage = &storageJSON{
			Path:    est.Path,
			Used:    est.Used,
			Total:   est.Total,
			Ratio:   est.Ratio(),
			Level:   est.Level(),
			Summary: est.String(),
		}
	}
	writeJSON(w, http.StatusOK, resp, s.logger)
}

package web

import (
	"net/http"
)

func (s *Server) handleGetMeta(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toMetaJSON(s.service.Meta()), s.logger)
}

type updateMetaRequest struct {
	ProjectName        *string `json:"project_name"`
	RoomDraft          *string `json:"room_draft"`
	ShowIncompleteOnly *bool   `json:"show_incomplete_only"`
}

func (s *Server) handleUpdateMeta(w http.ResponseWriter, r *http.Request) {
	var req updateMetaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid meta update", s.logger)
		return
	}

	ctx := r.Context()
	meta := s.service.Meta()
	var err error
	if req.ProjectName != nil {
		if meta, err = s.service.SetProject(ctx, *req.ProjectName); err != nil {
			s.writeError(w, "set project", err)
			return
		}
	}
	if req.RoomDraft != nil {
		if meta, err = s.service.SetRoomDraft(ctx, *req.RoomDraft); err != nil {
			s.writeError(w, "set room draft", err)
			return
		}
	}
	if req.ShowIncompleteOnly != nil {
		if meta, err = s.service.SetShowIncompleteOnly(ctx, *req.ShowIncompleteOnly); err != nil {
			s.writeError(w, "set filter", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, toMetaJSON(meta), s.logger)
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.service.ListRooms(r.Context())
	if err != nil {
		s.writeError(w, "list rooms", err)
		return
	}
	out := make([]roomJSON, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, roomJSON{Name: room.Name, CreatedAt: room.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out, s.logger)
}

func (s *Server) handleRegisterRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "room name required", s.logger)
		return
	}

	room, err := s.service.RegisterRoom(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, "register room", err)
		return
	}
	writeJSON(w, http.StatusCreated, roomJSON{Name: room.Name, CreatedAt: room.CreatedAt}, s.logger)
}

func (s *Server) handleSelectRoom(w http.ResponseWriter, r *http.Request) {
	meta, err := s.service.SelectRoom(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, "select room", err)
		return
	}
	writeJSON(w, http.StatusOK, toMetaJSON(meta), s.logger)
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteRoom(r.Context(), r.PathValue("name")); err != nil {
		s.writeError(w, "delete room", err)
		return
	}
	// Cached thumbnails are keyed by shot id, which the cascade does not report.
	s.thumbs.Flush()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.service.ListDevices(r.Context(), r.PathValue("name"))
	if err != nil {
		s.writeError(w, "list devices", err)
		return
	}
	out := make([]deviceJSON, 0, len(devices))
	for _, d := range devices {
		out = append(out, toProgressJSON(d))
	}
	writeJSON(w, http.StatusOK, out, s.logger)
}

func (s *Server) handleAddDevice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index *int `json:"index"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Index == nil {
		writeBadRequest(w, "device index required", s.logger)
		return
	}

	dev, err := s.service.AddDevice(r.Context(), r.PathValue("name"), *req.Index)
	if err != nil {
		s.writeError(w, "add device", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDeviceJSON(dev), s.logger)
}

func (s *Server) handleSelectDevice(w http.ResponseWriter, r *http.Request) {
	dev, err := s.service.SelectDevice(r.Context(), r.PathValue("key"))
	if err != nil {
		s.writeError(w, "select device", err)
		return
	}
	writeJSON(w, http.StatusOK, toDeviceJSON(dev), s.logger)
}

func (s *Server) handleSetDeviceType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeviceType string `json:"device_type"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "device_type required", s.logger)
		return
	}

	dev, err := s.service.SetDeviceType(r.Context(), r.PathValue("key"), req.DeviceType)
	if err != nil {
		s.writeError(w, "set device type", err)
		return
	}
	writeJSON(w, http.StatusOK, toDeviceJSON(dev), s.logger)
}

func (s *Server) handleListShots(w http.ResponseWriter, r *http.Request) {
	shots, err := s.service.ListShots(r.Context(), r.PathValue("key"))
	if err != nil {
		s.writeError(w, "list shots", err)
		return
	}
	out := make([]shotJSON, 0, len(shots))
	for _, sh := range shots {
		out = append(out, toShotJSON(sh))
	}
	writeJSON(w, http.StatusOK, out, s.logger)
}

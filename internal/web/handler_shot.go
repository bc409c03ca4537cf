package web

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/vbonduro/stampcam/internal/domain"
)

const maxPhotoSize = 50 * 1024 * 1024 // 50 MB

// allowedImageTypes is the set of sniffed MIME types accepted as frames.
// net/http.DetectContentType handles JPEG and PNG via magic-byte sniffing.
// WebP is detected separately because the WHATWG sniff spec (and therefore
// the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

type shootResponse struct {
	Shot    shotJSON `json:"shot"`
	Checked bool     `json:"checked"`
	Focus   float64  `json:"focus"`
}

// handleShoot captures an uploaded frame for the active device. The form
// carries the frame in "image", the kind in "kind" and, for free kinds, the
// label in "label".
func (s *Server) handleShoot(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize+1024*1024)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		writeBadRequest(w, "failed to parse form", s.logger)
		return
	}

	kind, err := domain.KindFromInput(r.FormValue("kind"), r.FormValue("label"))
	if err != nil {
		s.writeError(w, "parse kind", err)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeBadRequest(w, "image file required", s.logger)
		return
	}
	defer closeWithLog(file, "upload file", s.logger)

	imageData, err := io.ReadAll(file)
	if err != nil {
		writeBadRequest(w, "failed to read file", s.logger)
		return
	}
	if _, ok := allowedImageMIME(imageData); !ok {
		writeBadRequest(w, "unsupported image format", s.logger)
		return
	}

	src, err := s.service.DecodeFrame(bytes.NewReader(imageData))
	if err != nil {
		s.writeError(w, "decode frame", err)
		return
	}

	res, err := s.service.Shoot(r.Context(), src, kind)
	if err != nil {
		s.writeError(w, "capture", err)
		return
	}
	writeJSON(w, http.StatusCreated, shootResponse{
		Shot:    toShotJSON(res.Shot),
		Checked: res.Checked,
		Focus:   res.Focus,
	}, s.logger)
}

func (s *Server) handleDeleteShot(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeBadRequest(w, "invalid shot id", s.logger)
		return
	}

	if err := s.service.DeleteShot(r.Context(), id); err != nil {
		s.writeError(w, "delete shot", err)
		return
	}
	s.thumbs.Delete(thumbCacheKey(id))
	w.WriteHeader(http.StatusNoContent)
}

type cachedImage struct {
	data []byte
	mime string
}

func thumbCacheKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (s *Server) handleGetThumb(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeBadRequest(w, "invalid shot id", s.logger)
		return
	}

	if v, ok := s.thumbs.Get(thumbCacheKey(id)); ok {
		s.metrics.ThumbCacheLookups.WithLabelValues("hit").Inc()
		img := v.(cachedImage)
		s.writeImage(w, id, img.mime, bytes.NewReader(img.data))
		return
	}
	s.metrics.ThumbCacheLookups.WithLabelValues("miss").Inc()

	reader, mimeType, err := s.service.ShotImage(r.Context(), id, true)
	if err != nil {
		s.writeError(w, "get thumbnail", err)
		return
	}
	defer closeWithLog(reader, "thumbnail reader", s.logger)

	data, err := io.ReadAll(reader)
	if err != nil {
		s.writeError(w, "read thumbnail", err)
		return
	}
	s.thumbs.SetDefault(thumbCacheKey(id), cachedImage{data: data, mime: mimeType})
	s.writeImage(w, id, mimeType, bytes.NewReader(data))
}

func (s *Server) handleGetFull(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeBadRequest(w, "invalid shot id", s.logger)
		return
	}

	reader, mimeType, err := s.service.ShotImage(r.Context(), id, false)
	if err != nil {
		s.writeError(w, "get photo", err)
		return
	}
	defer closeWithLog(reader, "photo reader", s.logger)
	s.writeImage(w, id, mimeType, reader)
}

func (s *Server) writeImage(w http.ResponseWriter, id int64, mimeType string, r io.Reader) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := io.Copy(w, r); err != nil {
		s.logger.Error("write photo failed", "shot_id", id, "error", err)
	}
}

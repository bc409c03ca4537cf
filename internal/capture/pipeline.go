// Package capture turns a frame into a persisted shot: a full-size JPEG, a
// bounded thumbnail and the shot record that ties them to a device.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"time"

	"github.com/vbonduro/stampcam/internal/config"
	"github.com/vbonduro/stampcam/internal/domain"
	"github.com/vbonduro/stampcam/internal/photostore"
)

const jpegMIME = "image/jpeg"

type shotRepository interface {
	Create(ctx context.Context, shot *domain.Shot) (*domain.Shot, error)
	Delete(ctx context.Context, id int64) error
}

type metaRepository interface {
	SetLastShot(ctx context.Context, id *int64) error
}

type recomputer interface {
	Recompute(ctx context.Context, deviceKey string) (bool, error)
}

// encodeFunc writes img as JPEG at quality q.
type encodeFunc func(w io.Writer, img image.Image, q int) error

func encodeJPEG(w io.Writer, img image.Image, q int) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: q})
}

type Pipeline struct {
	photos     photostore.PhotoStore
	shots      shotRepository
	meta       metaRepository
	completion recomputer
	opts       config.Capture
	encode     encodeFunc
	now        func() time.Time
	logger     *slog.Logger
}

func NewPipeline(
	photos photostore.PhotoStore,
	shots shotRepository,
	meta metaRepository,
	completion recomputer,
	opts config.Capture,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		photos:     photos,
		shots:      shots,
		meta:       meta,
		completion: completion,
		opts:       opts,
		encode:     encodeJPEG,
		now:        time.Now,
		logger:     logger,
	}
}

// Result is a captured shot plus the device's completion state afterwards.
type Result struct {
	Shot    *domain.Shot
	Checked bool
	// Focus is the measured focus score, or 0 when the gate is disabled.
	Focus float64
}

// Capture renders src, encodes the full image and its thumbnail, stores both
// and records the shot against deviceKey. Nothing is persisted when encoding
// fails, the focus gate rejects the frame, or any store write fails.
func (p *Pipeline) Capture(ctx context.Context, src FrameSource, deviceKey string, kind domain.Kind) (*Result, error) {
	if kind.IsZero() {
		return nil, fmt.Errorf("%w: shot kind required", domain.ErrInvalidInput)
	}

	w, h := src.Dimensions()
	if w <= 0 || h <= 0 {
		w, h = p.opts.DefaultWidth, p.opts.DefaultHeight
	}
	if err := checkFrameSize(w, h, p.opts.MaxFrameSide); err != nil {
		return nil, err
	}

	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := src.Render(frame); err != nil {
		return nil, fmt.Errorf("%w: render frame: %w", domain.ErrEncoding, err)
	}

	var focus float64
	if p.opts.BlurThreshold > 0 {
		focus = FocusScore(frame)
		if focus < p.opts.BlurThreshold {
			p.logger.Info("capture rejected by focus gate",
				"device_key", deviceKey, "kind", kind.String(), "score", focus)
			return nil, &domain.BlurError{Score: focus, Threshold: p.opts.BlurThreshold}
		}
	}

	full, err := p.encodeBytes(frame, p.opts.FullQuality)
	if err != nil {
		return nil, fmt.Errorf("full image: %w", err)
	}
	thumbImg := makeThumbnail(frame, p.opts.ThumbMaxSide)
	thumb, err := p.encodeBytes(thumbImg, p.opts.ThumbQuality)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: %w", err)
	}

	fullKey, err := p.photos.Save(ctx, "full", jpegMIME, bytes.NewReader(full))
	if err != nil {
		return nil, domain.StoreError("save full image", err)
	}
	thumbKey, err := p.photos.Save(ctx, "thumb", jpegMIME, bytes.NewReader(thumb))
	if err != nil {
		p.removeBlobs(ctx, fullKey)
		return nil, domain.StoreError("save thumbnail", err)
	}

	tb := thumbImg.Bounds()
	shot, err := p.shots.Create(ctx, &domain.Shot{
		DeviceKey: deviceKey,
		Kind:      kind,
		CreatedAt: p.now(),
		Full:      domain.ImageRef{StorageKey: fullKey, MimeType: jpegMIME, Width: w, Height: h},
		FullSize:  int64(len(full)),
		Thumb:     domain.ImageRef{StorageKey: thumbKey, MimeType: jpegMIME, Width: tb.Dx(), Height: tb.Dy()},
	})
	if err != nil {
		p.removeBlobs(ctx, fullKey, thumbKey)
		return nil, domain.StoreError("create shot", err)
	}

	checked, err := p.completion.Recompute(ctx, deviceKey)
	if err != nil {
		p.rollback(ctx, shot)
		return nil, err
	}

	if err := p.meta.SetLastShot(ctx, &shot.ID); err != nil {
		if p.rollback(ctx, shot) {
			if _, rerr := p.completion.Recompute(ctx, deviceKey); rerr != nil {
				p.logger.Error("failed to recompute after rollback", "device_key", deviceKey, "error", rerr)
			}
		}
		return nil, domain.StoreError("set last shot", err)
	}

	p.logger.Info("shot captured",
		"shot_id", shot.ID,
		"device_key", deviceKey,
		"kind", kind.String(),
		"width", w,
		"height", h,
		"bytes", len(full),
		"checked", checked,
	)
	return &Result{Shot: shot, Checked: checked, Focus: focus}, nil
}

// Decode reads an uploaded frame, applying the configured size limit.
func (p *Pipeline) Decode(r io.Reader) (*ImageSource, error) {
	return DecodeImage(r, p.opts.MaxFrameSide)
}

func (p *Pipeline) encodeBytes(img image.Image, q int) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.encode(&buf, img, q); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEncoding, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: encoder produced no data", domain.ErrEncoding)
	}
	return buf.Bytes(), nil
}

// rollback removes a shot row written by a capture that then failed, and its
// blobs once the row is gone. It reports whether the row was removed.
func (p *Pipeline) rollback(ctx context.Context, shot *domain.Shot) bool {
	if err := p.shots.Delete(ctx, shot.ID); err != nil {
		p.logger.Error("failed to roll back shot", "shot_id", shot.ID, "error", err)
		return false
	}
	p.removeBlobs(ctx, shot.Full.StorageKey, shot.Thumb.StorageKey)
	return true
}

// removeBlobs deletes blobs saved for a shot whose record was never kept.
func (p *Pipeline) removeBlobs(ctx context.Context, keys ...string) {
	for _, k := range keys {
		if err := p.photos.Delete(ctx, k); err != nil {
			p.logger.Error("failed to remove orphaned blob", "storage_key", k, "error", err)
		}
	}
}

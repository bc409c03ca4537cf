package capture

import (
	"bytes"
	"fmt"
	"image"
	"io"

	_ "image/png" // registers the PNG decoder

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/vbonduro/stampcam/internal/domain"
)

// FrameSource is anything that can paint a still frame. Dimensions may report
// zero when the source does not know its size yet; the pipeline then uses the
// configured default.
type FrameSource interface {
	Dimensions() (width, height int)
	// Render paints the frame scaled to fill dst.
	Render(dst *image.RGBA) error
}

// ImageSource is a FrameSource backed by an already decoded image.
type ImageSource struct {
	img image.Image
}

// DecodeImage reads a JPEG, PNG or WebP frame. The header is checked before
// any pixels are decoded; a frame wider or taller than maxSide is rejected.
// maxSide <= 0 means no limit.
func DecodeImage(r io.Reader, maxSide int) (*ImageSource, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, fmt.Errorf("%w: decode frame: %v", domain.ErrInvalidInput, err)
	}
	if err := checkFrameSize(cfg.Width, cfg.Height, maxSide); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return nil, fmt.Errorf("%w: decode frame: %v", domain.ErrInvalidInput, err)
	}
	return &ImageSource{img: img}, nil
}

func checkFrameSize(w, h, maxSide int) error {
	if maxSide > 0 && (w > maxSide || h > maxSide) {
		return fmt.Errorf("%w: frame %dx%d exceeds %d pixels per side", domain.ErrInvalidInput, w, h, maxSide)
	}
	return nil
}

func (s *ImageSource) Dimensions() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

func (s *ImageSource) Render(dst *image.RGBA) error {
	sb := s.img.Bounds()
	if sb.Empty() {
		return fmt.Errorf("%w: empty frame", domain.ErrInvalidInput)
	}
	if sb.Size() == dst.Bounds().Size() {
		xdraw.Draw(dst, dst.Bounds(), s.img, sb.Min, xdraw.Src)
		return nil
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), s.img, sb, xdraw.Src, nil)
	return nil
}

package capture

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// ThumbnailSize scales (w, h) so the longer side is at most maxSide. Images
// already within the bound keep their size; neither side drops below 1.
func ThumbnailSize(w, h, maxSide int) (int, int) {
	scale := math.Min(1, float64(maxSide)/float64(max(w, h)))
	tw := max(1, int(math.Round(float64(w)*scale)))
	th := max(1, int(math.Round(float64(h)*scale)))
	return tw, th
}

func makeThumbnail(src image.Image, maxSide int) *image.RGBA {
	b := src.Bounds()
	tw, th := ThumbnailSize(b.Dx(), b.Dy(), maxSide)
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

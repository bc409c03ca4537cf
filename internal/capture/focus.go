package capture

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// focusSide is the longer side of the grayscale copy the focus score is
// computed on.
const focusSide = 160

// FocusScore returns the variance of the 4-neighbour Laplacian over a
// grayscale downsample of img. Sharp images score high; flat or blurred ones
// approach zero. Images too small to measure score +Inf.
func FocusScore(img image.Image) float64 {
	b := img.Bounds()
	w, h := ThumbnailSize(b.Dx(), b.Dy(), focusSide)
	if w < 3 || h < 3 {
		return math.Inf(1)
	}

	gray := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, b, xdraw.Src, nil)

	var sum, sumSq float64
	n := 0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			c := float64(gray.GrayAt(x, y).Y)
			lap := float64(gray.GrayAt(x-1, y).Y) + float64(gray.GrayAt(x+1, y).Y) +
				float64(gray.GrayAt(x, y-1).Y) + float64(gray.GrayAt(x, y+1).Y) - 4*c
			sum += lap
			sumSq += lap * lap
			n++
		}
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}

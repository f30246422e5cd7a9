package capture

import "image"

// Default sampling strides for the quality metrics. Brightness tolerates a
// coarse grid; the Laplacian needs denser coverage to catch local contrast.
const (
	defaultBrightnessStride = 10
	defaultBlurStride       = 4
)

// Quality holds the two scores the gate decides on.
type Quality struct {
	Brightness float64 `json:"brightness"`
	Blur       float64 `json:"blur"`
}

// Scorer computes frame quality metrics. The zero value uses the default
// strides.
type Scorer struct {
	BrightnessStride int
	BlurStride       int
}

// Score computes both metrics for one frame. The frame is only read.
func (s Scorer) Score(img image.Image) Quality {
	return Quality{
		Brightness: Brightness(img, s.brightnessStride()),
		Blur:       BlurScore(img, s.blurStride()),
	}
}

func (s Scorer) brightnessStride() int {
	if s.BrightnessStride > 0 {
		return s.BrightnessStride
	}
	return defaultBrightnessStride
}

func (s Scorer) blurStride() int {
	if s.BlurStride > 0 {
		return s.BlurStride
	}
	return defaultBlurStride
}

// Brightness returns the mean luma (0-255) over a regular subsample grid,
// visiting every stride-th pixel on both axes.
func Brightness(img image.Image, stride int) float64 {
	if stride < 1 {
		stride = 1
	}
	bounds := img.Bounds()
	var sum float64
	var n int
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			sum += luma(img, x, y)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// BlurScore returns the population variance of the discrete Laplacian
// [[0,1,0],[1,-4,1],[0,1,0]] sampled at every stride-th interior pixel.
// The one-pixel border is skipped so the kernel always has four neighbors.
// Sharp images produce strong, uneven edge responses and therefore high
// variance; a uniform image scores zero, as does an image too small to have
// interior pixels.
func BlurScore(img image.Image, stride int) float64 {
	if stride < 1 {
		stride = 1
	}
	bounds := img.Bounds()
	var sum, sumSq float64
	var n int
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y += stride {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x += stride {
			center := luma(img, x, y)
			lap := luma(img, x, y-1) + luma(img, x, y+1) +
				luma(img, x-1, y) + luma(img, x+1, y) - 4*center
			sum += lap
			sumSq += lap * lap
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}

// luma converts a pixel to its 0-255 luma using the BT.601 weights.
func luma(img image.Image, x, y int) float64 {
	r, g, b, _ := img.At(x, y).RGBA()
	return 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
}

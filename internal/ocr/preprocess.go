package ocr

import (
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"
)

const (
	thresholdBlockSize = 11
	thresholdOffset    = 2
)

// Preprocess prepares an image for recognition: grayscale conversion for
// multi-channel sources, a 3x3 median denoise, then a Gaussian-weighted
// adaptive threshold that evens out lighting and paper texture.
func Preprocess(src image.Image) *image.Gray {
	gray := toGray(src)
	denoised := medianFilter3x3(gray)
	return adaptiveThreshold(denoised, thresholdBlockSize, thresholdOffset)
}

func toGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		out := image.NewGray(image.Rect(0, 0, g.Bounds().Dx(), g.Bounds().Dy()))
		for y := 0; y < out.Rect.Dy(); y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+out.Rect.Dx()], g.Pix[g.PixOffset(g.Rect.Min.X, g.Rect.Min.Y+y):])
		}
		return out
	}

	// imaging.Grayscale uses the 0.299/0.587/0.114 luma weights and always
	// returns a zero-origin NRGBA with R=G=B.
	nrgba := imaging.Grayscale(src)
	out := image.NewGray(nrgba.Rect)
	for i := 0; i < len(out.Pix); i++ {
		out.Pix[i] = nrgba.Pix[i*4]
	}
	return out
}

func medianFilter3x3(src *image.Gray) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(src.Rect)
	window := make([]int, 0, 9)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			window = window[:0]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					window = append(window, int(src.Pix[clamp(y+dy, h)*src.Stride+clamp(x+dx, w)]))
				}
			}
			sort.Ints(window)
			dst.Pix[y*dst.Stride+x] = uint8(window[4])
		}
	}
	return dst
}

// adaptiveThreshold sets a pixel to 255 when it is brighter than the
// Gaussian-weighted mean of its blockSize neighbourhood minus offset, else 0.
func adaptiveThreshold(src *image.Gray, blockSize, offset int) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	kernel := gaussianKernel(blockSize)
	radius := blockSize / 2

	horizontal := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k, weight := range kernel {
				sum += weight * float64(src.Pix[y*src.Stride+clamp(x+k-radius, w)])
			}
			horizontal[y*w+x] = sum
		}
	}

	dst := image.NewGray(src.Rect)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k, weight := range kernel {
				sum += weight * horizontal[clamp(y+k-radius, h)*w+x]
			}
			mean := int(math.Round(sum))
			if int(src.Pix[y*src.Stride+x]) > mean-offset {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst
}

// gaussianKernel returns a normalized 1-D kernel with the sigma OpenCV derives
// from the kernel size.
func gaussianKernel(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	radius := size / 2
	kernel := make([]float64, size)
	var total float64
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		total += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= total
	}
	return kernel
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

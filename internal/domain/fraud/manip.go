package fraud

import (
	"image"

	"github.com/ecowander/ecoproof/internal/domain/model"
	"github.com/ecowander/ecoproof/internal/platform/imagex"
)

// 3x3 edge detection kernel (discrete Laplacian, all-direction).
var edgeKernel = [9]int{
	-1, -1, -1,
	-1, 8, -1,
	-1, -1, -1,
}

// manipulation runs the cheap manipulation heuristics: transparency and
// metadata flags plus the variance of edge intensities.
func (s *Scorer) manipulation(img image.Image, path string) model.ManipulationFlags {
	flags := model.ManipulationFlags{
		HasTransparency: !imagex.Opaque(img),
		HasAlphaMeta:    hasAlphaChannel(img),
		HasThumbnail:    imagex.HasThumbnail(path),
	}
	if _, ok := imagex.EditingSoftwareTag(path); ok {
		flags.HasEditingSoftwareTag = true
	}

	flags.EdgeVariance = model.Round4(edgeVariance(img))
	flags.IsEdited = flags.EdgeVariance > s.edgeThreshold
	return flags
}

// hasAlphaChannel reports whether the decoded pixel layout carries an
// alpha channel at all, regardless of the pixel values.
func hasAlphaChannel(img image.Image) bool {
	switch img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.RGBA64, *image.Alpha, *image.Alpha16:
		return true
	default:
		return false
	}
}

// edgeVariance applies the edge kernel to the grayscale image and
// returns the variance of the clamped edge intensities. Border pixels
// are excluded; a degenerate image yields 0.
func edgeVariance(img image.Image) float64 {
	gray := imagex.Grayscale(img)
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	count := (w - 2) * (h - 2)
	sum := 0.0
	sumSq := 0.0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			acc := 0
			k := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					acc += edgeKernel[k] * int(gray.GrayAt(x+dx, y+dy).Y)
					k++
				}
			}
			// Clamp to the 8-bit intensity range, matching how image
			// filters store their output.
			if acc < 0 {
				acc = 0
			} else if acc > 255 {
				acc = 255
			}
			v := float64(acc)
			sum += v
			sumSq += v * v
		}
	}

	mean := sum / float64(count)
	return sumSq/float64(count) - mean*mean
}

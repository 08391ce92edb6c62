package fraud

import (
	"image"

	"github.com/ecowander/ecoproof/internal/platform/imagex"
)

// Hash computes the average perceptual hash of the image: grayscale,
// downsample to a size x size square, threshold each pixel against the
// mean, pack the bits four at a time into hex nibbles. The fingerprint
// is robust to minor re-encoding but not to geometric transforms.
func Hash(img image.Image, size int) string {
	small := imagex.DownsampleGray(img, size)

	total := 0
	n := size * size
	for i := 0; i < n; i++ {
		total += int(small.Pix[i])
	}
	mean := float64(total) / float64(n)

	// Pack row-major bits MSB-first into nibbles.
	buf := make([]byte, 0, n/4)
	nibble := 0
	for i := 0; i < n; i++ {
		nibble <<= 1
		if float64(small.Pix[i]) > mean {
			nibble |= 1
		}
		if i%4 == 3 {
			buf = append(buf, hexDigit(nibble))
			nibble = 0
		}
	}
	return string(buf)
}

func hexDigit(v int) byte {
	const digits = "0123456789abcdef"
	return digits[v&0xf]
}

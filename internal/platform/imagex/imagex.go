// Package imagex provides the image decode and metadata collaborator:
// pure, synchronous helpers for decoding files to pixel grids, scaling,
// and reading EXIF metadata.
package imagex

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	// Register the two supported codecs.
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// Formats the verifier accepts. Anything else decodes fine via extra
// registered codecs but is rejected by the classifier contract.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
)

// Decode reads the file at path and decodes it to a pixel grid.
// The returned format string is the registered codec name ("jpeg", "png").
func Decode(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, format, nil
}

// ToRGBA converts any image to RGBA, copying pixels when needed.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// AspectFit scales src into a w x h canvas preserving aspect ratio,
// centered on a black background.
func AspectFit(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return dst
	}

	// Fit the larger dimension, keep ratio.
	scaleX := float64(w) / float64(sb.Dx())
	scaleY := float64(h) / float64(sb.Dy())
	scale := scaleX
	if scaleY < scale {
		scale = scaleY
	}
	fitW := int(float64(sb.Dx()) * scale)
	fitH := int(float64(sb.Dy()) * scale)
	if fitW < 1 {
		fitW = 1
	}
	if fitH < 1 {
		fitH = 1
	}
	x0 := (w - fitW) / 2
	y0 := (h - fitH) / 2

	xdraw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+fitW, y0+fitH), src, sb, xdraw.Over, nil)
	return dst
}

// DownsampleGray converts src to grayscale and shrinks it to a
// size x size square.
func DownsampleGray(src image.Image, size int) *image.Gray {
	small := image.NewGray(image.Rect(0, 0, size, size))
	xdraw.ApproxBiLinear.Scale(small, small.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return small
}

// Grayscale converts src to an 8-bit grayscale image at full resolution.
func Grayscale(src image.Image) *image.Gray {
	b := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), src, b.Min, draw.Src)
	return gray
}

// Opaque reports whether every pixel of img is fully opaque.
func Opaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}

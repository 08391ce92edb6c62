package imagex_test

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ecowander/ecoproof/internal/platform/imagex"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestDecode(t *testing.T) {
	Convey("Given image decoding", t, func() {
		Convey("When a PNG file is decoded", func() {
			path := filepath.Join(t.TempDir(), "test.png")
			f, err := os.Create(path)
			So(err, ShouldBeNil)
			So(png.Encode(f, newTestImage(8, 6, color.RGBA{R: 10, G: 20, B: 30, A: 255})), ShouldBeNil)
			So(f.Close(), ShouldBeNil)

			img, format, err := imagex.Decode(path)

			Convey("Then the pixel grid and codec name come back", func() {
				So(err, ShouldBeNil)
				So(format, ShouldEqual, imagex.FormatPNG)
				So(img.Bounds().Dx(), ShouldEqual, 8)
				So(img.Bounds().Dy(), ShouldEqual, 6)
			})
		})

		Convey("When the file is not an image", func() {
			path := filepath.Join(t.TempDir(), "not-an-image.png")
			So(os.WriteFile(path, []byte("plain text"), 0o600), ShouldBeNil)

			_, _, err := imagex.Decode(path)

			So(err, ShouldWrap, imagex.ErrDecode)
		})

		Convey("When the file does not exist", func() {
			_, _, err := imagex.Decode(filepath.Join(t.TempDir(), "missing.png"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestAspectFit(t *testing.T) {
	Convey("Given aspect-preserving scaling", t, func() {
		Convey("When a wide image is fitted into a square", func() {
			src := newTestImage(40, 20, color.RGBA{R: 200, G: 200, B: 200, A: 255})
			dst := imagex.AspectFit(src, 32, 32)

			Convey("Then the canvas has the requested size", func() {
				So(dst.Bounds().Dx(), ShouldEqual, 32)
				So(dst.Bounds().Dy(), ShouldEqual, 32)
			})

			Convey("Then the letterbox bands stay black", func() {
				top := dst.RGBAAt(16, 0)
				So(top.R, ShouldEqual, uint8(0))
				So(top.G, ShouldEqual, uint8(0))
				So(top.B, ShouldEqual, uint8(0))
			})

			Convey("Then the center carries the source color", func() {
				center := dst.RGBAAt(16, 16)
				So(center.R, ShouldBeGreaterThan, uint8(150))
			})
		})
	})
}

func TestGrayscaleAndDownsample(t *testing.T) {
	Convey("Given grayscale conversion", t, func() {
		src := newTestImage(10, 10, color.RGBA{R: 120, G: 120, B: 120, A: 255})

		Convey("When converting at full resolution", func() {
			gray := imagex.Grayscale(src)
			So(gray.Bounds().Dx(), ShouldEqual, 10)
			So(gray.Bounds().Dy(), ShouldEqual, 10)
		})

		Convey("When downsampling to a fingerprint grid", func() {
			small := imagex.DownsampleGray(src, 16)
			So(small.Bounds().Dx(), ShouldEqual, 16)
			So(small.Bounds().Dy(), ShouldEqual, 16)
		})
	})
}

func TestOpaque(t *testing.T) {
	Convey("Given opacity detection", t, func() {
		Convey("When every pixel is fully opaque", func() {
			So(imagex.Opaque(newTestImage(4, 4, color.RGBA{R: 1, G: 2, B: 3, A: 255})), ShouldBeTrue)
		})

		Convey("When any pixel carries partial alpha", func() {
			So(imagex.Opaque(newTestImage(4, 4, color.RGBA{R: 1, G: 2, B: 3, A: 254})), ShouldBeFalse)
		})
	})
}

func TestGPS(t *testing.T) {
	Convey("Given EXIF GPS extraction", t, func() {
		Convey("When the file carries no EXIF block", func() {
			path := filepath.Join(t.TempDir(), "plain.png")
			f, err := os.Create(path)
			So(err, ShouldBeNil)
			So(png.Encode(f, newTestImage(4, 4, color.RGBA{A: 255})), ShouldBeNil)
			So(f.Close(), ShouldBeNil)

			_, _, ok, err := imagex.GPS(path)

			Convey("Then absence is a normal condition, not an error", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the file cannot be opened", func() {
			_, _, ok, err := imagex.GPS(filepath.Join(t.TempDir(), "missing.jpg"))
			So(err, ShouldNotBeNil)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestToRGBA(t *testing.T) {
	Convey("Given RGBA normalization", t, func() {
		Convey("When the input is already RGBA", func() {
			src := newTestImage(4, 4, color.RGBA{A: 255})
			So(imagex.ToRGBA(src), ShouldEqual, src)
		})

		Convey("When the input uses another pixel layout", func() {
			src := image.NewNRGBA(image.Rect(0, 0, 3, 3))
			out := imagex.ToRGBA(src)
			So(out.Bounds().Dx(), ShouldEqual, 3)
			So(out.Bounds().Dy(), ShouldEqual, 3)
		})
	})
}

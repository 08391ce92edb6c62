package imagex

import (
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// Software names that indicate the image passed through an editor.
var editingSoftware = []string{
	"photoshop",
	"lightroom",
	"gimp",
	"snapseed",
	"pixelmator",
	"affinity",
}

// GPS extracts the embedded GPS coordinate from the file's EXIF block.
// Hemisphere reference flags are already applied to the returned
// degrees. ok is false when the file carries no usable GPS data; err is
// reserved for I/O failures.
func GPS(path string) (lat, lon float64, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		// No EXIF block is a normal condition, not an error.
		return 0, 0, false, nil
	}

	lat, lon, err = x.LatLong()
	if err != nil {
		return 0, 0, false, nil
	}
	return lat, lon, true, nil
}

// HasThumbnail reports whether the file's EXIF block embeds a JPEG
// thumbnail.
func HasThumbnail(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return false
	}
	thumb, err := x.JpegThumbnail()
	return err == nil && len(thumb) > 0
}

// EditingSoftwareTag returns the EXIF Software tag value when it names
// a known image editor.
func EditingSoftwareTag(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return "", false
	}
	tag, err := x.Get(exif.Software)
	if err != nil {
		return "", false
	}
	val, err := tag.StringVal()
	if err != nil {
		return "", false
	}
	lowered := strings.ToLower(val)
	for _, name := range editingSoftware {
		if strings.Contains(lowered, name) {
			return val, true
		}
	}
	return "", false
}

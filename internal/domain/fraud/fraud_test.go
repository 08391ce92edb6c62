package fraud_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/ecowander/ecoproof/internal/domain/fraud"
	. "github.com/smartystreets/goconvey/convey"
)

// memStore is a minimal in-test hash store.
type memStore struct {
	seen map[string]bool
}

func newMemStore() *memStore {
	return &memStore{seen: make(map[string]bool)}
}

func (s *memStore) SeenAndRecord(_ context.Context, hash string) (bool, error) {
	if s.seen[hash] {
		return true, nil
	}
	s.seen[hash] = true
	return false, nil
}

func (s *memStore) Size(_ context.Context) (int64, error) {
	return int64(len(s.seen)), nil
}

// failStore always errors.
type failStore struct{}

func (failStore) SeenAndRecord(context.Context, string) (bool, error) {
	return false, errors.New("store unavailable")
}

func (failStore) Size(context.Context) (int64, error) {
	return 0, errors.New("store unavailable")
}

func uniformImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func splitImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{A: 255}
			if x >= w/2 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestHash(t *testing.T) {
	Convey("Given the perceptual hash", t, func() {
		img := splitImage(64, 64)

		Convey("Then hashing is deterministic", func() {
			So(fraud.Hash(img, 16), ShouldEqual, fraud.Hash(img, 16))
		})

		Convey("Then a 16x16 hash is 64 hex characters", func() {
			So(fraud.Hash(img, 16), ShouldHaveLength, 64)
		})

		Convey("Then structurally different images hash differently", func() {
			white := uniformImage(64, 64, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			So(fraud.Hash(img, 16), ShouldNotEqual, fraud.Hash(white, 16))
		})
	})
}

func TestScorerScore(t *testing.T) {
	Convey("Given a fraud scorer over a fresh hash store", t, func() {
		s := fraud.NewScorer(newMemStore())
		ctx := context.Background()
		img := splitImage(64, 64)

		Convey("When the image is seen for the first time", func() {
			result, err := s.Score(ctx, img, "")

			Convey("Then nothing is flagged", func() {
				So(err, ShouldBeNil)
				So(result.IsDuplicate, ShouldBeFalse)
				So(result.FraudScore, ShouldEqual, 0)
				So(result.ImageHash, ShouldNotBeEmpty)
			})
		})

		Convey("When the same image is submitted twice", func() {
			first, err := s.Score(ctx, img, "")
			So(err, ShouldBeNil)

			second, err := s.Score(ctx, img, "")

			Convey("Then the resubmission scores as a duplicate", func() {
				So(err, ShouldBeNil)
				So(second.IsDuplicate, ShouldBeTrue)
				So(second.FraudScore, ShouldEqual, 0.9)
				So(second.ImageHash, ShouldEqual, first.ImageHash)
			})
		})

		Convey("When there is no decoded image", func() {
			result, err := s.Score(ctx, nil, "")

			Convey("Then the scorer fails toward suspicion", func() {
				So(err, ShouldWrap, fraud.ErrAnalysis)
				So(result.FraudScore, ShouldEqual, 0.5)
			})
		})

		Convey("When a uniform image passes the edge heuristic", func() {
			flat := uniformImage(32, 32, color.RGBA{R: 80, G: 80, B: 80, A: 255})
			result, err := s.Score(ctx, flat, "")

			So(err, ShouldBeNil)
			So(result.Manipulation.IsEdited, ShouldBeFalse)
			So(result.Manipulation.EdgeVariance, ShouldEqual, 0)
		})

		Convey("When the image carries transparency", func() {
			transparent := uniformImage(32, 32, color.RGBA{R: 80, G: 80, B: 80, A: 128})
			result, err := s.Score(ctx, transparent, "")

			So(err, ShouldBeNil)
			So(result.Manipulation.HasTransparency, ShouldBeTrue)
		})
	})

	Convey("Given a fraud scorer over a failing hash store", t, func() {
		s := fraud.NewScorer(failStore{})

		Convey("When scoring any image", func() {
			result, err := s.Score(context.Background(), splitImage(32, 32), "")

			Convey("Then the result degrades conservatively with the hash kept", func() {
				So(err, ShouldWrap, fraud.ErrStore)
				So(result.FraudScore, ShouldEqual, 0.5)
				So(result.ImageHash, ShouldNotBeEmpty)
			})
		})
	})

	Convey("Given a scorer with a custom edited score", t, func() {
		s := fraud.NewScorer(newMemStore(),
			fraud.WithEditedScore(0.35),
			fraud.WithEdgeVarianceThreshold(0.0001),
		)

		Convey("When a high-contrast image trips the edge heuristic", func() {
			result, err := s.Score(context.Background(), splitImage(64, 64), "")

			Convey("Then the configured edited score applies", func() {
				So(err, ShouldBeNil)
				So(result.Manipulation.IsEdited, ShouldBeTrue)
				So(result.FraudScore, ShouldEqual, 0.35)
			})
		})
	})
}

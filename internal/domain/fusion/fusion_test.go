package fusion_test

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ecowander/ecoproof/internal/domain/classify"
	"github.com/ecowander/ecoproof/internal/domain/fraud"
	"github.com/ecowander/ecoproof/internal/domain/fusion"
	"github.com/ecowander/ecoproof/internal/domain/geo"
	"github.com/ecowander/ecoproof/internal/domain/model"
	"github.com/ecowander/ecoproof/internal/domain/rules"
	. "github.com/smartystreets/goconvey/convey"
)

var testLabels = []string{
	"invalid_action",
	"valid_recycling",
	"valid_composting",
	"valid_conservation",
	"cherry_blossom_activity",
}

var tokyoRecyclingCenter = model.Coordinate{Lat: 35.682839, Lon: 139.759455}

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

func noGPS(string) (float64, float64, bool, error) {
	return 0, 0, false, nil
}

// writePNG writes a uniform test image to a temp file.
func writePNG(t *testing.T, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "submission.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode image: %v", err)
	}
	return path
}

// newEngine wires an engine over real collaborators with a static model.
func newEngine(t *testing.T) *fusion.Engine {
	t.Helper()
	m := classify.NewStaticModel(
		classify.WithOutputs([]float32{0.05, 0.85, 0.04, 0.03, 0.03}),
		classify.WithInputShape(32, 32),
	)
	classifier, err := classify.New(m, testLabels)
	if err != nil {
		t.Fatalf("build classifier: %v", err)
	}
	return fusion.New(
		classifier,
		rules.NewRegistry(),
		geo.NewScorer(geo.WithGPSReader(noGPS)),
		fraud.NewScorer(newMemStore()),
	)
}

func TestEngineVerify(t *testing.T) {
	Convey("Given an engine over real collaborators", t, func() {
		e := newEngine(t)
		ctx := context.Background()
		imagePath := writePNG(t, color.RGBA{R: 180, G: 180, B: 180, A: 255})

		Convey("When a clean recycling submission arrives at a known location", func() {
			req := model.VerificationRequest{
				ImagePath:     imagePath,
				ChallengeType: "recycling",
				UserID:        "user-1",
				Claimed:       &tokyoRecyclingCenter,
			}
			result, err := e.Verify(ctx, req)

			Convey("Then the submission is verified", func() {
				So(err, ShouldBeNil)
				So(result.IsVerified, ShouldBeTrue)
				So(result.ID, ShouldNotBeEmpty)
				So(result.Degraded, ShouldBeNil)
			})

			Convey("Then each signal is reported in full", func() {
				So(err, ShouldBeNil)
				So(result.Classification.PredictedClass, ShouldEqual, "valid_recycling")
				So(result.Classification.IsValid, ShouldBeTrue)
				So(result.Location.Score, ShouldEqual, 1.0)
				So(result.Location.TimestampValid, ShouldBeTrue)
				So(result.Fraud.IsDuplicate, ShouldBeFalse)
				So(result.Fraud.FraudScore, ShouldEqual, 0)
			})

			Convey("Then the overall score stays in the unit interval", func() {
				So(err, ShouldBeNil)
				So(result.OverallScore, ShouldBeGreaterThan, 0)
				So(result.OverallScore, ShouldBeLessThanOrEqualTo, 1)
			})
		})

		Convey("When the same photo is submitted twice", func() {
			req := model.VerificationRequest{
				ImagePath:     imagePath,
				ChallengeType: "recycling",
				Claimed:       &tokyoRecyclingCenter,
			}
			first, err := e.Verify(ctx, req)
			So(err, ShouldBeNil)
			So(first.IsVerified, ShouldBeTrue)

			second, err := e.Verify(ctx, req)

			Convey("Then the resubmission is rejected as a duplicate", func() {
				So(err, ShouldBeNil)
				So(second.IsVerified, ShouldBeFalse)
				So(second.Fraud.IsDuplicate, ShouldBeTrue)
				So(second.Fraud.FraudScore, ShouldEqual, 0.9)
			})
		})

		Convey("When the submission carries no location at all", func() {
			req := model.VerificationRequest{
				ImagePath:     imagePath,
				ChallengeType: "recycling",
			}
			result, err := e.Verify(ctx, req)

			Convey("Then the location signal degrades and gates the decision", func() {
				So(err, ShouldBeNil)
				So(result.IsVerified, ShouldBeFalse)
				So(result.Location.Score, ShouldEqual, 0)
				So(result.Degraded, ShouldContainKey, "location")
			})

			Convey("Then the other signals still ran", func() {
				So(err, ShouldBeNil)
				So(result.Classification.PredictedClass, ShouldEqual, "valid_recycling")
				So(result.Fraud.ImageHash, ShouldNotBeEmpty)
			})
		})

		Convey("When the submission is far from every known location", func() {
			faraway := model.Coordinate{Lat: 0, Lon: 0}
			req := model.VerificationRequest{
				ImagePath:     imagePath,
				ChallengeType: "recycling",
				Claimed:       &faraway,
			}
			result, err := e.Verify(ctx, req)

			So(err, ShouldBeNil)
			So(result.IsVerified, ShouldBeFalse)
			So(result.Location.Score, ShouldEqual, 0)
		})

		Convey("When the request is structurally invalid", func() {
			req := model.VerificationRequest{ImagePath: imagePath}
			_, err := e.Verify(ctx, req)

			So(err, ShouldWrap, model.ErrValidation)
		})

		Convey("When the image file does not exist", func() {
			req := model.VerificationRequest{
				ImagePath:     filepath.Join(t.TempDir(), "missing.png"),
				ChallengeType: "recycling",
				Claimed:       &tokyoRecyclingCenter,
			}
			_, err := e.Verify(ctx, req)

			So(err, ShouldWrap, model.ErrValidation)
		})
	})

	Convey("Given an engine with a byte limit on images", t, func() {
		m := classify.NewStaticModel(
			classify.WithOutputs([]float32{0.05, 0.85, 0.04, 0.03, 0.03}),
			classify.WithInputShape(32, 32),
		)
		classifier, err := classify.New(m, testLabels)
		So(err, ShouldBeNil)

		e := fusion.New(
			classifier,
			rules.NewRegistry(),
			geo.NewScorer(geo.WithGPSReader(noGPS)),
			fraud.NewScorer(newMemStore()),
			fusion.WithMaxImageBytes(10),
		)

		Convey("When the image exceeds the limit", func() {
			req := model.VerificationRequest{
				ImagePath:     writePNG(t, color.RGBA{R: 180, G: 180, B: 180, A: 255}),
				ChallengeType: "recycling",
				Claimed:       &tokyoRecyclingCenter,
			}
			_, err := e.Verify(context.Background(), req)

			So(err, ShouldWrap, model.ErrValidation)
		})
	})
}

func TestWeights(t *testing.T) {
	Convey("Given the fusion weights", t, func() {
		w := fusion.DefaultWeights()

		Convey("Then higher confidence never lowers the overall score", func() {
			So(w.Combine(0.9, 0.5, 0.1), ShouldBeGreaterThan, w.Combine(0.8, 0.5, 0.1))
		})

		Convey("Then higher fraud always lowers the overall score", func() {
			So(w.Combine(0.8, 0.5, 0.9), ShouldBeLessThan, w.Combine(0.8, 0.5, 0.1))
		})

		Convey("Then unit inputs combine to the unit score", func() {
			So(w.Combine(1, 1, 0), ShouldAlmostEqual, 1.0, 0.0001)
		})

		Convey("When non-normalized weights are combined", func() {
			skew := fusion.Weights{Confidence: 4, Location: 3, Fraud: 3}
			scaled := fusion.Weights{Confidence: 8, Location: 6, Fraud: 6}

			Convey("Then combination is invariant under scaling", func() {
				So(skew.Combine(0.85, 1.0, 0), ShouldAlmostEqual, scaled.Combine(0.85, 1.0, 0), 0.0001)
			})
		})
	})
}

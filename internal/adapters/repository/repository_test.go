package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ecowander/ecoproof/internal/adapters/repository"
	"github.com/ecowander/ecoproof/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryHashStore(t *testing.T) {
	Convey("Given a new in-memory hash store", t, func() {
		s := repository.NewInMemoryHashStore()
		ctx := context.Background()

		Convey("When a fingerprint is recorded for the first time", func() {
			seen, err := s.SeenAndRecord(ctx, "hash-1")

			So(err, ShouldBeNil)
			So(seen, ShouldBeFalse)

			size, err := s.Size(ctx)
			So(err, ShouldBeNil)
			So(size, ShouldEqual, 1)
		})

		Convey("When the same fingerprint is recorded again", func() {
			_, err := s.SeenAndRecord(ctx, "hash-1")
			So(err, ShouldBeNil)

			seen, err := s.SeenAndRecord(ctx, "hash-1")
			So(err, ShouldBeNil)
			So(seen, ShouldBeTrue)

			size, err := s.Size(ctx)
			So(err, ShouldBeNil)
			So(size, ShouldEqual, 1)
		})

		Convey("When many goroutines race on one fingerprint", func() {
			const workers = 100
			var wg sync.WaitGroup
			newCount := make(chan struct{}, workers)

			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					seen, err := s.SeenAndRecord(ctx, "contested")
					if err == nil && !seen {
						newCount <- struct{}{}
					}
				}()
			}
			wg.Wait()
			close(newCount)

			Convey("Then exactly one caller sees it as new", func() {
				So(len(newCount), ShouldEqual, 1)
			})
		})

		Convey("When distinct fingerprints are recorded concurrently", func() {
			const workers = 50
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					_, _ = s.SeenAndRecord(ctx, fmt.Sprintf("hash-%d", n))
				}(i)
			}
			wg.Wait()

			size, err := s.Size(ctx)
			So(err, ShouldBeNil)
			So(size, ShouldEqual, workers)
		})
	})
}

func TestInMemoryResultStore(t *testing.T) {
	Convey("Given a new in-memory result store", t, func() {
		s := repository.NewInMemoryResultStore()
		ctx := context.Background()

		result := model.VerificationResult{
			ID:            "job-1",
			IsVerified:    true,
			OverallScore:  0.94,
			ChallengeType: "recycling",
			GeneratedAt:   time.Now().UTC(),
		}

		Convey("When a result is stored", func() {
			So(s.Put(ctx, result), ShouldBeNil)

			Convey("Then it can be read back by id", func() {
				got, err := s.Get(ctx, "job-1")
				So(err, ShouldBeNil)
				So(got, ShouldResemble, result)
			})

			Convey("Then the count reflects it", func() {
				So(s.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When an unknown id is requested", func() {
			_, err := s.Get(ctx, "nope")

			So(err, ShouldWrap, repository.ErrNotFound)
		})

		Convey("When a result is stored twice under one id", func() {
			So(s.Put(ctx, result), ShouldBeNil)
			updated := result
			updated.IsVerified = false
			So(s.Put(ctx, updated), ShouldBeNil)

			Convey("Then the last write wins and the count stays stable", func() {
				got, err := s.Get(ctx, "job-1")
				So(err, ShouldBeNil)
				So(got.IsVerified, ShouldBeFalse)
				So(s.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When results land on different shards concurrently", func() {
			const workers = 64
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					r := model.VerificationResult{ID: fmt.Sprintf("job-%d", n)}
					_ = s.Put(ctx, r)
				}(i)
			}
			wg.Wait()

			So(s.Count(ctx), ShouldEqual, workers)
		})
	})
}

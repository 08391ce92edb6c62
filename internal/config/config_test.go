package config_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ecowander/ecoproof/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	Convey("Given a fresh default configuration", t, func() {
		cfg := config.New(context.Background())

		Convey("Then the service defaults are set", func() {
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.QueueSize, ShouldEqual, 10_000)
			So(cfg.WorkerCount, ShouldEqual, runtime.NumCPU()*2)
		})

		Convey("Then the model defaults match the frozen contract", func() {
			So(cfg.ModelPath, ShouldBeEmpty)
			So(cfg.LabelPath, ShouldEqual, "models/label_map.txt")
			So(cfg.InputWidth, ShouldEqual, 224)
			So(cfg.InputHeight, ShouldEqual, 224)
		})

		Convey("Then the verification policy defaults are set", func() {
			So(cfg.MinConfidence, ShouldEqual, 0.7)
			So(cfg.PinkRatioThreshold, ShouldEqual, 0.08)
			So(cfg.MaxDistanceMeters, ShouldEqual, 100.0)
			So(cfg.LocationMinScore, ShouldEqual, 0.7)
			So(cfg.TimestampMaxAgeSec, ShouldEqual, 86_400)
			So(cfg.HashSize, ShouldEqual, 16)
			So(cfg.EdgeVarianceThreshold, ShouldEqual, 500.0)
			So(cfg.FraudMaxScore, ShouldEqual, 0.5)
			So(cfg.ConfidenceWeight+cfg.LocationWeight+cfg.FraudWeight, ShouldAlmostEqual, 1.0, 0.0001)
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given configuration loading", t, func() {
		Convey("When no file or env overrides exist", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then defaults survive unchanged", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":9080")
				So(cfg.HashSize, ShouldEqual, 16)
			})
		})

		Convey("When env vars override defaults", func() {
			t.Setenv("ECOPROOF_ADDR", ":7777")
			t.Setenv("ECOPROOF_WORKER_COUNT", "7")
			t.Setenv("ECOPROOF_REDIS_ADDR", "localhost:6379")

			cfg, err := config.Load(context.Background())

			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7777")
			So(cfg.WorkerCount, ShouldEqual, 7)
			So(cfg.RedisAddr, ShouldEqual, "localhost:6379")
		})

		Convey("When a YAML file is layered under env vars", func() {
			path := filepath.Join(t.TempDir(), "config.yaml")
			So(os.WriteFile(path, []byte("addr: \":6666\"\nqueue_size: 500\n"), 0o600), ShouldBeNil)
			t.Setenv("ECOPROOF_CONFIG", path)
			t.Setenv("ECOPROOF_ADDR", ":7777")

			cfg, err := config.Load(context.Background())

			Convey("Then env wins over file, file wins over defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7777")
				So(cfg.QueueSize, ShouldEqual, 500)
			})
		})

		Convey("When the config file does not exist", func() {
			t.Setenv("ECOPROOF_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(context.Background())

			So(err, ShouldWrap, config.ErrLoadConfig)
		})

		Convey("When a value fails validation", func() {
			t.Setenv("ECOPROOF_CONFIG", "")
			t.Setenv("ECOPROOF_HASH_SIZE", "-1")

			_, err := config.Load(context.Background())

			So(err, ShouldWrap, config.ErrInvalidConfig)
		})

		Convey("When the season window is malformed", func() {
			t.Setenv("ECOPROOF_CONFIG", "")
			t.Setenv("ECOPROOF_SEASON_START_MONTH", "13")

			_, err := config.Load(context.Background())

			So(err, ShouldWrap, config.ErrInvalidConfig)
		})
	})
}

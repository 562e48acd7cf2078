package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/rollcall/internal/config"
	"github.com/okian/rollcall/internal/domain/voice"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.Storage, convey.ShouldEqual, config.StorageFile)
			convey.So(cfg.DataDir, convey.ShouldEqual, "data")
			convey.So(cfg.RosterFile, convey.ShouldEqual, "students.csv")
			convey.So(cfg.IDPrefix, convey.ShouldEqual, "R")
			convey.So(cfg.IDWidth, convey.ShouldEqual, 3)
			convey.So(cfg.StrictRoster, convey.ShouldBeFalse)
			convey.So(cfg.Corrections, convey.ShouldBeNil)
			convey.So(cfg.ShutdownTimeout, convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.LogOutput, convey.ShouldEqual, config.LogOutputStdout)
			convey.So(cfg.MetricsNamespace, convey.ShouldBeEmpty)
			convey.So(cfg.MetricsBuckets, convey.ShouldBeNil)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the default location is local time", func() {
			loc, err := cfg.Location()
			convey.So(err, convey.ShouldBeNil)
			convey.So(loc, convey.ShouldEqual, time.Local)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config with defaults", t, func() {
		cfg := config.New(context.Background())

		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"unknown storage", func(c *config.Config) { c.Storage = "postgres" }},
			{"empty sqlite path", func(c *config.Config) { c.Storage = config.StorageSQLite; c.SQLitePath = "" }},
			{"empty data dir", func(c *config.Config) { c.DataDir = "" }},
			{"two-letter prefix", func(c *config.Config) { c.IDPrefix = "RX" }},
			{"digit prefix", func(c *config.Config) { c.IDPrefix = "7" }},
			{"zero width", func(c *config.Config) { c.IDWidth = 0 }},
			{"wide width", func(c *config.Config) { c.IDWidth = 10 }},
			{"bad log level", func(c *config.Config) { c.LogLevel = "loud" }},
			{"bad log format", func(c *config.Config) { c.LogFormat = "xml" }},
			{"bad log output", func(c *config.Config) { c.LogOutput = "syslog" }},
			{"bad metrics namespace", func(c *config.Config) { c.MetricsNamespace = "roll-call" }},
			{"bad metrics subsystem", func(c *config.Config) { c.MetricsSubsystem = "9ledger" }},
			{"reserved metrics label", func(c *config.Config) { c.MetricsLabels = map[string]string{"__name": "x"} }},
			{"unsorted metrics buckets", func(c *config.Config) { c.MetricsBuckets = []float64{5, 1} }},
			{"unknown timezone", func(c *config.Config) { c.Timezone = "Mars/Olympus" }},
			{"empty correction", func(c *config.Config) { c.Corrections = []voice.Correction{{Wrong: " ", Right: "r"}} }},
		}
		for _, tc := range cases {
			convey.Convey("When the config has "+tc.name, func() {
				tc.mutate(cfg)

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When metrics are customized with valid values", func() {
			cfg.MetricsNamespace = "school"
			cfg.MetricsSubsystem = "attendance"
			cfg.MetricsLabels = map[string]string{"site": "north"}
			cfg.MetricsBuckets = []float64{1, 5, 25}

			convey.Convey("Then it validates", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the timezone is a valid name", func() {
			cfg.Timezone = "UTC"

			convey.Convey("Then it resolves", func() {
				loc, err := cfg.Location()
				convey.So(err, convey.ShouldBeNil)
				convey.So(loc, convey.ShouldEqual, time.UTC)
			})
		})
	})
}

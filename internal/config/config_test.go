package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/lodge/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.ContentDir, convey.ShouldBeEmpty)
			convey.So(cfg.CacheTTL, convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.MaxRetries, convey.ShouldEqual, 3)
			convey.So(cfg.RetryBaseDelay, convey.ShouldEqual, time.Second)
			convey.So(cfg.MinRealRecords, convey.ShouldEqual, 2)
			convey.So(cfg.ExcerptLength, convey.ShouldEqual, 150)
			convey.So(cfg.RefreshCron, convey.ShouldBeEmpty)
			convey.So(cfg.RecurrenceHorizonDays, convey.ShouldEqual, 90)
			convey.So(cfg.CalendarName, convey.ShouldEqual, "Lodge Events")
		})

		convey.Convey("Then the defaults should validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the default location should be UTC", func() {
			loc, err := cfg.Location()
			convey.So(err, convey.ShouldBeNil)
			convey.So(loc, convey.ShouldEqual, time.UTC)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with a single bad setting", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = " " }},
			{"zero cache ttl", func(c *config.Config) { c.CacheTTL = 0 }},
			{"negative retries", func(c *config.Config) { c.MaxRetries = -1 }},
			{"negative delay", func(c *config.Config) { c.RetryBaseDelay = -time.Second }},
			{"negative threshold", func(c *config.Config) { c.MinRealRecords = -1 }},
			{"zero excerpt", func(c *config.Config) { c.ExcerptLength = 0 }},
			{"zero horizon", func(c *config.Config) { c.RecurrenceHorizonDays = 0 }},
			{"bad format", func(c *config.Config) { c.LogFormat = "xml" }},
			{"bad timezone", func(c *config.Config) { c.Timezone = "Not/AZone" }},
			{"bad cron", func(c *config.Config) { c.RefreshCron = "every tuesday" }},
		}

		for _, tc := range cases {
			cfg := config.New()
			tc.mutate(cfg)
			convey.Convey("Then "+tc.name+" should be rejected as invalid", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("Then zero retries and a valid cron should be accepted", func() {
			cfg := config.New()
			cfg.MaxRetries = 0
			cfg.RefreshCron = "*/15 * * * *"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

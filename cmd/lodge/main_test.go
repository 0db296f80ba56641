package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	service "github.com/okian/lodge/internal/app"
	"github.com/okian/lodge/internal/config"
	"github.com/okian/lodge/internal/domain/fallback"
	"github.com/okian/lodge/internal/domain/model"
	"github.com/okian/lodge/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		ctx := context.Background()
		log := logger.Get()

		convey.Convey("When wiring the service over the embedded content", func() {
			cfg := config.New()
			svc, err := buildService(cfg, log)
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then every category should hold seed records", func() {
				st := svc.State()
				convey.So(st.Outcome, convey.ShouldNotEqual, service.OutcomeCritical)
				convey.So(len(st.GameMasters), convey.ShouldBeGreaterThanOrEqualTo, 3)
				convey.So(len(st.News), convey.ShouldBeGreaterThanOrEqualTo, 3)
				convey.So(len(st.Events), convey.ShouldBeGreaterThan, 0)
			})

			convey.Convey("Then the mux should serve the API and the OpenAPI document", func() {
				mux, err := newMux(ctx, cfg, svc, log)
				convey.So(err, convey.ShouldBeNil)

				srv := httptest.NewServer(mux)
				defer srv.Close()

				for _, path := range []string{"/api/state", "/api/news", "/calendar.ics", "/openapi.yaml", "/healthz"} {
					resp, err := http.Get(srv.URL + path)
					convey.So(err, convey.ShouldBeNil)
					_ = resp.Body.Close()
					convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				}
			})
		})

		convey.Convey("When wiring the service over a content directory", func() {
			dir := t.TempDir()
			for _, c := range []string{"events", "gamemasters", "news"} {
				convey.So(os.MkdirAll(filepath.Join(dir, c), 0o755), convey.ShouldBeNil)
			}
			writeFile(filepath.Join(dir, "news", "hello.md"), "---\ntitle: Hello\ndate: 2026-10-01\n---\nFirst post.\n")

			cfg := config.New()
			cfg.ContentDir = dir
			svc, err := buildService(cfg, log)
			convey.So(err, convey.ShouldBeNil)
			svc.LoadContent(ctx)

			convey.Convey("Then the directory record should lead and placeholders fill the rest", func() {
				st := svc.State()
				ids := make([]string, 0, len(st.News))
				for _, n := range st.News {
					ids = append(ids, n.ID)
				}
				convey.So(ids, convey.ShouldContain, "hello")
				convey.So(fallback.IsFallbackContent(st.Events), convey.ShouldBeTrue)
				convey.So(st.IsOffline, convey.ShouldBeFalse)
			})

			convey.Convey("Then losing the directory should mark the next cycle offline", func() {
				convey.So(os.RemoveAll(dir), convey.ShouldBeNil)
				svc.LoadContent(ctx)
				st := svc.State()
				convey.So(st.IsOffline, convey.ShouldBeTrue)
				convey.So(st.News, convey.ShouldNotBeEmpty)
			})

			convey.Convey("Then the news route should return the record as JSON", func() {
				mux, err := newMux(ctx, cfg, svc, log)
				convey.So(err, convey.ShouldBeNil)

				req := httptest.NewRequest(http.MethodGet, "/api/news", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				var news []model.NewsArticle
				convey.So(json.Unmarshal(w.Body.Bytes(), &news), convey.ShouldBeNil)
				convey.So(news, convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When the timezone is unknown", func() {
			cfg := config.New()
			cfg.Timezone = "Nowhere/Special"
			_, err := buildService(cfg, log)

			convey.Convey("Then wiring should fail", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When updating system metrics", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}

func writeFile(path, body string) {
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		panic(err)
	}
}

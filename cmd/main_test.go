package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/sopmatch/internal/adapters/http/api"
	app "github.com/okian/sopmatch/internal/app"
	"github.com/okian/sopmatch/internal/config"
	"github.com/okian/sopmatch/internal/domain/types"
	"github.com/okian/sopmatch/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func startedService(cfg *config.Config) *app.Service {
	ctx := context.Background()
	svc, err := newService(ctx, cfg)
	convey.So(err, convey.ShouldBeNil)
	convey.So(svc.Start(ctx), convey.ShouldBeNil)
	return svc
}

func TestNewService(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		cfg := config.New(context.Background())
		cfg.WorkerCount = 2

		convey.Convey("When building the service", func() {
			svc := startedService(cfg)
			defer svc.Stop()

			convey.Convey("Then the embedded catalog seeds the registry", func() {
				stats := svc.GetStats()
				convey.So(stats["started"], convey.ShouldEqual, true)
				convey.So(stats["reviewers"], convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When the sqlite driver is selected", func() {
			cfg.StoreDriver = config.StoreSQLite
			cfg.SQLitePath = filepath.Join(t.TempDir(), "sop.db")
			svc := startedService(cfg)
			defer svc.Stop()

			convey.Convey("Then submissions persist through the sqlite store", func() {
				_, created, err := svc.PutSubmission(context.Background(), types.Submission{ID: "sop-1", Text: "graph theory"})
				convey.So(err, convey.ShouldBeNil)
				convey.So(created, convey.ShouldBeTrue)
				convey.So(svc.GetStats()["submissions"], convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the catalog path does not exist", func() {
			cfg.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
			_, err := newService(context.Background(), cfg)

			convey.Convey("Then building fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestNewHandler(t *testing.T) {
	convey.Convey("Given the full HTTP handler", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.WorkerCount = 2
		cfg.MaxTopK = 3
		svc := startedService(cfg)
		defer svc.Stop()
		h := newHandler(ctx, cfg, svc)

		serve := func(method, target, body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(method, target, strings.NewReader(body))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			return w
		}

		convey.Convey("When a submission is stored and matched", func() {
			w := serve(http.MethodPost, "/submissions",
				`{"id":"sop-1","text":"I want to study deep learning for medical imaging","preferences":{"field":"machine learning"}}`)
			convey.So(w.Code, convey.ShouldEqual, http.StatusCreated)

			w = serve(http.MethodGet, "/matches/sop-1?top_k=3", "")

			convey.Convey("Then three ordered matches come back with a request id", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get(api.RequestIDHeader), convey.ShouldNotBeEmpty)

				var res types.MatchResult
				convey.So(json.Unmarshal(w.Body.Bytes(), &res), convey.ShouldBeNil)
				convey.So(res.Matches, convey.ShouldHaveLength, 3)
				for i := 1; i < len(res.Matches); i++ {
					convey.So(res.Matches[i-1].Score, convey.ShouldBeGreaterThanOrEqualTo, res.Matches[i].Score)
				}
			})

			convey.Convey("And top_k above max_top_k is rejected", func() {
				w := serve(http.MethodGet, "/matches/sop-1?top_k=4", "")
				convey.So(w.Code, convey.ShouldEqual, http.StatusBadRequest)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "limit_exceeded")
			})
		})

		convey.Convey("When the docs are requested", func() {
			w := serve(http.MethodGet, "/openapi.yaml", "")

			convey.Convey("Then the OpenAPI document is served", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "/matches/batch")
			})
		})
	})
}

func TestNewHandler_TopKBeyondPool(t *testing.T) {
	convey.Convey("Given the handler with the default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.WorkerCount = 2
		svc := startedService(cfg)
		defer svc.Stop()
		h := newHandler(ctx, cfg, svc)

		req := httptest.NewRequest(http.MethodPost, "/submissions", strings.NewReader(`{"id":"sop-1","text":"robotics and control"}`))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		convey.So(w.Code, convey.ShouldEqual, http.StatusCreated)

		convey.Convey("When top_k exceeds the pool size", func() {
			req := httptest.NewRequest(http.MethodPost, "/matches", strings.NewReader(`{"id":"sop-1","top_k":150}`))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			convey.Convey("Then the whole pool is returned", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				var res types.MatchResult
				convey.So(json.Unmarshal(w.Body.Bytes(), &res), convey.ShouldBeNil)
				convey.So(res.TopK, convey.ShouldEqual, 150)
				convey.So(res.Matches, convey.ShouldHaveLength, 10)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When running the system metrics updater until its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.Convey("Then it returns without panicking", func() {
				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When updating metrics directly", func() {
			svc := app.New()

			convey.Convey("Then neither update panics", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
				convey.So(func() {
					updateServiceMetrics(svc)
				}, convey.ShouldNotPanic)
			})
		})
	})
}

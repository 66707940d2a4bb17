package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/rugbysim/internal/config"
	"github.com/okian/rugbysim/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestNewService(t *testing.T) {
	convey.Convey("Given a loaded configuration", t, func() {
		_ = os.Setenv("RUGBYSIM_WORKER_COUNT", "2")
		_ = os.Setenv("RUGBYSIM_QUEUE_SIZE", "16")
		defer func() {
			_ = os.Unsetenv("RUGBYSIM_WORKER_COUNT")
			_ = os.Unsetenv("RUGBYSIM_QUEUE_SIZE")
		}()
		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the service is built from it", func() {
			svc, err := newService(cfg, logger.Get())

			convey.Convey("Then the embedded catalog is used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(svc.Catalog().Plays(), convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When the catalog path does not exist", func() {
			cfg.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
			svc, err := newService(cfg, logger.Get())

			convey.Convey("Then building fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(svc, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the catalog path holds a catalog", func() {
			src, err := os.ReadFile(filepath.Join("..", "internal", "domain", "catalog", "catalog.yaml"))
			convey.So(err, convey.ShouldBeNil)
			cfg.CatalogPath = filepath.Join(t.TempDir(), "catalog.yaml")
			convey.So(os.WriteFile(cfg.CatalogPath, src, 0o600), convey.ShouldBeNil)
			svc, err := newService(cfg, logger.Get())

			convey.Convey("Then the file catalog is loaded", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestNewServiceStorePath(t *testing.T) {
	convey.Convey("Given a configuration with a store path", t, func() {
		cfg := config.New()
		cfg.WorkerCount = 1
		cfg.StorePath = filepath.Join(t.TempDir(), "scans.db")

		convey.Convey("When the service starts", func() {
			svc, err := newService(cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
			svc.Stop()

			convey.Convey("Then scans are kept in the SQLite file", func() {
				_, err := os.Stat(cfg.StorePath)
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}

func TestRunLogLevel(t *testing.T) {
	convey.Convey("Given a configuration with an unknown log level", t, func() {
		cfg := config.New()
		cfg.LogLevel = "chatty"

		convey.Convey("When run starts", func() {
			err := run(context.Background(), cfg)

			convey.Convey("Then it stops before serving", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "log level")
			})
		})
	})
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given the assembled mux", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.WorkerCount = 1
		svc, err := newService(cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()
		mux := newMux(ctx, svc)

		for _, path := range []string{"/healthz", "/catalog", "/tree", "/openapi.yaml", "/api-docs", "/"} {
			convey.Convey("When GET "+path, func() {
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

				convey.Convey("Then it answers 200", func() {
					convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				})
			})
		}
	})
}

func TestWriteTimeout(t *testing.T) {
	convey.Convey("Given scan timeouts", t, func() {
		cfg := config.New()

		convey.Convey("When the scan timeout is short", func() {
			cfg.ScanTimeoutMS = 100
			convey.So(writeTimeoutFor(cfg), convey.ShouldEqual, 10*time.Second)
		})

		convey.Convey("When the scan timeout is long", func() {
			cfg.ScanTimeoutMS = 60_000
			convey.So(writeTimeoutFor(cfg), convey.ShouldEqual, 65*time.Second)
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("When it runs until its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("When a single update is applied", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}

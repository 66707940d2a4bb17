package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/okian/rugbysim/internal/adapters/http/api"
	app "github.com/okian/rugbysim/internal/app"
	"github.com/okian/rugbysim/internal/config"
	"github.com/okian/rugbysim/pkg/logger"
)

const localShutdownTimeout = 5 * time.Second

// localServer is an in-process service on a loopback port.
type localServer struct {
	URL string
	svc *app.Service
	srv *http.Server
}

// startLocal runs the service with the default configuration, overlaid by
// RUGBYSIM_* settings including the catalog and store paths, on 127.0.0.1.
func startLocal(ctx context.Context, seed int64) (*localServer, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := app.FromConfig(cfg, app.WithLogger(logger.Named("playbook")), app.WithSeed(seed))
	if err != nil {
		return nil, err
	}
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		svc.Stop()
		return nil, fmt.Errorf("listen: %w", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Get().Error(ctx, "local server stopped", logger.Error(err))
		}
	}()
	return &localServer{URL: "http://" + ln.Addr().String(), svc: svc, srv: srv}, nil
}

// Close stops the server and then the service.
func (l *localServer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), localShutdownTimeout)
	defer cancel()
	_ = l.srv.Shutdown(ctx)
	l.svc.Stop()
}

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// ServeConfig lists what the daemon runs. A server whose address is empty is not started.
type ServeConfig struct {
	GRPCAddr string
	GRPC     *grpc.Server
	HTTPAddr string
	HTTP     http.Handler

	// Background tasks share the servers' lifetime; the first error stops everything.
	Background []func(ctx context.Context) error
	// OnShutdown runs once the servers begin draining.
	OnShutdown      func()
	ShutdownTimeout time.Duration

	// OnListen is called with "grpc" or "http" for every listener opened.
	OnListen func(kind string, addr net.Addr)
}

// Serve runs the configured servers until ctx ends or one of them fails.
func Serve(ctx context.Context, cfg ServeConfig, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.GRPCAddr == "" && cfg.HTTPAddr == "" {
		return errors.New("no listen address configured")
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	listened := func(kind string, addr net.Addr) {
		logger.Info(kind+" listening", "addr", addr.String())
		if cfg.OnListen != nil {
			cfg.OnListen(kind, addr)
		}
	}

	var grpcLis, httpLis net.Listener
	if cfg.GRPCAddr != "" {
		l, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen grpc %s: %w", cfg.GRPCAddr, err)
		}
		grpcLis = l
	}
	if cfg.HTTPAddr != "" {
		l, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			if grpcLis != nil {
				_ = grpcLis.Close()
			}
			return fmt.Errorf("listen http %s: %w", cfg.HTTPAddr, err)
		}
		httpLis = l
	}

	g, gctx := errgroup.WithContext(ctx)
	if grpcLis != nil {
		listened("grpc", grpcLis.Addr())
		g.Go(func() error {
			if err := cfg.GRPC.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return err
			}
			return nil
		})
	}
	var httpServer *http.Server
	if httpLis != nil {
		httpServer = &http.Server{Handler: cfg.HTTP, ReadHeaderTimeout: 10 * time.Second}
		listened("http", httpLis.Addr())
		g.Go(func() error {
			if err := httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	for _, task := range cfg.Background {
		g.Go(func() error { return task(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		if cfg.OnShutdown != nil {
			cfg.OnShutdown()
		}
		if httpServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		}
		if grpcLis != nil {
			cfg.GRPC.GracefulStop()
		}
		return nil
	})
	return g.Wait()
}

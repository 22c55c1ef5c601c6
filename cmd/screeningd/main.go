package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/worldcheck-sorter/internal/async"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/common"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/core"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/export"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/ingest"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/pdftext"
	repo "github.com/joseph-ayodele/worldcheck-sorter/internal/repository"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/server"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/services/batch"
)

func main() {
	cfg := common.LoadConfig()

	// Setup structured logger that outputs messages with variables but no time/level
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	if err := os.MkdirAll(cfg.Batch.WorkRoot, 0o755); err != nil {
		logger.Error("failed to create work root", "dir", cfg.Batch.WorkRoot, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Job store: memory unless a SQL driver is configured
	var db *repo.DB
	if cfg.Store.Driver != repo.DriverMemory {
		var err error
		db, err = repo.Open(ctx, repo.Config{
			Driver:          cfg.Store.Driver,
			DSN:             cfg.Store.DSN,
			MaxConns:        cfg.Store.MaxConns,
			MinConns:        cfg.Store.MinConns,
			MaxConnLifetime: cfg.Store.MaxConnLifetime,
			MaxConnIdleTime: cfg.Store.MaxConnIdleTime,
			DialTimeout:     cfg.Store.DialTimeout,
		}, logger)
		if err != nil {
			logger.Error("failed to open job store", "driver", cfg.Store.Driver, "error", err)
			os.Exit(1)
		}
		defer db.Close(logger)

		if err := repo.HealthCheck(ctx, db, 5*time.Second, logger); err != nil {
			logger.Error("failed to ping job store", "error", err)
			os.Exit(1)
		}
	}
	jobsRepo := repo.NewBatchJobRepository(db, logger)

	text := pdftext.NewExtractor(pdftext.Config{
		Backend:   cfg.PDF.Backend,
		Pdftotext: cfg.PDF.Pdftotext,
		Validate:  cfg.PDF.Validate,
	}, logger)

	batchService, err := batch.NewService(batch.Config{
		WorkRoot:        cfg.Batch.WorkRoot,
		SpreadsheetName: cfg.Batch.SpreadsheetName,
		ArchiveName:     cfg.Batch.ArchiveName,
		MinArchiveBytes: cfg.Batch.MinArchiveBytes,
		RenameDefault:   cfg.Batch.RenameDefault,
		SourceRoots:     cfg.Batch.SourceRoots,
	}, ingest.NewFSStager(logger), jobsRepo, core.NewProcessor(logger, text), export.NewWriter(logger), logger)
	if err != nil {
		logger.Error("failed to build batch service", "error", err)
		os.Exit(1)
	}

	queue := async.NewProcessorQueue(batchService, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.Timeout),
	)
	batchService.SetQueue(queue)

	grpcServer := grpc.NewServer()
	server.RegisterBatchServiceServer(grpcServer, server.NewBatchServer(batchService, logger))

	// Register gRPC health service
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(server.BatchServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	if len(cfg.Batch.SourceRoots) == 0 {
		logger.Info("path submissions disabled, set SOURCE_ROOTS to enable them; uploads still accepted")
	}

	serveCfg := server.ServeConfig{
		GRPCAddr: cfg.Server.GRPCAddr,
		GRPC:     grpcServer,
		HTTPAddr: cfg.Server.HTTPAddr,
		HTTP: server.NewHTTPHandler(batchService, server.HTTPConfig{
			ArchiveName:       cfg.Batch.ArchiveName,
			CleanupOnDownload: cfg.Batch.CleanupOnDownload,
		}, logger),
		OnShutdown: healthServer.Shutdown,
	}
	if cfg.Batch.InboxDir != "" {
		serveCfg.Background = append(serveCfg.Background, func(ctx context.Context) error {
			return batchService.WatchInbox(ctx, batch.InboxConfig{
				Dir:         cfg.Batch.InboxDir,
				Debounce:    cfg.Batch.InboxDebounce,
				Rename:      cfg.Batch.RenameDefault,
				InitialScan: true,
			})
		})
	}

	if err := server.Serve(ctx, serveCfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
	}
	queue.Shutdown(context.Background())
	logger.Info("worldcheck screening daemon stopped")
}

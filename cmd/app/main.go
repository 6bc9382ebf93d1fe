package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfstudio/internal/artifact"
	"github.com/local/pdfstudio/internal/compress"
	cfgpkg "github.com/local/pdfstudio/internal/config"
	"github.com/local/pdfstudio/internal/dispatcher"
	"github.com/local/pdfstudio/internal/filetype"
	logpkg "github.com/local/pdfstudio/internal/logger"
	"github.com/local/pdfstudio/internal/metrics"
	"github.com/local/pdfstudio/internal/orchestrator"
	"github.com/local/pdfstudio/internal/queue"
	"github.com/local/pdfstudio/internal/render"
	"github.com/local/pdfstudio/internal/session"
	"github.com/local/pdfstudio/internal/statuscheck"
	"github.com/local/pdfstudio/internal/storage"
	"github.com/local/pdfstudio/internal/store"
	"github.com/local/pdfstudio/internal/workerpool"
)

func main() {
	cfg := cfgpkg.FromEnv()

	// Init logging
	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	metrics.Init()

	// Render worker pool; every open document binds to one worker.
	pool := workerpool.New(cfg.Pool.Size)
	defer pool.Destroy()

	// Queue
	rq, err := queue.NewRedisQueue(cfg.Queue.RedisURL, cfg.Queue.Stream, cfg.Queue.Group)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rq.Close()

	// Status store
	rs, err := store.NewRedisStatus(cfg.Queue.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init redis status store")
	}
	defer rs.Close()
	tours := store.NewTourStore(rs.Client())

	// Result artifacts: S3 when a bucket is configured, local disk otherwise.
	var s3c *storage.S3Client
	if cfg.Artifacts.S3Bucket != "" {
		s3c, err = storage.NewS3Client(context.Background(), cfg.Artifacts.S3Bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init s3 client")
		}
	}
	artifacts := artifact.New(cfg.Artifacts.Dir, s3c, cfg.Artifacts.Password)

	// Sessions
	renderer := render.New(cfg.Render.ThumbnailWidth)
	sessions := session.NewManager(pool, renderer, cfg.Session.TTL)
	defer sessions.CloseAll()
	go func() {
		ticker := time.NewTicker(cfg.Session.SweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			sessions.Sweep()
		}
	}()

	// Queue depth metrics
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if stream, dlq, err := rq.Depths(ctx); err == nil {
				metrics.SetQueueDepth("stream", stream)
				metrics.SetQueueDepth("dlq", dlq)
			}
			cancel()
		}
	}()

	detector := filetype.New(int64(cfg.Session.MaxUploadMB) << 20)
	orch := orchestrator.New(orchestrator.Dependencies{
		Sessions:  sessions,
		Detector:  detector,
		Queue:     rq,
		Status:    rs,
		Tours:     tours,
		Artifacts: artifacts,
		SpoolDir:  cfg.Artifacts.SpoolDir,
	})
	mux := http.NewServeMux()
	orch.RegisterRoutes(mux)
	mux.Handle("/metrics", metrics.Handler())

	checker := statuscheck.New(statuscheck.Options{
		Redis:    rq,
		S3Bucket: cfg.Artifacts.S3Bucket,
		SpoolDir: cfg.Artifacts.SpoolDir,
	})
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		sum := checker.Summary(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if !sum.OK() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(sum)
	})

	// Dispatcher worker (optional)
	runDispatcher := os.Getenv("RUN_DISPATCHER")
	if runDispatcher == "" || runDispatcher == "1" || runDispatcher == "true" {
		runner := dispatcher.NewRunner(compress.New(pool), artifacts)
		disp := dispatcher.New(dispatcher.Config{
			Concurrency: cfg.Worker.Concurrency,
			JobTimeout:  cfg.Worker.JobTimeout,
		}, rq, rs, runner)
		disp.Start()
		defer disp.Stop(context.Background())
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: mux}

	go func() {
		log.Info().Msgf("HTTP server listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("shutdown complete")
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"filmdecks-backend/internal/bootstrap"
	"filmdecks-backend/internal/queue"
	"filmdecks-backend/internal/shared/config"
	"filmdecks-backend/internal/workerproc"
)

func main() {
	cfg := config.Load()
	if strings.TrimSpace(cfg.AnalysisQueueURL) == "" {
		log.Fatal("ANALYSIS_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.AnalysisQueueURL)
	if err != nil {
		log.Fatalf("sqs client: %v", err)
	}

	enricher, err := bootstrap.BuildEnricher(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap worker: %v", err)
	}
	defer enricher.Close()

	w := &workerproc.Worker{
		Source:   source,
		Enricher: enricher.Service,
		Opts:     optionsFromEnv(os.Getenv),
	}
	log.Printf("worker started queue=%s concurrency=%d visibility=%ds", source.QueueURL(), w.Opts.Concurrency, w.Opts.VisibilitySeconds)
	w.Run(ctx)
	log.Printf("worker stopped")
}

func optionsFromEnv(getenv func(string) string) workerproc.Options {
	opts := workerproc.DefaultOptions()
	opts.Concurrency = envInt(getenv, "WORKER_CONCURRENCY", opts.Concurrency)
	opts.VisibilitySeconds = int32(envInt(getenv, "ANALYSIS_QUEUE_VISIBILITY_SECONDS", int(opts.VisibilitySeconds)))
	opts.ShutdownTimeout = time.Duration(envInt(getenv, "WORKER_SHUTDOWN_TIMEOUT_SECONDS", int(opts.ShutdownTimeout/time.Second))) * time.Second
	return opts
}

func envInt(getenv func(string) string, key string, def int) int {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return def
	}
	return val
}

package workerproc

import (
	"context"
	"errors"
	"sync"
	"time"

	"filmdecks-backend/internal/queue"
	"filmdecks-backend/internal/shared/metrics"
	"filmdecks-backend/internal/shared/telemetry"
)

// Source is the queue side of the worker.
type Source interface {
	Receive(ctx context.Context, opts queue.ReceiveOptions) ([]queue.Delivery, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// Options tunes the poll loop.
type Options struct {
	Concurrency       int
	VisibilitySeconds int32
	WaitSeconds       int32
	ShutdownTimeout   time.Duration
	ErrorBackoff      time.Duration
}

// DefaultOptions mirrors the deployed worker settings.
func DefaultOptions() Options {
	return Options{
		Concurrency:       4,
		VisibilitySeconds: 300,
		WaitSeconds:       20,
		ShutdownTimeout:   30 * time.Second,
		ErrorBackoff:      2 * time.Second,
	}
}

// Worker long-polls a Source and enriches each analysis it names.
type Worker struct {
	Source   Source
	Enricher Enricher
	Opts     Options
}

// Run polls until ctx is done, then waits up to ShutdownTimeout for in-flight jobs.
func (w *Worker) Run(ctx context.Context) {
	opts := w.Opts
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	sem := make(chan struct{}, opts.Concurrency)
	var wg sync.WaitGroup

	telemetry.Info("worker.started", map[string]any{
		"concurrency":        opts.Concurrency,
		"visibility_seconds": opts.VisibilitySeconds,
	})

pollLoop:
	for {
		if ctx.Err() != nil {
			break
		}

		deliveries, err := w.Source.Receive(ctx, queue.ReceiveOptions{
			MaxMessages:       10,
			WaitSeconds:       opts.WaitSeconds,
			VisibilitySeconds: opts.VisibilitySeconds,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break
			}
			telemetry.Error("worker.receive_failed", map[string]any{"error": err})
			select {
			case <-ctx.Done():
				break pollLoop
			case <-time.After(opts.ErrorBackoff):
			}
			continue
		}

		for _, d := range deliveries {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			metrics.IncWorkerJob("received")
			wg.Add(1)
			go func(d queue.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				// in-flight jobs finish even after shutdown is requested
				w.Handle(context.WithoutCancel(ctx), d)
			}(d)
		}
	}

	telemetry.Info("worker.shutdown", map[string]any{"timeout": opts.ShutdownTimeout.String()})
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(opts.ShutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", nil)
	}
}

// Handle processes one delivery. Successful and unrecoverable messages are
// deleted; failures are left for redelivery after the visibility timeout.
func (w *Worker) Handle(ctx context.Context, d queue.Delivery) {
	msg, meta, err := ParseMessage(d.Body)
	if err != nil {
		fields := baseFields(d, msg.AnalysisID, msg.RequestID)
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err.Error()
		telemetry.Error("worker.analysis.invalid_message", fields)
		if w.delete(ctx, d, msg.AnalysisID, msg.RequestID) {
			metrics.IncWorkerJob("dropped")
		}
		return
	}

	telemetry.Info("worker.analysis.received", baseFields(d, msg.AnalysisID, msg.RequestID))

	if err := HandleMessage(WithParsedMessage(ctx, msg), w.Enricher, d.Body); err != nil {
		fields := baseFields(d, msg.AnalysisID, msg.RequestID)
		fields["error"] = err.Error()
		if Unrecoverable(err) {
			telemetry.Error("worker.analysis.dropped", fields)
			if w.delete(ctx, d, msg.AnalysisID, msg.RequestID) {
				metrics.IncWorkerJob("dropped")
			}
			return
		}
		telemetry.Error("worker.analysis.failed", fields)
		metrics.IncWorkerJob("failed")
		return
	}

	if w.delete(ctx, d, msg.AnalysisID, msg.RequestID) {
		telemetry.Info("worker.analysis.completed", baseFields(d, msg.AnalysisID, msg.RequestID))
		metrics.IncWorkerJob("completed")
	}
}

func (w *Worker) delete(ctx context.Context, d queue.Delivery, analysisID, requestID string) bool {
	if err := w.Source.Delete(ctx, d.ReceiptHandle); err != nil {
		fields := baseFields(d, analysisID, requestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.analysis.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(d queue.Delivery, analysisID, requestID string) map[string]any {
	fields := map[string]any{
		"analysis_id":    analysisID,
		"sqs_message_id": d.MessageID,
		"receive_count":  d.ReceiveCount,
	}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	return fields
}

package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfstudio/internal/metrics"
	"github.com/local/pdfstudio/internal/store"
)

// Queue is the slice of the job queue the worker needs.
type Queue interface {
	Dequeue(ctx context.Context, consumer string, timeout time.Duration) (string, []byte, error)
	Ack(ctx context.Context, msgID string) error
	IsCancelled(ctx context.Context, jobID string) (bool, error)
	AddDLQ(ctx context.Context, payload []byte, reason string) error
}

type StatusStore interface {
	Set(ctx context.Context, jobID string, st store.Status) error
}

type Config struct {
	Concurrency int
	JobTimeout  time.Duration
}

type Worker struct {
	cfg    Config
	q      Queue
	status StatusStore
	runner *Runner
	stop   chan struct{}
}

func New(cfg Config, q Queue, status StatusStore, runner *Runner) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	return &Worker{cfg: cfg, q: q, status: status, runner: runner, stop: make(chan struct{})}
}

func (w *Worker) Start() {
	for i := 0; i < w.cfg.Concurrency; i++ {
		go w.loop(i)
	}
}

func (w *Worker) Stop(ctx context.Context) error {
	close(w.stop)
	return nil
}

func (w *Worker) loop(id int) {
	log.Info().Int("worker", id).Msg("dispatcher worker started")
	consumer := fmt.Sprintf("worker-%d", id)
	for {
		select {
		case <-w.stop:
			log.Info().Int("worker", id).Msg("dispatcher worker stopped")
			return
		default:
		}

		msgID, data, err := w.q.Dequeue(context.Background(), consumer, 2*time.Second)
		if err != nil {
			log.Error().Err(err).Msg("queue dequeue error")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if data == nil {
			continue
		}

		w.process(id, msgID, data)
	}
}

func (w *Worker) process(id int, msgID string, data []byte) {
	ctx := context.Background()
	defer func() {
		if err := w.q.Ack(ctx, msgID); err != nil {
			log.Error().Err(err).Str("msg_id", msgID).Msg("queue ack failed")
		}
	}()

	job, err := DecodeJob(data)
	if err != nil {
		log.Error().Err(err).Msg("dropping undecodable job")
		_ = w.q.AddDLQ(ctx, data, "undecodable payload")
		return
	}

	if cancelled, _ := w.q.IsCancelled(ctx, job.ID); cancelled {
		log.Warn().Int("worker", id).Str("job_id", job.ID).Msg("job cancelled before processing; skipping")
		w.setStatus(ctx, job, store.Status{Status: store.StatusCancelled, Op: job.Op})
		return
	}

	start := time.Now()
	w.setStatus(ctx, job, store.Status{Status: store.StatusRunning, Op: job.Op, Start: &start})

	jobCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	ref, err := w.runner.Run(jobCtx, job)
	cancel()

	end := time.Now()
	if err != nil {
		metrics.ObserveOperation(job.Op, "error", end.Sub(start))
		log.Error().Err(err).Int("worker", id).Str("job_id", job.ID).Str("op", job.Op).Msg("job failed")
		w.setStatus(ctx, job, store.Status{Status: store.StatusFailed, Op: job.Op, Message: err.Error(), Start: &start, End: &end})
		var ve *ValidationError
		if !errors.As(err, &ve) {
			_ = w.q.AddDLQ(ctx, data, err.Error())
		}
		return
	}

	metrics.ObserveOperation(job.Op, "ok", end.Sub(start))
	w.setStatus(ctx, job, store.Status{Status: store.StatusDone, Op: job.Op, Result: ref, Start: &start, End: &end})
}

func (w *Worker) setStatus(ctx context.Context, job Job, st store.Status) {
	if err := w.status.Set(ctx, job.ID, st); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("status update failed")
	}
}

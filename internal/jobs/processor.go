package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lueurxax/trend-radar/internal/core/domain"
	"github.com/lueurxax/trend-radar/internal/platform/observability"
)

// ErrMalformedPayload marks a payload that can never be processed. Jobs
// failing with it are terminal immediately, with no retry.
var ErrMalformedPayload = errors.New("malformed job payload")

const (
	statusSuccess   = "success"
	statusFailed    = "failed"
	statusRequeued  = "requeued"
	statusMalformed = "malformed"
)

// HandlerFunc processes one claimed job payload.
type HandlerFunc func(ctx context.Context, payload []byte) error

// Repository is the queue surface the processor needs.
type Repository interface {
	ClaimJobs(ctx context.Context, limit int) ([]domain.Job, error)
	MarkJobSuccess(ctx context.Context, jobID int64) error
	MarkJobFailed(ctx context.Context, jobID int64) error
	RequeueJob(ctx context.Context, jobID int64) error
	CountJobsByStatus(ctx context.Context) (map[string]int, error)
}

// Processor drains the ingest job queue in claimed batches.
type Processor struct {
	repo        Repository
	handlers    map[string]HandlerFunc
	batchSize   int
	maxAttempts int
	logger      *zerolog.Logger
}

func NewProcessor(repo Repository, batchSize, maxAttempts int, logger *zerolog.Logger) *Processor {
	return &Processor{
		repo:        repo,
		handlers:    make(map[string]HandlerFunc),
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Register installs the handler for one job type. Not safe to call once
// processing has started.
func (p *Processor) Register(jobType string, h HandlerFunc) {
	p.handlers[jobType] = h
}

// ProcessBatch claims and works through one batch. Returns how many jobs
// were claimed so poll loops can back off when the queue is empty.
func (p *Processor) ProcessBatch(ctx context.Context) (int, error) {
	jobs, err := p.repo.ClaimJobs(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("claim jobs: %w", err)
	}

	for i := range jobs {
		p.processJob(ctx, &jobs[i])

		if ctx.Err() != nil {
			return len(jobs), ctx.Err()
		}
	}

	p.reportBacklog(ctx)

	return len(jobs), nil
}

func (p *Processor) processJob(ctx context.Context, job *domain.Job) {
	logger := p.logger.With().Int64("job_id", job.ID).Str("job_type", job.JobType).Logger()

	handler, ok := p.handlers[job.JobType]
	if !ok {
		logger.Error().Msg("unknown job type")
		p.finishJob(ctx, job, statusFailed)

		return
	}

	err := handler(ctx, job.Payload)

	switch {
	case err == nil:
		p.finishJob(ctx, job, statusSuccess)
	case errors.Is(err, ErrMalformedPayload):
		logger.Error().Err(err).Msg("job payload is malformed")
		p.finishJob(ctx, job, statusMalformed)
	case job.Attempts+1 >= p.maxAttempts:
		logger.Error().Err(err).Int("attempts", job.Attempts+1).Msg("job failed permanently")
		p.finishJob(ctx, job, statusFailed)
	default:
		logger.Warn().Err(err).Int("attempts", job.Attempts+1).Msg("job failed, requeueing")
		p.finishJob(ctx, job, statusRequeued)
	}
}

func (p *Processor) finishJob(ctx context.Context, job *domain.Job, status string) {
	var err error

	switch status {
	case statusSuccess:
		err = p.repo.MarkJobSuccess(ctx, job.ID)
	case statusRequeued:
		err = p.repo.RequeueJob(ctx, job.ID)
	default:
		err = p.repo.MarkJobFailed(ctx, job.ID)
	}

	if err != nil {
		p.logger.Error().Err(err).Int64("job_id", job.ID).Str("status", status).Msg("failed to finish job")

		return
	}

	observability.JobsProcessed.WithLabelValues(job.JobType, status).Inc()
}

func (p *Processor) reportBacklog(ctx context.Context) {
	counts, err := p.repo.CountJobsByStatus(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to count job backlog")

		return
	}

	for status, n := range counts {
		observability.JobBacklog.WithLabelValues(status).Set(float64(n))
	}
}

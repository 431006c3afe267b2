// Package generator holds the job orchestrator: it bridges the synchronous
// submission endpoint and the slow image-generation collaborators by running
// each job as a detached task that reports back through the job store.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/jobstore"
	"server/internal/metrics"
	"server/internal/promptgen"
	imageprovider "server/internal/providers/image"
	"server/internal/providers/title"
	"server/internal/providers/vision"
	"server/internal/storage"
	"server/internal/worker"
)

// Options wires the orchestrator's collaborators. Titles and Vision are
// optional; Images and Blobs are required.
type Options struct {
	Store  jobstore.Store
	Pool   *worker.Pool
	Images imageprovider.Generator
	Blobs  storage.BlobStore
	Titles title.Refiner
	Vision vision.Describer
	Logger zerolog.Logger

	// Deadline bounds one detached generation task. A task that overruns it
	// is marked failed instead of staying pending forever.
	Deadline time.Duration
}

// Service is the job pipeline orchestrator.
type Service struct {
	store    jobstore.Store
	pool     *worker.Pool
	images   imageprovider.Generator
	blobs    storage.BlobStore
	titles   title.Refiner
	vision   vision.Describer
	logger   zerolog.Logger
	deadline time.Duration

	newID func() string
}

// New builds the orchestrator.
func New(opts Options) *Service {
	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = 2 * time.Minute
	}
	titles := opts.Titles
	if titles == nil {
		titles = title.NewStaticRefiner()
	}
	return &Service{
		store:    opts.Store,
		pool:     opts.Pool,
		images:   opts.Images,
		blobs:    opts.Blobs,
		titles:   titles,
		vision:   opts.Vision,
		logger:   opts.Logger,
		deadline: deadline,
		newID:    domain.NewJobID,
	}
}

// Submit validates the request, records a pending job, and schedules the
// generation work. It returns as soon as the job is pollable; it never waits
// on a collaborator. Validation failure is the only synchronous error and
// creates no job.
func (s *Service) Submit(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	jobID := s.newID()
	if err := s.store.Create(ctx, jobID); err != nil {
		return "", fmt.Errorf("record job: %w", err)
	}
	metrics.IncSubmitted()

	if err := s.pool.Submit(func(taskCtx context.Context) {
		s.run(taskCtx, jobID, req)
	}); err != nil {
		// The job exists and is pollable, so surface the rejection through
		// the job record rather than the submission response.
		s.fail(jobID, fmt.Sprintf("could not schedule generation: %v", err), time.Now())
		return jobID, nil
	}

	s.logger.Info().Str("job_id", jobID).Str("style", string(req.Style)).Msg("generation job submitted")
	return jobID, nil
}

// run executes one generation job. Every exit path performs exactly one
// terminal store write: the deferred recover converts panics to a failed job
// so no fault can leave the record pending.
func (s *Service) run(poolCtx context.Context, jobID string, req domain.GenerationRequest) {
	started := time.Now()

	// The task deadline is the server-side watchdog; the pool context only
	// cancels on shutdown.
	ctx, cancel := context.WithTimeout(poolCtx, s.deadline)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("job_id", jobID).Any("panic", r).Msg("generation task panicked")
			s.fail(jobID, fmt.Sprintf("internal error: %v", r), started)
		}
	}()

	result, err := s.generate(ctx, jobID, req)
	if err != nil {
		msg := failureMessage(ctx, err, s.deadline)
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("generation job failed")
		s.fail(jobID, msg, started)
		return
	}
	result.Timing.TotalMs = time.Since(started).Milliseconds()

	if err := s.store.SetComplete(context.WithoutCancel(poolCtx), jobID, result); err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("terminal write failed")
		return
	}
	metrics.ObserveFinished(string(domain.JobStatusComplete), time.Since(started).Seconds())
	s.logger.Info().
		Str("job_id", jobID).
		Int64("total_ms", result.Timing.TotalMs).
		Msg("generation job complete")
}

// generate performs the pipeline steps: refine title, describe host, build
// prompt, render both sizes, persist to the blob store.
func (s *Service) generate(ctx context.Context, jobID string, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	refineStart := time.Now()
	refined := s.refineTitle(ctx, req.Title)
	hostDescription := s.describeHost(ctx, req.HostImageURL)
	refineMs := time.Since(refineStart).Milliseconds()

	prompt := promptgen.Build(refined, req.Style, req.Realism, hostDescription)

	generateStart := time.Now()
	thumbBytes, err := s.images.Generate(ctx, imageprovider.GenerateRequest{
		Prompt:    prompt,
		Size:      imageprovider.SizeYouTube,
		RequestID: jobID,
	})
	if err != nil {
		return nil, fmt.Errorf("image generation: %w", err)
	}
	squareBytes, err := s.images.Generate(ctx, imageprovider.GenerateRequest{
		Prompt:    prompt,
		Size:      imageprovider.SizeSquare,
		RequestID: jobID,
	})
	if err != nil {
		return nil, fmt.Errorf("square image generation: %w", err)
	}
	generateMs := time.Since(generateStart).Milliseconds()

	storeStart := time.Now()
	thumbnailURL, err := s.blobs.Put(ctx, fmt.Sprintf("thumbnails/%s.png", jobID), thumbBytes)
	if err != nil {
		return nil, fmt.Errorf("store thumbnail: %w", err)
	}
	squareURL, err := s.blobs.Put(ctx, fmt.Sprintf("thumbnails/%s_square.png", jobID), squareBytes)
	if err != nil {
		return nil, fmt.Errorf("store square artwork: %w", err)
	}
	storeMs := time.Since(storeStart).Milliseconds()

	return &domain.GenerationResult{
		ThumbnailURL:     thumbnailURL,
		SquareArtworkURL: squareURL,
		RefinedTitle:     refined,
		Timing: domain.Timing{
			RefineMs:   refineMs,
			GenerateMs: generateMs,
			StoreMs:    storeMs,
		},
	}, nil
}

// refineTitle is best-effort: a refinement failure falls back to the original
// title instead of failing the job.
func (s *Service) refineTitle(ctx context.Context, original string) string {
	refined, err := s.titles.Refine(ctx, original)
	if err != nil || strings.TrimSpace(refined) == "" {
		if err != nil {
			s.logger.Warn().Err(err).Msg("title refinement failed, using original")
		}
		return original
	}
	return refined
}

// describeHost is best-effort: missing or failed description just drops the
// appearance clause from the prompt.
func (s *Service) describeHost(ctx context.Context, hostImageURL string) string {
	if hostImageURL == "" || s.vision == nil {
		return ""
	}
	desc, err := s.vision.Describe(ctx, hostImageURL)
	if err != nil {
		s.logger.Warn().Err(err).Msg("host description failed, continuing without it")
		return ""
	}
	return desc
}

// fail records the terminal failure. The write uses a fresh context so a
// cancelled task context cannot block the terminal transition.
func (s *Service) fail(jobID, message string, started time.Time) {
	if err := s.store.SetFailed(context.Background(), jobID, message); err != nil {
		if !errors.Is(err, domain.ErrJobFinished) {
			s.logger.Error().Err(err).Str("job_id", jobID).Msg("failed terminal write")
		}
		return
	}
	metrics.ObserveFinished(string(domain.JobStatusFailed), time.Since(started).Seconds())
}

// failureMessage keeps stored errors human-readable and flags watchdog
// expiries explicitly.
func failureMessage(ctx context.Context, err error, deadline time.Duration) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("generation timed out after %s", deadline)
	}
	return err.Error()
}

package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/jobstore"
	imageprovider "server/internal/providers/image"
	"server/internal/worker"
)

type stubImages struct {
	calls   atomic.Int32
	release chan struct{} // when set, Generate blocks until closed or ctx ends
	err     error
	panics  bool
}

func (s *stubImages) Generate(ctx context.Context, req imageprovider.GenerateRequest) ([]byte, error) {
	s.calls.Add(1)
	if s.panics {
		panic("collaborator blew up")
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return []byte("img-" + req.Size), nil
}

type stubBlobs struct {
	err error
}

func (s *stubBlobs) Put(ctx context.Context, key string, data []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "http://blob.local/" + key, nil
}

func newTestService(t *testing.T, images imageprovider.Generator, blobs *stubBlobs, deadline time.Duration) (*Service, *jobstore.MemoryStore) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := jobstore.NewMemoryStore()
	pool := worker.NewPool(2, zerolog.Nop())
	pool.Start(ctx)
	t.Cleanup(pool.Stop)

	svc := New(Options{
		Store:    store,
		Pool:     pool,
		Images:   images,
		Blobs:    blobs,
		Logger:   zerolog.Nop(),
		Deadline: deadline,
	})
	return svc, store
}

func waitForTerminal(t *testing.T, store jobstore.Store, id string) *domain.Job {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("Get returned error: %v", err)
		}
		if job.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
	return nil
}

func TestSubmitReturnsImmediatelyPollable(t *testing.T) {
	t.Parallel()
	images := &stubImages{release: make(chan struct{})}
	svc, store := newTestService(t, images, &stubBlobs{}, time.Minute)

	start := time.Now()
	jobID, err := svc.Submit(context.Background(), domain.GenerationRequest{
		Style:   domain.StyleNeonRetro,
		Realism: 85,
		Title:   "Space Talk",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Submit blocked for %s", elapsed)
	}
	if !strings.HasPrefix(jobID, "gen_") {
		t.Fatalf("jobID = %q", jobID)
	}

	// Pollable while the collaborator is still in flight.
	job, err := store.Get(context.Background(), jobID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if job.Status != domain.JobStatusPending {
		t.Fatalf("status = %q, want pending", job.Status)
	}

	close(images.release)
	done := waitForTerminal(t, store, jobID)
	if done.Status != domain.JobStatusComplete {
		t.Fatalf("status = %q (error %q), want complete", done.Status, done.Error)
	}
	if done.Result == nil || done.Error != "" {
		t.Fatalf("terminal fields inconsistent: %+v", done)
	}
	if done.Result.ThumbnailURL != "http://blob.local/thumbnails/"+jobID+".png" {
		t.Fatalf("thumbnail url = %q", done.Result.ThumbnailURL)
	}
	if done.Result.SquareArtworkURL != "http://blob.local/thumbnails/"+jobID+"_square.png" {
		t.Fatalf("square url = %q", done.Result.SquareArtworkURL)
	}
	if done.Result.RefinedTitle == "" {
		t.Fatal("refined title missing")
	}
	if images.calls.Load() != 2 {
		t.Fatalf("generator calls = %d, want 2", images.calls.Load())
	}
}

func TestSubmitValidation(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t, &stubImages{}, &stubBlobs{}, time.Minute)

	cases := []domain.GenerationRequest{
		{Style: "", Title: "Space Talk"},
		{Style: domain.StyleNeonRetro, Title: ""},
		{Style: "  ", Title: "  "},
	}
	for _, req := range cases {
		jobID, err := svc.Submit(context.Background(), req)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Fatalf("Submit(%+v) = %v, want ErrInvalidRequest", req, err)
		}
		if jobID != "" {
			t.Fatalf("validation failure produced job id %q", jobID)
		}
	}
}

func TestGeneratorFailureFailsJob(t *testing.T) {
	t.Parallel()
	images := &stubImages{err: fmt.Errorf("%w: generation backend down", domain.ErrProviderFailure)}
	svc, store := newTestService(t, images, &stubBlobs{}, time.Minute)

	jobID, err := svc.Submit(context.Background(), domain.GenerationRequest{
		Style: domain.StyleBoldSplit, Title: "Deep Dive",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	job := waitForTerminal(t, store, jobID)
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("status = %q, want failed", job.Status)
	}
	if job.Error == "" || job.Result != nil {
		t.Fatalf("failed record inconsistent: %+v", job)
	}
	if !strings.Contains(job.Error, "generation backend down") {
		t.Fatalf("error message lost: %q", job.Error)
	}
}

func TestPanicInCollaboratorFailsJob(t *testing.T) {
	t.Parallel()
	svc, store := newTestService(t, &stubImages{panics: true}, &stubBlobs{}, time.Minute)

	jobID, err := svc.Submit(context.Background(), domain.GenerationRequest{
		Style: domain.StyleComicIllus, Title: "Panic Show",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	job := waitForTerminal(t, store, jobID)
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("status = %q, want failed", job.Status)
	}
	if !strings.Contains(job.Error, "internal error") {
		t.Fatalf("error = %q", job.Error)
	}
}

func TestStorageFailureFailsJob(t *testing.T) {
	t.Parallel()
	svc, store := newTestService(t, &stubImages{}, &stubBlobs{err: errors.New("disk full")}, time.Minute)

	jobID, err := svc.Submit(context.Background(), domain.GenerationRequest{
		Style: domain.StyleMinimalClean, Title: "Storage Woes",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	job := waitForTerminal(t, store, jobID)
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("status = %q, want failed", job.Status)
	}
	if !strings.Contains(job.Error, "disk full") {
		t.Fatalf("error = %q", job.Error)
	}
}

func TestWatchdogFailsOverrunningJob(t *testing.T) {
	t.Parallel()
	// The collaborator never returns; the deadline must convert the job to
	// failed instead of leaving it pending forever.
	images := &stubImages{release: make(chan struct{})}
	svc, store := newTestService(t, images, &stubBlobs{}, 50*time.Millisecond)

	jobID, err := svc.Submit(context.Background(), domain.GenerationRequest{
		Style: domain.StylePhotoCine, Title: "The Long Haul",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	job := waitForTerminal(t, store, jobID)
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("status = %q, want failed", job.Status)
	}
	if !strings.Contains(job.Error, "timed out") {
		t.Fatalf("error = %q, want timeout message", job.Error)
	}
}

func TestTerminalRecordIsStable(t *testing.T) {
	t.Parallel()
	svc, store := newTestService(t, &stubImages{}, &stubBlobs{}, time.Minute)

	jobID, err := svc.Submit(context.Background(), domain.GenerationRequest{
		Style: domain.StyleSemiEditorial, Title: "Steady State",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	first := waitForTerminal(t, store, jobID)
	for i := 0; i < 5; i++ {
		again, err := store.Get(context.Background(), jobID)
		if err != nil {
			t.Fatalf("Get returned error: %v", err)
		}
		if again.Status != first.Status || again.Error != first.Error {
			t.Fatalf("terminal record changed between observations: %+v vs %+v", first, again)
		}
		if (again.Result == nil) != (first.Result == nil) {
			t.Fatalf("result presence changed: %+v vs %+v", first, again)
		}
	}
}

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/generator"
	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/jobstore"
	imageprovider "server/internal/providers/image"
	"server/internal/providers/title"
	"server/internal/worker"
)

type stubImages struct {
	release chan struct{}
}

func (s *stubImages) Generate(ctx context.Context, req imageprovider.GenerateRequest) ([]byte, error) {
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []byte("png"), nil
}

type stubBlobs struct{}

func (stubBlobs) Put(ctx context.Context, key string, data []byte) (string, error) {
	return "http://blob.local/" + key, nil
}

func newTestRouter(t *testing.T, images imageprovider.Generator) (http.Handler, jobstore.Store) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := jobstore.NewMemoryStore()
	pool := worker.NewPool(2, zerolog.Nop())
	pool.Start(ctx)
	t.Cleanup(pool.Stop)

	svc := generator.New(generator.Options{
		Store:    store,
		Pool:     pool,
		Images:   images,
		Blobs:    stubBlobs{},
		Logger:   zerolog.Nop(),
		Deadline: time.Minute,
	})
	app := handlers.NewApp(svc, store, title.NewStaticRefiner(), zerolog.Nop())
	cfg := &infra.Config{}
	return httpapi.NewRouter(app, cfg, zerolog.Nop()), store
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func getJSON(t *testing.T, router http.Handler, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec
}

func TestGenerateFlow(t *testing.T) {
	t.Parallel()
	images := &stubImages{release: make(chan struct{})}
	router, _ := newTestRouter(t, images)

	rec := postJSON(t, router, "/api/generate", map[string]any{
		"style":        "neon_retro",
		"realism":      85,
		"title":        "Space Talk",
		"hostImageUrl": "https://x/h.png",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		Success      bool   `json:"success"`
		GenerationID string `json:"generationId"`
		Status       string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !accepted.Success || accepted.Status != "pending" {
		t.Fatalf("unexpected accept payload: %+v", accepted)
	}
	if !strings.HasPrefix(accepted.GenerationID, "gen_") {
		t.Fatalf("generationId = %q", accepted.GenerationID)
	}

	// Poll while the collaborator is still in flight.
	var pending struct {
		Success bool   `json:"success"`
		Status  string `json:"status"`
	}
	rec = getJSON(t, router, "/api/generation/"+accepted.GenerationID, &pending)
	if rec.Code != http.StatusOK || pending.Status != "pending" {
		t.Fatalf("mid-flight poll: code=%d payload=%+v", rec.Code, pending)
	}

	close(images.release)

	deadline := time.Now().Add(3 * time.Second)
	for {
		var status struct {
			Success bool                     `json:"success"`
			Status  string                   `json:"status"`
			Result  *domain.GenerationResult `json:"result"`
			Error   string                   `json:"error"`
		}
		rec = getJSON(t, router, "/api/generation/"+accepted.GenerationID, &status)
		if status.Status == "complete" {
			if status.Result == nil || status.Result.ThumbnailURL == "" {
				t.Fatalf("complete without result: %s", rec.Body.String())
			}
			if status.Error != "" {
				t.Fatalf("complete with error: %q", status.Error)
			}
			break
		}
		if status.Status == "failed" {
			t.Fatalf("job failed: %q", status.Error)
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never completed, last status %q", status.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestGenerateValidation(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, &stubImages{})

	rec := postJSON(t, router, "/api/generate", map[string]any{
		"style":   "neon_retro",
		"realism": 50,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp struct {
		Success      bool   `json:"success"`
		GenerationID string `json:"generationId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success || resp.GenerationID != "" {
		t.Fatalf("validation failure leaked a job id: %s", rec.Body.String())
	}
}

func TestGenerateRejectsBadJSON(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, &stubImages{})
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

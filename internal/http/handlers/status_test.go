package handlers_test

import (
	"net/http"
	"testing"
)

func TestGenerationStatusNotFound(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, &stubImages{})

	var resp struct {
		Success bool   `json:"success"`
		Status  string `json:"status"`
		Code    string `json:"code"`
	}
	rec := getJSON(t, router, "/api/generation/gen_never_issued", &resp)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if resp.Success {
		t.Fatal("not-found reported success")
	}
	// Not-found is a distinct signal, never conflated with a failed job.
	if resp.Status != "not_found" {
		t.Fatalf("status field = %q, want not_found", resp.Status)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, &stubImages{})
	var resp map[string]string
	rec := getJSON(t, router, "/healthz", &resp)
	if rec.Code != http.StatusOK || resp["status"] != "ok" {
		t.Fatalf("health: code=%d body=%v", rec.Code, resp)
	}
}

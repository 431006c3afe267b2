package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestRefineTitle(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, &stubImages{})

	rec := postJSON(t, router, "/api/title/refine", map[string]string{"original": "the deep dive"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success  bool   `json:"success"`
		Original string `json:"original"`
		Refined  string `json:"refined"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Original != "the deep dive" || resp.Refined == "" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestRefineTitleRequiresOriginal(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, &stubImages{})
	rec := postJSON(t, router, "/api/title/refine", map[string]string{"original": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSuggestTitles(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, &stubImages{})
	rec := postJSON(t, router, "/api/title/suggest", map[string]string{"blurb": "a show about space exploration"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success bool     `json:"success"`
		Titles  []string `json:"titles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || len(resp.Titles) != 3 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

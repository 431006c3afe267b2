package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

type refineTitleRequest struct {
	Original string `json:"original"`
}

type refineTitleResponse struct {
	Success  bool   `json:"success"`
	Original string `json:"original"`
	Refined  string `json:"refined"`
}

// RefineTitle polishes an episode title. Refinement is best-effort; the
// handler degrades to the original title rather than erroring.
func (a *App) RefineTitle(w http.ResponseWriter, r *http.Request) {
	var req refineTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Original) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "Original title is required")
		return
	}

	refined, err := a.Titles.Refine(r.Context(), req.Original)
	if err != nil || strings.TrimSpace(refined) == "" {
		refined = req.Original
	}

	a.json(w, http.StatusOK, refineTitleResponse{
		Success:  true,
		Original: req.Original,
		Refined:  refined,
	})
}

type suggestTitlesRequest struct {
	Blurb string `json:"blurb"`
}

type suggestTitlesResponse struct {
	Success bool     `json:"success"`
	Titles  []string `json:"titles"`
}

// SuggestTitles proposes three episode titles from a short description.
func (a *App) SuggestTitles(w http.ResponseWriter, r *http.Request) {
	var req suggestTitlesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Blurb) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "Description is required")
		return
	}

	titles, err := a.Titles.Suggest(r.Context(), req.Blurb)
	if err != nil || len(titles) == 0 {
		titles = []string{"Episode Title 1", "Episode Title 2", "Episode Title 3"}
	}

	a.json(w, http.StatusOK, suggestTitlesResponse{Success: true, Titles: titles})
}

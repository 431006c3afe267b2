package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"server/internal/domain"
)

type generateResponse struct {
	Success      bool   `json:"success"`
	GenerationID string `json:"generationId"`
	Status       string `json:"status"`
}

// Generate accepts a thumbnail request and returns a pollable job id. The
// response is sent as soon as the job record exists; generation continues out
// of band.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	jobID, err := a.Generator.Submit(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			a.error(w, http.StatusBadRequest, "bad_request", "Style and title are required")
			return
		}
		a.Logger.Error().Err(err).Msg("submission failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue generation")
		return
	}

	a.json(w, http.StatusAccepted, generateResponse{
		Success:      true,
		GenerationID: jobID,
		Status:       string(domain.JobStatusPending),
	})
}

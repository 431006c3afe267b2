package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
)

type statusResponse struct {
	Success  bool                     `json:"success"`
	Status   domain.JobStatus         `json:"status"`
	Result   *domain.GenerationResult `json:"result,omitempty"`
	Error    string                   `json:"error,omitempty"`
	Created  time.Time                `json:"created"`
	Finished *time.Time               `json:"finished,omitempty"`
}

// GenerationStatus is a pure read of the job table. An unknown id yields a
// not-found signal, which is distinct from a failed job: failed means the job
// ran and errored, not-found means the id was never issued (or was evicted).
func (a *App) GenerationStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "generation id required")
		return
	}

	job, err := a.Store.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.json(w, http.StatusNotFound, errorEnvelope{
				Success: false,
				Code:    "not_found",
				Status:  "not_found",
				Message: "Job not found",
			})
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("status lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to get generation status")
		return
	}

	a.json(w, http.StatusOK, statusResponse{
		Success:  true,
		Status:   job.Status,
		Result:   job.Result,
		Error:    job.Error,
		Created:  job.Created,
		Finished: job.Finished,
	})
}

package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStatus enumerates job lifecycle states. Transitions are one-way:
// pending -> complete or pending -> failed.
type JobStatus string

const (
	JobStatusPending  JobStatus = "pending"
	JobStatusComplete JobStatus = "complete"
	JobStatusFailed   JobStatus = "failed"
)

// Timing breaks the generation pipeline down into its slow phases, in
// milliseconds.
type Timing struct {
	RefineMs   int64 `json:"refineMs"`
	GenerateMs int64 `json:"generateMs"`
	StoreMs    int64 `json:"storeMs"`
	TotalMs    int64 `json:"totalMs"`
}

// GenerationResult is the output of a completed job.
type GenerationResult struct {
	ThumbnailURL     string `json:"thumbnailUrl"`
	SquareArtworkURL string `json:"squareArtworkUrl"`
	RefinedTitle     string `json:"refinedTitle"`
	Timing           Timing `json:"timing"`
}

// Job tracks one thumbnail generation request from submission to its terminal
// outcome. Result and Error are mutually exclusive; exactly one is set once
// the job is terminal.
type Job struct {
	ID       string
	Status   JobStatus
	Created  time.Time
	Finished *time.Time
	Result   *GenerationResult
	Error    string
}

// Terminal reports whether the job reached complete or failed.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusComplete || j.Status == JobStatusFailed
}

// Clone returns a deep copy so store readers never alias store-owned state.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	if j.Finished != nil {
		t := *j.Finished
		out.Finished = &t
	}
	if j.Result != nil {
		res := *j.Result
		out.Result = &res
	}
	return &out
}

// NewJobID allocates a fresh job identifier. A millisecond timestamp plus a
// random suffix keeps ids unique across the process lifetime and sortable by
// submission time.
func NewJobID() string {
	return fmt.Sprintf("gen_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// Package poller is the client side of the generation pipeline: it submits a
// request, polls the status endpoint on a fixed cadence until the job reaches
// a terminal state or the poll budget runs out, and degrades to locally
// rendered imagery when the server never delivers.
package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"server/internal/domain"
)

// State describes how a generation attempt concluded.
type State string

const (
	// StateSucceeded means usable artwork exists, either from the server or
	// from the local fallback renderer.
	StateSucceeded State = "succeeded"
	// StateErrored means the job failed and retries were exhausted.
	StateErrored State = "errored"
	// StateTimedOut means the poll budget ran out before the job finished.
	StateTimedOut State = "timed_out"
	// StateDegraded means even the fallback renderer failed and only a static
	// placeholder is available.
	StateDegraded State = "degraded"
)

// ErrJobNotFound reports that the server does not know the job id. It is a
// distinct condition from a failed job: resubmitting will not help, so the
// poller gives up immediately instead of burning retries.
var ErrJobNotFound = errors.New("poller: generation job not found")

// SubmitRejectedError reports that the server received the submission and
// refused it, typically failed validation. The same payload cannot succeed on
// a resubmission, so it is never retried.
type SubmitRejectedError struct {
	StatusCode int
	Message    string
}

func (e *SubmitRejectedError) Error() string {
	return fmt.Sprintf("poller: submit rejected (%d): %s", e.StatusCode, e.Message)
}

// Images holds locally produced renditions.
type Images struct {
	ThumbnailPNG     []byte
	SquareArtworkPNG []byte
}

// FallbackFunc renders artwork locally when the server pipeline does not
// deliver. Returning an error degrades the outcome to a static placeholder.
type FallbackFunc func(ctx context.Context, req domain.GenerationRequest) (*Images, error)

// Options configures a Client. Zero values pick the defaults used in
// production: poll every 3s, up to 30 polls, at most 2 resubmissions.
type Options struct {
	BaseURL     string
	HTTPClient  *http.Client
	Interval    time.Duration
	Budget      int
	MaxRetries  int
	Fallback    FallbackFunc
	Placeholder func() *Images
}

const (
	defaultInterval = 3 * time.Second
	defaultBudget   = 30
	defaultRetries  = 2
)

// Client drives the submit-poll-fallback loop. At most one status request is
// in flight at a time.
type Client struct {
	baseURL     string
	http        *http.Client
	interval    time.Duration
	budget      int
	maxRetries  int
	fallback    FallbackFunc
	placeholder func() *Images
}

// NewClient builds a Client from opts.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		http:        opts.HTTPClient,
		interval:    opts.Interval,
		budget:      opts.Budget,
		maxRetries:  opts.MaxRetries,
		fallback:    opts.Fallback,
		placeholder: opts.Placeholder,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.interval <= 0 {
		c.interval = defaultInterval
	}
	if c.budget <= 0 {
		c.budget = defaultBudget
	}
	if c.maxRetries < 0 {
		c.maxRetries = defaultRetries
	}
	if c.placeholder == nil {
		c.placeholder = func() *Images { return &Images{} }
	}
	return c
}

// StatusResponse mirrors the status endpoint payload.
type StatusResponse struct {
	Success  bool                     `json:"success"`
	Status   string                   `json:"status"`
	Result   *domain.GenerationResult `json:"result,omitempty"`
	Error    string                   `json:"error,omitempty"`
	Created  time.Time                `json:"created"`
	Finished *time.Time               `json:"finished,omitempty"`
}

type submitResponse struct {
	Success      bool   `json:"success"`
	GenerationID string `json:"generationId"`
	Status       string `json:"status"`
	Message      string `json:"message"`
}

// Outcome is the final word on one generation attempt, retries and fallback
// included.
type Outcome struct {
	State        State
	GenerationID string
	Result       *domain.GenerationResult
	Local        *Images
	ErrorMessage string
	UsedFallback bool
}

// Submit posts the request and returns the issued job id.
func (c *Client) Submit(ctx context.Context, req domain.GenerationRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("poller: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("poller: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("poller: submit: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("poller: read submit response: %w", err)
	}
	var decoded submitResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("poller: decode submit response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusAccepted || !decoded.Success || decoded.GenerationID == "" {
		msg := decoded.Message
		if msg == "" {
			msg = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return "", &SubmitRejectedError{StatusCode: resp.StatusCode, Message: msg}
		}
		return "", fmt.Errorf("poller: submit failed: %s", msg)
	}
	return decoded.GenerationID, nil
}

// Status fetches the current job record. A 404 maps to ErrJobNotFound.
func (c *Client) Status(ctx context.Context, id string) (*StatusResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/generation/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("poller: build status request: %w", err)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("poller: poll: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrJobNotFound
	}
	var decoded StatusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("poller: decode status response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poller: status endpoint returned %d", resp.StatusCode)
	}
	return &decoded, nil
}

// Generate runs the whole flow: submit, poll to a terminal state, resubmit a
// bounded number of times on failure, and fall back to local rendering when
// the server times out or keeps failing. It never returns an error; every
// path lands in an Outcome the caller can act on.
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) *Outcome {
	attempts := 1 + c.maxRetries
	var (
		lastID   string
		lastMsg  string
		timedOut bool
	)

attemptLoop:
	for attempt := 0; attempt < attempts; attempt++ {
		id, err := c.Submit(ctx, req)
		if err != nil {
			lastMsg = err.Error()
			var rejected *SubmitRejectedError
			if errors.As(err, &rejected) {
				// The request itself is bad; rendering it locally would be as
				// wrong as resubmitting it.
				return &Outcome{State: StateErrored, ErrorMessage: rejected.Message}
			}
			if ctx.Err() != nil {
				break
			}
			continue
		}
		lastID = id

		state, result, msg := c.poll(ctx, id)
		switch state {
		case StateSucceeded:
			return &Outcome{State: StateSucceeded, GenerationID: id, Result: result}
		case StateTimedOut:
			timedOut = true
			lastMsg = fmt.Sprintf("no result after %d polls", c.budget)
			break attemptLoop
		case StateErrored:
			lastMsg = msg
			if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
				break attemptLoop
			}
			if msg == ErrJobNotFound.Error() {
				// The server lost the record; a fresh submit races the same
				// eviction window, so stop here.
				break attemptLoop
			}
		}
	}

	terminal := StateErrored
	if timedOut {
		terminal = StateTimedOut
	}
	if c.fallback == nil {
		return &Outcome{State: terminal, GenerationID: lastID, ErrorMessage: lastMsg}
	}

	local, err := c.fallback(ctx, req)
	if err != nil || local == nil {
		if err != nil {
			lastMsg = fmt.Sprintf("%s; fallback render failed: %v", lastMsg, err)
		}
		return &Outcome{
			State:        StateDegraded,
			GenerationID: lastID,
			Local:        c.placeholder(),
			ErrorMessage: lastMsg,
			UsedFallback: true,
		}
	}
	return &Outcome{
		State:        StateSucceeded,
		GenerationID: lastID,
		Local:        local,
		ErrorMessage: lastMsg,
		UsedFallback: true,
	}
}

// poll waits one interval, queries, and repeats until the job is terminal or
// the budget is spent. Transient request errors count against the budget so a
// flapping network cannot extend the wait indefinitely.
func (c *Client) poll(ctx context.Context, id string) (State, *domain.GenerationResult, string) {
	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	for i := 0; i < c.budget; i++ {
		select {
		case <-ctx.Done():
			return StateErrored, nil, ctx.Err().Error()
		case <-timer.C:
		}
		timer.Reset(c.interval)

		status, err := c.Status(ctx, id)
		if err != nil {
			if errors.Is(err, ErrJobNotFound) {
				return StateErrored, nil, ErrJobNotFound.Error()
			}
			if ctx.Err() != nil {
				return StateErrored, nil, ctx.Err().Error()
			}
			continue
		}
		switch status.Status {
		case string(domain.JobStatusComplete):
			return StateSucceeded, status.Result, ""
		case string(domain.JobStatusFailed):
			msg := status.Error
			if msg == "" {
				msg = "generation failed"
			}
			return StateErrored, nil, msg
		}
	}
	return StateTimedOut, nil, ""
}

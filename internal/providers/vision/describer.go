// Package vision derives a short appearance description from a host photo so
// the generation prompt can reference the depicted person.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	openAIDefaultTimeout = 20 * time.Second
	defaultVisionModel   = "gpt-4o"

	describeSystemPrompt = "Describe the person in the image in one short sentence focused on visual appearance (hair, glasses, clothing). Do not guess identity."
)

// Describer is the image-description collaborator boundary.
type Describer interface {
	Describe(ctx context.Context, imageURL string) (string, error)
}

// OpenAIOptions configures the vision describer.
type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAIDescriber calls the chat completions API with an image part.
type OpenAIDescriber struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type visionContentPart struct {
	Type     string           `json:"type"`
	Text     string           `json:"text,omitempty"`
	ImageURL *visionImagePart `json:"image_url,omitempty"`
}

type visionImagePart struct {
	URL string `json:"url"`
}

type visionMessage struct {
	Role    string              `json:"role"`
	Content []visionContentPart `json:"content"`
}

type visionRequest struct {
	Model     string          `json:"model"`
	Messages  []visionMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

type visionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenAIDescriber validates the options and builds the describer.
func NewOpenAIDescriber(opts OpenAIOptions) (*OpenAIDescriber, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultVisionModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	return &OpenAIDescriber{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

// Describe returns a short textual description of the person in the image.
func (o *OpenAIDescriber) Describe(ctx context.Context, imageURL string) (string, error) {
	payload := visionRequest{
		Model:     o.model,
		MaxTokens: 60,
		Messages: []visionMessage{{
			Role: "user",
			Content: []visionContentPart{
				{Type: "text", Text: describeSystemPrompt},
				{Type: "image_url", ImageURL: &visionImagePart{URL: imageURL}},
			},
		}},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("encode vision request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/chat/completions", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("build vision request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("vision request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vision request status %d", resp.StatusCode)
	}
	var decoded visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode vision response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("vision response has no choices")
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

var _ Describer = (*OpenAIDescriber)(nil)

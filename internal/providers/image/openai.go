package image

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"server/internal/domain"
)

const openAIDefaultTimeout = 90 * time.Second

// OpenAIOptions configures the DALL-E backed generator.
type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAIGenerator produces images through the OpenAI images API and downloads
// the returned URL into raw bytes.
type OpenAIGenerator struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type openAIImageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type openAIImageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewOpenAIGenerator builds the generator. The API key may be empty; in that
// case Generate reports the collaborator as unavailable so jobs fail with a
// clear message instead of panicking at startup.
func NewOpenAIGenerator(opts OpenAIOptions) *OpenAIGenerator {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "dall-e-3"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	return &OpenAIGenerator{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
	}
}

// Generate requests a single image and returns its bytes.
func (g *OpenAIGenerator) Generate(ctx context.Context, req GenerateRequest) ([]byte, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w: image generation service is not configured", domain.ErrProviderFailure)
	}
	size := req.Size
	if size == "" {
		size = SizeYouTube
	}
	payload := openAIImageRequest{
		Model:          g.model,
		Prompt:         req.Prompt,
		N:              1,
		Size:           size,
		ResponseFormat: "url",
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode image request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/images/generations", g.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: image generation call: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	var decoded openAIImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode image response: %v", domain.ErrProviderFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if decoded.Error != nil && decoded.Error.Message != "" {
			msg = decoded.Error.Message
		}
		return nil, fmt.Errorf("%w: image generation rejected: %s", domain.ErrProviderFailure, msg)
	}
	if len(decoded.Data) == 0 || decoded.Data[0].URL == "" {
		return nil, fmt.Errorf("%w: image generation returned no image URL", domain.ErrProviderFailure)
	}

	return g.download(ctx, decoded.Data[0].URL)
}

// download fetches the generated image from its short-lived URL.
func (g *OpenAIGenerator) download(ctx context.Context, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build image download: %w", err)
	}
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: download generated image: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: download generated image: %s", domain.ErrProviderFailure, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read generated image: %v", domain.ErrProviderFailure, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: generated image is empty", domain.ErrProviderFailure)
	}
	return data, nil
}

var _ Generator = (*OpenAIGenerator)(nil)

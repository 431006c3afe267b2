package title

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
	openAIDefaultTimeout = 15 * time.Second
	defaultChatModel     = "gpt-4o"

	refineSystemPrompt  = "You are a podcast title expert. Refine the provided podcast episode title to make it more engaging, catchy, and professional. Keep it concise (under 60 characters)."
	suggestSystemPrompt = "You are a podcast title expert. Generate 3 catchy, engaging podcast episode titles based on the description provided. Each title should be concise (under 60 characters) and compelling."
)

// OpenAIOptions configures the chat-completions backed refiner.
type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Fallback   Refiner
	OnFallback func(reason string, err error)
}

// OpenAIRefiner refines titles through the chat completions API, delegating
// to the fallback refiner whenever the upstream call cannot be completed.
type OpenAIRefiner struct {
	apiKey     string
	model      string
	baseURL    string
	client     *http.Client
	fallback   Refiner
	onFallback func(reason string, err error)
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenAIRefiner validates the options and builds the refiner.
func NewOpenAIRefiner(opts OpenAIOptions) (*OpenAIRefiner, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultChatModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	fallback := opts.Fallback
	if fallback == nil {
		fallback = NewStaticRefiner()
	}
	return &OpenAIRefiner{
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      model,
		baseURL:    baseURL,
		client:     client,
		fallback:   fallback,
		onFallback: opts.OnFallback,
	}, nil
}

// Refine asks the chat model for a punchier title. Failures fall back to the
// local refiner; the caller always receives a usable title.
func (o *OpenAIRefiner) Refine(ctx context.Context, original string) (string, error) {
	content, err := o.complete(ctx, chatRequest{
		Model:       o.model,
		Temperature: 0.7,
		MaxTokens:   60,
		Messages: []chatMessage{
			{Role: "system", Content: refineSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Refine this podcast episode title: %q", original)},
		},
	})
	if err != nil {
		o.reportFallback("refine", err)
		return o.fallback.Refine(ctx, original)
	}
	refined := strings.Trim(strings.TrimSpace(content), `"`)
	if refined == "" {
		return original, nil
	}
	return refined, nil
}

// Suggest asks for three titles and parses the numbered list.
func (o *OpenAIRefiner) Suggest(ctx context.Context, blurb string) ([]string, error) {
	content, err := o.complete(ctx, chatRequest{
		Model:       o.model,
		Temperature: 0.8,
		MaxTokens:   150,
		Messages: []chatMessage{
			{Role: "system", Content: suggestSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Generate 3 podcast episode titles based on this description: %q", blurb)},
		},
	})
	if err != nil {
		o.reportFallback("suggest", err)
		return o.fallback.Suggest(ctx, blurb)
	}
	titles := parseNumberedTitles(content)
	if len(titles) == 0 {
		return defaultSuggestions(), nil
	}
	return titles, nil
}

func (o *OpenAIRefiner) complete(ctx context.Context, payload chatRequest) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/chat/completions", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat request status %d", resp.StatusCode)
	}
	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("chat response has no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}

func (o *OpenAIRefiner) reportFallback(reason string, err error) {
	if o.onFallback != nil {
		o.onFallback(reason, err)
	}
}

// parseNumberedTitles splits "1. A\n2. B\n3. C" style output into titles.
func parseNumberedTitles(content string) []string {
	var titles []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "0123456789.)- ")
		line = strings.Trim(line, `"`)
		if line != "" {
			titles = append(titles, line)
		}
		if len(titles) == 3 {
			break
		}
	}
	return titles
}

var _ Refiner = (*OpenAIRefiner)(nil)

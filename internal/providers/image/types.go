package image

import "context"

// Sizes accepted by the thumbnail pipeline. SizeYouTube is the 16:9 rendition
// for video platforms; SizeSquare is podcast artwork.
const (
	SizeYouTube = "1792x1024"
	SizeSquare  = "1024x1024"
)

// GenerateRequest describes one rendition to produce.
type GenerateRequest struct {
	Prompt    string
	Size      string
	RequestID string
}

// Generator is the generation collaborator boundary: prompt text in, image
// bytes out. Implementations never retry; retry policy belongs to the client.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]byte, error)
}

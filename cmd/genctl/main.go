// genctl submits a thumbnail generation request to the API, polls it to a
// terminal state, and falls back to local rendering when the server does not
// deliver. The resulting images or URLs are written to the output directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/fallback"
	"server/pkg/poller"
)

func main() {
	var (
		baseURL  = flag.String("server", "http://localhost:8080", "API base URL")
		style    = flag.String("style", string(domain.StylePhotoCine), "visual style tag")
		realism  = flag.Int("realism", 50, "realism level, 0-100")
		titleArg = flag.String("title", "", "episode title (required)")
		hostURL  = flag.String("host-image", "", "optional host photo URL")
		guests   = flag.String("guest-images", "", "comma separated guest photo URLs")
		outDir   = flag.String("out", ".", "directory for locally rendered output")
		interval = flag.Duration("interval", 3*time.Second, "poll interval")
		budget   = flag.Int("budget", 30, "maximum number of polls")
		retries  = flag.Int("retries", 2, "resubmissions after a failed job")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if strings.TrimSpace(*titleArg) == "" {
		logger.Fatal().Msg("-title is required")
	}

	req := domain.GenerationRequest{
		Style:        domain.Style(*style),
		Realism:      *realism,
		Title:        *titleArg,
		HostImageURL: *hostURL,
	}
	for _, g := range strings.Split(*guests, ",") {
		if g = strings.TrimSpace(g); g != "" {
			req.GuestImageURLs = append(req.GuestImageURLs, g)
		}
	}
	if err := req.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid request")
	}

	renderer, err := fallback.NewRenderer()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise fallback renderer")
	}

	client := poller.NewClient(poller.Options{
		BaseURL:    *baseURL,
		Interval:   *interval,
		Budget:     *budget,
		MaxRetries: *retries,
		Fallback: func(ctx context.Context, req domain.GenerationRequest) (*poller.Images, error) {
			thumb, err := renderer.Render(fallback.Request{Title: req.Title, Style: req.Style, Realism: req.Realism}, fallback.YouTubeWidth, fallback.YouTubeHeight)
			if err != nil {
				return nil, err
			}
			square, err := renderer.Render(fallback.Request{Title: req.Title, Style: req.Style, Realism: req.Realism}, fallback.SquareSize, fallback.SquareSize)
			if err != nil {
				return nil, err
			}
			return &poller.Images{ThumbnailPNG: thumb, SquareArtworkPNG: square}, nil
		},
		Placeholder: func() *poller.Images {
			return &poller.Images{
				ThumbnailPNG:     fallback.Placeholder(fallback.YouTubeWidth, fallback.YouTubeHeight),
				SquareArtworkPNG: fallback.Placeholder(fallback.SquareSize, fallback.SquareSize),
			}
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("style", *style).Int("realism", *realism).Msg("submitting generation request")
	out := client.Generate(ctx, req)

	switch out.State {
	case poller.StateSucceeded:
		if out.UsedFallback {
			logger.Warn().Str("reason", out.ErrorMessage).Msg("server did not deliver, using local rendering")
			if err := writeLocal(*outDir, out.GenerationID, out.Local); err != nil {
				logger.Fatal().Err(err).Msg("failed to write local images")
			}
			return
		}
		logger.Info().Str("generation_id", out.GenerationID).Msg("generation complete")
		fmt.Println("thumbnail:", out.Result.ThumbnailURL)
		fmt.Println("square artwork:", out.Result.SquareArtworkURL)
		if out.Result.RefinedTitle != "" {
			fmt.Println("refined title:", out.Result.RefinedTitle)
		}
	case poller.StateDegraded:
		logger.Warn().Str("reason", out.ErrorMessage).Msg("fallback rendering failed, writing placeholder")
		if err := writeLocal(*outDir, "placeholder", out.Local); err != nil {
			logger.Fatal().Err(err).Msg("failed to write placeholder images")
		}
	default:
		logger.Fatal().Str("state", string(out.State)).Str("reason", out.ErrorMessage).Msg("generation did not produce artwork")
	}
}

func writeLocal(dir, id string, images *poller.Images) error {
	if images == nil {
		return fmt.Errorf("no local images to write")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if id == "" {
		id = fmt.Sprintf("local_%d", time.Now().UnixMilli())
	}
	thumbPath := filepath.Join(dir, id+".png")
	if err := os.WriteFile(thumbPath, images.ThumbnailPNG, 0o644); err != nil {
		return err
	}
	squarePath := filepath.Join(dir, id+"_square.png")
	if err := os.WriteFile(squarePath, images.SquareArtworkPNG, 0o644); err != nil {
		return err
	}
	fmt.Println("thumbnail:", thumbPath)
	fmt.Println("square artwork:", squarePath)
	return nil
}

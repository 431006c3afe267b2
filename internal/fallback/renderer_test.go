package fallback

import (
	"bytes"
	"image/png"
	"testing"

	"server/internal/domain"
)

func TestRenderAllStyles(t *testing.T) {
	t.Parallel()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer returned error: %v", err)
	}
	styles := []domain.Style{
		domain.StylePhotoCine,
		domain.StyleSemiEditorial,
		domain.StyleBoldSplit,
		domain.StyleNeonRetro,
		domain.StyleMinimalClean,
		domain.StyleComicIllus,
		domain.Style("unknown_style"),
	}
	for _, style := range styles {
		data, err := r.Render(Request{Title: "Space Talk", Style: style, Realism: 50}, YouTubeWidth, YouTubeHeight)
		if err != nil {
			t.Fatalf("Render(%s) returned error: %v", style, err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("Render(%s) produced invalid PNG: %v", style, err)
		}
		bounds := img.Bounds()
		if bounds.Dx() != YouTubeWidth || bounds.Dy() != YouTubeHeight {
			t.Fatalf("Render(%s) dimensions = %dx%d", style, bounds.Dx(), bounds.Dy())
		}
	}
}

func TestRenderSquare(t *testing.T) {
	t.Parallel()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer returned error: %v", err)
	}
	data, err := r.Render(Request{Title: "Artwork", Style: domain.StyleNeonRetro}, SquareSize, SquareSize)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	if img.Bounds().Dx() != SquareSize || img.Bounds().Dy() != SquareSize {
		t.Fatalf("dimensions = %v", img.Bounds())
	}
}

func TestPlaceholderNeverEmpty(t *testing.T) {
	t.Parallel()
	for _, dims := range [][2]int{{YouTubeWidth, YouTubeHeight}, {SquareSize, SquareSize}, {0, 0}, {-5, 10}} {
		data := Placeholder(dims[0], dims[1])
		if len(data) == 0 {
			t.Fatalf("Placeholder(%d, %d) returned empty bytes", dims[0], dims[1])
		}
		if _, err := png.Decode(bytes.NewReader(data)); err != nil {
			t.Fatalf("Placeholder(%d, %d) invalid PNG: %v", dims[0], dims[1], err)
		}
	}
}

// Package fallback renders thumbnails locally when the server pipeline does
// not deliver one in time. It mirrors the generation styles with flat
// gradients and a title overlay so the user always ends up with an image.
package fallback

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"

	"server/internal/domain"
)

// Standard output dimensions.
const (
	YouTubeWidth  = 1280
	YouTubeHeight = 720
	SquareSize    = 1000
)

// Request carries the inputs the renderer needs.
type Request struct {
	Title   string
	Style   domain.Style
	Realism int
}

// Renderer draws fallback thumbnails. The font is parsed once at construction.
type Renderer struct {
	font *truetype.Font
}

// NewRenderer parses the embedded typeface.
func NewRenderer() (*Renderer, error) {
	f, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("fallback: parse font: %w", err)
	}
	return &Renderer{font: f}, nil
}

type styleTheme struct {
	from, to color.RGBA
	text     color.RGBA
}

var (
	lightText = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	darkText  = color.RGBA{R: 0x21, G: 0x21, B: 0x21, A: 0xFF}
)

// themeFor maps a style tag to its gradient. Unknown tags get the neutral
// dark theme, matching the generation-side descriptor fallback.
func themeFor(style domain.Style) styleTheme {
	switch style {
	case domain.StylePhotoCine:
		return styleTheme{from: rgb(0x1A, 0x1A, 0x1A), to: rgb(0x4A, 0x4A, 0x4A), text: lightText}
	case domain.StyleSemiEditorial:
		return styleTheme{from: rgb(0xF5, 0xF5, 0xF5), to: rgb(0xE0, 0xE0, 0xE0), text: darkText}
	case domain.StyleBoldSplit:
		return styleTheme{from: rgb(0xFF, 0x57, 0x22), to: rgb(0xFF, 0x98, 0x00), text: lightText}
	case domain.StyleNeonRetro:
		return styleTheme{from: rgb(0x00, 0x00, 0x80), to: rgb(0x4B, 0x00, 0x82), text: lightText}
	case domain.StyleMinimalClean:
		return styleTheme{from: rgb(0xFF, 0xFF, 0xFF), to: rgb(0xF5, 0xF5, 0xF5), text: darkText}
	case domain.StyleComicIllus:
		return styleTheme{from: rgb(0xFF, 0xD5, 0x4F), to: rgb(0xFF, 0xC1, 0x07), text: darkText}
	default:
		return styleTheme{from: rgb(0x1E, 0x1E, 0x1E), to: rgb(0x2D, 0x2D, 0x2D), text: lightText}
	}
}

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}

// Render draws one thumbnail rendition and returns PNG bytes.
func (r *Renderer) Render(req Request, width, height int) ([]byte, error) {
	theme := themeFor(req.Style)

	dc := gg.NewContext(width, height)
	grad := gg.NewLinearGradient(0, 0, float64(width), float64(height))
	grad.AddColorStop(0, theme.from)
	grad.AddColorStop(1, theme.to)
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(width), float64(height))
	dc.Fill()

	if req.Title != "" {
		face := truetype.NewFace(r.font, &truetype.Options{Size: float64(height) / 9})
		dc.SetFontFace(face)
		dc.SetColor(theme.text)
		dc.DrawStringWrapped(
			req.Title,
			float64(width)/2, float64(height)*0.72,
			0.5, 0.5,
			float64(width)*0.88, 1.3,
			gg.AlignCenter,
		)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("fallback: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Placeholder returns a flat dark PNG of the requested size. It is the last
// resort and cannot fail: encoding a plain RGBA image into a buffer has no
// error path worth surfacing, and the degenerate case returns a 1x1 image.
func Placeholder(width, height int) []byte {
	if width <= 0 || height <= 0 {
		width, height = 1, 1
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill := rgb(0x1E, 0x1E, 0x1E)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

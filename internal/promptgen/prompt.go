package promptgen

import (
	"fmt"
	"strings"

	"server/internal/domain"
)

// StyleDescription maps a style tag to the textual descriptor embedded in the
// generation prompt. Unrecognized tags fall back to a generic descriptor so
// prompt building never fails.
func StyleDescription(style domain.Style) string {
	switch style {
	case domain.StylePhotoCine:
		return "cinematic style with dramatic lighting and depth of field"
	case domain.StyleSemiEditorial:
		return "editorial illustration style with flat shading and muted color palette"
	case domain.StyleBoldSplit:
		return "vector pop-art style with split complementary colors and bold outlines"
	case domain.StyleNeonRetro:
		return "80s retro style with neon colors and synthwave aesthetic"
	case domain.StyleMinimalClean:
		return "minimalist design with clean lines and ample whitespace"
	case domain.StyleComicIllus:
		return "comic book illustration style with bold colors and line art"
	default:
		return "professional podcast thumbnail style"
	}
}

// RealismBand buckets the 0-100 realism slider into the three descriptors
// understood by the image model.
func RealismBand(realism int) string {
	switch {
	case realism > 70:
		return "highly realistic"
	case realism > 40:
		return "semi-realistic"
	default:
		return "stylized"
	}
}

// Build assembles the generation prompt. It is a pure function: identical
// inputs always produce byte-identical output. Text is composited onto the
// thumbnail separately, so the prompt always forbids embedded text.
func Build(title string, style domain.Style, realism int, hostDescription string) string {
	lines := []string{
		fmt.Sprintf("Create a professional podcast thumbnail for a podcast titled %q.", title),
		fmt.Sprintf("Style: %s, %s.", StyleDescription(style), RealismBand(realism)),
		"The thumbnail should be eye-catching and suitable for YouTube.",
	}
	if desc := strings.TrimSpace(hostDescription); desc != "" {
		lines = append(lines, fmt.Sprintf("Include visual elements related to: %s.", desc))
	}
	lines = append(lines,
		"Include appropriate visual elements that convey the podcast theme.",
		"Make it look professional and high-quality.",
		"Do not include any text in the image.",
	)
	return strings.Join(lines, "\n")
}

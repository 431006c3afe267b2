package domain

import (
	"fmt"
	"strings"
)

// Style enumerates the visual styles offered by the generator wizard.
type Style string

const (
	StylePhotoCine     Style = "photo_cine"
	StyleSemiEditorial Style = "semi_edi"
	StyleBoldSplit     Style = "bold_split"
	StyleNeonRetro     Style = "neon_retro"
	StyleMinimalClean  Style = "minimal_clean"
	StyleComicIllus    Style = "comic_illus"
)

// GenerationRequest is the submission payload. It is immutable once accepted.
type GenerationRequest struct {
	Style          Style    `json:"style"`
	Realism        int      `json:"realism"`
	Title          string   `json:"title"`
	HostImageURL   string   `json:"hostImageUrl,omitempty"`
	GuestImageURLs []string `json:"guestImageUrls,omitempty"`
}

// Validate checks the synchronous submission requirements. Style and title
// are mandatory; everything else is optional. Unknown style tags are accepted
// and fall back to a generic descriptor downstream.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(string(r.Style)) == "" || strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: style and title are required", ErrInvalidRequest)
	}
	return nil
}

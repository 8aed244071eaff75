package model

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"content-tracker/internal/apperrors"
)

// DiscoveredContent is one item returned by a content source.
// @Description Newly published item of a tracked account.
type DiscoveredContent struct {
	PlatformID     string    `json:"platform_id" example:"7283910012"`                  // Platform-unique ID, the dedup key
	AuthorUsername string    `json:"author_username" example:"mrbeast"`                 // Account the item belongs to
	Caption        string    `json:"caption" example:"new video"`                       // May be empty
	VideoURL       string    `json:"video_url" example:"https://tiktok.com/@mrbeast/1"` // Absolute http(s) URL
	CoverImageURL  *string   `json:"cover_image_url,omitempty"`                         // Optional absolute http(s) URL
	CreatedAt      time.Time `json:"created_at"`                                        // Publication time on the platform
} // @Name DiscoveredContent

// Normalize fills the author from the owning account when the source left it empty
// and converts the caption to NFC so equal captions compare equal downstream.
func (c DiscoveredContent) Normalize(account string) DiscoveredContent {
	c.PlatformID = strings.TrimSpace(c.PlatformID)
	c.AuthorUsername = strings.TrimSpace(c.AuthorUsername)

	if c.AuthorUsername == "" {
		c.AuthorUsername = account
	}

	c.Caption = norm.NFC.String(c.Caption)

	if c.CoverImageURL != nil && strings.TrimSpace(*c.CoverImageURL) == "" {
		c.CoverImageURL = nil
	}

	if !c.CreatedAt.IsZero() {
		c.CreatedAt = c.CreatedAt.UTC()
	}

	return c
}

func (c DiscoveredContent) Validate() error {
	if c.PlatformID == "" {
		return fmt.Errorf("%w: platform_id is empty", apperrors.ErrMalformedEvent)
	}

	if c.AuthorUsername == "" {
		return fmt.Errorf("%w: author_username is empty", apperrors.ErrMalformedEvent)
	}

	if err := validateHTTPURL(c.VideoURL); err != nil {
		return fmt.Errorf("%w: video_url: %w", apperrors.ErrMalformedEvent, err)
	}

	if c.CoverImageURL != nil {
		if err := validateHTTPURL(*c.CoverImageURL); err != nil {
			return fmt.Errorf("%w: cover_image_url: %w", apperrors.ErrMalformedEvent, err)
		}
	}

	if c.CreatedAt.IsZero() {
		return fmt.Errorf("%w: created_at is empty", apperrors.ErrMalformedEvent)
	}

	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("missing host")
	}

	return nil
}

// ContentSearchHit
// @Description Indexed item matched by a caption search.
type ContentSearchHit struct {
	Content   DiscoveredContent   `json:"content"`
	Highlight map[string][]string `json:"highlight,omitempty"`
} // @Name ContentSearchHit

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"content-tracker/internal/apperrors"
	"content-tracker/internal/model"
)

const maxErrorBody = 512

// HTTP fetches items from a scraper service that serves
// GET {baseURL}/accounts/{username}/items as a JSON array.
type HTTP struct {
	baseURL string
	client  *http.Client
}

func NewHTTP(baseURL string, timeout time.Duration) *HTTP {
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTP) FetchCandidates(ctx context.Context, username string) (items []model.DiscoveredContent, err error) {
	endpoint := fmt.Sprintf("%s/accounts/%s/items", s.baseURL, url.PathEscape(username))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrTransportUnavailable, err)
	}

	defer func() {
		if cErr := res.Body.Close(); cErr != nil {
			err = fmt.Errorf("%w, failed to close response body: %w", err, cErr)
		}
	}()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: %s: %s", apperrors.ErrTransportUnavailable, res.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(res.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: failed to decode items: %w", apperrors.ErrTransportUnavailable, err)
	}

	return items, nil
}

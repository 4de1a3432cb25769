package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/predictify/predictify/internal/domain"
)

// HTTPClient reads feed values from a JSON price endpoint. A feed is
// addressed as {baseURL}/feeds/{feedID} and must answer
// {"value": <int64>, "updated_at": <unix>}; stale or unreachable feeds
// map to domain.ErrOracleUnavailable so the adapter can apply its
// fallback rules.
type HTTPClient struct {
	baseURL  string
	client   *http.Client
	maxStale time.Duration
}

// NewHTTPClient creates an HTTPClient for the provider at baseURL.
// maxStale of zero disables the staleness check.
func NewHTTPClient(baseURL string, timeout, maxStale time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: timeout},
		maxStale: maxStale,
	}
}

type feedResponse struct {
	Value     int64 `json:"value"`
	UpdatedAt int64 `json:"updated_at"`
}

func (c *HTTPClient) Read(ctx context.Context, feedID string) (int64, error) {
	endpoint := fmt.Sprintf("%s/feeds/%s", c.baseURL, url.PathEscape(feedID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: feed %s returned status %d", domain.ErrOracleUnavailable, feedID, resp.StatusCode)
	}

	var feed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return 0, fmt.Errorf("%w: malformed feed response: %v", domain.ErrOracleUnavailable, err)
	}

	if c.maxStale > 0 && feed.UpdatedAt > 0 {
		age := time.Since(time.Unix(feed.UpdatedAt, 0))
		if age > c.maxStale {
			return 0, fmt.Errorf("%w: feed %s is stale (%s old)", domain.ErrOracleUnavailable, feedID, age)
		}
	}

	return feed.Value, nil
}

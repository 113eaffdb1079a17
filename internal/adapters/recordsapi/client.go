package recordsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports"
)

// Client is an HTTP batch record source backed by the upstream attendance
// records API. FetchRange targets the specialized ranged endpoint, which
// older deployments of the upstream do not expose; the query controller
// handles the resulting failure with its paged fallback.
type Client struct {
	client  *http.Client
	baseURL string
}

var _ ports.BatchRecordSource = (*Client)(nil)

// NewClient creates a client against the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
	}
}

// FetchRecent retrieves the most recent events for the organization.
func (c *Client) FetchRecent(ctx context.Context, orgID string, limit int) ([]model.RawEvent, error) {
	endpoint := fmt.Sprintf("%s/api/v1/organizations/%s/records?limit=%d",
		c.baseURL, url.PathEscape(orgID), limit)
	return c.get(ctx, endpoint)
}

// FetchRange retrieves events within [start, end] from the ranged endpoint.
func (c *Client) FetchRange(ctx context.Context, orgID string, start, end time.Time) ([]model.RawEvent, error) {
	q := url.Values{}
	q.Set("start", strconv.FormatInt(start.UnixMilli(), 10))
	q.Set("end", strconv.FormatInt(end.UnixMilli(), 10))
	endpoint := fmt.Sprintf("%s/api/v1/organizations/%s/records/range?%s",
		c.baseURL, url.PathEscape(orgID), q.Encode())
	return c.get(ctx, endpoint)
}

func (c *Client) get(ctx context.Context, endpoint string) ([]model.RawEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create records api request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call records api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("records api returned non-successful status code: %d", resp.StatusCode)
	}

	var events []model.RawEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("failed to decode records api response: %w", err)
	}
	return events, nil
}

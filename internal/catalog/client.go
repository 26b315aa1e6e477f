// Package catalog fetches earthquake catalogues from the dashboard REST
// layer and reads and writes catalogue JSON documents. Events are validated
// on the way in; rejected rows are reported, never passed on.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rewired-gh/quakelens/internal/logger"
	"github.com/rewired-gh/quakelens/internal/models"
)

// Client provides access to the catalogue API
type Client struct {
	apiBaseURL string
	httpClient *http.Client
	config     ClientConfig
}

// ClientConfig holds retry settings.
type ClientConfig struct {
	MaxRetries     int
	RetryDelayBase time.Duration
}

// CatalogueInfo describes a catalogue available from the API.
type CatalogueInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Region     string `json:"region"`
	EventCount int    `json:"event_count"`
}

// EventQuery narrows an event fetch. Zero fields are not sent.
type EventQuery struct {
	MinMagnitude *float64
	Start        time.Time
	End          time.Time
}

// NewClient creates a new catalogue API client
func NewClient(apiBaseURL string, timeout time.Duration, cfg ClientConfig) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	return &Client{
		apiBaseURL: apiBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config: cfg,
	}
}

// FetchCatalogues lists the catalogues the API serves.
func (c *Client) FetchCatalogues(ctx context.Context) ([]CatalogueInfo, error) {
	body, err := c.doRequest(ctx, c.apiBaseURL+"/catalogues")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalogues: %w", err)
	}

	var response struct {
		Catalogues []CatalogueInfo `json:"catalogues"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode catalogues: %w", err)
	}
	return response.Catalogues, nil
}

// FetchCatalogue retrieves the events of one catalogue. Invalid events are
// dropped, logged and counted in the report.
func (c *Client) FetchCatalogue(ctx context.Context, id string, q EventQuery) (models.Catalogue, *ValidationReport, error) {
	params := url.Values{}
	if q.MinMagnitude != nil {
		params.Set("min_magnitude", strconv.FormatFloat(*q.MinMagnitude, 'f', -1, 64))
	}
	if !q.Start.IsZero() {
		params.Set("start", q.Start.UTC().Format(time.RFC3339))
	}
	if !q.End.IsZero() {
		params.Set("end", q.End.UTC().Format(time.RFC3339))
	}
	u := fmt.Sprintf("%s/catalogues/%s/events", c.apiBaseURL, url.PathEscape(id))
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	body, err := c.doRequest(ctx, u)
	if err != nil {
		return models.Catalogue{}, nil, fmt.Errorf("failed to fetch catalogue %s: %w", id, err)
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return models.Catalogue{}, nil, fmt.Errorf("failed to decode catalogue %s: %w", id, err)
	}

	cat, report := doc.Catalogue(id)
	if report.Invalid() > 0 {
		logger.Warn("Dropped %d invalid events from catalogue %s (%s)", report.Invalid(), id, report)
		for _, e := range report.Errors {
			logger.Debug("%v", e)
		}
	}
	logger.Debug("Fetched %d events from catalogue %s", len(cat.Events), id)
	return cat, report, nil
}

// doRequest performs a GET with retry on transport errors and 5xx responses.
// Other non-2xx statuses fail immediately.
func (c *Client) doRequest(ctx context.Context, target string) ([]byte, error) {
	var lastErr error

	for i := 0; i < c.config.MaxRetries; i++ {
		if i > 0 {
			delay := c.config.RetryDelayBase * time.Duration(i)
			logger.Debug("Retrying %s in %v (attempt %d/%d): %v", target, delay, i+1, c.config.MaxRetries, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		switch {
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
		case err != nil:
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}
		return body, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

package contactsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/contactmerge/backend/internal/domain"
	"github.com/contactmerge/backend/internal/logger"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultPageSize    = 200
	defaultRatePerSec  = 5.0
	maxAttempts        = 3
	maxPages           = 10000
	backoffBase        = 500 * time.Millisecond
	userAgent          = "ContactMerge/1.0"
	maxErrorBodyLength = 512
)

// ClientConfig holds configuration for the contacts backend client
type ClientConfig struct {
	BaseURL           string
	APIToken          string
	Timeout           time.Duration
	RequestsPerSecond float64
	PageSize          int
}

// Client is a ContactRepository backed by the contacts REST backend
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiToken    string
	pageSize    int
	rateLimiter *rate.Limiter
	debug       bool
}

// listResponse is one page of GET /contacts
type listResponse struct {
	Items       []map[string]any `json:"items"`
	CurrentPage int              `json:"current_page"`
	TotalPages  int              `json:"total_pages"`
}

// NewClient creates a new contacts backend client
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRatePerSec
	}
	pageSize := config.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		apiToken:    config.APIToken,
		pageSize:    pageSize,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}
}

// SetDebug enables request tracing
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// exponentialBackoff returns the wait before retrying after the given attempt
func exponentialBackoff(attempt int) time.Duration {
	return backoffBase * time.Duration(1<<(attempt-1))
}

// List fetches every page of contacts
func (c *Client) List(ctx context.Context) ([]domain.ContactRecord, error) {
	records := []domain.ContactRecord{}

	for page := 1; page <= maxPages; page++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("page_size", strconv.Itoa(c.pageSize))

		body, err := c.do(ctx, http.MethodGet, "/contacts?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}

		var resp listResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: failed to decode contact page %d: %v", domain.ErrBackendFailure, page, err)
		}

		for _, item := range resp.Items {
			record, err := MapToContactRecord(item)
			if err != nil {
				return nil, err
			}
			records = append(records, record)
		}

		if c.debug {
			logger.Debug("[Contacts] page fetched", "page", page, "items", len(resp.Items), "totalPages", resp.TotalPages)
		}

		if len(resp.Items) == 0 || page >= resp.TotalPages {
			return records, nil
		}
	}

	return nil, fmt.Errorf("%w: more than %d pages", domain.ErrBackendFailure, maxPages)
}

// Get fetches one contact
func (c *Client) Get(ctx context.Context, id string) (domain.ContactRecord, error) {
	body, err := c.do(ctx, http.MethodGet, "/contacts/"+url.PathEscape(id), nil)
	if err != nil {
		if errors.Is(err, domain.ErrContactNotFound) {
			return domain.ContactRecord{}, fmt.Errorf("%w: %q", domain.ErrContactNotFound, id)
		}
		return domain.ContactRecord{}, err
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.ContactRecord{}, fmt.Errorf("%w: failed to decode contact %q: %v", domain.ErrBackendFailure, id, err)
	}
	return MapToContactRecord(payload)
}

// Save writes a contact with PUT /contacts/{id}
func (c *Client) Save(ctx context.Context, record domain.ContactRecord) error {
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("%w: contact id is required", domain.ErrInvalidRequest)
	}

	payload, err := json.Marshal(MapFromContactRecord(record))
	if err != nil {
		return fmt.Errorf("failed to encode contact %q: %w", record.ID, err)
	}

	_, err = c.do(ctx, http.MethodPut, "/contacts/"+url.PathEscape(record.ID), payload)
	return err
}

// Delete removes contacts one by one; already-missing contacts are not an error
func (c *Client) Delete(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		_, err := c.do(ctx, http.MethodDelete, "/contacts/"+url.PathEscape(id), nil)
		if err != nil && !errors.Is(err, domain.ErrContactNotFound) {
			return err
		}
	}
	return nil
}

// do executes a request with rate limiting and retries on transport errors and 5xx/429
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	reqURL := c.baseURL + path

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(exponentialBackoff(attempt - 1)):
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.apiToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiToken)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("[Contacts] request failed", "method", method, "path", path, "attempt", attempt, "err", err)
			lastErr = fmt.Errorf("%w: %v", domain.ErrBackendFailure, err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if c.debug {
			logger.Debug("[Contacts] response", "method", method, "path", path, "status", resp.StatusCode, "attempt", attempt)
		}

		switch {
		case readErr != nil:
			lastErr = fmt.Errorf("%w: failed to read response: %v", domain.ErrBackendFailure, readErr)
			continue
		case resp.StatusCode == http.StatusNotFound:
			return nil, domain.ErrContactNotFound
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w: %w", domain.ErrBackendFailure, domain.ErrRateLimited)
			continue
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("%w: status %d", domain.ErrBackendFailure, resp.StatusCode)
			continue
		case resp.StatusCode >= 400:
			return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrBackendFailure, resp.StatusCode, truncate(body))
		}

		return body, nil
	}

	logger.Error("[Contacts] all retries failed", "method", method, "path", path)
	return nil, lastErr
}

func truncate(body []byte) string {
	if len(body) > maxErrorBodyLength {
		return string(body[:maxErrorBodyLength]) + "..."
	}
	return string(body)
}

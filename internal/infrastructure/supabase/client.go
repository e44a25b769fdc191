package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/grocerycalc/backend/internal/domain"
)

// ClientConfig holds settings for the PostgREST catalog client
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Table   string
	Timeout time.Duration
	// RequestsPerSecond and Burst shape the outbound rate limiter
	RequestsPerSecond float64
	Burst             int
}

// Client talks to the products table through the Supabase REST (PostgREST) API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	table       string
	rateLimiter *rate.Limiter
	maxAttempts int
	backoffBase time.Duration
	debug       bool
}

// NewClient creates a new catalog client
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	table := cfg.Table
	if table == "" {
		table = "products"
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		table:       table,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), burst),
		maxAttempts: 3,
		backoffBase: 500 * time.Millisecond,
	}
}

// SetDebug enables logging of response bodies
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// exponentialBackoff returns the wait before retrying after the given attempt
func (c *Client) exponentialBackoff(attempt int) time.Duration {
	return c.backoffBase * time.Duration(1<<uint(attempt-1))
}

func (c *Client) tableURL(query url.Values) string {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, c.table)
	if len(query) == 0 {
		return endpoint
	}
	return fmt.Sprintf("%s?%s", endpoint, query.Encode())
}

// doRequest executes a request with auth headers, returning the body of a 2xx response
func (c *Client) doRequest(ctx context.Context, method, reqURL string, body interface{}) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrRemoteUnavailable, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "GroceryCalc/1.0")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=representation")
	}
	if method == http.MethodDelete {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrRemoteUnavailable, err)
	}
	if c.debug {
		log.Printf("[Supabase] %s %s -> %d: %s", method, reqURL, resp.StatusCode, string(respBody))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode, body: string(respBody)}
	}
	return respBody, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v: status %d: %s", domain.ErrRemoteUnavailable, e.code, e.body)
}

func (e *statusError) Unwrap() error {
	return domain.ErrRemoteUnavailable
}

// retryable reports whether a failed attempt is worth repeating
func retryable(err error) bool {
	if se, ok := err.(*statusError); ok {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return true
}

// FetchAll returns every product ordered by data_added descending
func (c *Client) FetchAll(ctx context.Context) ([]domain.Product, error) {
	params := url.Values{}
	params.Add("select", "*")
	params.Add("order", "data_added.desc")
	reqURL := c.tableURL(params)

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		body, err := c.doRequest(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			log.Printf("[Supabase] FetchAll failed (attempt %d): %v", attempt, err)
			lastErr = err
			if !retryable(err) || attempt == c.maxAttempts {
				break
			}
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, ctx.Err())
			case <-time.After(c.exponentialBackoff(attempt)):
			}
			continue
		}

		var records []Record
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrRemoteUnavailable, err)
		}

		products := MapProducts(records)
		log.Printf("[Supabase] Fetched %d products (%d records)", len(products), len(records))
		return products, nil
	}

	return nil, lastErr
}

// Insert creates a product and returns its id
func (c *Client) Insert(ctx context.Context, input domain.ProductInput) (string, error) {
	body, err := c.doRequest(ctx, http.MethodPost, c.tableURL(nil), []map[string]interface{}{recordFromInput(input)})
	if err != nil {
		return "", err
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", domain.ErrRemoteUnavailable, err)
	}
	if len(records) == 0 {
		return "", fmt.Errorf("%w: insert returned no rows", domain.ErrRemoteUnavailable)
	}
	id, ok := scalarString(records[0].ID)
	if !ok {
		return "", fmt.Errorf("%w: insert returned no id", domain.ErrRemoteUnavailable)
	}
	return id, nil
}

// Update applies a partial edit to the product with the given id
func (c *Client) Update(ctx context.Context, id string, update domain.ProductUpdate) error {
	params := url.Values{}
	params.Add("id", "eq."+id)

	body, err := c.doRequest(ctx, http.MethodPatch, c.tableURL(params), recordFromUpdate(update))
	if err != nil {
		return err
	}
	return expectRows(body, id)
}

// Delete removes the product with the given id
func (c *Client) Delete(ctx context.Context, id string) error {
	params := url.Values{}
	params.Add("id", "eq."+id)

	body, err := c.doRequest(ctx, http.MethodDelete, c.tableURL(params), nil)
	if err != nil {
		return err
	}
	return expectRows(body, id)
}

// expectRows maps an empty representation to ErrProductNotFound
func expectRows(body []byte, id string) error {
	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", domain.ErrRemoteUnavailable, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return nil
}

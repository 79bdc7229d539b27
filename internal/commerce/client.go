// Package commerce reads catalog data from the remote commerce API.
package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/models"
)

// ErrProductNotFound is returned for ids the API does not know. The API
// answers those with an empty object rather than a 404.
var ErrProductNotFound = errors.New("product not found")

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) (*Client, error) {
	const op = "commerce.NewClient"

	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%s: base url must be http(s), got %q", op, baseURL)
	}

	return &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("commerce"),
	}, nil
}

// Product fetches GET /product/{id}.
func (c *Client) Product(ctx context.Context, id string) (models.Product, error) {
	const op = "Client.Product"

	id = strings.TrimSpace(id)
	if id == "" || id == "." || id == ".." {
		return models.Product{}, fmt.Errorf("%s: %w", op, ErrProductNotFound)
	}

	var p models.Product
	if err := c.getJSON(ctx, &p, "product", url.PathEscape(id)); err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	if p.Name == "" {
		return models.Product{}, fmt.Errorf("%s: %w: %s", op, ErrProductNotFound, id)
	}
	if p.ID == "" {
		p.ID = id
	}
	return p, nil
}

type productsEnvelope struct {
	Data []models.Product `json:"data"`
}

// Products fetches GET /products, or GET /products/{categoryKey} when a
// category is given.
func (c *Client) Products(ctx context.Context, categoryKey string) ([]models.Product, error) {
	const op = "Client.Products"

	segments := []string{"products"}
	if key := strings.TrimSpace(categoryKey); key != "" {
		segments = append(segments, url.PathEscape(key))
	}

	var envelope productsEnvelope
	if err := c.getJSON(ctx, &envelope, segments...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if envelope.Data == nil {
		return []models.Product{}, nil
	}
	return envelope.Data, nil
}

func (c *Client) getJSON(ctx context.Context, v any, segments ...string) error {
	endpoint := c.baseURL.JoinPath(segments...).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.log.Debug("fetched",
		zap.String("url", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Code: resp.StatusCode, URL: endpoint}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

// Retryable reports whether a failed call may succeed when repeated:
// transport failures, 5xx and 429 answers. Unknown ids and malformed
// bodies are final.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrProductNotFound) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

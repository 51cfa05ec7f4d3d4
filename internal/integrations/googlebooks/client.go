package googlebooks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	books "google.golang.org/api/books/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrNoCover is returned when the catalog has no thumbnail for the query.
var ErrNoCover = errors.New("googlebooks: no cover found")

// Client looks up cover thumbnails through the Books API volumes.list call.
type Client struct {
	svc    *books.Service
	apiKey string
}

type config struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

type Option func(*config)

func WithAPIKey(key string) Option {
	return func(c *config) {
		c.apiKey = strings.TrimSpace(key)
	}
}

// WithEndpoint overrides the API base path, e.g. for tests.
func WithEndpoint(endpoint string) Option {
	return func(c *config) {
		c.endpoint = strings.TrimSpace(endpoint)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *config) {
		c.httpClient = httpClient
	}
}

// NewClient builds an unauthenticated Books client. The public search endpoint
// needs no credentials; an API key only raises the quota.
func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := config{httpClient: &http.Client{Timeout: 10 * time.Second}}
	for _, opt := range opts {
		opt(&cfg)
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(cfg.httpClient)}
	if cfg.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.endpoint))
	}
	svc, err := books.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("googlebooks: create service: %w", err)
	}
	return &Client{svc: svc, apiKey: cfg.apiKey}, nil
}

// FindCover returns the https thumbnail of the first volume matching title
// and author, or ErrNoCover.
func (c *Client) FindCover(ctx context.Context, title, author string) (string, error) {
	q := Query(title, author)
	if q == "" {
		return "", ErrNoCover
	}

	var callOpts []googleapi.CallOption
	if c.apiKey != "" {
		callOpts = append(callOpts, googleapi.QueryParameter("key", c.apiKey))
	}
	res, err := c.svc.Volumes.List(q).MaxResults(1).Context(ctx).Do(callOpts...)
	if err != nil {
		return "", fmt.Errorf("googlebooks: volumes list: %w", err)
	}
	if res == nil || len(res.Items) == 0 || res.Items[0].VolumeInfo == nil {
		return "", ErrNoCover
	}
	links := res.Items[0].VolumeInfo.ImageLinks
	if links == nil {
		return "", ErrNoCover
	}
	thumb := links.Thumbnail
	if thumb == "" {
		thumb = links.SmallThumbnail
	}
	if thumb == "" {
		return "", ErrNoCover
	}
	return SecureURL(thumb), nil
}

// Query joins title and author into the search string.
func Query(title, author string) string {
	return strings.TrimSpace(strings.TrimSpace(title) + " " + strings.TrimSpace(author))
}

// SecureURL upgrades an http URL to https.
func SecureURL(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

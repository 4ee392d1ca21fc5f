package studio

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// Client is an authenticated handle to the studio service. It consults its
// TokenSource for every connection it opens, so a refreshing source keeps the
// client authorized indefinitely.
type Client struct {
	apiURL     string
	syncURL    string
	source     TokenSource
	httpClient *http.Client
	dialer     *websocket.Dialer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client for API requests.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithDialer overrides the websocket dialer for sync connections.
func WithDialer(dialer *websocket.Dialer) ClientOption {
	return func(c *Client) { c.dialer = dialer }
}

// NewClient creates a studio client for the configured endpoints.
func NewClient(cfg AuthConfig, source TokenSource, opts ...ClientOption) (*Client, error) {
	if source == nil {
		return nil, errors.New("token source is required")
	}
	if strings.TrimSpace(cfg.SyncURL) == "" {
		return nil, errors.New("sync endpoint is required")
	}
	c := &Client{
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		syncURL:    strings.TrimRight(cfg.SyncURL, "/"),
		source:     source,
		httpClient: http.DefaultClient,
		dialer:     websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// OpenDocument creates a handle for the project's synced document. The
// handle is inert until Start is called.
func (c *Client) OpenDocument(projectRef string) (*Document, error) {
	ref := strings.TrimSpace(projectRef)
	if ref == "" {
		return nil, errors.New("project reference is required")
	}
	return &Document{client: c, projectRef: ref}, nil
}

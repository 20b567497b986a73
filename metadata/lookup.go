package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/itchyny/gojq"
	"golang.org/x/net/html"
)

const (
	DefaultEndpoint   = "https://noembed.com/embed?url="
	DefaultTitleQuery = ".title"

	maxBody = 4 << 20
)

var ErrNoTitle = errors.New("metadata: no title found")

// Options configures a Client. Zero values select the defaults.
type Options struct {
	// Endpoint is an oEmbed style service; the escaped page URL is appended
	// to it.
	Endpoint string
	// TitleQuery is a jq expression selecting the title from the JSON
	// response of the endpoint.
	TitleQuery string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client looks up song metadata over HTTP. It asks the endpoint first and
// falls back to the <title> or og:title of the page itself.
type Client struct {
	endpoint string
	query    *gojq.Query
	http     *http.Client
	logger   *slog.Logger
}

func NewClient(opts Options) (*Client, error) {
	c := &Client{endpoint: opts.Endpoint, http: opts.HTTPClient, logger: opts.Logger}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	expr := opts.TitleQuery
	if expr == "" {
		expr = DefaultTitleQuery
	}
	q, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("metadata: invalid title query %q: %w", expr, err)
	}
	c.query = q
	return c, nil
}

// Lookup returns the title and artist of the song at pageURL.
func (c *Client) Lookup(ctx context.Context, pageURL string) (title, artist string, err error) {
	raw, err := c.RawTitle(ctx, pageURL)
	if err != nil {
		return "", "", err
	}
	title, artist = Split(raw)
	c.logger.Debug("metadata lookup", "url", pageURL, "raw", raw, "title", title, "artist", artist)
	return title, artist, nil
}

// RawTitle returns the title of the page at pageURL as published, without
// any cleanup.
func (c *Client) RawTitle(ctx context.Context, pageURL string) (string, error) {
	title, err := c.fromEndpoint(ctx, pageURL)
	if err == nil && title != "" {
		return title, nil
	}
	if err != nil {
		c.logger.Debug("endpoint lookup failed, trying the page", "url", pageURL, "err", err)
	}
	return c.fromPage(ctx, pageURL)
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata: GET %s: %s", u, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}

func (c *Client) fromEndpoint(ctx context.Context, pageURL string) (string, error) {
	body, err := c.get(ctx, c.endpoint+url.QueryEscape(pageURL))
	if err != nil {
		return "", err
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return "", fmt.Errorf("metadata: endpoint response: %w", err)
	}
	iter := c.query.RunWithContext(ctx, v)
	for {
		r, ok := iter.Next()
		if !ok {
			return "", nil
		}
		if err, ok := r.(error); ok {
			return "", fmt.Errorf("metadata: title query: %w", err)
		}
		if s, ok := r.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), nil
		}
	}
}

func (c *Client) fromPage(ctx context.Context, pageURL string) (string, error) {
	body, err := c.get(ctx, pageURL)
	if err != nil {
		return "", err
	}
	if title := PageTitle(body); title != "" {
		return title, nil
	}
	return "", fmt.Errorf("%w at %s", ErrNoTitle, pageURL)
}

// PageTitle extracts the og:title meta property of an HTML page, or its
// <title> if there is none.
func PageTitle(content []byte) string {
	doc, err := html.Parse(strings.NewReader(string(content)))
	if err != nil {
		return ""
	}
	var title, og string
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				if attr(n, "property") == "og:title" && og == "" {
					og = strings.TrimSpace(attr(n, "content"))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)
	if og != "" {
		return og
	}
	return title
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

package scripture

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/klambros/orthoglossa/internal/observe"
)

// DefaultEndpoint is the public pericope service used when no endpoint is
// configured.
const DefaultEndpoint = "https://ponomarserver-production.up.railway.app/pericope"

// DefaultTimeout bounds a single passage lookup.
const DefaultTimeout = 60 * time.Second

// ErrNoResult indicates the service answered successfully but returned no
// verses for the requested selection.
var ErrNoResult = errors.New("scripture: no verses for reference")

// Client fetches passage text from a pericope service over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
	metrics    *observe.Metrics
}

// ClientOption is a functional option for configuring a [Client].
type ClientOption func(*Client)

// WithEndpoint overrides the pericope service URL.
func WithEndpoint(url string) ClientOption {
	return func(c *Client) {
		c.endpoint = url
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying [http.Client] entirely. Later
// [WithTimeout] options apply to the replacement.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics sets the metrics instance used for instrumentation. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a passage client with the given options.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	return c
}

// passageRequest is the pericope service request body.
type passageRequest struct {
	BookName  string `json:"bookName"`
	Lang      string `json:"lang"`
	WhereExpr string `json:"whereExpr"`
}

// verse is one element of the pericope service response array.
type verse struct {
	Verse int    `json:"verse"`
	Text  string `json:"text"`
}

// Fetch retrieves the passage text for ref in the given language. The verse
// texts are joined with single spaces, without verse numbers. Returns
// [ErrNoResult] when the selection matches nothing.
func (c *Client) Fetch(ctx context.Context, ref Reference, lang string) (string, error) {
	ctx, span := observe.StartSpan(ctx, "scripture.Fetch",
		trace.WithAttributes(
			observe.Attr("book", ref.BookKey),
			observe.Attr("lang", lang),
		),
	)
	defer span.End()

	start := time.Now()
	text, err := c.fetch(ctx, ref, lang)
	c.metrics.PassageFetchDuration.Record(ctx, time.Since(start).Seconds())

	status := "ok"
	switch {
	case errors.Is(err, ErrNoResult):
		status = "empty"
	case err != nil:
		status = "error"
	}
	c.metrics.RecordPassageRequest(ctx, ref.BookKey, lang, status)

	if err != nil {
		observe.Logger(ctx).Warn("passage fetch failed",
			"reference", ref.Raw, "book", ref.BookKey, "lang", lang, "err", err)
		return "", err
	}
	return text, nil
}

func (c *Client) fetch(ctx context.Context, ref Reference, lang string) (string, error) {
	body, err := json.Marshal(passageRequest{
		BookName:  ref.BookKey,
		Lang:      lang,
		WhereExpr: ref.WhereExpr(),
	})
	if err != nil {
		return "", fmt.Errorf("scripture: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("scripture: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("scripture: passage request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a snippet of the body for the error message, then drain.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("scripture: passage service returned %d: %s",
			resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var verses []verse
	if err := json.NewDecoder(resp.Body).Decode(&verses); err != nil {
		return "", fmt.Errorf("scripture: decode response: %w", err)
	}
	if len(verses) == 0 {
		return "", ErrNoResult
	}

	parts := make([]string, 0, len(verses))
	for _, v := range verses {
		if t := strings.TrimSpace(v.Text); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return "", ErrNoResult
	}
	return strings.Join(parts, " "), nil
}

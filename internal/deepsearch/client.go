// Package deepsearch forwards a query to Jina.ai's DeepSearch API and
// condenses the (optionally streamed) reply into a Result.
package deepsearch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/crystaldolphin/deepsearch/internal/config/tool"
	"github.com/crystaldolphin/deepsearch/internal/shared/stringutils"
)

const maxErrorBodyBytes = 64 << 10

// Client issues DeepSearch requests with a fixed valve snapshot.
type Client struct {
	cfg        tool.DeepSearchConfig
	httpClient *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. Its Timeout is left
// alone; the configured timeout is applied per request via the context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a Client for cfg.
func NewClient(cfg tool.DeepSearchConfig, opts ...Option) *Client {
	c := &Client{cfg: cfg, httpClient: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the valve snapshot this client was built with.
func (c *Client) Config() tool.DeepSearchConfig { return c.cfg }

// SearchOptions are per-invocation overrides.
type SearchOptions struct {
	// Stream overrides the streamByDefault valve when non-nil.
	Stream  *bool
	Emitter Emitter
}

// Search runs one DeepSearch round trip. Configuration problems are
// reported before any network call and before any event is emitted.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) (Result, error) {
	stream := c.cfg.StreamByDefault
	if opts.Stream != nil {
		stream = *opts.Stream
	}
	query = strings.TrimSpace(query)

	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	req, err := NewRequest(reqCtx, query, c.cfg, stream)
	if err != nil {
		return Result{}, err
	}

	em := opts.Emitter
	emitStatus(ctx, em, StatusStarted, false)
	slog.Info("deepsearch: request",
		"stream", stream,
		"effort", tool.NormalizeEffort(c.cfg.ReasoningEffort),
		"budget", c.cfg.BudgetTokens,
		"team", c.cfg.TeamSize,
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, c.fail(ctx, em, classify(ctx, reqCtx, err, c.cfg.TimeoutSeconds))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return Result{}, c.fail(ctx, em, remoteError(resp.StatusCode, raw))
	}

	var res Result
	if stream {
		res, err = relayStream(ctx, resp.Body, query, c.cfg.MaxReturnedURLs, em)
	} else {
		res, err = relayWhole(resp.Body, query, c.cfg.MaxReturnedURLs)
	}
	if err != nil {
		return Result{}, c.fail(ctx, em, classify(ctx, reqCtx, err, c.cfg.TimeoutSeconds))
	}

	if stream {
		emitStatus(ctx, em, StatusComplete, true)
	} else {
		emitStatus(ctx, em, StatusReceived, true)
	}
	slog.Info("deepsearch: done", "stream", stream, "length", len(res.Content), "sources", len(res.Sources))
	return res, nil
}

func remoteError(status int, body []byte) *Error {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	kind := KindRemote
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		kind = KindAuth
	}
	return &Error{Kind: kind, Status: status, Body: msg, Message: "DeepSearch API error"}
}

// fail reports err to the host and returns it.
func (c *Client) fail(ctx context.Context, em Emitter, err *Error) error {
	switch {
	case err.Kind == KindCanceled:
	case err.Kind == KindTimeout:
		emitStatus(ctx, em, StatusTimedOut, true)
	case err.Status != 0:
		emitStatus(ctx, em, fmt.Sprintf("DeepSearch API error %d", err.Status), true)
	default:
		emitStatus(ctx, em, "Unexpected error: "+err.Error(), true)
	}
	slog.Warn("deepsearch: failed", "kind", err.Kind, "status", err.Status, "err", stringutils.Truncate(err.Error(), 300))
	return err
}

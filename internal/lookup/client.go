// Package lookup resolves card numbers to owner details through the card lookup service.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m3rciful/cardbot/core/logger"
)

const (
	// DefaultBaseURL is the public lookup service.
	DefaultBaseURL = "https://reposu.org"
	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 8 * time.Second

	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 1 << 20
)

// ErrNotFound is returned when the service answered but knows no such card.
var ErrNotFound = errors.New("lookup: card not found")

// Error kinds carried by TransientError.
const (
	KindTransport = "transport"
	KindTimeout   = "timeout"
	KindStatus    = "status"
	KindDecode    = "decode"
)

// TransientError reports a lookup that failed for reasons unrelated to the card itself.
type TransientError struct {
	Kind      string
	Status    int
	RequestID string
	Err       error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("lookup %s: status %d", e.Kind, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("lookup %s: %v", e.Kind, e.Err)
	}
	return "lookup " + e.Kind
}

func (e *TransientError) Unwrap() error { return e.Err }

// Code is picked up by handler summaries as err_code.
func (e *TransientError) Code() string { return "lookup_" + e.Kind }

// Result is what the service knows about a card.
type Result struct {
	Owner        string `json:"owner"`
	MaskedNumber string `json:"mask"`
	Bank         string `json:"bank"`
	CardType     string `json:"type"`
}

type response struct {
	Success bool    `json:"success"`
	Result  *Result `json:"result"`
}

// Options configures Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client performs exactly one HTTP request per Resolve call.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient builds a Client, filling in defaults for zero options.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{baseURL: base, timeout: timeout, httpClient: hc}
}

// Resolve looks number up. It returns ErrNotFound when the service reports no
// match and *TransientError for transport, status and decoding failures.
func (c *Client) Resolve(ctx context.Context, number string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	rid := uuid.NewString()
	start := time.Now()
	res, err := c.do(ctx, number, rid)

	attrs := []slog.Attr{
		slog.String("request_id", rid),
		slog.String("card", logger.MaskCard(number)),
		slog.Duration("duration", logger.Took(start)),
		slog.String("status", logger.Status(err)),
	}
	var terr *TransientError
	switch {
	case err == nil:
		logger.Debug(ctx, "lookup", "lookup.done", append(attrs, slog.String("bank", res.Bank))...)
	case errors.Is(err, ErrNotFound):
		logger.Info(ctx, "lookup", "lookup.not_found", attrs...)
	case errors.As(err, &terr):
		attrs = append(attrs, slog.String("error_kind", terr.Kind), slog.String("err", err.Error()))
		if terr.Status != 0 {
			attrs = append(attrs, slog.Int("lookup_status", terr.Status))
		}
		logger.Warn(ctx, "lookup", "lookup.failed", attrs...)
	}
	return res, err
}

func (c *Client) do(ctx context.Context, number, rid string) (Result, error) {
	endpoint := fmt.Sprintf("%s/payme/card/%s", c.baseURL, url.PathEscape(number))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, &TransientError{Kind: KindTransport, RequestID: rid, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, rid)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, &TransientError{Kind: transportKind(err), RequestID: rid, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return Result{}, &TransientError{Kind: KindStatus, Status: resp.StatusCode, RequestID: rid}
	}

	var body response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return Result{}, &TransientError{Kind: KindDecode, RequestID: rid, Err: err}
	}
	if !body.Success {
		return Result{}, ErrNotFound
	}
	if body.Result == nil {
		return Result{}, &TransientError{Kind: KindDecode, RequestID: rid, Err: errors.New("success without result")}
	}
	return *body.Result, nil
}

func transportKind(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindTransport
}

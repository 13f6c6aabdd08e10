package telegram

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/m3rciful/cardbot/core/telegram/netutil"
)

// ClientOptions tunes the HTTP client used for Bot API calls.
type ClientOptions struct {
	// LongPoll is the getUpdates timeout; response deadlines are derived from it.
	LongPoll     time.Duration
	Retries      int
	RetryBackoff time.Duration
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.LongPoll <= 0 {
		o.LongPoll = 60 * time.Second
	}
	if o.Retries < 0 {
		o.Retries = 0
	} else if o.Retries == 0 {
		o.Retries = 3
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	return o
}

// replaySafe lists Bot API methods that only read state.
var replaySafe = map[string]bool{
	"getupdates":     true,
	"getme":          true,
	"getchatmember":  true,
	"getwebhookinfo": true,
}

// BuildHTTPClient returns an HTTP client for Bot API calls. Reads are retried
// on timeouts; sends are retried only when the request never left the host,
// so a user never receives the same reply twice.
func BuildHTTPClient(opts ClientOptions) *http.Client {
	opts = opts.withDefaults()
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: opts.LongPoll + 10*time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout: opts.LongPoll + 30*time.Second,
		Transport: &retryTransport{
			base:       transport,
			maxRetries: opts.Retries,
			backoff:    opts.RetryBackoff,
		},
	}
}

type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	retryable := netutil.NotSent
	if replaySafe[apiMethod(req)] {
		retryable = netutil.ShouldRetry
	}

	var lastErr error
	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			if req.Body != nil && req.GetBody == nil {
				return nil, lastErr
			}
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(t.backoff * time.Duration(attempt)):
			}
		}

		curr := req
		if attempt > 0 {
			curr = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				curr.Body = body
			}
		}

		resp, err := base.RoundTrip(curr)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return nil, lastErr
}

// apiMethod extracts the lowercased method from /bot<token>/<method>.
func apiMethod(req *http.Request) string {
	if req.URL == nil {
		return ""
	}
	path := req.URL.Path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	return strings.ToLower(path)
}

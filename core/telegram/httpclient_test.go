package telegram

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

type readTimeout struct{}

func (readTimeout) Error() string   { return "read tcp: i/o timeout" }
func (readTimeout) Timeout() bool   { return true }
func (readTimeout) Temporary() bool { return true }

func newAPIRequest(t *testing.T, method string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, "https://api.telegram.org/bot123:abc/"+method, strings.NewReader(`{"chat_id":1}`))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	return req
}

func TestRetryTransportDoesNotReplaySendAfterTimeout(t *testing.T) {
	calls := 0
	rt := &retryTransport{
		maxRetries: 3,
		backoff:    time.Millisecond,
		base: roundTripFunc(func(*http.Request) (*http.Response, error) {
			calls++
			return nil, &net.OpError{Op: "read", Net: "tcp", Err: readTimeout{}}
		}),
	}
	if _, err := rt.RoundTrip(newAPIRequest(t, "sendMessage")); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("sendMessage replayed %d times after timeout", calls)
	}
}

func TestRetryTransportRetriesReadsAndDialFailures(t *testing.T) {
	for _, method := range []string{"getUpdates", "sendMessage"} {
		calls := 0
		rt := &retryTransport{
			maxRetries: 2,
			backoff:    time.Millisecond,
			base: roundTripFunc(func(req *http.Request) (*http.Response, error) {
				calls++
				if calls < 3 {
					if method == "getUpdates" {
						return nil, readTimeout{}
					}
					return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
				}
				return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
			}),
		}
		resp, err := rt.RoundTrip(newAPIRequest(t, method))
		if err != nil {
			t.Fatalf("%s: unexpected error %v", method, err)
		}
		resp.Body.Close()
		if calls != 3 {
			t.Fatalf("%s: calls = %d, want 3", method, calls)
		}
	}
}

func TestBuildHTTPClientDerivesTimeouts(t *testing.T) {
	c := BuildHTTPClient(ClientOptions{LongPoll: 30 * time.Second})
	if c.Timeout != time.Minute {
		t.Fatalf("client timeout = %v", c.Timeout)
	}
	rt, ok := c.Transport.(*retryTransport)
	if !ok {
		t.Fatalf("unexpected transport %T", c.Transport)
	}
	if rt.base.(*http.Transport).ResponseHeaderTimeout != 40*time.Second {
		t.Fatal("response header timeout should exceed the long poll")
	}
}

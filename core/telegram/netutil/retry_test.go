package netutil

import (
	"context"
	"errors"
	"net"
	"net/url"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("bad request"), false},
		{"canceled", context.Canceled, false},
		{"dial", dial, true},
		{"timeout", timeoutErr{}, true},
		{"wrapped dial", &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: dial}, true},
		{"wrapped plain", &url.Error{Op: "Get", URL: "https://example.org", Err: errors.New("eof")}, false},
	}
	for _, tc := range cases {
		if got := ShouldRetry(tc.err); got != tc.want {
			t.Fatalf("%s: ShouldRetry = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestNotSent(t *testing.T) {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	read := &net.OpError{Op: "read", Net: "tcp", Err: timeoutErr{}}
	if !NotSent(&url.Error{Op: "Post", URL: "https://api.telegram.org", Err: dial}) {
		t.Fatal("dial failure should count as not sent")
	}
	if !NotSent(&net.DNSError{Err: "no such host", Name: "api.telegram.org"}) {
		t.Fatal("dns failure should count as not sent")
	}
	if NotSent(read) {
		t.Fatal("read timeout may have reached the server")
	}
	if NotSent(timeoutErr{}) {
		t.Fatal("bare timeout may have reached the server")
	}
}

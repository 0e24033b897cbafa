package httpx

import (
	"fmt"
	"io"
	"net/http"
	"syscall"
	"testing"
	"time"
)

type statusErr int

func (e statusErr) Error() string       { return fmt.Sprintf("http %d", int(e)) }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestIsRateLimited(t *testing.T) {
	if !IsRateLimited(statusErr(429)) {
		t.Error("429 not detected")
	}
	if IsRateLimited(statusErr(500)) {
		t.Error("500 misdetected as rate limit")
	}
	if IsRateLimited(io.EOF) {
		t.Error("plain error misdetected as rate limit")
	}
}

func TestIsRateLimitedWrapped(t *testing.T) {
	err := fmt.Errorf("request failed: %w", statusErr(429))
	if !IsRateLimited(err) {
		t.Error("wrapped 429 not detected")
	}
}

func TestIsTransient(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil must not be transient")
	}
	if !IsTransient(io.EOF) || !IsTransient(io.ErrUnexpectedEOF) {
		t.Error("dropped-connection errors must be transient")
	}
	if !IsTransient(fmt.Errorf("dial: %w", syscall.ECONNREFUSED)) {
		t.Error("refused connect must be transient")
	}
	if IsTransient(statusErr(500)) {
		t.Error("upstream status error must not be transient")
	}
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"7"}}}
	if got := RetryAfterDuration(resp, time.Second, time.Minute); got != 7*time.Second {
		t.Errorf("header not honored: %v", got)
	}
	if got := RetryAfterDuration(nil, 3*time.Second, time.Minute); got != 3*time.Second {
		t.Errorf("fallback not used: %v", got)
	}
	resp = &http.Response{Header: http.Header{"Retry-After": []string{"600"}}}
	if got := RetryAfterDuration(resp, time.Second, time.Minute); got != time.Minute {
		t.Errorf("cap not applied: %v", got)
	}
	resp = &http.Response{Header: http.Header{"Retry-After": []string{"soon"}}}
	if got := RetryAfterDuration(resp, 2*time.Second, time.Minute); got != 2*time.Second {
		t.Errorf("unparseable header must fall back: %v", got)
	}
}

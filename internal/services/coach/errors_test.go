package coach

import (
	"errors"
	"testing"
	"time"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	rateLimited := errors.New("429 too many requests")
	quota := errors.New(`429 {"message": "You exceeded your current quota", "type": "insufficient_quota", "code": "insufficient_quota"}`)
	plain := errors.New("connection refused")

	if !IsRateLimitError(rateLimited) {
		t.Error("IsRateLimitError() = false for a 429 error")
	}
	if !IsQuotaError(quota) {
		t.Error("IsQuotaError() = false for an insufficient_quota error")
	}
	if IsRateLimitError(plain) || IsQuotaError(plain) {
		t.Error("plain error misclassified")
	}
	if IsRateLimitError(nil) || IsQuotaError(nil) {
		t.Error("nil error misclassified")
	}
}

func TestExtractAPIError(t *testing.T) {
	t.Parallel()

	err := errors.New(`429 {"message": "quota gone", "type": "insufficient_quota", "code": "insufficient_quota"}`)
	apiErr := ExtractAPIError(err)
	if apiErr == nil {
		t.Fatal("ExtractAPIError() = nil")
	}
	if !apiErr.IsPermanent {
		t.Error("IsPermanent = false for insufficient_quota")
	}
	if apiErr.RetryAfter == nil || *apiErr.RetryAfter != time.Hour {
		t.Errorf("RetryAfter = %v, want 1h", apiErr.RetryAfter)
	}

	if got := ExtractAPIError(errors.New("connection refused")); got != nil {
		t.Errorf("ExtractAPIError() = %v for non-429 error", got)
	}
}

func TestGetRetryDelay(t *testing.T) {
	t.Parallel()

	plain := errors.New("boom")
	if got := GetRetryDelay(plain, 0); got != 5*time.Second {
		t.Errorf("delay = %v, want 5s", got)
	}
	if got := GetRetryDelay(plain, 100); got != 5*time.Minute {
		t.Errorf("capped delay = %v, want 5m", got)
	}

	rl := errors.New("429 rate limit")
	if got := GetRetryDelay(rl, 0); got != 60*time.Second {
		t.Errorf("rate limit delay = %v, want 60s", got)
	}
	if got := GetRetryDelay(rl, 10); got != 15*time.Minute {
		t.Errorf("capped rate limit delay = %v, want 15m", got)
	}
}

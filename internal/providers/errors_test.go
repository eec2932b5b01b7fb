package providers

import (
	"errors"
	"testing"

	"smartclaim/internal/util"
)

func TestClassifyError(t *testing.T) {
	cases := map[string]ErrorType{
		"insufficient_quota":                      ErrorQuota,
		"429 rate":                                ErrorRate,
		"maximum context length exceeded":         ErrorContext,
		"timeout":                                 ErrorTransient,
		"status code: 503, service unavailable":   ErrorTransient,
		"status code: 403, api key not valid":     ErrorPermanent,
		"bad request":                             ErrorPermanent,
		"context deadline exceeded while waiting": ErrorTransient,
	}
	for msg, want := range cases {
		if got := ClassifyError(errors.New(msg)); got != want {
			t.Fatalf("classify %q: got %s want %s", msg, got, want)
		}
	}
	if ClassifyError(nil) != "" {
		t.Fatalf("nil error should classify as empty")
	}
}

func TestSentinel(t *testing.T) {
	if !errors.Is(Sentinel(ErrorRate), util.ErrRateLimited) {
		t.Fatalf("rate should map to ErrRateLimited")
	}
	if !errors.Is(Sentinel("other"), util.ErrPermanent) {
		t.Fatalf("unknown should map to ErrPermanent")
	}
}

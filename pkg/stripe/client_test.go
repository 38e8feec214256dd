package stripe

import (
	"errors"
	"testing"

	stripelib "github.com/stripe/stripe-go/v84"
)

func TestNormalizeEnv(t *testing.T) {
	if env, err := normalizeEnv(""); err != nil || env != testEnv {
		t.Fatalf("empty env should default to test, got %q err=%v", env, err)
	}
	if env, err := normalizeEnv(" Live "); err != nil || env != liveEnv {
		t.Fatalf("expected live, got %q err=%v", env, err)
	}
	if _, err := normalizeEnv("staging"); err == nil {
		t.Fatal("expected error for unknown env")
	}
}

func TestValidateAPIKey(t *testing.T) {
	if err := validateAPIKey(testEnv, "sk_test_abc"); err != nil {
		t.Fatalf("test key rejected: %v", err)
	}
	if err := validateAPIKey(testEnv, "sk_live_abc"); err == nil {
		t.Fatal("live key must not pass in test env")
	}
	if err := validateAPIKey(liveEnv, "sk_live_abc"); err != nil {
		t.Fatalf("live key rejected: %v", err)
	}
	if err := validateAPIKey(liveEnv, "rk_test_abc"); err == nil {
		t.Fatal("test key must not pass in live env")
	}
}

func TestIsRetryable(t *testing.T) {
	if !isRetryable(errors.New("connection reset")) {
		t.Fatal("plain network errors should be retryable")
	}
	if isRetryable(&stripelib.Error{HTTPStatusCode: 400}) {
		t.Fatal("4xx rejections must not be retried")
	}
	if !isRetryable(&stripelib.Error{HTTPStatusCode: 503}) {
		t.Fatal("5xx responses should be retried")
	}
}

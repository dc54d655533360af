package app

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"EmotionalDiary/internal/config"
	"EmotionalDiary/internal/logging"
)

func testConfig() config.Config {
	return config.Config{
		HTTP: config.HTTPConfig{
			Addr:      "127.0.0.1:0",
			RateLimit: config.RateLimitConfig{RequestsPerSecond: 1, Burst: 5},
		},
		Gemini: config.GeminiConfig{Endpoint: "http://127.0.0.1:1", Model: "gemini-test", Timeout: time.Second},
		Auth:   config.AuthConfig{JWTSecret: base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))},
	}
}

func TestNewRejectsMissingSecret(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Auth.JWTSecret = ""
	if _, err := New(context.Background(), cfg, logging.Discard()); err == nil {
		t.Fatal("expected error without jwt secret")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	application, err := New(context.Background(), testConfig(), logging.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

package ai

import (
	"errors"
	"fmt"
	"testing"
)

func TestProviderErrorQuota(t *testing.T) {
	err := fmt.Errorf("generate: %w", &ProviderError{Provider: "openai", Status: 429, Err: errors.New("slow down")})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatal("429 should match ErrQuotaExceeded")
	}
	if errors.Is(&ProviderError{Status: 500, Err: errors.New("boom")}, ErrQuotaExceeded) {
		t.Fatal("500 is not a quota error")
	}
}

func TestRefusalKeepsMessage(t *testing.T) {
	err := fmt.Errorf("analyze: %w", &RefusalError{Message: "I can't help with that."})
	if !errors.Is(err, ErrRefused) {
		t.Fatal("expected ErrRefused")
	}
	var r *RefusalError
	if !errors.As(err, &r) || r.Message != "I can't help with that." {
		t.Fatalf("message lost: %v", err)
	}
}

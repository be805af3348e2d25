package main

import (
	"strings"
	"testing"
)

func TestRun_InvalidGatewayConfigReturnsError(t *testing.T) {
	t.Setenv("BASE_DIR", t.TempDir())
	t.Setenv("ALLOWED_FILES", "dastan")
	t.Setenv("DEFAULT_FILE", "modes")
	t.Setenv("REGISTRY_CACHE_TTL", "")
	t.Setenv("OTEL_ENABLED", "false")

	err := run()
	if err == nil {
		t.Fatalf("expected an error for a default file outside the allow-list")
	}
	if !strings.Contains(err.Error(), "invalid gateway configuration") {
		t.Fatalf("unexpected error: %v", err)
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"LLM_API_KEY", "LLM_MODEL", "LLM_PROVIDER", "LLM_BASE_URL", "PERSISTENCE_URL", "PERSISTENCE_KEY",
		"REDIS_URL", "EMAIL_PROVIDER", "EMAIL_PROVIDER_KEY", "PUBLIC_URL", "LOG_LEVEL", "ADMIN_API_KEY",
		"PORT", "TOKEN_TTL_DAYS", "EMAIL_TEMPLATE_ID", "EMAIL_LIST_ID",
	} {
		t.Setenv(k, "")
	}
	// .env lookup is relative to the working directory
	t.Chdir(t.TempDir())
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	p := writeFile(t, `
server:
  port: 9000
llm:
  provider: Anthropic
  api_key: from-file
  timeout: 30s
persistence:
  url: sqlite:///tmp/launchlab.db
  key: unused
worker:
  task_timeout: 2m
admin:
  api_keys:
    ops: k1
`)
	t.Setenv("LLM_API_KEY", "from-env")
	t.Setenv("TOKEN_TTL_DAYS", "3")
	t.Setenv("ADMIN_API_KEY", "k2")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLM.APIKey != "from-env" || cfg.LLM.Provider != "anthropic" || cfg.LLM.Timeout != 30*time.Second {
		t.Fatalf("unexpected llm config %+v", cfg.LLM)
	}
	if cfg.Server.Port != 9000 || cfg.Server.PublicURL != "http://localhost:9000" || cfg.Addr() != ":9000" {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
	if cfg.TokenTTL() != 72*time.Hour || cfg.Worker.TaskTimeout != 2*time.Minute || cfg.Worker.Concurrency != 2 {
		t.Fatalf("unexpected defaults %+v %+v", cfg.Token, cfg.Worker)
	}
	if cfg.Admin.APIKeys["ops"] != "k1" || cfg.Admin.APIKeys["env"] != "k2" {
		t.Fatalf("unexpected admin keys %v", cfg.Admin.APIKeys)
	}
}

func TestLoadEnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_API_KEY", "k")
	t.Setenv("PERSISTENCE_URL", "memory://")
	t.Setenv("PERSISTENCE_KEY", "x")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should be fine: %v", err)
	}
	if cfg.LLM.Provider != "openai" || cfg.Email.Provider != "brevo" || cfg.LLM.Timeout != 90*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that exists, even an empty one
	for _, k := range []string{"LLM_API_KEY", "PERSISTENCE_URL", "PERSISTENCE_KEY"} {
		os.Unsetenv(k)
	}
	if err := os.WriteFile(".env", []byte("LLM_API_KEY=dot\nPERSISTENCE_URL=memory://\nPERSISTENCE_KEY=x\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("LLM_API_KEY")
		os.Unsetenv("PERSISTENCE_URL")
		os.Unsetenv("PERSISTENCE_KEY")
	})
	cfg, err := Load("config.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.APIKey != "dot" {
		t.Fatalf("expected key from .env, got %q", cfg.LLM.APIKey)
	}
}

func TestValidateCollectsEverything(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("PUBLIC_URL", "launchlab.test")

	_, err := Load(writeFile(t, "server:\n  port: 8080\n"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"LLM_API_KEY", "gemini", "PERSISTENCE_URL", "PERSISTENCE_KEY", "public_url"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q should mention %s", err, want)
		}
	}
}

func TestBadNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")
	if _, err := Load("nope.yaml"); err == nil || !strings.Contains(err.Error(), "PORT") {
		t.Fatalf("expected PORT error, got %v", err)
	}
}

package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Upstream.BaseURL != "http://localhost:8000" {
		t.Fatalf("upstream.base_url = %q, want %q", cfg.Upstream.BaseURL, "http://localhost:8000")
	}
	if cfg.Poller.DecisionsInterval != 30*time.Second {
		t.Fatalf("poller.decisions_interval = %v, want 30s", cfg.Poller.DecisionsInterval)
	}
	if cfg.Poller.FeedInterval != 10*time.Second || cfg.Poller.LogsInterval != 10*time.Second {
		t.Fatalf("feed/logs intervals = %v/%v, want 10s", cfg.Poller.FeedInterval, cfg.Poller.LogsInterval)
	}
	if cfg.Status.Interval != 30*time.Second {
		t.Fatalf("status.interval = %v, want 30s", cfg.Status.Interval)
	}
	if cfg.Auth.Enabled() {
		t.Fatalf("auth must be disabled without a public key")
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("UPSTREAM_BASE_URL", " http://saude:8000/ ")
	t.Setenv("UPSTREAM_FUNCTIONS_KEY", "secret")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Upstream.BaseURL != "http://saude:8000" {
		t.Fatalf("upstream.base_url = %q, want %q", cfg.Upstream.BaseURL, "http://saude:8000")
	}
	if cfg.Upstream.FunctionsKey != "secret" {
		t.Fatalf("upstream.functions_key = %q, want %q", cfg.Upstream.FunctionsKey, "secret")
	}
	if got := cfg.Server.Addr(); got != ":9090" {
		t.Fatalf("Addr() = %q, want %q", got, ":9090")
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LoggerConfig
		wantErr bool
	}{
		{name: "json", cfg: LoggerConfig{Level: "info", Format: "json"}},
		{name: "console", cfg: LoggerConfig{Level: "debug", Format: "console"}},
		{name: "bad-level", cfg: LoggerConfig{Level: "loud", Format: "json"}, wantErr: true},
		{name: "bad-format", cfg: LoggerConfig{Level: "info", Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLogger(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{Telegram: TelegramConfig{Token: "1:x"}}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.AdminUsernames = []string{" boss ", "@chief", ""}
	cfg.RateLimit.ExcludeUpdates = []string{" Callback ", ""}
	if err := Normalize(&cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q", cfg.Telegram.RunMode)
	}
	if cfg.RateLimit.Burst != 1 {
		t.Fatalf("burst = %d", cfg.RateLimit.Burst)
	}
	if got := strings.Join(cfg.Telegram.AdminUsernames, ","); got != "@boss,@chief" {
		t.Fatalf("admin usernames = %q", got)
	}
	if got := strings.Join(cfg.RateLimit.ExcludeUpdates, ","); got != "callback" {
		t.Fatalf("exclude = %q", got)
	}
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"missing token", func(c *Config) { c.Telegram.Token = " " }},
		{"bad run mode", func(c *Config) { c.Telegram.RunMode = "push" }},
		{"negative poll timeout", func(c *Config) { c.Telegram.LongPollTimeoutSeconds = -1 }},
		{"webhook without url", func(c *Config) {
			c.Telegram.RunMode = "webhook"
			c.Webhook = WebhookConfig{Listen: "0.0.0.0", Port: 8443}
		}},
		{"webhook without port", func(c *Config) {
			c.Telegram.RunMode = "webhook"
			c.Webhook = WebhookConfig{URL: "https://x", Listen: "0.0.0.0"}
		}},
		{"negative interval", func(c *Config) { c.RateLimit.IntervalMS = -5 }},
		{"unknown update kind", func(c *Config) { c.RateLimit.ExcludeUpdates = []string{"poll"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.edit(&cfg)
			if err := Normalize(&cfg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if err := Normalize(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNormalizeWebhook(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = " Webhook "
	cfg.Webhook = WebhookConfig{URL: "https://bot.example/hook", Listen: "0.0.0.0", Port: 8443}
	if err := Normalize(&cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeWebhook {
		t.Fatalf("run mode = %q", cfg.Telegram.RunMode)
	}
}

func TestDecodeEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "telegram:\n  token: \"from-file\"\n  admin_ids: [7]\nrate_limit:\n  interval_ms: 300\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BOT_TOKEN", "from-env")

	var cfg Config
	if err := Decode(path, &cfg); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
	if !cfg.Telegram.IsAdmin(7) || cfg.Telegram.IsAdmin(8) {
		t.Fatalf("admin ids = %v", cfg.Telegram.AdminIDs)
	}
	if cfg.RateLimit.IntervalMS != 300 {
		t.Fatalf("interval = %d", cfg.RateLimit.IntervalMS)
	}
}

func TestDecodeMissingFile(t *testing.T) {
	var cfg Config
	if err := Decode(filepath.Join(t.TempDir(), "absent.yaml"), &cfg); err == nil {
		t.Fatal("expected error")
	}
}

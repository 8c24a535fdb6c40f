package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeDefaultsSingleBot(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "123:abc"}}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
	if len(cfg.Bots) != 1 || cfg.Bots[0].Token != "123:abc" || cfg.Bots[0].Flavor != DefaultFlavor {
		t.Fatalf("unexpected bots: %+v", cfg.Bots)
	}
	if cfg.Barcode.ImageSize != 512 || cfg.Barcode.Margin != 1 || cfg.Barcode.MaxTextLength != 512 {
		t.Fatalf("unexpected barcode defaults: %+v", cfg.Barcode)
	}
	if cfg.Telegram.HandlerTimeoutSeconds != 60 {
		t.Fatalf("handler timeout = %d", cfg.Telegram.HandlerTimeoutSeconds)
	}
}

func TestNormalizeRequiresToken(t *testing.T) {
	if err := Normalize(&Config{}); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestNormalizeRejectsDuplicateBotNames(t *testing.T) {
	cfg := &Config{Bots: []BotConfig{
		{Name: "a", Token: "1:x"},
		{Name: "a", Token: "2:y"},
	}}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestNormalizeWebhookRequiresURL(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "1:x", RunMode: "webhook"}, Webhook: WebhookConfig{Port: 8443}}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected webhook.url error")
	}
	cfg.Webhook.URL = "https://example.org/"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Webhook.URL != "https://example.org" {
		t.Fatalf("url not trimmed: %q", cfg.Webhook.URL)
	}
}

func TestNormalizeAcceptsPollingAlias(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "1:x", RunMode: "Polling"}}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q", cfg.Telegram.RunMode)
	}
}

func TestNormalizeRateLimitExclusions(t *testing.T) {
	cfg := &Config{
		Telegram:  TelegramConfig{Token: "1:x"},
		RateLimit: RateLimitConfig{ExcludeUpdates: []string{" Callback "}},
	}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != UpdateCallback {
		t.Fatalf("exclusion not normalized: %q", cfg.RateLimit.ExcludeUpdates[0])
	}

	cfg.RateLimit.ExcludeUpdates = []string{"poll"}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for unknown exclusion")
	}
}

func TestLoadReadsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
telegram:
  run_mode: longpoll
bots:
  - name: main
    token: "42:secret"
barcode:
  image_size: 256
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Bots[0].Name != "main" || cfg.Bots[0].Flavor != DefaultFlavor {
		t.Fatalf("unexpected bot: %+v", cfg.Bots[0])
	}
	if cfg.Barcode.ImageSize != 256 {
		t.Fatalf("image size = %d", cfg.Barcode.ImageSize)
	}
}

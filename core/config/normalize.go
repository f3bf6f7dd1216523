package config

import (
	"errors"
	"fmt"
	"strings"
)

// Normalize validates cfg in place and fills defaults. The first invalid
// field is reported.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := cfg.Telegram.normalize(); err != nil {
		return err
	}
	if err := cfg.Webhook.check(cfg.Telegram.RunMode); err != nil {
		return err
	}
	return cfg.RateLimit.normalize()
}

func (t *TelegramConfig) normalize() error {
	if strings.TrimSpace(t.Token) == "" {
		return errors.New("telegram token is required")
	}

	switch mode := strings.ToLower(strings.TrimSpace(t.RunMode)); mode {
	case "", "polling", RunModeLongpoll:
		t.RunMode = RunModeLongpoll
	case RunModeWebhook:
		t.RunMode = RunModeWebhook
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", t.RunMode)
	}
	if t.LongPollTimeoutSeconds < 0 {
		return errors.New("telegram.longpoll_timeout_seconds must be >= 0")
	}

	handles := make([]string, 0, len(t.AdminUsernames))
	for _, n := range t.AdminUsernames {
		if n = strings.TrimPrefix(strings.TrimSpace(n), "@"); n != "" {
			handles = append(handles, "@"+n)
		}
	}
	t.AdminUsernames = handles
	return nil
}

func (w WebhookConfig) check(mode string) error {
	if mode != RunModeWebhook {
		return nil
	}
	switch {
	case strings.TrimSpace(w.URL) == "":
		return errors.New("webhook.url is required in webhook mode")
	case strings.TrimSpace(w.Listen) == "":
		return errors.New("webhook.listen is required in webhook mode")
	case w.Port <= 0:
		return errors.New("webhook.port must be > 0 in webhook mode")
	}
	return nil
}

func (r *RateLimitConfig) normalize() error {
	if r.IntervalMS < 0 {
		return errors.New("rate_limit.interval_ms must be >= 0")
	}
	r.Burst = max(r.Burst, 1)

	kinds := make([]string, 0, len(r.ExcludeUpdates))
	for _, v := range r.ExcludeUpdates {
		kind := strings.ToLower(strings.TrimSpace(v))
		switch kind {
		case "":
			continue
		case UpdateCallback, UpdateMessage, UpdateInlineQuery:
			kinds = append(kinds, kind)
		default:
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message, inline_query", v)
		}
	}
	r.ExcludeUpdates = kinds
	return nil
}

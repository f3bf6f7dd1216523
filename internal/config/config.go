// Package config loads the rentbot configuration: the shared bot core plus
// database, booking and ops sections.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"

	coreconfig "github.com/m3rciful/rentbot/core/config"
	coredatabase "github.com/m3rciful/rentbot/core/database"
	"github.com/m3rciful/rentbot/internal/booking"
)

// BookingConfig describes the daily slot grid and quotas.
type BookingConfig struct {
	IntervalMinutes int    `yaml:"interval_minutes" envconfig:"BOOKING_INTERVAL_MINUTES"`
	Earliest        string `yaml:"earliest" envconfig:"BOOKING_EARLIEST"`
	Latest          string `yaml:"latest" envconfig:"BOOKING_LATEST"`
	MaxPerDay       int    `yaml:"max_per_day" envconfig:"BOOKING_MAX_PER_DAY"`
	Greeting        string `yaml:"greeting" envconfig:"BOOKING_GREETING"`
	// ResetPeriod is the daily reset cadence, e.g. "24h".
	ResetPeriod string `yaml:"reset_period" envconfig:"BOOKING_RESET_PERIOD"`
	// AutoLaunch opens the service to users at startup without an admin "start bot".
	AutoLaunch bool `yaml:"auto_launch" envconfig:"BOOKING_AUTO_LAUNCH"`

	resetPeriod time.Duration
}

// OpsConfig configures the read-only HTTP endpoint. Empty Listen disables it.
type OpsConfig struct {
	Listen string `yaml:"listen" envconfig:"OPS_LISTEN"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Booking  BookingConfig       `yaml:"booking"`
	Ops      OpsConfig           `yaml:"ops"`
}

const defaultGreeting = "Hello! This bot books the shared device. Be on time, finish your rent when done. Press accept to continue."

// Load reads .env (if present), the YAML file at path and environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the configuration and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	b := &cfg.Booking
	if b.IntervalMinutes <= 0 {
		return fmt.Errorf("booking.interval_minutes must be > 0")
	}
	if b.MaxPerDay <= 0 {
		return fmt.Errorf("booking.max_per_day must be > 0")
	}
	if strings.TrimSpace(b.Greeting) == "" {
		b.Greeting = defaultGreeting
	}
	if _, err := booking.NewSlotTable(b.Slots()); err != nil {
		return fmt.Errorf("booking: %w", err)
	}

	b.resetPeriod = booking.DefaultResetPeriod
	if raw := strings.TrimSpace(b.ResetPeriod); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid booking.reset_period %q", b.ResetPeriod)
		}
		b.resetPeriod = d
	}

	if cfg.Database.Host != "" {
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 5
		}
	}
	return nil
}

// CoreConfig exposes the shared bot configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Slots converts the section into the booking grid settings.
func (b BookingConfig) Slots() booking.SlotConfig {
	return booking.SlotConfig{
		Interval: time.Duration(b.IntervalMinutes) * time.Minute,
		Earliest: strings.TrimSpace(b.Earliest),
		Latest:   strings.TrimSpace(b.Latest),
	}
}

// Period returns the validated reset period.
func (b BookingConfig) Period() time.Duration {
	if b.resetPeriod <= 0 {
		return booking.DefaultResetPeriod
	}
	return b.resetPeriod
}

// Admins builds the booking allow-list from the telegram section.
func (c *Config) Admins() booking.AdminList {
	return booking.AdminList{
		IDs:     append([]int64(nil), c.Telegram.AdminIDs...),
		Handles: append([]string(nil), c.Telegram.AdminUsernames...),
	}
}

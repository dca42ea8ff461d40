package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/outsider-backend/internal/engine"
)

type Config struct {
	Addr        string
	LogLevel    string
	LogDev      bool
	DatabaseURL string

	CountdownFrom      int
	CountdownTick      time.Duration
	DiscussionDuration time.Duration

	// Per-connection inbound limit, in messages per second.
	MessageRate    rate.Limit
	MessageBurst   int
	OutboxSize     int
	AllowedOrigins []string
}

func Default() Config {
	r := engine.DefaultRules()
	return Config{
		Addr:               ":10000",
		LogLevel:           "info",
		CountdownFrom:      r.CountdownFrom,
		CountdownTick:      r.CountdownTick,
		DiscussionDuration: r.DiscussionDuration,
		MessageRate:        10,
		MessageBurst:       20,
		OutboxSize:         32,
	}
}

// Load reads .env files (when present) into the environment and then builds
// the config from it.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, falling back to Default for unset keys.
// Every malformed value is reported, not just the first.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	c := Default()
	var errs error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
	dur := func(key string, dst *time.Duration) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
	flag := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}

	var port string
	str("PORT", &port)
	str("ADDR", &c.Addr)
	if port != "" {
		// PORT wins: hosting platforms inject it.
		c.Addr = ":" + port
	}
	str("LOG_LEVEL", &c.LogLevel)
	flag("LOG_DEV", &c.LogDev)
	str("DATABASE_URL", &c.DatabaseURL)

	num("COUNTDOWN_FROM", &c.CountdownFrom)
	dur("COUNTDOWN_TICK", &c.CountdownTick)
	dur("DISCUSSION_DURATION", &c.DiscussionDuration)

	if v, ok := lookup("MESSAGE_RATE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("MESSAGE_RATE: %w", err))
		} else {
			c.MessageRate = rate.Limit(f)
		}
	}
	num("MESSAGE_BURST", &c.MessageBurst)
	num("OUTBOX_SIZE", &c.OutboxSize)

	if v, ok := lookup("ALLOWED_ORIGINS"); ok {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}

	if errs != nil {
		return Config{}, errs
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs error
	if c.Addr == "" {
		errs = multierr.Append(errs, errors.New("listen address is empty"))
	}
	if c.CountdownFrom < 0 {
		errs = multierr.Append(errs, fmt.Errorf("COUNTDOWN_FROM must be >= 0, got %d", c.CountdownFrom))
	}
	if c.CountdownTick <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("COUNTDOWN_TICK must be positive, got %s", c.CountdownTick))
	}
	if c.DiscussionDuration <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("DISCUSSION_DURATION must be positive, got %s", c.DiscussionDuration))
	}
	if c.MessageRate <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("MESSAGE_RATE must be positive, got %v", float64(c.MessageRate)))
	}
	if c.MessageBurst < 1 {
		errs = multierr.Append(errs, fmt.Errorf("MESSAGE_BURST must be >= 1, got %d", c.MessageBurst))
	}
	if c.OutboxSize < 1 {
		errs = multierr.Append(errs, fmt.Errorf("OUTBOX_SIZE must be >= 1, got %d", c.OutboxSize))
	}
	return errs
}

func (c Config) Rules() engine.Rules {
	return engine.Rules{
		CountdownFrom:      c.CountdownFrom,
		CountdownTick:      c.CountdownTick,
		DiscussionDuration: c.DiscussionDuration,
	}
}

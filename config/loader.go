package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// default first
	setDefaults(v)

	// File Config
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Env Config -> TIMELINE_INTERVAL_SLOP overrides timeline.interval_slop
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("service_name", "uptimeline")
	v.SetDefault("port", 8080)

	v.SetDefault("log.level", "")

	v.SetDefault("auth.expiry_min", 30)

	v.SetDefault("timeline.interval_slop", 10)
	v.SetDefault("timeline.default_interval", "1s")
	v.SetDefault("timeline.cache_ttl", "1m")
	v.SetDefault("timeline.max_window", "720h")

	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 5)
	v.SetDefault("redis.conn_max_lifetime", "2m")
	v.SetDefault("redis.conn_max_idle_time", "30s")

	v.SetDefault("rabbitmq.exchange_type", "direct")
	v.SetDefault("rabbitmq.worker_count", 10)

	v.SetDefault("db.max_open_conns", 50)
	v.SetDefault("db.min_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "1h")
	v.SetDefault("db.conn_max_idle_time", "30m")
	v.SetDefault("db.health_timeout", "5s")
	v.SetDefault("db.apply_schema", true)
}

func validateConfig(cfg *Config) error {

	validate := validator.New()

	if err := validate.Struct(cfg); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return formatValidationErrors(ve)
		}
		return err
	}
	return nil
}

func formatValidationErrors(ve validator.ValidationErrors) error {
	var sb strings.Builder
	sb.WriteString("config validation failed:\n")

	for _, fe := range ve {
		fmt.Fprintf(&sb, "- field '%s' failed on '%s'\n", fe.Namespace(), fe.Tag())
	}
	return errors.New(sb.String())
}

// Watch re-reads path whenever it is written and hands the timeline section to
// onChange. A reload that fails to parse or validate is logged and skipped, the
// previous values stay in effect. Callbacks stop once ctx is done.
func Watch(ctx context.Context, path string, logger *zerolog.Logger, onChange func(TimelineConfig)) error {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if ctx.Err() != nil {
			return
		}
		// editors often save via rename, so create counts as a write
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		cfg, err := decode(v)
		if err != nil {
			logger.Error().Err(err).Str("path", e.Name).Msg("config reload failed, keeping previous config")
			return
		}

		logger.Info().
			Str("path", e.Name).
			Int64("interval_slop", cfg.Timeline.IntervalSlop).
			Dur("cache_ttl", cfg.Timeline.CacheTTL).
			Msg("timeline config reloaded")
		onChange(cfg.Timeline)
	})
	v.WatchConfig()

	logger.Info().Str("path", path).Msg("watching config for changes")
	return nil
}

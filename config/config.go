package config

import "time"

type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error"`
}

type DBConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	MaxOpenConns    int32         `mapstructure:"max_open_conns" validate:"gte=1"`
	MinIdleConns    int32         `mapstructure:"min_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	HealthTimeout   time.Duration `mapstructure:"health_timeout" validate:"gt=0"`
	ApplySchema     bool          `mapstructure:"apply_schema"`
}

type RedisConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PoolSize        int           `mapstructure:"pool_size" validate:"gte=1"`
	MinIdleConns    int           `mapstructure:"min_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type RabbitMQConfig struct {
	BrokerLink   string `mapstructure:"broker_link" validate:"required"`
	ExchangeName string `mapstructure:"exchange_name" validate:"required"`
	ExchangeType string `mapstructure:"exchange_type" validate:"oneof=direct topic fanout"`
	QueueName    string `mapstructure:"queue_name" validate:"required"`
	RoutingKey   string `mapstructure:"routing_key" validate:"required"`
	WorkerCount  int    `mapstructure:"worker_count" validate:"gte=1"`
}

type AuthConfig struct {
	Secret       string `mapstructure:"secret" validate:"required,min=16"`
	ExpiryMin    int    `mapstructure:"expiry_min" validate:"gte=1"`
	AgentKeyHash string `mapstructure:"agent_key_hash" validate:"required"` // argon2id hash of the probe agent key
}

// TimelineConfig tunes the coalescing engine and its cache. It is the only
// section picked up by a hot reload.
type TimelineConfig struct {
	IntervalSlop    int64         `mapstructure:"interval_slop" validate:"gte=0"`
	DefaultInterval time.Duration `mapstructure:"default_interval" validate:"gt=0"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
	MaxWindow       time.Duration `mapstructure:"max_window" validate:"gt=0"`
}

type Config struct {
	Env         string         `mapstructure:"env" validate:"required,oneof=development staging production"`
	ServiceName string         `mapstructure:"service_name" validate:"required"`
	Port        int            `mapstructure:"port" validate:"gte=1,lte=65535"`
	Log         LogConfig      `mapstructure:"log"`
	DB          DBConfig       `mapstructure:"db"`
	Redis       RedisConfig    `mapstructure:"redis"`
	RabbitMQ    RabbitMQConfig `mapstructure:"rabbitmq"`
	Auth        AuthConfig     `mapstructure:"auth"`
	Timeline    TimelineConfig `mapstructure:"timeline"`
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

package config

import (
	"bytes"
	_ "embed"
	"time"

	"github.com/spf13/viper"

	"github.com/smorady/msg-orchestrator/internal/model"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	HTTP       HTTPConfig      `mapstructure:"http"`
	Log        LogConfig       `mapstructure:"log"`
	Provider   ProviderConfig  `mapstructure:"provider"`
	Space      SpaceConfig     `mapstructure:"space"`
	Webhook    WebhookConfig   `mapstructure:"webhook"`
	MySQL      DatabaseConfig  `mapstructure:"mysql"`
	ClickHouse DatabaseConfig  `mapstructure:"clickhouse"`
	Redis      RedisConfig     `mapstructure:"redis"`
	Kafka      KafkaConfig     `mapstructure:"kafka"`
	Tracking   TrackingConfig  `mapstructure:"tracking"`
	Contacts   ContactsConfig  `mapstructure:"contacts"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
	APIKeys    []APIKeyConfig  `mapstructure:"api_keys"`
}

// ---- Leaf structs ----

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ProviderConfig struct {
	AccountSID   string `mapstructure:"account_sid"`
	APIKeySID    string `mapstructure:"api_key_sid"`
	APIKeySecret string `mapstructure:"api_key_secret"`
	Hostname     string `mapstructure:"hostname"`
	ContentHost  string `mapstructure:"content_host"`
}

type SpaceConfig struct {
	ID     string `mapstructure:"id"`
	Region string `mapstructure:"region"`
}

type WebhookConfig struct {
	URL                 string `mapstructure:"url"`
	ConnectionOverrides string `mapstructure:"connection_overrides"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	GroupID        string   `mapstructure:"group_id"`
	MinBytes       int      `mapstructure:"min_bytes"`
	MaxBytes       int      `mapstructure:"max_bytes"`
	CommitInterval int      `mapstructure:"commit_interval_ms"`
}

type TrackingConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	APIKey    string        `mapstructure:"api_key"`
	Topic     string        `mapstructure:"topic"`
	BatchSize int           `mapstructure:"batch_size"`
	BatchWait time.Duration `mapstructure:"batch_wait"`
}

type ContactsConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type RateLimitConfig struct {
	RPS int `mapstructure:"rps"`
}

type APIKeyConfig struct {
	Key  string `mapstructure:"key"`
	Name string `mapstructure:"name"`
	RPS  int    `mapstructure:"rps"`
}

// Settings assembles the per-call settings value the send pipeline consumes.
func (c Config) Settings() model.Settings {
	return model.Settings{
		AccountSID:          c.Provider.AccountSID,
		APIKeySID:           c.Provider.APIKeySID,
		APIKeySecret:        c.Provider.APIKeySecret,
		SpaceID:             c.Space.ID,
		Region:              c.Space.Region,
		Hostname:            c.Provider.Hostname,
		ContentHost:         c.Provider.ContentHost,
		WebhookURL:          c.Webhook.URL,
		ConnectionOverrides: c.Webhook.ConnectionOverrides,
	}
}

// Load reads embedded defaults, merges user YAML (if provided), and applies
// env overrides (MSGORCH_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		_ = v.MergeInConfig()
	}

	// env override (MSGORCH_*)
	v.SetEnvPrefix("MSGORCH")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

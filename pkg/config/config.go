package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8090"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
	Engine struct {
		BaseURL     string        `yaml:"base_url"`
		SymbolScope string        `yaml:"symbol_scope" default:"AGGREGATE"`
		Market      string        `yaml:"market" default:"us"`
		TopK        int           `yaml:"top_k" default:"5"`
		DialTimeout time.Duration `yaml:"dial_timeout" default:"10s"`
		AutoStart   bool          `yaml:"auto_start" default:"true"`
	} `yaml:"engine"`
	SignalLog struct {
		Capacity int `yaml:"capacity" default:"200"`
	} `yaml:"signal_log"`
	Sinks struct {
		Kafka      bool          `yaml:"kafka"`
		ClickHouse bool          `yaml:"clickhouse"`
		BufferSize int           `yaml:"buffer_size" default:"1024"`
		FlushRetry time.Duration `yaml:"flush_retry" default:"2s"`
	} `yaml:"sinks"`
	Kafka struct {
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"signaldeck.events"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		Linger       time.Duration `yaml:"linger" default:"500ms"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		Async        bool          `yaml:"async" default:"true"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"signaldeck"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		AsyncInsert  bool          `yaml:"async_insert" default:"true"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"clickhouse"`
	Cache struct {
		SnapshotTTL time.Duration `yaml:"snapshot_ttl" default:"24h"`
		Redis       struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("ENGINE_BASE_URL"); v != "" {
		c.Engine.BaseURL = v
	}
	if v := os.Getenv("SYMBOL_SCOPE"); v != "" {
		c.Engine.SymbolScope = v
	}
	if v := os.Getenv("MARKET"); v != "" {
		c.Engine.Market = v
	}
	if v := os.Getenv("TOP_K"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			c.Engine.TopK = k
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Sinks.Kafka = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Engine.BaseURL == "" {
		return fmt.Errorf("engine.base_url is required")
	}
	if c.Engine.SymbolScope == "" {
		return fmt.Errorf("engine.symbol_scope is required")
	}
	if c.Engine.TopK < 0 {
		return fmt.Errorf("engine.top_k must not be negative")
	}
	if c.SignalLog.Capacity <= 0 {
		return fmt.Errorf("signal_log.capacity must be positive")
	}
	if c.Sinks.Kafka && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when the kafka sink is enabled")
	}
	if c.Sinks.ClickHouse && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when the clickhouse sink is enabled")
	}
	return nil
}

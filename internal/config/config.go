package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	MySQL  MySQLConfig  `yaml:"mysql"`
	Redis  RedisConfig  `yaml:"redis"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	Auth   AuthConfig   `yaml:"auth"`
	Feed   FeedConfig   `yaml:"feed"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type AuthConfig struct {
	AccessSecret  string        `yaml:"access_secret"`
	RefreshSecret string        `yaml:"refresh_secret"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
}

// FeedConfig holds the tunables of the personalized feed: how many items
// one page requests in total and the minimum share each content type is
// guaranteed regardless of how skewed the day's submissions are.
type FeedConfig struct {
	PageSize   int     `yaml:"page_size"`
	PostFloor  float64 `yaml:"post_floor"`
	EventFloor float64 `yaml:"event_floor"`
	RallyFloor float64 `yaml:"rally_floor"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		MySQL:  MySQLConfig{DSN: "user:password@tcp(127.0.0.1:3306)/social?charset=utf8mb4&parseTime=True"},
		Redis:  RedisConfig{Addr: "127.0.0.1:6379"},
		Kafka:  KafkaConfig{Brokers: []string{"127.0.0.1:9092"}, Topic: "notification-events"},
		Auth:   AuthConfig{AccessSecret: "secret-key", RefreshSecret: "refresh-key", AccessTTL: 30 * time.Minute},
		Feed: FeedConfig{
			PageSize:   40,
			PostFloor:  0.1,
			EventFloor: 0.1,
			RallyFloor: 0.3,
		},
	}
}

// Load reads a YAML config file on top of the defaults. A missing file is
// not an error so the server can start with defaults in development.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Feed.PostFloor+cfg.Feed.EventFloor+cfg.Feed.RallyFloor > 1 {
		return nil, fmt.Errorf("feed floors sum above 1")
	}
	return cfg, nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config содержит все настройки Catalog Service.
// Имена переменных строятся envconfig из префикса группы и имени поля:
// Database.Host -> DB_HOST, Redis.CategoryTTL -> REDIS_CATEGORY_TTL.
type Config struct {
	Server   ServerConfig   `envconfig:"SERVER"`
	Database DatabaseConfig `envconfig:"DB"`
	Redis    RedisConfig    `envconfig:"REDIS"`
	Kafka    KafkaConfig    `envconfig:"KAFKA"`
	Storage  StorageConfig  `envconfig:"S3"`
	JWT      JWTConfig      `envconfig:"JWT"`
	Cleanup  CleanupConfig  `envconfig:"CLEANUP"`

	LogLevel     string `split_words:"true" default:"info"`
	LogstashAddr string `split_words:"true"` // пусто - только stdout
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Host            string        `default:"0.0.0.0"`
	Port            string        `default:"8081"`
	ShutdownTimeout time.Duration `split_words:"true" default:"30s"`
}

// DatabaseConfig - настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string `default:"localhost"`
	Port     string `default:"5432"`
	User     string `default:"postgres"`
	Password string `default:"postgres"`
	Name     string `default:"pdv"`
	SSLMode  string `default:"disable"`
	Migrate  bool   `default:"true"` // применять встроенные миграции при старте
}

// RedisConfig - кеш категорий
type RedisConfig struct {
	Host        string `default:"localhost"`
	Port        string `default:"6379"`
	Password    string
	DB          int           `default:"0"`
	CategoryTTL time.Duration `split_words:"true" default:"10m"`
}

// KafkaConfig - топик событий о товарах
type KafkaConfig struct {
	Brokers []string `default:"localhost:9092"`
	Topic   string   `default:"product_events"`
}

// StorageConfig - S3-совместимое хранилище изображений товаров
type StorageConfig struct {
	Endpoint        string `required:"true"`
	Region          string `default:"us-east-1"`
	Bucket          string `required:"true"`
	AccessKeyID     string `split_words:"true"`
	SecretAccessKey string `split_words:"true"`
}

// JWTConfig - пустой Secret отключает аутентификацию на /products
type JWTConfig struct {
	Secret string
}

// CleanupConfig - фоновая очистка изображений из outbox
type CleanupConfig struct {
	Schedule    string `default:"@every 1m"`
	BatchSize   int    `split_words:"true" default:"50"`
	MaxAttempts int    `split_words:"true" default:"10"`
}

// Load читает .env (если есть) и переменные окружения.
// Переменные окружения имеют приоритет над .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if cfg.Cleanup.BatchSize <= 0 {
		return nil, fmt.Errorf("CLEANUP_BATCH_SIZE must be positive, got %d", cfg.Cleanup.BatchSize)
	}
	if cfg.Cleanup.MaxAttempts <= 0 {
		return nil, fmt.Errorf("CLEANUP_MAX_ATTEMPTS must be positive, got %d", cfg.Cleanup.MaxAttempts)
	}

	return &cfg, nil
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// URL возвращает postgres:// URL для pgxpool
func (c *DatabaseConfig) URL() string {
	return c.urlWithScheme("postgres")
}

// MigrationURL возвращает URL для драйвера pgx/v5 в golang-migrate
func (c *DatabaseConfig) MigrationURL() string {
	return c.urlWithScheme("pgx5")
}

func (c *DatabaseConfig) urlWithScheme(scheme string) string {
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// Address возвращает адрес сервера в формате host:port для HTTP сервера
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Address возвращает адрес Redis в формате host:port для подключения
func (c *RedisConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrInvalidConfig возвращается, когда конфигурация не прошла валидацию
var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Server         ServerConfig         `toml:"server"`
	Database       DatabaseConfig       `toml:"database"`
	Logs           LogsConfig           `toml:"logs"`
	Metrics        MetricsConfig        `toml:"metrics"`
	Redis          RedisConfig          `toml:"redis"`
	Kafka          KafkaConfig          `toml:"kafka"`
	PaymentGateway PaymentGatewayConfig `toml:"payment_gateway"`
	Reservation    ReservationConfig    `toml:"reservation"`
	Sweeper        SweeperConfig        `toml:"sweeper"`
	ClaimToken     ClaimTokenConfig     `toml:"claim_token"`
}

// ServerConfig таймауты задаются в секундах
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
	MaxTxRetries    int    `toml:"max_tx_retries"`
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
	Path        string `toml:"path"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	CacheTTL int    `toml:"cache_ttl"` // секунды
}

type KafkaConfig struct {
	Enabled      bool     `toml:"enabled"`
	Brokers      []string `toml:"brokers"`
	Topic        string   `toml:"topic"`
	BatchTimeout int      `toml:"batch_timeout_ms"`
}

type PaymentGatewayConfig struct {
	BaseURL          string `toml:"base_url"`
	APIKey           string `toml:"api_key"`
	Timeout          int    `toml:"timeout"` // секунды
	FailureThreshold uint32 `toml:"failure_threshold"`
	OpenTimeout      int    `toml:"open_timeout"` // секунды
}

type ReservationConfig struct {
	GranularityMinutes      int    `toml:"granularity_minutes"`
	AbandonAfterMinutes     int    `toml:"abandon_after_minutes"`
	MinBookingNoticeMinutes int    `toml:"min_booking_notice_minutes"`
	Currency                string `toml:"currency"`
}

func (r ReservationConfig) Granularity() time.Duration {
	return time.Duration(r.GranularityMinutes) * time.Minute
}

func (r ReservationConfig) AbandonAfter() time.Duration {
	return time.Duration(r.AbandonAfterMinutes) * time.Minute
}

type SweeperConfig struct {
	Interval  int `toml:"interval"` // секунды
	BatchSize int `toml:"batch_size"`
}

type ClaimTokenConfig struct {
	Key string `toml:"key"` // base64, 32 байта
}

// Load читает TOML файл, подставляет значения по умолчанию и валидирует результат
func Load(path string) (*Config, error) {
	cfg := Default()

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys: %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default значения, которые файл может переопределить
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 30,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			MaxTxRetries:    5,
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			ServiceName: "reservation-service",
			Path:        "/metrics",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			CacheTTL: 300,
		},
		Kafka: KafkaConfig{
			Topic:        "reservation-events",
			BatchTimeout: 50,
		},
		PaymentGateway: PaymentGatewayConfig{
			Timeout:          10,
			FailureThreshold: 5,
			OpenTimeout:      30,
		},
		Reservation: ReservationConfig{
			GranularityMinutes:  30,
			AbandonAfterMinutes: 15,
			Currency:            "RUB",
		},
		Sweeper: SweeperConfig{
			Interval:  30,
			BatchSize: 100,
		},
	}
}

// Validate собирает все ошибки конфигурации в одну
func (c *Config) Validate() error {
	var problems []string

	if c.Server.HTTPPort < 1 || c.Server.HTTPPort > 65535 {
		problems = append(problems, fmt.Sprintf("server.http_port must be between 1 and 65535, got %d", c.Server.HTTPPort))
	}
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		problems = append(problems, "database.host, database.dbname and database.user are required")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		problems = append(problems, "database.max_idle_conns must not exceed database.max_open_conns")
	}
	if c.Database.MaxTxRetries < 0 {
		problems = append(problems, "database.max_tx_retries must not be negative")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		problems = append(problems, fmt.Sprintf("metrics.path must start with /, got %q", c.Metrics.Path))
	}
	if c.Redis.Addr == "" {
		problems = append(problems, "redis.addr is required")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		problems = append(problems, "kafka.brokers and kafka.topic are required when kafka is enabled")
	}
	if c.PaymentGateway.BaseURL == "" {
		problems = append(problems, "payment_gateway.base_url is required")
	}
	if g := c.Reservation.GranularityMinutes; g <= 0 || 24*60%g != 0 {
		problems = append(problems, fmt.Sprintf("reservation.granularity_minutes must divide a day, got %d", g))
	}
	if c.Reservation.AbandonAfterMinutes <= 0 {
		problems = append(problems, "reservation.abandon_after_minutes must be positive")
	}
	if c.Reservation.MinBookingNoticeMinutes < 0 {
		problems = append(problems, "reservation.min_booking_notice_minutes must not be negative")
	}
	if len(c.Reservation.Currency) != 3 {
		problems = append(problems, fmt.Sprintf("reservation.currency must be an ISO 4217 code, got %q", c.Reservation.Currency))
	}
	if c.Sweeper.Interval <= 0 || c.Sweeper.BatchSize <= 0 {
		problems = append(problems, "sweeper.interval and sweeper.batch_size must be positive")
	}
	if c.ClaimToken.Key == "" {
		problems = append(problems, "claim_token.key is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

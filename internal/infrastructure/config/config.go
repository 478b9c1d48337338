package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the optional YAML file providing base values.
const ConfigFileEnv = "SERVICING_CONFIG"

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

type KafkaConfig struct {
	Brokers        []string `yaml:"brokers"`
	ClientID       string   `yaml:"client_id"`
	ConsumerGroup  string   `yaml:"consumer_group"`
	EventsTopic    string   `yaml:"events_topic"`
	TransfersTopic string   `yaml:"transfers_topic"`
	TLS            bool     `yaml:"tls"`
	SASLMechanism  string   `yaml:"sasl_mechanism"`
	SASLUsername   string   `yaml:"sasl_username"`
	SASLPassword   string   `yaml:"sasl_password"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JobsConfig schedules the nightly work. Schedules use cron syntax with a
// leading seconds field and run in the service time zone.
type JobsConfig struct {
	RecalculateSchedule string        `yaml:"recalculate_schedule"`
	ReconcileSchedule   string        `yaml:"reconcile_schedule"`
	LockTTL             time.Duration `yaml:"lock_ttl"`
	Concurrency         int           `yaml:"concurrency"`
	OutboxInterval      time.Duration `yaml:"outbox_interval"`
	OutboxBatchSize     int           `yaml:"outbox_batch_size"`
}

type TLSConfig struct {
	CertFile     string `yaml:"cert_file"`
	KeyFile      string `yaml:"key_file"`
	ClientCAFile string `yaml:"client_ca_file"`
}

// Enabled reports whether the gRPC server should terminate TLS.
func (c TLSConfig) Enabled() bool { return c.CertFile != "" && c.KeyFile != "" }

type TelemetryConfig struct {
	LogLevel       string  `yaml:"log_level"`
	LogFormat      string  `yaml:"log_format"`
	TracingURL     string  `yaml:"tracing_url"`
	TraceSampling  float64 `yaml:"trace_sampling"`
	TracingSecured bool    `yaml:"tracing_secured"`
}

type Config struct {
	ServiceName string          `yaml:"service_name"`
	TimeZone    string          `yaml:"time_zone"`
	GRPCPort    int             `yaml:"grpc_port"`
	Reflection  bool            `yaml:"grpc_reflection"`
	HTTPPort    int             `yaml:"http_port"`
	DB          DatabaseConfig  `yaml:"database"`
	Kafka       KafkaConfig     `yaml:"kafka"`
	Redis       RedisConfig     `yaml:"redis"`
	Jobs        JobsConfig      `yaml:"jobs"`
	TLS         TLSConfig       `yaml:"tls"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ServiceName: "servicing",
		TimeZone:    "Asia/Yangon",
		GRPCPort:    9090,
		HTTPPort:    8080,
		DB: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "servicing",
			Name:     "servicing",
			SSLMode:  "require",
			MaxConns: 10,
		},
		Kafka: KafkaConfig{
			Brokers:        []string{"localhost:9092"},
			ClientID:       "servicing",
			ConsumerGroup:  "servicing-transfers",
			EventsTopic:    "servicing.events",
			TransfersTopic: "transfer-confirmations",
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Jobs: JobsConfig{
			RecalculateSchedule: "0 5 0 * * *",
			ReconcileSchedule:   "0 */15 * * * *",
			LockTTL:             30 * time.Minute,
			Concurrency:         8,
			OutboxInterval:      2 * time.Second,
			OutboxBatchSize:     100,
		},
		Telemetry: TelemetryConfig{
			LogLevel:      "info",
			LogFormat:     "json",
			TraceSampling: 0.1,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// SERVICING_CONFIG when set, then environment variables.
func Load() (Config, error) {
	return LoadFile(os.Getenv(ConfigFileEnv))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.ServiceName = getEnv("SERVICE_NAME", cfg.ServiceName)
	cfg.TimeZone = getEnv("SERVICE_TIME_ZONE", cfg.TimeZone)
	cfg.GRPCPort = getEnvInt("GRPC_PORT", cfg.GRPCPort)
	cfg.HTTPPort = getEnvInt("HTTP_PORT", cfg.HTTPPort)
	cfg.Reflection = getEnv("GRPC_REFLECTION", strconv.FormatBool(cfg.Reflection)) == "true"

	cfg.DB.Host = getEnv("DB_HOST", cfg.DB.Host)
	cfg.DB.Port = getEnvInt("DB_PORT", cfg.DB.Port)
	cfg.DB.User = getEnv("DB_USER", cfg.DB.User)
	cfg.DB.Password = getEnv("DB_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = getEnv("DB_NAME", cfg.DB.Name)
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", cfg.DB.SSLMode)
	cfg.DB.MaxConns = int32(getEnvInt("DB_MAX_CONNS", int(cfg.DB.MaxConns)))

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	cfg.Kafka.ConsumerGroup = getEnv("KAFKA_CONSUMER_GROUP", cfg.Kafka.ConsumerGroup)
	cfg.Kafka.EventsTopic = getEnv("KAFKA_EVENTS_TOPIC", cfg.Kafka.EventsTopic)
	cfg.Kafka.TransfersTopic = getEnv("KAFKA_TRANSFERS_TOPIC", cfg.Kafka.TransfersTopic)
	cfg.Kafka.TLS = getEnv("KAFKA_TLS", strconv.FormatBool(cfg.Kafka.TLS)) == "true"
	cfg.Kafka.SASLMechanism = getEnv("KAFKA_SASL_MECHANISM", cfg.Kafka.SASLMechanism)
	cfg.Kafka.SASLUsername = getEnv("KAFKA_SASL_USERNAME", cfg.Kafka.SASLUsername)
	cfg.Kafka.SASLPassword = getEnv("KAFKA_SASL_PASSWORD", cfg.Kafka.SASLPassword)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)

	cfg.Jobs.RecalculateSchedule = getEnv("JOB_RECALCULATE_SCHEDULE", cfg.Jobs.RecalculateSchedule)
	cfg.Jobs.ReconcileSchedule = getEnv("JOB_RECONCILE_SCHEDULE", cfg.Jobs.ReconcileSchedule)
	cfg.Jobs.LockTTL = getEnvDuration("JOB_LOCK_TTL", cfg.Jobs.LockTTL)
	cfg.Jobs.Concurrency = getEnvInt("JOB_CONCURRENCY", cfg.Jobs.Concurrency)
	cfg.Jobs.OutboxInterval = getEnvDuration("OUTBOX_INTERVAL", cfg.Jobs.OutboxInterval)

	cfg.TLS.CertFile = getEnv("TLS_CERT_FILE", cfg.TLS.CertFile)
	cfg.TLS.KeyFile = getEnv("TLS_KEY_FILE", cfg.TLS.KeyFile)
	cfg.TLS.ClientCAFile = getEnv("TLS_CLIENT_CA_FILE", cfg.TLS.ClientCAFile)

	cfg.Telemetry.LogLevel = getEnv("LOG_LEVEL", cfg.Telemetry.LogLevel)
	cfg.Telemetry.LogFormat = getEnv("LOG_FORMAT", cfg.Telemetry.LogFormat)
	cfg.Telemetry.TracingURL = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.TracingURL)

	return cfg, nil
}

// Validate reports every missing or malformed setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.DB.Password == "" {
		errs = append(errs, errors.New("DB_PASSWORD environment variable is required"))
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("time zone %q: %w", c.TimeZone, err))
	}
	if len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("at least one Kafka broker is required"))
	}
	if c.Jobs.LockTTL <= 0 {
		errs = append(errs, errors.New("job lock TTL must be positive"))
	}
	if c.Jobs.Concurrency <= 0 {
		errs = append(errs, errors.New("job concurrency must be positive"))
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		errs = append(errs, errors.New("TLS needs both a certificate and a key"))
	}
	return errors.Join(errs...)
}

// Location returns the service time zone. Call Validate first.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

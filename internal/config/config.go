package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/shopspring/decimal"
)

type ReferralConfig struct {
	Env         string `yaml:"env" env:"APP_ENV" env-default:"local"`
	HTTPServer  `yaml:"http_server"`
	ReferralDB  `yaml:"referral_db"`
	Storage     `yaml:"storage"`
	LogConfig   `yaml:"log_config"`
	Kafka       `yaml:"kafka"`
	Referral    `yaml:"referral"`
	Payment     `yaml:"payment"`
	LinkSigning `yaml:"link_signing"`
	Webhook     `yaml:"webhook"`
	Admin       `yaml:"admin"`
}

type HTTPServer struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
}

type ReferralDB struct {
	Dsn             string        `yaml:"dsn" env:"REFERRAL_DB_DSN"`
	MigrationsPath  string        `yaml:"migrations_path" env:"REFERRAL_MIGRATIONS_PATH" env-default:"migrations"`
	MaxOpenConns    int           `yaml:"max_open_conns" env-default:"20"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env-default:"30m"`
}

// Storage selects the store backend. "memory" keeps everything in process
// and is meant for local runs.
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`
	LogOutput string `yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
}

type Kafka struct {
	Enabled           bool     `yaml:"enabled" env:"KAFKA_ENABLED"`
	Brokers           []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	NotificationTopic string   `yaml:"notification_topic" env-default:"referral-notifications"`
	InvitationTopic   string   `yaml:"invitation_topic" env-default:"referral-invitations"`
	PaymentTopic      string   `yaml:"payment_topic" env-default:"payment-confirmed"`
	ConsumerGroup     string   `yaml:"consumer_group" env-default:"referral-service"`
	ConsumePayments   bool     `yaml:"consume_payments" env:"KAFKA_CONSUME_PAYMENTS"`
}

type Referral struct {
	LinksPerBatch    int           `yaml:"links_per_batch" env-default:"3"`
	LinkTTL          time.Duration `yaml:"link_ttl" env-default:"0s"`
	PendingTTL       time.Duration `yaml:"pending_ttl" env-default:"720h"`
	ExpiryInterval   time.Duration `yaml:"expiry_interval" env-default:"10m"`
	DefaultTreeDepth int           `yaml:"default_tree_depth" env-default:"3"`
	MaxTreeDepth     int           `yaml:"max_tree_depth" env-default:"5"`
	LeaderboardSize  int           `yaml:"leaderboard_size" env-default:"10"`
	SignupReward     string        `yaml:"signup_reward" env-default:"10"`
	ActivityReward   string        `yaml:"activity_reward" env-default:"25"`
	MilestoneReward  string        `yaml:"milestone_reward" env-default:"50"`
}

type Payment struct {
	ActivationThreshold string        `yaml:"activation_threshold" env:"ACTIVATION_THRESHOLD" env-default:"90000"`
	ExpectedCurrency    string        `yaml:"expected_currency" env:"ACTIVATION_CURRENCY" env-default:"UGX"`
	MaxAttempts         int           `yaml:"max_attempts" env-default:"3"`
	BaseBackoff         time.Duration `yaml:"base_backoff" env-default:"200ms"`
}

type LinkSigning struct {
	Secret       string        `yaml:"secret" env:"LINK_SIGNING_SECRET"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"168h"`
	ShareBaseURL string        `yaml:"share_base_url" env:"SHARE_BASE_URL" env-default:"https://brickfoundation.org/join"`
}

type Webhook struct {
	Secret    string  `yaml:"secret" env:"PAYMENT_WEBHOOK_SECRET"`
	RateLimit float64 `yaml:"rate_limit" env-default:"10"`
	Burst     int     `yaml:"burst" env-default:"20"`
}

type Admin struct {
	APIKey string `yaml:"api_key" env:"ADMIN_API_KEY"`
}

func MustLoad() *ReferralConfig {
	configPath := os.Getenv("REFERRAL_CONFIG_PATH")
	if configPath == "" {
		log.Fatalf("REFERRAL_CONFIG_PATH was not found\n")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Load reads the YAML file at path, applies environment overrides and validates the result.
func Load(path string) (*ReferralConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	var cfg ReferralConfig
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service must never start with.
// Secrets have no defaults.
func (c *ReferralConfig) Validate() error {
	var errs []error
	if c.LinkSigning.Secret == "" {
		errs = append(errs, errors.New("link_signing.secret is required"))
	}
	if c.Webhook.Secret == "" {
		errs = append(errs, errors.New("webhook.secret is required"))
	}
	if c.Admin.APIKey == "" {
		errs = append(errs, errors.New("admin.api_key is required"))
	}
	if c.Storage.Driver != "postgres" && c.Storage.Driver != "memory" {
		errs = append(errs, fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver))
	}
	if c.Storage.Driver == "postgres" && c.ReferralDB.Dsn == "" {
		errs = append(errs, errors.New("referral_db.dsn is required for postgres storage"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers is required when kafka is enabled"))
	}
	if c.Referral.LinksPerBatch < 1 {
		errs = append(errs, errors.New("referral.links_per_batch must be positive"))
	}
	if c.Referral.DefaultTreeDepth < 1 || c.Referral.MaxTreeDepth < c.Referral.DefaultTreeDepth {
		errs = append(errs, errors.New("referral tree depth bounds are invalid"))
	}
	if c.Referral.ExpiryInterval <= 0 {
		errs = append(errs, errors.New("referral.expiry_interval must be positive"))
	}
	if c.Payment.MaxAttempts < 1 {
		errs = append(errs, errors.New("payment.max_attempts must be at least 1"))
	}
	for name, raw := range map[string]string{
		"referral.signup_reward":       c.Referral.SignupReward,
		"referral.activity_reward":     c.Referral.ActivityReward,
		"referral.milestone_reward":    c.Referral.MilestoneReward,
		"payment.activation_threshold": c.Payment.ActivationThreshold,
	} {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if v.IsNegative() {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	return errors.Join(errs...)
}

func (c *ReferralConfig) ActivationThreshold() decimal.Decimal {
	return decimal.RequireFromString(c.Payment.ActivationThreshold)
}

func (c *ReferralConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%s", c.HTTPServer.Host, c.HTTPServer.Port)
}

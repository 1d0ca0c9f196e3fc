package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string
	LogLevel    string
	LogFile     string

	// DatabaseURL selects the Postgres store; empty keeps everything in memory.
	DatabaseURL string
	// KafkaBrokers is a comma separated list; empty disables the event relay.
	KafkaBrokers string
	KafkaTopic   string

	JWTSecret string
	JWTTTL    time.Duration

	// ShippingFee is the flat fee in minor units.
	ShippingFee int64

	PaymentAttempts  int
	PaymentTimeout   time.Duration
	TrackingAttempts int
	TrackingTimeout  time.Duration

	ShutdownTimeout time.Duration
	SeedCatalog     bool
}

func defaults(v *viper.Viper) {
	v.SetDefault("service_name", "storefront")
	v.SetDefault("env", "dev")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("database_url", "")
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("kafka_topic", "storefront.orders")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_ttl", "168h")
	v.SetDefault("shipping_fee", 1000)
	v.SetDefault("payment_attempts", 3)
	v.SetDefault("payment_timeout", "5s")
	v.SetDefault("tracking_attempts", 2)
	v.SetDefault("tracking_timeout", "3s")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("seed_catalog", true)
}

// Load reads configuration from the environment (SERVICE_NAME, HTTP_ADDR, ...) and, when
// path is non-empty, from that config file first.
func Load(path string) (*Config, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{
		ServiceName:      v.GetString("service_name"),
		Env:              v.GetString("env"),
		HTTPAddr:         v.GetString("http_addr"),
		LogLevel:         v.GetString("log_level"),
		LogFile:          v.GetString("log_file"),
		DatabaseURL:      v.GetString("database_url"),
		KafkaBrokers:     v.GetString("kafka_brokers"),
		KafkaTopic:       v.GetString("kafka_topic"),
		JWTSecret:        v.GetString("jwt_secret"),
		JWTTTL:           v.GetDuration("jwt_ttl"),
		ShippingFee:      v.GetInt64("shipping_fee"),
		PaymentAttempts:  v.GetInt("payment_attempts"),
		PaymentTimeout:   v.GetDuration("payment_timeout"),
		TrackingAttempts: v.GetInt("tracking_attempts"),
		TrackingTimeout:  v.GetDuration("tracking_timeout"),
		ShutdownTimeout:  v.GetDuration("shutdown_timeout"),
		SeedCatalog:      v.GetBool("seed_catalog"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.JWTSecret == "":
		return fmt.Errorf("config: JWT_SECRET is required")
	case c.ShippingFee < 0:
		return fmt.Errorf("config: SHIPPING_FEE must be zero or greater")
	case c.PaymentAttempts < 1 || c.TrackingAttempts < 1:
		return fmt.Errorf("config: retry attempts must be at least 1")
	case c.JWTTTL <= 0:
		return fmt.Errorf("config: JWT_TTL must be positive")
	}
	return nil
}

package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/tournevent/fedexbridge/pkg/shipper"
	"github.com/tournevent/fedexbridge/pkg/shipper/fedex"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// FedEx static credentials, used until a complete record is saved
	FedExEnabled       bool               `envconfig:"FEDEX_ENABLED" default:"true"`
	FedExClientID      string             `envconfig:"FEDEX_CLIENT_ID"`
	FedExClientSecret  string             `envconfig:"FEDEX_CLIENT_SECRET"`
	FedExAccountNumber string             `envconfig:"FEDEX_ACCOUNT_NUMBER"`
	FedExSandbox       bool               `envconfig:"FEDEX_SANDBOX" default:"false"`
	FedExEnableLogs    bool               `envconfig:"FEDEX_ENABLE_LOGS" default:"false"`
	FedExWeightUnit    shipper.WeightUnit `envconfig:"FEDEX_WEIGHT_UNIT" default:"LB"`

	// FedEx transport
	FedExProductionURL string        `envconfig:"FEDEX_PRODUCTION_URL" default:"https://apis.fedex.com"`
	FedExSandboxURL    string        `envconfig:"FEDEX_SANDBOX_URL" default:"https://apis-sandbox.fedex.com"`
	FedExHTTPTimeout   time.Duration `envconfig:"FEDEX_HTTP_TIMEOUT" default:"0s"`
	FedExUseMock       bool          `envconfig:"FEDEX_USE_MOCK" default:"false"`

	// Host data
	DatabaseURL string `envconfig:"DATABASE_URL"`
	CatalogPath string `envconfig:"CATALOG_PATH"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"fedexbridge"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// StaticCredentials returns the credentials configured through the environment.
func (c *Config) StaticCredentials() shipper.Credentials {
	return shipper.Credentials{
		Enabled:        c.FedExEnabled,
		ClientID:       c.FedExClientID,
		ClientSecret:   c.FedExClientSecret,
		AccountNumber:  c.FedExAccountNumber,
		SandboxMode:    c.FedExSandbox,
		LoggingEnabled: c.FedExEnableLogs,
		WeightUnit:     c.FedExWeightUnit,
	}
}

// FedEx returns the provider configuration.
func (c *Config) FedEx() fedex.Config {
	return fedex.Config{
		Static:        c.StaticCredentials(),
		ProductionURL: c.FedExProductionURL,
		SandboxURL:    c.FedExSandboxURL,
		HTTPTimeout:   c.FedExHTTPTimeout,
		UseMock:       c.FedExUseMock,
	}
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("fedex.enabled", c.FedExEnabled),
		attribute.Bool("fedex.sandbox", c.FedExSandbox),
		attribute.Bool("fedex.mock", c.FedExUseMock),
		attribute.Bool("store.postgres", c.DatabaseURL != ""),
	}
}

// Package config loads the service configuration once at start-up. The
// resulting Config is passed explicitly to every component.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"argg-api/pkg/tracing"
)

// Submission variants.
const (
	VariantOwner     = "owner"
	VariantSubmitter = "submitter"
)

// Record organization sources.
const (
	OrgSourceDefault    = "default"
	OrgSourceSubmission = "submission"
)

// Environment keys.
const (
	KeyCatalogBaseURL      = "BCDC_BASE_URL"
	KeyCatalogAPIPath      = "BCDC_API_PATH"
	KeyCatalogAPIKey       = "BCDC_API_KEY"
	KeyCatalogGroupID      = "BCDC_GROUP_ID"
	KeyOwnerOrgID          = "BCDC_PACKAGE_OWNER_ORG_ID"
	KeyOwnerSubOrgID       = "BCDC_PACKAGE_OWNER_SUB_ORG_ID"
	KeySMTPServer          = "SMTP_SERVER"
	KeySMTPPort            = "SMTP_PORT"
	KeyFromEmailAddress    = "FROM_EMAIL_ADDRESS"
	KeyFromEmailPassword   = "FROM_EMAIL_PASSWORD"
	KeyTargetEmails        = "TARGET_EMAIL_ADDRESSES"
	KeyLogLevel            = "LOG_LEVEL"
	KeyLogFormat           = "LOG_FORMAT"
	KeyPort                = "PORT"
	KeyCORSEnabled         = "CORS_ENABLED"
	KeySubmissionVariant   = "SUBMISSION_VARIANT"
	KeyRecordOrgSource     = "RECORD_ORG_SOURCE"
	KeyOrgCacheTTL         = "ORG_CACHE_TTL"
	KeyNATSEnabled         = "NATS_ENABLED"
	KeyNATSPort            = "NATS_PORT"
	KeyTracingEnabled      = "TRACING_ENABLED"
	KeyTracingExporter     = "TRACING_EXPORTER"
	KeyTracingOTLPEndpoint = "TRACING_OTLP_ENDPOINT"
)

// requiredKeys are checked in this order; the first missing one is reported.
var requiredKeys = []string{
	KeyCatalogBaseURL,
	KeyCatalogAPIPath,
	KeyCatalogAPIKey,
	KeyCatalogGroupID,
	KeyOwnerOrgID,
	KeyOwnerSubOrgID,
	KeySMTPServer,
	KeySMTPPort,
	KeyFromEmailAddress,
	KeyFromEmailPassword,
	KeyTargetEmails,
}

type Config struct {
	Server       ServerConfig
	Logging      LoggingConfig
	Catalog      CatalogConfig
	SMTP         SMTPConfig
	Registration RegistrationConfig
	NATS         NATSConfig
	Tracing      tracing.Config
}

type ServerConfig struct {
	Port        string
	CORSEnabled bool
}

type LoggingConfig struct {
	Level  string
	Format string
}

type CatalogConfig struct {
	BaseURL       string
	APIPath       string
	APIKey        string
	GroupID       string
	OwnerOrgID    string
	OwnerSubOrgID string
	OrgCacheTTL   time.Duration
}

type SMTPConfig struct {
	Server          string
	Port            int
	FromAddress     string
	FromPassword    string
	TargetAddresses string
}

type RegistrationConfig struct {
	Variant   string
	OrgSource string
}

type NATSConfig struct {
	Enabled bool
	Port    int
}

// SetDefaults registers the defaults of every optional key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeyCORSEnabled, false)
	v.SetDefault(KeySubmissionVariant, VariantOwner)
	v.SetDefault(KeyRecordOrgSource, OrgSourceDefault)
	v.SetDefault(KeyOrgCacheTTL, 10*time.Minute)
	v.SetDefault(KeyNATSEnabled, true)
	v.SetDefault(KeyNATSPort, 4222)

	tracingDefaults := tracing.DefaultConfig()
	v.SetDefault(KeyTracingEnabled, tracingDefaults.Enabled)
	v.SetDefault(KeyTracingExporter, tracingDefaults.Exporter)
	v.SetDefault(KeyTracingOTLPEndpoint, tracingDefaults.OTLPEndpoint)
}

// NewViper returns a viper instance bound to the process environment.
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load builds a Config from v. It fails on the first missing required key
// and on invalid values of the optional ones.
func Load(v *viper.Viper) (*Config, error) {
	for _, key := range requiredKeys {
		if strings.TrimSpace(v.GetString(key)) == "" {
			return nil, fmt.Errorf("missing '%s' environment variable", key)
		}
	}

	smtpPort := v.GetInt(KeySMTPPort)
	if smtpPort <= 0 {
		return nil, fmt.Errorf("invalid '%s': %q is not a port number", KeySMTPPort, v.GetString(KeySMTPPort))
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString(KeyPort),
			CORSEnabled: v.GetBool(KeyCORSEnabled),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(v.GetString(KeyLogLevel)),
			Format: strings.ToLower(v.GetString(KeyLogFormat)),
		},
		Catalog: CatalogConfig{
			BaseURL:       strings.TrimRight(v.GetString(KeyCatalogBaseURL), "/"),
			APIPath:       v.GetString(KeyCatalogAPIPath),
			APIKey:        v.GetString(KeyCatalogAPIKey),
			GroupID:       v.GetString(KeyCatalogGroupID),
			OwnerOrgID:    v.GetString(KeyOwnerOrgID),
			OwnerSubOrgID: v.GetString(KeyOwnerSubOrgID),
			OrgCacheTTL:   v.GetDuration(KeyOrgCacheTTL),
		},
		SMTP: SMTPConfig{
			Server:          v.GetString(KeySMTPServer),
			Port:            smtpPort,
			FromAddress:     v.GetString(KeyFromEmailAddress),
			FromPassword:    v.GetString(KeyFromEmailPassword),
			TargetAddresses: v.GetString(KeyTargetEmails),
		},
		Registration: RegistrationConfig{
			Variant:   strings.ToLower(v.GetString(KeySubmissionVariant)),
			OrgSource: strings.ToLower(v.GetString(KeyRecordOrgSource)),
		},
		NATS: NATSConfig{
			Enabled: v.GetBool(KeyNATSEnabled),
			Port:    v.GetInt(KeyNATSPort),
		},
		Tracing: tracing.Config{
			Enabled:      v.GetBool(KeyTracingEnabled),
			Exporter:     strings.ToLower(v.GetString(KeyTracingExporter)),
			OTLPEndpoint: v.GetString(KeyTracingOTLPEndpoint),
			ServiceName:  tracing.DefaultServiceName,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Registration.Variant {
	case VariantOwner, VariantSubmitter:
	default:
		return fmt.Errorf("invalid '%s': %q (expected %q or %q)",
			KeySubmissionVariant, c.Registration.Variant, VariantOwner, VariantSubmitter)
	}

	switch c.Registration.OrgSource {
	case OrgSourceDefault, OrgSourceSubmission:
	default:
		return fmt.Errorf("invalid '%s': %q (expected %q or %q)",
			KeyRecordOrgSource, c.Registration.OrgSource, OrgSourceDefault, OrgSourceSubmission)
	}

	if c.Catalog.OrgCacheTTL < 0 {
		return fmt.Errorf("invalid '%s': must not be negative", KeyOrgCacheTTL)
	}
	return nil
}

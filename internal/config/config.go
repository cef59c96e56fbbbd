// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP API and socket gateway listen on (e.g. :3001).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address of the gRPC health service. Empty disables it.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN for the document store. Empty selects the in-memory store (development only).
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisURL enables the Redis OTP challenge store and the asynq delivery queue (e.g. redis://localhost:6379/0).
	RedisURL string `mapstructure:"REDIS_URL"`

	// JWTSecret is the HMAC secret for HS256 tokens. Used when no key pair is configured.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; used with JWT_PUBLIC_KEY for RS256/ES256.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim set on every token and checked on verification.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// SessionTTL is the session token lifetime (e.g. "4h").
	SessionTTL string `mapstructure:"SESSION_TTL"`
	// SessionCookieMaxAge is the session cookie max age (e.g. "24h"). It may outlive the token.
	SessionCookieMaxAge string `mapstructure:"SESSION_COOKIE_MAX_AGE"`
	// CookieSecure sets the Secure attribute on the session cookie.
	CookieSecure bool `mapstructure:"COOKIE_SECURE"`
	// InvitationTTL is the invitation token lifetime (e.g. "72h").
	InvitationTTL string `mapstructure:"INVITATION_TTL"`
	// OTPTTL is how long an issued one-time code stays live (e.g. "15m").
	OTPTTL string `mapstructure:"OTP_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 10.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// InviteBaseURL is the front-end page that redeems invitation tokens; the token is appended as ?token=.
	InviteBaseURL string `mapstructure:"INVITE_BASE_URL"`
	// CORSOrigins is a comma-separated list of origins allowed to send credentialed requests.
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`

	// MailFrom is the sender address for invitation and OTP mail.
	MailFrom string `mapstructure:"MAIL_FROM"`
	// ResendAPIKey enables the Resend mailer. Empty logs mail instead of sending it.
	ResendAPIKey string `mapstructure:"RESEND_API_KEY"`
	// ResendBaseURL is the Resend API base URL.
	ResendBaseURL string `mapstructure:"RESEND_BASE_URL"`

	// TwilioAccountSID, TwilioAuthToken and TwilioFrom configure the SMS sender. Empty SID logs SMS instead of sending.
	TwilioAccountSID string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFrom       string `mapstructure:"TWILIO_FROM"`
	// TwilioBaseURL is the Twilio REST API base URL.
	TwilioBaseURL string `mapstructure:"TWILIO_BASE_URL"`

	// OTPReturnToClient when true enables dev OTP mode: the issued code is echoed in the response and served from GET /dev/otp.
	// Must not be true when Env is production.
	OTPReturnToClient bool `mapstructure:"OTP_RETURN_TO_CLIENT"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is the zerolog level name (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// OTLPEndpoint is the OpenTelemetry collector endpoint. Empty uses no-op providers.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext connection to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// AuditKafkaBrokers is a comma-separated list of Kafka broker addresses. Empty disables Kafka audit shipping.
	AuditKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// AuditKafkaTopic is the Kafka topic for audit events.
	AuditKafkaTopic string `mapstructure:"AUDIT_KAFKA_TOPIC"`

	// Worker-only: Loki URL the audit shipper pushes to (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the audit shipper.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":3001")
	v.SetDefault("GRPC_ADDR", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "staffhub")
	v.SetDefault("SESSION_TTL", "4h")
	v.SetDefault("SESSION_COOKIE_MAX_AGE", "24h")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("INVITATION_TTL", "72h") // 3d
	v.SetDefault("OTP_TTL", "15m")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("INVITE_BASE_URL", "http://localhost:3000/auth/verify-email")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("MAIL_FROM", "no-reply@staffhub.local")
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("RESEND_BASE_URL", "https://api.resend.com")
	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TWILIO_FROM", "")
	v.SetDefault("TWILIO_BASE_URL", "https://api.twilio.com")
	v.SetDefault("OTP_RETURN_TO_CLIENT", false)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUDIT_KAFKA_TOPIC", "staffhub-audit")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "staffhub-audit-shipper")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field rules. Load calls it; tests call it directly.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if c.OTPReturnToClient && c.IsProduction() {
		return errors.New("config: OTP_RETURN_TO_CLIENT must not be true when APP_ENV=production")
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 10
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	hasKeys := c.JWTPrivateKey != "" || c.JWTPublicKey != ""
	if hasKeys && (c.JWTPrivateKey == "" || c.JWTPublicKey == "") {
		return errors.New("config: JWT_PRIVATE_KEY and JWT_PUBLIC_KEY must be set together")
	}
	if !hasKeys && c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET or JWT_PRIVATE_KEY/JWT_PUBLIC_KEY must be set")
	}
	if c.IsProduction() && c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL must be set when APP_ENV=production")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// SessionTokenTTL parses SessionTTL. Returns 4h if unset or invalid.
func (c *Config) SessionTokenTTL() time.Duration {
	return parseDuration(c.SessionTTL, 4*time.Hour)
}

// CookieMaxAge parses SessionCookieMaxAge. Returns 24h if unset or invalid.
func (c *Config) CookieMaxAge() time.Duration {
	return parseDuration(c.SessionCookieMaxAge, 24*time.Hour)
}

// InvitationTokenTTL parses InvitationTTL. Returns 72h if unset or invalid.
func (c *Config) InvitationTokenTTL() time.Duration {
	return parseDuration(c.InvitationTTL, 72*time.Hour)
}

// ChallengeTTL parses OTPTTL. Returns 15m if unset or invalid.
func (c *Config) ChallengeTTL() time.Duration {
	return parseDuration(c.OTPTTL, 15*time.Minute)
}

// AuditKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
func (c *Config) AuditKafkaBrokersList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.AuditKafkaBrokers)
}

// CORSOriginsList returns the allowed CORS origins.
func (c *Config) CORSOriginsList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.CORSOrigins)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

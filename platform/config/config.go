// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed by the auth service.
type AuthServiceConfig interface {
	JWTConfig
	GetAccessTokenTTL() time.Duration
	GetOTPCodeTTL() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// AdminConfig provides the shared secret for admissions-office endpoints.
type AdminConfig interface {
	GetAdminAPIKey() string
}

// CRMConfig provides settings for the external CRM integration.
type CRMConfig interface {
	GetCRMBaseURL() string
	GetCRMToken() string
	GetCRMTimeout() time.Duration
	GetCRMSchemaTTL() time.Duration
	GetCRMTimeOffset() string
	GetCRMStageIDs() map[string][2]int64
	IsCRMEnabled() bool
}

// SMSConfig provides settings for the SMS gateway.
type SMSConfig interface {
	GetSMSBaseURL() string
	GetSMSToken() string
	GetSMSSender() string
	IsSMSEnabled() bool
}

// SchedulerConfig provides settings for the background sync queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// StorageConfig provides settings for MinIO S3-compatible document storage.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketDocuments() string
	GetPublicFileBaseURL() string
	IsMinIOEnabled() bool
}

// Stage names used as keys of the CRM stage table. The values are fixed by
// the CRM pipeline configuration and supplied through the environment.
const (
	StageFirstContact      = "first_contact"
	StageAccepted          = "accepted"
	StageRejected          = "rejected"
	StageContractRequested = "contract_requested"
)

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env             string
	HTTPAddr        string
	DatabaseURL     string
	JWTAccessSecret string
	AccessTokenTTL  time.Duration
	OTPCodeTTL      time.Duration
	CORSAllowAll    bool
	CORSOrigins     []string
	CORSAllowCreds  bool
	AdminAPIKey     string

	CRMBaseURL    string
	CRMToken      string
	CRMTimeout    time.Duration
	CRMSchemaTTL  time.Duration
	CRMTimeOffset string
	CRMStageIDs   map[string][2]int64

	SMSBaseURL string
	SMSToken   string
	SMSSender  string

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	MinIOEndpoint        string
	MinIOAccessKey       string
	MinIOSecretKey       string
	MinIOUseSSL          bool
	MinIOMaxFileSize     int64
	MinioBucketDocuments string
	PublicFileBaseURL    string
}

// Load reads configuration from the environment (and .env when present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		JWTAccessSecret: getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:  mustDuration(getEnv("JWT_ACCESS_TTL", "30m")),
		OTPCodeTTL:      mustDuration(getEnv("OTP_CODE_TTL", "3m")),
		CORSAllowAll:    strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true"),
		CORSOrigins:     splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200")),
		CORSAllowCreds:  strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AdminAPIKey:     getEnv("ADMIN_API_KEY", ""),

		CRMBaseURL:    strings.TrimRight(getEnv("CRM_BASE_URL", ""), "/"),
		CRMToken:      getEnv("CRM_TOKEN", ""),
		CRMTimeout:    mustDuration(getEnv("CRM_TIMEOUT", "10s")),
		CRMSchemaTTL:  mustDuration(getEnv("CRM_SCHEMA_TTL", "0")),
		CRMTimeOffset: getEnv("CRM_TIME_OFFSET", "+05:00"),
		CRMStageIDs: map[string][2]int64{
			StageFirstContact:      {envInt64("CRM_FIRST_CONTACT_PIPELINE_ID"), envInt64("CRM_FIRST_CONTACT_STATUS_ID")},
			StageAccepted:          {envInt64("CRM_ACCEPTED_PIPELINE_ID"), envInt64("CRM_ACCEPTED_STATUS_ID")},
			StageRejected:          {envInt64("CRM_REJECTED_PIPELINE_ID"), envInt64("CRM_REJECTED_STATUS_ID")},
			StageContractRequested: {envInt64("CRM_CONTRACT_PIPELINE_ID"), envInt64("CRM_CONTRACT_STATUS_ID")},
		},

		SMSBaseURL: getEnv("SMS_BASE_URL", "https://notify.eskiz.uz/api"),
		SMSToken:   getEnv("SMS_API_TOKEN", ""),
		SMSSender:  getEnv("SMS_SENDER", "4546"),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "crm-sync"),
		AsynqConcurrency: int(envInt64Default("ASYNQ_CONCURRENCY", 10)),

		MinIOEndpoint:        getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:       getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:          strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:     envInt64Default("MINIO_MAX_FILE_SIZE", 10<<20),
		MinioBucketDocuments: getEnv("MINIO_BUCKET_DOCUMENTS", "applicant-documents"),
		PublicFileBaseURL:    getEnv("PUBLIC_FILE_BASE_URL", ""),
	}

	if containsWildcard(cfg.CORSOrigins) {
		cfg.CORSAllowAll = true
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CRMBaseURL != "" && cfg.CRMToken == "" {
		return nil, fmt.Errorf("CRM_TOKEN is required when CRM_BASE_URL is set")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

// =============================================================================
// Interface implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string           { return c.DatabaseURL }
func (c *Config) GetJWTAccessSecret() string       { return c.JWTAccessSecret }
func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }
func (c *Config) GetOTPCodeTTL() time.Duration     { return c.OTPCodeTTL }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }
func (c *Config) GetAdminAPIKey() string   { return c.AdminAPIKey }

func (c *Config) GetCRMBaseURL() string               { return c.CRMBaseURL }
func (c *Config) GetCRMToken() string                 { return c.CRMToken }
func (c *Config) GetCRMTimeout() time.Duration        { return c.CRMTimeout }
func (c *Config) GetCRMSchemaTTL() time.Duration      { return c.CRMSchemaTTL }
func (c *Config) GetCRMTimeOffset() string            { return c.CRMTimeOffset }
func (c *Config) GetCRMStageIDs() map[string][2]int64 { return c.CRMStageIDs }
func (c *Config) IsCRMEnabled() bool                  { return c.CRMBaseURL != "" }

func (c *Config) GetSMSBaseURL() string { return c.SMSBaseURL }
func (c *Config) GetSMSToken() string   { return c.SMSToken }
func (c *Config) GetSMSSender() string  { return c.SMSSender }
func (c *Config) IsSMSEnabled() bool    { return c.SMSToken != "" }

func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

func (c *Config) GetMinIOEndpoint() string        { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string       { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string       { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool            { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64      { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketDocuments() string { return c.MinioBucketDocuments }
func (c *Config) GetPublicFileBaseURL() string    { return c.PublicFileBaseURL }
func (c *Config) IsMinIOEnabled() bool            { return c.MinIOEndpoint != "" }

// =============================================================================
// Helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	if value == "0" || value == "" {
		return 0
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func envInt64(key string) int64 {
	return envInt64Default(key, 0)
}

func envInt64Default(key string, fallback int64) int64 {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}

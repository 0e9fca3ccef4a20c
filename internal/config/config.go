// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	AWS         AWSConfig
	Email       EmailConfig
	I18n        I18nConfig
	Frontend    FrontendConfig
	Lifecycle   LifecycleConfig
	Trial       TrialConfig
	Assignment  AssignmentConfig
	Commission  CommissionConfig
}

type FrontendConfig struct {
	BaseURL string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  int // in hours
	RefreshTokenTTL int // in hours
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

type I18nConfig struct {
	DefaultLocale string
	LocalesPath   string
}

type LifecycleConfig struct {
	InvitationTTLHours int
}

type TrialConfig struct {
	MinTrials        int
	QualityThreshold float64
	OnTimeThreshold  float64
	FailureCap       int
	PeriodDays       int
	SeedTrialCount   int
}

type AssignmentConfig struct {
	Strategy             string
	RatingWeight         float64
	LoadWeight           float64
	ExperienceWeight     float64
	MaxActiveAssignments int
	ClaimRetries         int
	ClaimBackoffMs       int
}

type CommissionTier struct {
	MinVolume float64
	Rate      float64
}

type CommissionConfig struct {
	FlatAmount     float64
	PercentageRate float64
	Tiers          []CommissionTier
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "partner_core"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "info"),
		},
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL:  getEnvAsInt("JWT_ACCESS_TTL", 24),   // 24 hours
			RefreshTokenTTL: getEnvAsInt("JWT_REFRESH_TTL", 168), // 7 days
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "partner-core-documents"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@craftlink.io"),
			FromName:     getEnv("FROM_NAME", "CraftLink Partners"),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
			LocalesPath:   getEnv("LOCALES_PATH", "./internal/i18n/locales"),
		},
		Frontend: FrontendConfig{
			BaseURL: getEnv("FRONTEND_BASE_URL", "http://localhost:3000"),
		},
		Lifecycle: LifecycleConfig{
			InvitationTTLHours: getEnvAsInt("INVITATION_TTL_HOURS", 72),
		},
		Trial: TrialConfig{
			MinTrials:        getEnvAsInt("TRIAL_MIN_TRIALS", 3),
			QualityThreshold: getEnvAsFloat("TRIAL_QUALITY_THRESHOLD", 4.0),
			OnTimeThreshold:  getEnvAsFloat("TRIAL_ON_TIME_THRESHOLD", 0.80),
			FailureCap:       getEnvAsInt("TRIAL_FAILURE_CAP", 2),
			PeriodDays:       getEnvAsInt("TRIAL_PERIOD_DAYS", 14),
			SeedTrialCount:   getEnvAsInt("TRIAL_SEED_COUNT", 3),
		},
		Assignment: AssignmentConfig{
			Strategy:             getEnv("ASSIGNMENT_STRATEGY", "combined"),
			RatingWeight:         getEnvAsFloat("ASSIGNMENT_RATING_WEIGHT", 0.5),
			LoadWeight:           getEnvAsFloat("ASSIGNMENT_LOAD_WEIGHT", 0.3),
			ExperienceWeight:     getEnvAsFloat("ASSIGNMENT_EXPERIENCE_WEIGHT", 0.2),
			MaxActiveAssignments: getEnvAsInt("ASSIGNMENT_MAX_ACTIVE", 3),
			ClaimRetries:         getEnvAsInt("ASSIGNMENT_CLAIM_RETRIES", 3),
			ClaimBackoffMs:       getEnvAsInt("ASSIGNMENT_CLAIM_BACKOFF_MS", 50),
		},
		Commission: CommissionConfig{
			FlatAmount:     getEnvAsFloat("COMMISSION_FLAT_AMOUNT", 25.0),
			PercentageRate: getEnvAsFloat("COMMISSION_PERCENTAGE_RATE", 0.15),
			Tiers:          parseCommissionTiers(getEnv("COMMISSION_TIERS", "0:0.10,5000:0.12,20000:0.15")),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	switch c.Assignment.Strategy {
	case "rating", "round_robin", "combined":
	default:
		return fmt.Errorf("unknown assignment strategy %q", c.Assignment.Strategy)
	}

	if c.Assignment.MaxActiveAssignments < 1 {
		return fmt.Errorf("assignment load cap must be at least 1")
	}

	if len(c.Commission.Tiers) == 0 {
		return fmt.Errorf("commission tier table must not be empty")
	}

	return nil
}

// parseCommissionTiers parses "minVolume:rate" pairs, e.g.
// "0:0.10,5000:0.12,20000:0.15". Tiers must be listed in ascending volume
// order; malformed pairs are skipped.
func parseCommissionTiers(raw string) []CommissionTier {
	var tiers []CommissionTier
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			continue
		}
		minVolume, err1 := strconv.ParseFloat(parts[0], 64)
		rate, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		tiers = append(tiers, CommissionTier{MinVolume: minVolume, Rate: rate})
	}
	return tiers
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret       string
	JwtTTL          time.Duration
	CaptchaTokenTTL time.Duration

	// Server
	ApiPort        string
	ServiceApiPort string

	// Cloudflare
	CloudflareTurnstileSecretKey string
	CloudflareSiteVerifyURL      string

	// Matching
	BroadcastInviteLimit int

	// Credits
	QuoteSendCreditCost int
	SignupFreeCredits   int

	// Enquiry rate limiting (sliding window, per IP+email)
	EnquiryRateWindow time.Duration
	EnquiryRateLimit  int

	// Enquiries with no accepted quote are closed after this long
	EnquiryStaleAge time.Duration

	// Max file size accepted for supplier media uploads
	MediaMaxSizeMB int

	// Email
	SmtpHost        string
	SmtpPort        int
	SmtpUsername    string
	SmtpPassword    string
	SmtpFromAddress string

	// AWS S3
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string
	MediaBaseS3URL     string
	MediaMaxDimension  int

	// App Defaults
	AppName        string
	PublicBaseURL  string
	PasswordRegexp string

	// Rate Limiting Defaults (global token buckets, gin middleware)
	RateLimitSoftBucketSize int
	RateLimitSoftRefillRate int // tokens per second
	RateLimitHardBucketSize int
	RateLimitHardRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode,
	}

	var err error

	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "gatherly")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.ServiceApiPort = getEnv("SERVICE_API_PORT", "12345")
	cfg.CloudflareTurnstileSecretKey = getEnv("CLOUDFLARE_TURNSTILE_SECRET_KEY", "")
	cfg.CloudflareSiteVerifyURL = getEnv("CLOUDFLARE_SITEVERIFY_URL", "https://challenges.cloudflare.com/turnstile/v0/siteverify")
	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	cfg.SmtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.SmtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SmtpFromAddress = getEnv("SMTP_FROM_ADDRESS", "noreply@gatherly.example.com")
	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")
	cfg.MediaBaseS3URL = getEnv("MEDIA_BASE_S3_URL", "")
	cfg.AppName = getEnv("APP_NAME", "Gatherly")
	cfg.PublicBaseURL = getEnv("PUBLIC_BASE_URL", "https://gatherly.example.com")
	cfg.PasswordRegexp = getEnv("PASSWORD_REGEXP", "^.{8,}$")

	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	jwtTTLSeconds, err := strconv.ParseInt(getEnv("JWT_TTL_SECONDS", "3600"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL_SECONDS: %w", err)
	}
	cfg.JwtTTL = time.Duration(jwtTTLSeconds) * time.Second

	captchaTTLSeconds, err := strconv.ParseInt(getEnv("CAPTCHA_TOKEN_TTL", "1200"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CAPTCHA_TOKEN_TTL: %w", err)
	}
	cfg.CaptchaTokenTTL = time.Duration(captchaTTLSeconds) * time.Second

	cfg.SmtpPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	cfg.BroadcastInviteLimit, err = strconv.Atoi(getEnv("BROADCAST_INVITE_LIMIT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid BROADCAST_INVITE_LIMIT: %w", err)
	}

	cfg.QuoteSendCreditCost, err = strconv.Atoi(getEnv("QUOTE_SEND_CREDIT_COST", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid QUOTE_SEND_CREDIT_COST: %w", err)
	}

	cfg.SignupFreeCredits, err = strconv.Atoi(getEnv("SIGNUP_FREE_CREDITS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid SIGNUP_FREE_CREDITS: %w", err)
	}

	enquiryWindowSeconds, err := strconv.ParseInt(getEnv("ENQUIRY_RATE_WINDOW_SECONDS", "60"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ENQUIRY_RATE_WINDOW_SECONDS: %w", err)
	}
	cfg.EnquiryRateWindow = time.Duration(enquiryWindowSeconds) * time.Second

	cfg.EnquiryRateLimit, err = strconv.Atoi(getEnv("ENQUIRY_RATE_LIMIT", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENQUIRY_RATE_LIMIT: %w", err)
	}

	cfg.MediaMaxDimension, err = strconv.Atoi(getEnv("MEDIA_MAX_DIMENSION", "2048"))
	if err != nil {
		return nil, fmt.Errorf("invalid MEDIA_MAX_DIMENSION: %w", err)
	}

	cfg.MediaMaxSizeMB, err = strconv.Atoi(getEnv("MEDIA_MAX_SIZE_MB", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid MEDIA_MAX_SIZE_MB: %w", err)
	}

	staleDays, err := strconv.Atoi(getEnv("ENQUIRY_STALE_AGE_DAYS", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENQUIRY_STALE_AGE_DAYS: %w", err)
	}
	cfg.EnquiryStaleAge = time.Duration(staleDays) * 24 * time.Hour

	// Rate Limiting
	cfg.RateLimitSoftBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_SOFT_BUCKET_SIZE", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SOFT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitSoftRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_SOFT_REFILL_RATE", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SOFT_REFILL_RATE: %w", err)
	}
	cfg.RateLimitHardBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_HARD_BUCKET_SIZE", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_HARD_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitHardRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_HARD_REFILL_RATE", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_HARD_REFILL_RATE: %w", err)
	}

	return cfg, nil
}

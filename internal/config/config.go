package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds all configuration values
type Config struct {
	// Server configuration
	Port        int    `json:"port"`
	Environment string `json:"environment"`

	// MongoDB configuration
	MongoURI              string        `json:"mongo_uri"`
	MongoDatabase         string        `json:"mongo_database"`
	MongoOperationTimeout time.Duration `json:"mongo_operation_timeout"`

	// Collection names
	UsersCollection     string `json:"mongo_users_collection"`
	OTPCollection       string `json:"mongo_otp_collection"`
	AuditLogsCollection string `json:"mongo_audit_logs_collection"`

	// Redis configuration
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	// Phone verification configuration
	OTPCountryPrefixes []string      `json:"otp_country_prefixes"`
	OTPMinDigits       int           `json:"otp_min_digits"`
	OTPCodeLength      int           `json:"otp_code_length"`
	OTPCodeTTL         time.Duration `json:"otp_code_ttl"`
	OTPSweepInterval   time.Duration `json:"otp_sweep_interval"`
	OTPVerifiedTTL     time.Duration `json:"otp_verified_ttl"`

	// SMS gateway configuration
	SMSEnabled            bool   `json:"sms_enabled"`
	SMSBaseURL            string `json:"sms_base_url"`
	SMSUsername           string `json:"sms_username"`
	SMSPassword           string `json:"sms_password"`
	SMSSender             string `json:"sms_sender"`
	SMSMessageTemplate    string `json:"sms_message_template"`
	SMSRateLimitPerMinute int    `json:"sms_rate_limit_per_minute"`

	// Authentication
	JWTSecret  string        `json:"-"`
	JWTIssuer  string        `json:"jwt_issuer"`
	JWTTTL     time.Duration `json:"jwt_ttl"`
	BcryptCost int           `json:"bcrypt_cost"`

	// Tracing configuration
	TracingEnabled  bool   `json:"tracing_enabled"`
	TracingEndpoint string `json:"tracing_endpoint"`

	// Audit configuration
	AuditLogsEnabled bool `json:"audit_logs_enabled"`
	AuditWorkerCount int  `json:"audit_worker_count"`
	AuditBufferSize  int  `json:"audit_buffer_size"`
}

var (
	AppConfig *Config
)

// maxSMSRatePerMinute keeps the limiter's refill interval at one millisecond or more
const maxSMSRatePerMinute = 60000

// LoadConfig loads configuration from environment variables
func LoadConfig() error {
	cfg, err := FromEnv()
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

// FromEnv builds a Config from environment variables without touching AppConfig.
func FromEnv() (*Config, error) {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	mongoTimeout, err := time.ParseDuration(getEnvOrDefault("MONGODB_OPERATION_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MONGODB_OPERATION_TIMEOUT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	prefixes, err := parsePrefixes(getEnvOrDefault("OTP_COUNTRY_PREFIXES", "+52,+1,+57"))
	if err != nil {
		return nil, err
	}

	minDigits, err := strconv.Atoi(getEnvOrDefault("OTP_MIN_DIGITS", "7"))
	if err != nil || minDigits < 1 {
		return nil, fmt.Errorf("invalid OTP_MIN_DIGITS: must be a positive integer")
	}

	codeLength, err := strconv.Atoi(getEnvOrDefault("OTP_CODE_LENGTH", "6"))
	if err != nil || codeLength < 4 || codeLength > 12 {
		return nil, fmt.Errorf("invalid OTP_CODE_LENGTH: must be between 4 and 12")
	}

	codeTTL, err := time.ParseDuration(getEnvOrDefault("OTP_CODE_TTL", "2m"))
	if err != nil || codeTTL <= 0 {
		return nil, fmt.Errorf("invalid OTP_CODE_TTL: must be a positive duration")
	}

	sweepInterval, err := time.ParseDuration(getEnvOrDefault("OTP_SWEEP_INTERVAL", "1m"))
	if err != nil || sweepInterval < 0 {
		return nil, fmt.Errorf("invalid OTP_SWEEP_INTERVAL: must be a non-negative duration")
	}

	verifiedTTL, err := time.ParseDuration(getEnvOrDefault("OTP_VERIFIED_TTL", "0s"))
	if err != nil || verifiedTTL < 0 {
		return nil, fmt.Errorf("invalid OTP_VERIFIED_TTL: must be a non-negative duration")
	}

	smsEnabled, err := strconv.ParseBool(getEnvOrDefault("SMS_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMS_ENABLED: %w", err)
	}

	smsRate, err := strconv.Atoi(getEnvOrDefault("SMS_RATE_LIMIT_PER_MINUTE", "120"))
	if err != nil || smsRate < 0 || smsRate > maxSMSRatePerMinute {
		return nil, fmt.Errorf("invalid SMS_RATE_LIMIT_PER_MINUTE: must be between 0 and %d", maxSMSRatePerMinute)
	}

	jwtTTL, err := time.ParseDuration(getEnvOrDefault("JWT_TTL", "24h"))
	if err != nil || jwtTTL <= 0 {
		return nil, fmt.Errorf("invalid JWT_TTL: must be a positive duration")
	}

	bcryptCost, err := strconv.Atoi(getEnvOrDefault("BCRYPT_COST", strconv.Itoa(bcrypt.DefaultCost)))
	if err != nil || bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("invalid BCRYPT_COST: must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	tracingEnabled, err := strconv.ParseBool(getEnvOrDefault("TRACING_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRACING_ENABLED: %w", err)
	}

	auditEnabled, err := strconv.ParseBool(getEnvOrDefault("AUDIT_LOGS_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIT_LOGS_ENABLED: %w", err)
	}

	auditWorkers, err := strconv.Atoi(getEnvOrDefault("AUDIT_WORKER_COUNT", "2"))
	if err != nil || auditWorkers < 1 {
		return nil, fmt.Errorf("invalid AUDIT_WORKER_COUNT: must be a positive integer")
	}

	auditBuffer, err := strconv.Atoi(getEnvOrDefault("AUDIT_BUFFER_SIZE", "256"))
	if err != nil || auditBuffer < 1 {
		return nil, fmt.Errorf("invalid AUDIT_BUFFER_SIZE: must be a positive integer")
	}

	environment := getEnvOrDefault("ENVIRONMENT", "development")
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		if environment == "production" {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in production")
		}
		jwtSecret = "development-only-secret"
	}

	return &Config{
		// Server configuration
		Port:        port,
		Environment: environment,

		// MongoDB configuration
		MongoURI:              getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:         getEnvOrDefault("MONGODB_DATABASE", "copper_mobile"),
		MongoOperationTimeout: mongoTimeout,

		// Collection names
		UsersCollection:     getEnvOrDefault("MONGODB_USERS_COLLECTION", "users"),
		OTPCollection:       getEnvOrDefault("MONGODB_OTP_COLLECTION", "otp_verifications"),
		AuditLogsCollection: getEnvOrDefault("MONGODB_AUDIT_LOGS_COLLECTION", "audit_logs"),

		// Redis configuration
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		// Phone verification configuration
		OTPCountryPrefixes: prefixes,
		OTPMinDigits:       minDigits,
		OTPCodeLength:      codeLength,
		OTPCodeTTL:         codeTTL,
		OTPSweepInterval:   sweepInterval,
		OTPVerifiedTTL:     verifiedTTL,

		// SMS gateway configuration
		SMSEnabled:            smsEnabled,
		SMSBaseURL:            strings.TrimRight(getEnvOrDefault("SMS_BASE_URL", ""), "/"),
		SMSUsername:           getEnvOrDefault("SMS_USERNAME", ""),
		SMSPassword:           getEnvOrDefault("SMS_PASSWORD", ""),
		SMSSender:             getEnvOrDefault("SMS_SENDER", "CopperMobile"),
		SMSMessageTemplate:    getEnvOrDefault("SMS_MESSAGE_TEMPLATE", "Tu código de verificación Copper Mobile es %s"),
		SMSRateLimitPerMinute: smsRate,

		// Authentication
		JWTSecret:  jwtSecret,
		JWTIssuer:  getEnvOrDefault("JWT_ISSUER", "copper-mobile"),
		JWTTTL:     jwtTTL,
		BcryptCost: bcryptCost,

		// Tracing configuration
		TracingEnabled:  tracingEnabled,
		TracingEndpoint: getEnvOrDefault("TRACING_ENDPOINT", "localhost:4317"),

		// Audit configuration
		AuditLogsEnabled: auditEnabled,
		AuditWorkerCount: auditWorkers,
		AuditBufferSize:  auditBuffer,
	}, nil
}

// parsePrefixes splits a comma separated prefix list. Every prefix must be a
// "+" followed by 1-4 digits.
func parsePrefixes(raw string) ([]string, error) {
	var prefixes []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !isCountryPrefix(p) {
			return nil, fmt.Errorf("invalid OTP_COUNTRY_PREFIXES entry %q: expected + followed by 1-4 digits", p)
		}
		prefixes = append(prefixes, p)
	}
	if len(prefixes) == 0 {
		return nil, fmt.Errorf("invalid OTP_COUNTRY_PREFIXES: at least one prefix is required")
	}
	return prefixes, nil
}

func isCountryPrefix(p string) bool {
	if len(p) < 2 || len(p) > 5 || p[0] != '+' {
		return false
	}
	for _, r := range p[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

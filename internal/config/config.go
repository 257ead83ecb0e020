package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort   string
	AppEnv    string
	LogLevel  string
	LogFormat string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	SNSRegion        string
	SNSTopicARN      string // empty disables the relay
	RelayMinPriority string

	RedisAddr     string // empty disables the scheduler lock
	RedisPassword string
	RedisDB       int

	Deadline DeadlineConfig

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Projects      string
	Teams         string
	Features      string
	Functions     string
	Tasks         string
	Notifications string
}

// DeadlineConfig controls the deadline scan and its daily trigger.
type DeadlineConfig struct {
	Timezone          string
	Window            time.Duration
	SuppressionWindow time.Duration
	SchedulerEnabled  bool
	RunPassedScan     bool
	ScanHour          int
	ScanMinute        int
	LockTTL           time.Duration
}

// Location resolves the configured timezone, falling back to the process local zone.
func (d DeadlineConfig) Location() *time.Location {
	if d.Timezone == "" || strings.EqualFold(d.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "3000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ENDPOINT_URL", "")
	v.SetDefault("AWS_ACCESS_KEY_ID", "")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	v.SetDefault("DYNAMO_TABLE_PROJECTS", "projects")
	v.SetDefault("DYNAMO_TABLE_TEAMS", "teams")
	v.SetDefault("DYNAMO_TABLE_FEATURES", "features")
	v.SetDefault("DYNAMO_TABLE_FUNCTIONS", "functions")
	v.SetDefault("DYNAMO_TABLE_TASKS", "tasks")
	v.SetDefault("DYNAMO_TABLE_NOTIFICATIONS", "notifications")

	v.SetDefault("JWT_PRIVATE_KEY_PATH", "./private_key.pem")
	v.SetDefault("JWT_PUBLIC_KEY_PATH", "./public_key.pem")
	v.SetDefault("JWT_EXPIRY", "168h")

	v.SetDefault("SNS_REGION", "us-east-1")
	v.SetDefault("SNS_TOPIC_ARN", "")
	v.SetDefault("RELAY_MIN_PRIORITY", "High")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("DEADLINE_TIMEZONE", "Local")
	v.SetDefault("DEADLINE_WINDOW", "168h")
	v.SetDefault("DEADLINE_SUPPRESSION_WINDOW", "24h")
	v.SetDefault("DEADLINE_SCHEDULER_ENABLED", true)
	v.SetDefault("DEADLINE_RUN_PASSED_SCAN", true)
	v.SetDefault("DEADLINE_SCAN_HOUR", 8)
	v.SetDefault("DEADLINE_SCAN_MINUTE", 0)
	v.SetDefault("DEADLINE_LOCK_TTL", "30m")

	v.SetDefault("ALLOWED_ORIGINS", "*")
}

// Load reads all configuration from environment variables, with defaults for
// every key.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:   v.GetString("APP_PORT"),
		AppEnv:    v.GetString("APP_ENV"),
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		AWSRegion:      v.GetString("AWS_REGION"),
		AWSEndpointURL: v.GetString("AWS_ENDPOINT_URL"),
		AWSAccessKeyID: v.GetString("AWS_ACCESS_KEY_ID"),
		AWSSecretKey:   v.GetString("AWS_SECRET_ACCESS_KEY"),
		DynamoTables: DynamoTables{
			Projects:      v.GetString("DYNAMO_TABLE_PROJECTS"),
			Teams:         v.GetString("DYNAMO_TABLE_TEAMS"),
			Features:      v.GetString("DYNAMO_TABLE_FEATURES"),
			Functions:     v.GetString("DYNAMO_TABLE_FUNCTIONS"),
			Tasks:         v.GetString("DYNAMO_TABLE_TASKS"),
			Notifications: v.GetString("DYNAMO_TABLE_NOTIFICATIONS"),
		},

		JWTPrivateKeyPath: v.GetString("JWT_PRIVATE_KEY_PATH"),
		JWTPublicKeyPath:  v.GetString("JWT_PUBLIC_KEY_PATH"),
		JWTExpiry:         v.GetDuration("JWT_EXPIRY"),

		SNSRegion:        v.GetString("SNS_REGION"),
		SNSTopicARN:      v.GetString("SNS_TOPIC_ARN"),
		RelayMinPriority: v.GetString("RELAY_MIN_PRIORITY"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		Deadline: DeadlineConfig{
			Timezone:          v.GetString("DEADLINE_TIMEZONE"),
			Window:            v.GetDuration("DEADLINE_WINDOW"),
			SuppressionWindow: v.GetDuration("DEADLINE_SUPPRESSION_WINDOW"),
			SchedulerEnabled:  v.GetBool("DEADLINE_SCHEDULER_ENABLED"),
			RunPassedScan:     v.GetBool("DEADLINE_RUN_PASSED_SCAN"),
			ScanHour:          v.GetInt("DEADLINE_SCAN_HOUR"),
			ScanMinute:        v.GetInt("DEADLINE_SCAN_MINUTE"),
			LockTTL:           v.GetDuration("DEADLINE_LOCK_TTL"),
		},

		AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values that would make the service misbehave silently.
func (c *Config) Validate() error {
	if c.Deadline.Window < 24*time.Hour {
		return fmt.Errorf("DEADLINE_WINDOW must be at least 24h, got %s", c.Deadline.Window)
	}
	if c.Deadline.SuppressionWindow <= 0 {
		return fmt.Errorf("DEADLINE_SUPPRESSION_WINDOW must be positive, got %s", c.Deadline.SuppressionWindow)
	}
	if c.Deadline.ScanHour < 0 || c.Deadline.ScanHour > 23 {
		return fmt.Errorf("DEADLINE_SCAN_HOUR must be in 0-23, got %d", c.Deadline.ScanHour)
	}
	if c.Deadline.ScanMinute < 0 || c.Deadline.ScanMinute > 59 {
		return fmt.Errorf("DEADLINE_SCAN_MINUTE must be in 0-59, got %d", c.Deadline.ScanMinute)
	}
	if c.Deadline.Timezone != "" && !strings.EqualFold(c.Deadline.Timezone, "local") {
		if _, err := time.LoadLocation(c.Deadline.Timezone); err != nil {
			return fmt.Errorf("DEADLINE_TIMEZONE: %w", err)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_FILE is unset
const DefaultPath = "config.yaml"

// Config holds every runtime setting of the service
type Config struct {
	Port        string   `yaml:"port"`
	GinMode     string   `yaml:"ginMode"`
	LogLevel    string   `yaml:"logLevel"`
	CORSOrigins []string `yaml:"corsOrigins"`

	DBType        string `yaml:"dbType"`
	MongoURI      string `yaml:"mongoURI"`
	MongoDatabase string `yaml:"mongoDatabase"`
	DatabaseURL   string `yaml:"databaseURL"`

	JWTSecret          string        `yaml:"jwtSecret"`
	JWTExpiration      time.Duration `yaml:"jwtExpiration"`
	ResetCodeTTL       time.Duration `yaml:"resetCodeTTL"`
	EnforceReferences  bool          `yaml:"enforceReferences"`
	HTTPClientTimeout  time.Duration `yaml:"httpClientTimeout"`
	SecretsARN         string        `yaml:"secretsARN"`
	AWSRegion          string        `yaml:"awsRegion"`
	SESRegion          string        `yaml:"sesRegion"`
	SESFromEmail       string        `yaml:"sesFromEmail"`
	StorageDriver      string        `yaml:"storageDriver"`
	MediaBucket        string        `yaml:"mediaBucket"`
	MediaPublicBaseURL string        `yaml:"mediaPublicBaseURL"`
	MinioEndpoint      string        `yaml:"minioEndpoint"`
	MinioAccessKey     string        `yaml:"minioAccessKey"`
	MinioSecretKey     string        `yaml:"minioSecretKey"`
	MinioUseSSL        bool          `yaml:"minioUseSSL"`

	StripeSecretKey     string `yaml:"stripeSecretKey"`
	StripeWebhookSecret string `yaml:"stripeWebhookSecret"`
	CheckoutSuccessURL  string `yaml:"checkoutSuccessURL"`
	CheckoutCancelURL   string `yaml:"checkoutCancelURL"`
	CheckoutCurrency    string `yaml:"checkoutCurrency"`

	ModelGenURL          string        `yaml:"modelGenURL"`
	ModelGenAPIKey       string        `yaml:"modelGenAPIKey"`
	ModelGenPollInterval time.Duration `yaml:"modelGenPollInterval"`
	ModelGenMaxPolls     int           `yaml:"modelGenMaxPolls"`
	ClassifierURL        string        `yaml:"classifierURL"`

	RedisAddr      string `yaml:"redisAddr"`
	RedisPassword  string `yaml:"redisPassword"`
	ModelJobStream string `yaml:"modelJobStream"`
	ModelJobWorker int    `yaml:"modelJobWorkers"`

	secretsApplied bool
}

// Defaults returns the settings used when nothing else is configured
func Defaults() Config {
	return Config{
		Port:                 "8080",
		GinMode:              "release",
		LogLevel:             "info",
		DBType:               "mongo",
		MongoDatabase:        "rebilt",
		JWTExpiration:        time.Hour,
		ResetCodeTTL:         time.Hour,
		HTTPClientTimeout:    30 * time.Second,
		AWSRegion:            "eu-central-1",
		CheckoutCurrency:     "eur",
		ModelGenPollInterval: 5 * time.Second,
		ModelGenMaxPolls:     120,
		ModelJobStream:       "rebilt:model-jobs",
		ModelJobWorker:       1,
	}
}

// Load builds the config from defaults, an optional YAML file and the environment.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		path = getEnv("CONFIG_FILE", DefaultPath)
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Port, "PORT")
	setString(&cfg.GinMode, "GIN_MODE")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitCSV(v)
	}
	setString(&cfg.DBType, "DB_TYPE")
	setString(&cfg.MongoURI, "MONGO_URI")
	setString(&cfg.MongoDatabase, "MONGO_DATABASE")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setMinutes(&cfg.JWTExpiration, "JWT_EXPIRATION_MINUTES")
	setMinutes(&cfg.ResetCodeTTL, "RESET_CODE_TTL_MINUTES")
	setBool(&cfg.EnforceReferences, "ENFORCE_REFERENCES")
	setDuration(&cfg.HTTPClientTimeout, "HTTP_CLIENT_TIMEOUT")
	setString(&cfg.SecretsARN, "SECRETS_ARN")
	setString(&cfg.AWSRegion, "AWS_REGION")
	setString(&cfg.SESRegion, "SES_AWS_REGION")
	setString(&cfg.SESFromEmail, "SES_FROM_EMAIL")
	setString(&cfg.StorageDriver, "STORAGE_DRIVER")
	setString(&cfg.MediaBucket, "MEDIA_BUCKET")
	setString(&cfg.MediaPublicBaseURL, "MEDIA_PUBLIC_BASE_URL")
	setString(&cfg.MinioEndpoint, "MINIO_ENDPOINT")
	setString(&cfg.MinioAccessKey, "MINIO_ACCESS_KEY")
	setString(&cfg.MinioSecretKey, "MINIO_SECRET_KEY")
	setBool(&cfg.MinioUseSSL, "MINIO_USE_SSL")
	setString(&cfg.StripeSecretKey, "STRIPE_SECRET_KEY")
	setString(&cfg.StripeWebhookSecret, "STRIPE_WEBHOOK_SECRET")
	setString(&cfg.CheckoutSuccessURL, "CHECKOUT_SUCCESS_URL")
	setString(&cfg.CheckoutCancelURL, "CHECKOUT_CANCEL_URL")
	setString(&cfg.CheckoutCurrency, "CHECKOUT_CURRENCY")
	setString(&cfg.ModelGenURL, "MODEL_GEN_URL")
	setString(&cfg.ModelGenAPIKey, "MODEL_GEN_API_KEY")
	setDuration(&cfg.ModelGenPollInterval, "MODEL_GEN_POLL_INTERVAL")
	setInt(&cfg.ModelGenMaxPolls, "MODEL_GEN_MAX_POLLS")
	setString(&cfg.ClassifierURL, "CLASSIFIER_URL")
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.ModelJobStream, "MODEL_JOB_STREAM")
	setInt(&cfg.ModelJobWorker, "MODEL_JOB_WORKERS")
}

// Validate checks required fields and enumerations. Values that may still
// arrive from Secrets Manager are only required once ApplySecrets has run.
func (c *Config) Validate() error {
	pending := c.SecretsARN != "" && !c.secretsApplied
	switch c.DBType {
	case "mongo":
		if c.MongoURI == "" && !pending {
			return errors.New("config: MONGO_URI is required when DB_TYPE=mongo")
		}
	case "postgres":
		if c.DatabaseURL == "" && !pending {
			return errors.New("config: DATABASE_URL is required when DB_TYPE=postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unsupported DB_TYPE %q", c.DBType)
	}
	if c.JWTSecret == "" && !pending {
		return errors.New("config: JWT_SECRET is required")
	}
	switch c.StorageDriver {
	case "", "s3", "minio":
	default:
		return fmt.Errorf("config: unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.StorageDriver != "" && c.MediaBucket == "" {
		return errors.New("config: MEDIA_BUCKET is required when STORAGE_DRIVER is set")
	}
	if c.ModelJobWorker < 1 {
		c.ModelJobWorker = 1
	}
	return nil
}

// SecretGetter is the part of the Secrets Manager client used here
type SecretGetter interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// secretPayload mirrors the JSON document stored in Secrets Manager
type secretPayload struct {
	DatabaseURL         string `json:"DATABASE_URL"`
	MongoURI            string `json:"MONGO_URI"`
	JWTSecret           string `json:"JWT_SECRET"`
	StripeSecretKey     string `json:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `json:"STRIPE_WEBHOOK_SECRET"`
}

// ApplySecrets overlays the values stored in the SecretsARN secret. It is a no-op without an ARN.
func (c *Config) ApplySecrets(ctx context.Context, sm SecretGetter) error {
	if c.SecretsARN == "" {
		return nil
	}
	out, err := sm.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &c.SecretsARN})
	if err != nil {
		return fmt.Errorf("get secret: %w", err)
	}
	if out.SecretString == nil {
		return errors.New("secret has no string value")
	}
	var payload secretPayload
	if err := json.Unmarshal([]byte(*out.SecretString), &payload); err != nil {
		return fmt.Errorf("parse secret json: %w", err)
	}
	overlay(&c.DatabaseURL, payload.DatabaseURL)
	overlay(&c.MongoURI, payload.MongoURI)
	overlay(&c.JWTSecret, payload.JWTSecret)
	overlay(&c.StripeSecretKey, payload.StripeSecretKey)
	overlay(&c.StripeWebhookSecret, payload.StripeWebhookSecret)
	c.secretsApplied = true
	return c.Validate()
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setMinutes(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = time.Duration(n) * time.Minute
		}
	}
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrRequiredEnvNotSet is wrapped by Validate for each mandatory variable left empty.
var ErrRequiredEnvNotSet = errors.New("required environment variable is not set")

const (
	envPort                  = "PORT"
	envServerReadTimeout     = "SERVER_READ_TIMEOUT"
	envServerWriteTimeout    = "SERVER_WRITE_TIMEOUT"
	envServerShutdownTimeout = "SERVER_SHUTDOWN_TIMEOUT"
	envAWSRegion             = "REGION"
	envAWSDefaultRegion      = "AWS_DEFAULT_REGION"
	envAWSAccessKeyID        = "AWS_ACCESS_KEY_ID"
	envAWSSecretAccessKey    = "AWS_SECRET_ACCESS_KEY"
	envCognitoUserPoolID     = "AWS_COGNITO_USER_POOL_ID"
	envCognitoClientID       = "AWS_COGNITO_CLIENT_ID"
	envCognitoAuthority      = "AWS_COGNITO_AUTHORITY"
	envJWKSRefreshInterval   = "JWKS_REFRESH_INTERVAL"
	envS3Bucket              = "AWS_S3_BUCKET"
	envDownloadURLTimeLimit  = "DOWNLOAD_URL_TIME_LIMIT"
	envMaxPictureSize        = "MAX_PICTURE_SIZE"
	envDefaultPictureURL     = "DEFAULT_PICTURE_URL"
	envUsersPageSize         = "USERS_PAGE_SIZE"
	envLogLevel              = "LOG_LEVEL"
	envLogFormat             = "LOG_FORMAT"
)

const (
	defaultServerPort          = "8080"
	defaultServerReadTimeout   = 10 * time.Second
	defaultServerWriteTimeout  = 30 * time.Second
	defaultServerShutdown      = 10 * time.Second
	defaultJWKSRefreshInterval = 15 * time.Minute
	defaultPresignedURLExpiry  = 15 * time.Minute
	defaultMaxPictureSize      = int64(5 * 1024 * 1024)
	defaultPictureURL          = "https://pbs.twimg.com/media/DFem8K0UwAAuVlj.jpg"
	defaultUsersPageSize       = 10
	maxUsersPageSize           = 60
	defaultLogLevel            = "info"
	defaultLogFormat           = "json"
	jwksPath                   = "/.well-known/jwks.json"

	errRequiredEnvNotSetFmt    = "%w: %s"
	errPortRequiredFmt         = "PORT must be set"
	errAWSKeyPairFmt           = "AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together"
	errAuthoritySchemeFmt      = "AWS_COGNITO_AUTHORITY must be an https URL, got %q"
	errPageSizeRangeFmt        = "USERS_PAGE_SIZE must be between 1 and %d"
	errMaxPictureSizeFmt       = "MAX_PICTURE_SIZE must be positive"
	errInvalidConfigurationFmt = "invalid configuration: %w"
)

type Config struct {
	Server  ServerConfig
	AWS     AWSConfig
	Cognito CognitoConfig
	S3      S3Config
	App     AppConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// AWSConfig leaves the key pair empty to fall back to the SDK credential chain.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

type CognitoConfig struct {
	UserPoolID          string
	ClientID            string
	Authority           string
	JWKSRefreshInterval time.Duration
}

type S3Config struct {
	Bucket             string
	PresignedURLExpiry time.Duration
	MaxPictureSize     int64
}

type AppConfig struct {
	DefaultPictureURL string
	UsersPageSize     int
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv(envPort, defaultServerPort),
			ReadTimeout:     getDurationEnv(envServerReadTimeout, defaultServerReadTimeout),
			WriteTimeout:    getDurationEnv(envServerWriteTimeout, defaultServerWriteTimeout),
			ShutdownTimeout: getDurationEnv(envServerShutdownTimeout, defaultServerShutdown),
		},
		AWS: AWSConfig{
			Region:          getEnv(envAWSRegion, os.Getenv(envAWSDefaultRegion)),
			AccessKeyID:     os.Getenv(envAWSAccessKeyID),
			SecretAccessKey: os.Getenv(envAWSSecretAccessKey),
		},
		Cognito: CognitoConfig{
			UserPoolID:          os.Getenv(envCognitoUserPoolID),
			ClientID:            os.Getenv(envCognitoClientID),
			Authority:           strings.TrimRight(os.Getenv(envCognitoAuthority), "/"),
			JWKSRefreshInterval: getDurationEnv(envJWKSRefreshInterval, defaultJWKSRefreshInterval),
		},
		S3: S3Config{
			Bucket:             os.Getenv(envS3Bucket),
			PresignedURLExpiry: getDurationEnv(envDownloadURLTimeLimit, defaultPresignedURLExpiry),
			MaxPictureSize:     getInt64Env(envMaxPictureSize, defaultMaxPictureSize),
		},
		App: AppConfig{
			DefaultPictureURL: getEnv(envDefaultPictureURL, defaultPictureURL),
			UsersPageSize:     getIntEnv(envUsersPageSize, defaultUsersPageSize),
		},
		Log: LogConfig{
			Level:  getEnv(envLogLevel, defaultLogLevel),
			Format: getEnv(envLogFormat, defaultLogFormat),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf(errInvalidConfigurationFmt, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf(errPortRequiredFmt)
	}

	required := []struct {
		key   string
		value string
	}{
		{envAWSRegion, c.AWS.Region},
		{envCognitoUserPoolID, c.Cognito.UserPoolID},
		{envCognitoClientID, c.Cognito.ClientID},
		{envCognitoAuthority, c.Cognito.Authority},
		{envS3Bucket, c.S3.Bucket},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf(errRequiredEnvNotSetFmt, ErrRequiredEnvNotSet, r.key)
		}
	}

	if (c.AWS.AccessKeyID == "") != (c.AWS.SecretAccessKey == "") {
		return fmt.Errorf(errAWSKeyPairFmt)
	}

	if !strings.HasPrefix(c.Cognito.Authority, "https://") {
		return fmt.Errorf(errAuthoritySchemeFmt, c.Cognito.Authority)
	}

	if c.App.UsersPageSize < 1 || c.App.UsersPageSize > maxUsersPageSize {
		return fmt.Errorf(errPageSizeRangeFmt, maxUsersPageSize)
	}

	if c.S3.MaxPictureSize <= 0 {
		return fmt.Errorf(errMaxPictureSizeFmt)
	}

	return nil
}

// JWKSURL is where the user pool publishes its signing keys.
func (c *CognitoConfig) JWKSURL() string {
	return c.Authority + jwksPath
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

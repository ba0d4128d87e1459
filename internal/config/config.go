package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	S3        S3Config        `mapstructure:"s3"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Upload    UploadConfig    `mapstructure:"upload"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	// RequestTimeout bounds ordinary catalog requests. Uploads get the
	// much longer Upload.Timeout instead.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	BucketName      string        `mapstructure:"bucket_name"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	SignedURLTTL    time.Duration `mapstructure:"signed_url_ttl"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type UploadConfig struct {
	// MaxSize is the hard cap on an uploaded file, in bytes.
	MaxSize int64         `mapstructure:"max_size"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig carries two separate quotas: uploads are big and slow,
// so they get their own (much smaller) budget.
type RateLimitConfig struct {
	RequestsPerMinute       int `mapstructure:"requests_per_minute"`
	UploadRequestsPerMinute int `mapstructure:"upload_requests_per_minute"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	// Nested keys map to env vars, e.g. server.address -> SERVER_ADDRESS
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.request_timeout", "10s")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "video_library")
	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("s3.signed_url_ttl", "15m")
	viper.SetDefault("upload.max_size", int64(2)<<30) // 2 GiB
	viper.SetDefault("upload.timeout", "10m")
	viper.SetDefault("cors.allowed_origins", []string{})
	viper.SetDefault("rate_limit.requests_per_minute", 100)
	viper.SetDefault("rate_limit.upload_requests_per_minute", 10)

	err = viper.ReadInConfig()
	// A missing config file is fine: defaults plus env vars are enough.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}

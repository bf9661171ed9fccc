package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port           string `yaml:"port"           envconfig:"PORT"`
	LogLevel       string `yaml:"logLevel"       envconfig:"LOG_LEVEL"`
	FrontendOrigin string `yaml:"frontendOrigin" envconfig:"FRONTEND_ORIGIN"`

	DBDriver   string `yaml:"dbDriver"   envconfig:"DB_DRIVER"`
	DBHost     string `yaml:"dbHost"     envconfig:"DB_HOST"`
	DBPort     string `yaml:"dbPort"     envconfig:"DB_PORT"`
	DBUser     string `yaml:"dbUser"     envconfig:"DB_USER"`
	DBPassword string `yaml:"dbPassword" envconfig:"DB_PASSWORD"`
	DBName     string `yaml:"dbName"     envconfig:"DB_NAME"`
	DBSSLMode  string `yaml:"dbSslMode"  envconfig:"DB_SSLMODE"`
	SQLitePath string `yaml:"sqlitePath" envconfig:"SQLITE_PATH"`

	UploadsDir     string        `yaml:"uploadsDir"     envconfig:"UPLOADS_DIR"`
	FileOpTimeout  time.Duration `yaml:"fileOpTimeout"  envconfig:"FILE_OP_TIMEOUT"`
	MaxUploadBytes int64         `yaml:"maxUploadBytes" envconfig:"MAX_UPLOAD_BYTES"`

	JWTSecret        string        `yaml:"jwtSecret"        envconfig:"JWT_SECRET"`
	JWTExpiration    time.Duration `yaml:"jwtExpiration"    envconfig:"JWT_EXPIRATION"`
	SysadminEmail    string        `yaml:"sysadminEmail"    envconfig:"SYSADMIN_EMAIL"`
	SysadminPassword string        `yaml:"sysadminPassword" envconfig:"SYSADMIN_PASSWORD"`
	SysadminTokenTTL time.Duration `yaml:"sysadminTokenTtl" envconfig:"SYSADMIN_TOKEN_TTL"`

	RedisAddr     string        `yaml:"redisAddr"     envconfig:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redisPassword" envconfig:"REDIS_PASSWORD"`
	OTPTTL        time.Duration `yaml:"otpTtl"        envconfig:"OTP_TTL"`
	EmailMXCheck  bool          `yaml:"emailMxCheck"  envconfig:"EMAIL_MX_CHECK"`

	MinioEndpoint  string `yaml:"minioEndpoint"  envconfig:"MINIO_ENDPOINT"`
	MinioAccessKey string `yaml:"minioAccessKey" envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `yaml:"minioSecretKey" envconfig:"MINIO_SECRET_KEY"`
	MinioBucket    string `yaml:"minioBucket"    envconfig:"MINIO_BUCKET"`
	MinioUseSSL    bool   `yaml:"minioUseSsl"    envconfig:"MINIO_USE_SSL"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Port:             "5000",
		LogLevel:         "info",
		FrontendOrigin:   "http://localhost:5173",
		DBDriver:         DriverSQLite,
		DBHost:           "localhost",
		DBPort:           "5432",
		DBSSLMode:        "disable",
		SQLitePath:       "database.sqlite",
		UploadsDir:       "uploads",
		FileOpTimeout:    5 * time.Second,
		MaxUploadBytes:   20 << 20,
		JWTSecret:        "your-secret-key-change-this-in-production",
		JWTExpiration:    24 * time.Hour,
		SysadminTokenTTL: time.Hour,
		RedisAddr:        "localhost:6379",
		OTPTTL:           10 * time.Minute,
		MinioBucket:      "publications",
	}
}

// Load builds the configuration from defaults, an optional .env file, an
// optional YAML file at path, and finally the process environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.DBDriver) {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported db driver %q", c.DBDriver)
	}
	if strings.TrimSpace(c.UploadsDir) == "" {
		return errors.New("uploads dir is required")
	}
	if c.FileOpTimeout <= 0 {
		return errors.New("file op timeout must be positive")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	return nil
}

// MinioEnabled reports whether approved papers are mirrored to object storage.
func (c *Config) MinioEnabled() bool {
	return strings.TrimSpace(c.MinioEndpoint) != ""
}

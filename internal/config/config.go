package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	NATS    NATSConfig    `yaml:"nats"`
	MinIO   MinIOConfig   `yaml:"minio"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Port         int      `yaml:"port"`
	MaxBodyBytes int64    `yaml:"max_body_bytes"`
	CORSOrigins  []string `yaml:"cors_origins"`
}

// StorageConfig locates the project directory. DataDir and ImageDir are
// resolved relative to Root.
type StorageConfig struct {
	Root         string `yaml:"root"`
	DataDir      string `yaml:"data_dir"`
	ImageDir     string `yaml:"image_dir"`
	DocumentName string `yaml:"document_name"`
}

func (s StorageConfig) DataPath() string {
	return filepath.Join(s.Root, s.DataDir)
}

func (s StorageConfig) ImagePath() string {
	return filepath.Join(s.Root, s.ImageDir)
}

func (s StorageConfig) DocumentPath() string {
	return filepath.Join(s.DataPath(), s.DocumentName)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

// MinIOConfig is optional; an empty Endpoint disables the object mirror.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

func (m MinIOConfig) Enabled() bool {
	return m.Endpoint != ""
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from a YAML file and applies .env and environment
// variable overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// .env is optional
	_ = godotenv.Load()

	applyEnvOverrides(cfg)
	if err := setDefaults(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WithRoot overrides the project root, as the --root flag does.
func (c *Config) WithRoot(root string) error {
	if root == "" {
		return nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve root %s: %w", root, err)
	}
	c.Storage.Root = abs
	return nil
}

func setDefaults(cfg *Config) error {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 10 << 20
	}
	if cfg.Storage.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		cfg.Storage.Root = wd
	} else {
		abs, err := filepath.Abs(cfg.Storage.Root)
		if err != nil {
			return fmt.Errorf("resolve root %s: %w", cfg.Storage.Root, err)
		}
		cfg.Storage.Root = abs
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Storage.ImageDir == "" {
		cfg.Storage.ImageDir = "img"
	}
	if cfg.Storage.DocumentName == "" {
		cfg.Storage.DocumentName = "persons.json"
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = "reconnect"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RECONNECT_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RECONNECT_MAX_BODY_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Server.MaxBodyBytes = n
		}
	}
	if v := os.Getenv("RECONNECT_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("RECONNECT_ROOT"); v != "" {
		cfg.Storage.Root = v
	}
	if v := os.Getenv("RECONNECT_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("RECONNECT_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("RECONNECT_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("RECONNECT_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("RECONNECT_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("RECONNECT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RECONNECT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

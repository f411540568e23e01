package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr      string        `yaml:"listen_addr" env:"LISTEN_ADDR" validate:"required"`
	Root            string        `yaml:"root" env:"STATIC_ROOT" validate:"required"`
	MountPrefix     string        `yaml:"mount_prefix" env:"MOUNT_PREFIX" validate:"required,startswith=/"`
	IndexFile       string        `yaml:"index_file" env:"INDEX_FILE" validate:"required,excludesall=/\\"`
	CacheMaxAge     int           `yaml:"cache_max_age" env:"CACHE_MAX_AGE" validate:"gte=0"`
	Symlinks        string        `yaml:"symlinks" env:"SYMLINKS" validate:"oneof=follow within_root deny"`
	RedirectStatus  int           `yaml:"redirect_status" env:"REDIRECT_STATUS" validate:"oneof=301 308"`
	MaxRanges       int           `yaml:"max_ranges" env:"MAX_RANGES" validate:"gte=1"`
	ChunkSize       int           `yaml:"chunk_size" env:"CHUNK_SIZE" validate:"gte=512,lte=1048576"`
	RateLimitBytes  int           `yaml:"rate_limit_bytes" env:"RATE_LIMIT_BYTES" validate:"gte=0"`
	SniffUnknown    bool          `yaml:"sniff_unknown" env:"SNIFF_UNKNOWN"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

// Default возвращает конфигурацию, с которой сервис стартует без файла и ENV.
func Default() Config {
	return Config{
		ListenAddr:      ":8080",
		Root:            ".",
		MountPrefix:     "/",
		IndexFile:       "index.html",
		Symlinks:        "within_root",
		RedirectStatus:  301,
		MaxRanges:       64,
		ChunkSize:       8 * 1024,
		LogLevel:        "info",
		ShutdownTimeout: 15 * time.Second,
	}
}

var validate = validator.New()

// Load читает YAML-конфигурацию, применяет ENV-переопределения и возвращает актуальную структуру.
func Load() (*Config, error) {
	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	path, ok := es["CONFIG_PATH"]
	if !ok || path == "" {
		path = "./config.yaml"
	}

	return LoadFrom(path, es)
}

// LoadFrom — Load с явным путём и набором переменных окружения.
// Отсутствующий файл не ошибка: остаются значения по умолчанию.
func LoadFrom(path string, es env.EnvSet) (*Config, error) {
	c := Default()

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// ENV override
	if err := env.Unmarshal(es, &c); err != nil {
		return nil, fmt.Errorf("env override: %w", err)
	}

	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &c, nil
}

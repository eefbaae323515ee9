package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Типы хранилища загруженных файлов.
const (
	StorageFilesystem = "filesystem"
	StorageMinIO      = "minio"
)

// MinIOConfig - параметры подключения к S3-совместимому хранилищу MinIO.
// Используются только при STORAGE_TYPE=minio.
type MinIOConfig struct {
	Endpoint  string `env:"ENDPOINT"`   // "minio:9000" или "http://minio:9000"
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET"`
}

// Config - вся конфигурация процесса. Загружается один раз в main
// и явно передается в компоненты (никаких глобальных переменных).
type Config struct {
	ListenPort    string        `env:"LISTEN_PORT"     envDefault:"5000"`
	DBPath        string        `env:"DB_PATH"         envDefault:"data/escaparate_artistico.db"`
	UploadPath    string        `env:"UPLOAD_PATH"     envDefault:"uploads"`
	BaseURL       string        `env:"BASE_URL"        envDefault:"http://127.0.0.1:5000"`
	JWTSecret     string        `env:"JWT_SECRET"`
	TokenTTL      time.Duration `env:"TOKEN_TTL"       envDefault:"15m"`
	MaxUploadSize int64         `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // 10 МБ
	StorageType   string        `env:"STORAGE_TYPE"    envDefault:"filesystem"`
	LogLevel      string        `env:"LOG_LEVEL"       envDefault:"info"`
	GinMode       string        `env:"GIN_MODE"        envDefault:"release"`
	CORSOrigin    string        `env:"CORS_ORIGIN"     envDefault:"*"`

	MinIO MinIOConfig `envPrefix:"MINIO_"`
}

// Load читает конфигурацию из переменных окружения и проверяет её.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("ошибка чтения переменных окружения: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.StorageType = strings.ToLower(strings.TrimSpace(cfg.StorageType))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет согласованность значений.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("DB_PATH не может быть пустым")
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE должен быть положительным, получено %d", c.MaxUploadSize)
	}
	if c.TokenTTL < 0 {
		return fmt.Errorf("TOKEN_TTL не может быть отрицательным: %s", c.TokenTTL)
	}

	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("неизвестный GIN_MODE '%s'", c.GinMode)
	}

	switch c.StorageType {
	case StorageFilesystem:
		if strings.TrimSpace(c.UploadPath) == "" {
			return errors.New("UPLOAD_PATH не может быть пустым")
		}
	case StorageMinIO:
		m := c.MinIO
		if m.Endpoint == "" || m.AccessKey == "" || m.SecretKey == "" || m.Bucket == "" {
			return errors.New("конфигурация MinIO неполная (MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY, MINIO_BUCKET)")
		}
	default:
		return fmt.Errorf("неизвестный STORAGE_TYPE '%s'", c.StorageType)
	}
	return nil
}

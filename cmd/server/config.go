package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ferrianes/foodmarket-backend/internal/krypto"
)

const (
	storageLocal = "local"
	storageS3    = "s3"
)

// httpConfig is the configuration for the HTTP server.
type httpConfig struct {
	Addr            string        `env:"ADDR" envDefault:":8888"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES" envDefault:"4194304"`
}

type dbConfig struct {
	File           string       `env:"FILENAME" envDefault:"foodmarket.db"`
	Migrate        bool         `env:"MIGRATE" envDefault:"true"`
	EncryptionKeys []krypto.Key `env:"ENCRYPTION_KEYS,required,notEmpty" envSeparator:","`
}

type storageConfig struct {
	Driver   string `env:"DRIVER" envDefault:"local"`
	LocalDir string `env:"LOCAL_DIR" envDefault:"storage"`
	// BaseURL is the public prefix of stored files.
	BaseURL string `env:"BASE_URL" envDefault:"/storage/"`
}

type s3Config struct {
	Bucket          string        `env:"BUCKET"`
	Region          string        `env:"REGION"`
	Endpoint        string        `env:"ENDPOINT"`
	AccessKeyID     string        `env:"ACCESS_KEY_ID"`
	SecretAccessKey krypto.Secret `env:"SECRET_ACCESS_KEY"`
	ForcePathStyle  bool          `env:"FORCE_PATH_STYLE" envDefault:"false"`
	// PublicURL is derived from the endpoint or region when empty.
	PublicURL string `env:"PUBLIC_URL"`
}

// config is the configuration for the server command.
type config struct {
	HTTP    httpConfig    `envPrefix:"HTTP_"`
	DB      dbConfig      `envPrefix:"DB_"`
	Storage storageConfig `envPrefix:"STORAGE_"`
	S3      s3Config      `envPrefix:"S3_"`
}

// configFromEnv returns a config with values from the environment. It falls
// back to default values for any missing environment variables.
//
// It does a best effort to validate provided values, so that mistakes are
// caught ASAP. However, there is no guarantee that the returned config
// is valid and will work.
func configFromEnv() (config, error) {
	c, err := env.ParseAs[config]()
	if err != nil {
		return c, err
	}

	return c, c.validate()
}

func (c config) validate() error {
	var errs []error

	durations := []struct {
		key string
		val time.Duration
	}{
		{"HTTP_READ_TIMEOUT", c.HTTP.ReadTimeout},
		{"HTTP_WRITE_TIMEOUT", c.HTTP.WriteTimeout},
		{"HTTP_IDLE_TIMEOUT", c.HTTP.IdleTimeout},
		{"HTTP_SHUTDOWN_TIMEOUT", c.HTTP.ShutdownTimeout},
	}

	for _, d := range durations {
		if d.val < 0 {
			errs = append(errs, fmt.Errorf("invalid env variable %s: duration %s is negative", d.key, d.val))
		}
	}

	if c.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("invalid env variable HTTP_MAX_BODY_BYTES: must be positive"))
	}

	if c.HTTP.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("invalid env variable HTTP_MAX_UPLOAD_BYTES: must be positive"))
	}

	if strings.TrimSpace(c.DB.File) == "" {
		errs = append(errs, errors.New("invalid env variable DB_FILENAME: must not be empty"))
	}

	switch c.Storage.Driver {
	case storageLocal:
		if c.Storage.LocalDir == "" {
			errs = append(errs, errors.New("invalid env variable STORAGE_LOCAL_DIR: must not be empty"))
		}
	case storageS3:
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("invalid env variable S3_BUCKET: required for the s3 storage driver"))
		}
		if c.S3.Region == "" {
			errs = append(errs, errors.New("invalid env variable S3_REGION: required for the s3 storage driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid env variable STORAGE_DRIVER: unknown driver %q", c.Storage.Driver))
	}

	return errors.Join(errs...)
}

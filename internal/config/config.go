package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const (
	envPrefix              = "PERCH"
	defaultHTTPAddress     = "0.0.0.0:8000"
	defaultDatabaseDSN     = "perch.db"
	defaultImagesDirectory = "images"
	defaultLogLevel        = "info"
	defaultCameraInterval  = 10
)

// AppConfig captures runtime configuration for the camera server.
type AppConfig struct {
	HTTPAddress     string
	DatabaseDSN     string
	ImagesDirectory string
	LogLevel        string
	BcryptCost      int
	CameraInterval  int16
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	// The bare IMAGES_DIRECTORY name is what camera installs already export.
	_ = configViper.BindEnv("images.directory", "PERCH_IMAGES_DIRECTORY", "IMAGES_DIRECTORY")

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.dsn", defaultDatabaseDSN)
	configViper.SetDefault("images.directory", defaultImagesDirectory)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("password.bcrypt_cost", bcrypt.DefaultCost)
	configViper.SetDefault("camera.default_interval_s", defaultCameraInterval)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:     configViper.GetString("http.address"),
		DatabaseDSN:     configViper.GetString("database.dsn"),
		ImagesDirectory: configViper.GetString("images.directory"),
		LogLevel:        configViper.GetString("log.level"),
		BcryptCost:      configViper.GetInt("password.bcrypt_cost"),
		CameraInterval:  int16(configViper.GetInt("camera.default_interval_s")),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if strings.TrimSpace(c.ImagesDirectory) == "" {
		return fmt.Errorf("images.directory is required")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("password.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.CameraInterval <= 0 {
		return fmt.Errorf("camera.default_interval_s must be positive")
	}
	return nil
}

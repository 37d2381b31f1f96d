package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

const (
	ResizeModeFit        = "resize"
	ResizeModeRecompress = "resize+recompress"
)

type ResizeConfig struct {
	Mode          string `yaml:"mode"`
	Quality       int    `yaml:"quality"`
	DefaultWidth  int    `yaml:"default_width"`
	DefaultHeight int    `yaml:"default_height"`
}

type DriveConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
	FolderID        string `yaml:"folder_id"`
}

type Config struct {
	ServerAddr      string       `yaml:"server_addr"`
	DatabaseURL     string       `yaml:"database_url"`
	RequireLocation bool         `yaml:"require_location"`
	DefaultPageSize int          `yaml:"default_page_size"`
	Resize          ResizeConfig `yaml:"resize"`
	KafkaBroker     string       `yaml:"kafka_broker"`
	KafkaTopic      string       `yaml:"kafka_topic"`
	MirrorEnabled   bool         `yaml:"mirror_enabled"`
	Drive           DriveConfig  `yaml:"drive"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// applyEnv lets deployment environments override the file, the same set of
// variables the hosted versions of this service were configured with.
func (c *Config) applyEnv() {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.ServerAddr = v
	} else if v := os.Getenv("PORT"); v != "" {
		c.ServerAddr = ":" + v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	} else if host := os.Getenv("DB_HOST"); host != "" {
		port := os.Getenv("DB_PORT")
		if port == "" {
			port = "5432"
		}
		c.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
			os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), host, port, os.Getenv("DB_NAME"))
	}
	if v := os.Getenv("KAFKA_BROKER"); v != "" {
		c.KafkaBroker = v
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.KafkaTopic = v
	}
}

func (c *Config) applyDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = ":5000"
	}
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 12
	}
	if c.Resize.Mode == "" {
		c.Resize.Mode = ResizeModeFit
	}
	if c.Resize.Quality <= 0 || c.Resize.Quality > 100 {
		c.Resize.Quality = 40
	}
	if c.Resize.DefaultWidth <= 0 {
		c.Resize.DefaultWidth = 300
	}
	if c.Resize.DefaultHeight <= 0 {
		c.Resize.DefaultHeight = 300
	}
	if c.Drive.TokenFile == "" {
		c.Drive.TokenFile = "tokens.json"
	}
}

package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/vladvlasov256/YourDutchBot/core/config"
	coredatabase "github.com/vladvlasov256/YourDutchBot/core/database"
	"github.com/vladvlasov256/YourDutchBot/internal/broadcast"
	"github.com/vladvlasov256/YourDutchBot/internal/content"
	"github.com/vladvlasov256/YourDutchBot/internal/news"
	"github.com/vladvlasov256/YourDutchBot/internal/storage"
)

// Config aggregates the full application configuration: the shared
// core settings plus the lesson-bot specific sections.
type Config struct {
	Core coreconfig.Config `yaml:",inline"`

	Database  coredatabase.Config `yaml:"database"`
	Redis     storage.RedisConfig `yaml:"redis"`
	OpenAI    content.Config      `yaml:"openai"`
	News      news.Config         `yaml:"news"`
	Broadcast broadcast.Config    `yaml:"broadcast"`

	Topics []news.CatalogEntry `yaml:"topics"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Core }

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return err
	}
	if cfg.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required")
	}
	cfg.OpenAI.Normalize()
	cfg.News.Normalize()
	cfg.Redis.Normalize()
	cfg.Broadcast.Normalize()
	return nil
}

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Env holds the settings read from the process environment. Values set
// here win over the config file.
type Env struct {
	ConfigPath       string        `env:"VEILBORN_CONFIG" envDefault:"./veilborn_config.json"`
	DBPath           string        `env:"VEILBORN_DB" envDefault:"./data/veilborn.db"`
	ServerAddress    string        `env:"VEILBORN_ADDR"`
	NarrationTimeout time.Duration `env:"VEILBORN_NARRATION_TIMEOUT"`
	PlacementTimeout time.Duration `env:"VEILBORN_PLACEMENT_TIMEOUT"`
	ImagesEnabled    bool          `env:"VEILBORN_IMAGES" envDefault:"false"`
	ImageTimeout     time.Duration `env:"VEILBORN_IMAGE_TIMEOUT"`
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com"`
	OpenAIChatModel  string        `env:"OPENAI_CHAT_MODEL"`
	OpenAIImageModel string        `env:"OPENAI_IMAGE_MODEL"`
	LogLevel         string        `env:"VEILBORN_LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv parses Env from the process environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return Env{}, err
	}
	return e, nil
}

// Apply overlays non-empty environment settings on cfg.
func (e Env) Apply(cfg *LoadedConfig) {
	if cfg == nil {
		return
	}
	if e.ServerAddress != "" {
		cfg.ServerAddress = e.ServerAddress
	}
	if e.NarrationTimeout > 0 {
		cfg.NarrationTimeout = e.NarrationTimeout
	}
	if e.PlacementTimeout > 0 {
		cfg.PlacementTimeout = e.PlacementTimeout
	}
	if e.OpenAIChatModel != "" {
		cfg.NarrationModel = e.OpenAIChatModel
	}
}

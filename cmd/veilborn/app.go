package main

import (
	"github.com/ericogr/veilborn/internal/config"
	"github.com/ericogr/veilborn/internal/constants"
	"github.com/ericogr/veilborn/internal/game"
	"github.com/ericogr/veilborn/internal/imagegen"
	"github.com/ericogr/veilborn/internal/logging"
	"github.com/ericogr/veilborn/internal/narration"
	"github.com/ericogr/veilborn/internal/storage"
)

func loadEnvOrExit() config.Env {
	env, err := config.LoadEnv()
	if err != nil {
		logging.Fatal("Invalid environment configuration", err, nil)
	}
	return env
}

func loadConfigOrExit(env config.Env) *config.LoadedConfig {
	cfg, err := config.LoadConfig(env.ConfigPath)
	if err != nil {
		logging.Fatal("Missing or invalid veilborn configuration", err, logging.Fields{
			"config_path": env.ConfigPath,
			"hint":        "create a veilborn_config.json with a 'card_list' array (name,type,rarity,base_attack,base_defense,speed,mana_cost,ability,lore) and optional server.address and narration settings",
		})
	}
	env.Apply(cfg)
	if cfg.ServerAddress == "" {
		cfg.ServerAddress = constants.DefaultServerAddress
	}
	return cfg
}

func createRepositoryOrExit(dbPath string, cards []game.CardTemplate) storage.Repository {
	db, err := storage.OpenAndMigrate(dbPath, cards)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, logging.Fields{"db_path": dbPath})
	}
	return storage.NewSQLiteRepository(db, cards)
}

// newNarrator returns nil without an API key; rounds then keep the
// placeholder narration.
func newNarrator(env config.Env, cfg *config.LoadedConfig) narration.Narrator {
	if env.OpenAIAPIKey == "" {
		logging.Info("OPENAI_API_KEY not set; narration disabled", nil)
		return nil
	}
	return narration.NewOpenAINarrator(env.OpenAIAPIKey, env.OpenAIBaseURL, cfg.NarrationModel, cfg.NarrationSystemPrompt)
}

// newImageGenerator returns nil unless VEILBORN_IMAGES is on and an API key
// is present.
func newImageGenerator(env config.Env) imagegen.Generator {
	if !env.ImagesEnabled {
		return nil
	}
	if env.OpenAIAPIKey == "" {
		logging.Info("OPENAI_API_KEY not set; artwork disabled", nil)
		return nil
	}
	return imagegen.NewOpenAIImages(env.OpenAIAPIKey, env.OpenAIBaseURL, env.OpenAIImageModel)
}

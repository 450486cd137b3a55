package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ericogr/veilborn/internal/constants"
	"github.com/ericogr/veilborn/internal/engine"
	"github.com/ericogr/veilborn/internal/game"
	"github.com/ericogr/veilborn/internal/keys"
)

type abilityEntry struct {
	Trigger     engine.AbilityTrigger `json:"trigger"`
	Effect      engine.AbilityEffect  `json:"effect"`
	Value       float64               `json:"value"`
	Description string                `json:"description"`
}

type cardEntry struct {
	Key         string        `json:"key"`
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	Rarity      string        `json:"rarity"`
	BaseAttack  int           `json:"base_attack"`
	BaseDefense int           `json:"base_defense"`
	Speed       int           `json:"speed"`
	ManaCost    int           `json:"mana_cost"`
	Ability     *abilityEntry `json:"ability"`
	Lore        string        `json:"lore"`
}

type rawConfig struct {
	CardList []cardEntry `json:"card_list"`
	Server   *struct {
		Address string `json:"address"`
	} `json:"server"`
	Narration *struct {
		Model          string `json:"model"`
		SystemPrompt   string `json:"system_prompt"`
		TimeoutSeconds int    `json:"timeout_seconds"`
	} `json:"narration"`
	// Seconds a player has to submit placements before the round times out.
	PlacementTimeoutSeconds int `json:"placement_timeout_seconds"`
}

// LoadedConfig contains the card catalog and server settings.
type LoadedConfig struct {
	Cards         []game.CardTemplate
	ServerAddress string

	NarrationModel        string
	NarrationSystemPrompt string
	NarrationTimeout      time.Duration
	PlacementTimeout      time.Duration
}

const (
	defaultNarrationTimeout = 20 * time.Second
	defaultPlacementTimeout = 2 * time.Minute
)

var validRarities = map[game.Rarity]bool{
	game.RarityCommon: true, game.RarityRare: true, game.RarityEpic: true, game.RarityLegendary: true,
}

// LoadConfig reads the configuration file at path. It requires the key
// `card_list` (snake_case).
func LoadConfig(path string) (*LoadedConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var rc rawConfig
	if err := json.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	entries := rc.CardList
	if len(entries) == 0 {
		return nil, fmt.Errorf("config file %s: card_list is empty (provide 'card_list' array)", path)
	}

	out := make([]game.CardTemplate, 0, len(entries))
	for _, c := range entries {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("config file %s: card entry missing 'name'", path)
		}
		key := c.Key
		if key == "" {
			key = keys.CardKey(c.Name)
		}
		t := engine.CardType(c.Type)
		if !t.Valid() {
			return nil, fmt.Errorf("config file %s: card '%s' has unknown type '%s'", path, c.Name, c.Type)
		}
		rarity := game.Rarity(strings.ToLower(c.Rarity))
		if rarity == "" {
			rarity = game.RarityCommon
		}
		if !validRarities[rarity] {
			return nil, fmt.Errorf("config file %s: card '%s' has unknown rarity '%s'", path, c.Name, c.Rarity)
		}
		if c.BaseAttack < 0 || c.BaseDefense <= 0 || c.Speed < 0 || c.ManaCost < 0 {
			return nil, fmt.Errorf("config file %s: card '%s' has out of range stats", path, c.Name)
		}
		tpl := game.CardTemplate{
			Key:         key,
			Name:        c.Name,
			Type:        t,
			Rarity:      rarity,
			BaseAttack:  c.BaseAttack,
			BaseDefense: c.BaseDefense,
			Speed:       c.Speed,
			ManaCost:    c.ManaCost,
			Lore:        c.Lore,
		}
		if c.Ability != nil {
			if !engine.KnownEffect(c.Ability.Effect) {
				return nil, fmt.Errorf("config file %s: card '%s' has unknown ability effect '%s'", path, c.Name, c.Ability.Effect)
			}
			tpl.Ability = &engine.Ability{
				Trigger:     c.Ability.Trigger,
				Effect:      c.Ability.Effect,
				Value:       c.Ability.Value,
				Description: c.Ability.Description,
			}
		}
		out = append(out, tpl)
	}

	// Cross-entry validation: card names (case-insensitive) and keys must
	// be unique.
	nameSet := make(map[string]struct{}, len(out))
	keySet := make(map[string]struct{}, len(out))
	for _, c := range out {
		ln := strings.ToLower(strings.TrimSpace(c.Name))
		if _, exists := nameSet[ln]; exists {
			return nil, fmt.Errorf("config file %s: duplicate card name '%s'", path, c.Name)
		}
		nameSet[ln] = struct{}{}
		if _, exists := keySet[c.Key]; exists {
			return nil, fmt.Errorf("config file %s: duplicate card key '%s'", path, c.Key)
		}
		keySet[c.Key] = struct{}{}
	}

	cfg := &LoadedConfig{
		Cards:            out,
		ServerAddress:    constants.DefaultServerAddress,
		NarrationModel:   constants.OpenAIChatModel,
		NarrationTimeout: defaultNarrationTimeout,
		PlacementTimeout: defaultPlacementTimeout,
	}
	if rc.Server != nil && rc.Server.Address != "" {
		cfg.ServerAddress = rc.Server.Address
	}
	if n := rc.Narration; n != nil {
		if n.Model != "" {
			cfg.NarrationModel = n.Model
		}
		cfg.NarrationSystemPrompt = strings.TrimSpace(n.SystemPrompt)
		if n.TimeoutSeconds > 0 {
			cfg.NarrationTimeout = time.Duration(n.TimeoutSeconds) * time.Second
		}
	}
	if rc.PlacementTimeoutSeconds > 0 {
		cfg.PlacementTimeout = time.Duration(rc.PlacementTimeoutSeconds) * time.Second
	}
	return cfg, nil
}

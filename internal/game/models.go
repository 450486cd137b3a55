package game

import (
	"time"

	"github.com/ericogr/veilborn/internal/engine"

	"gorm.io/gorm"
)

// Match status and phase values.
const (
	StatusWaiting    = "waiting_for_players"
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"

	PhasePlacement = "placement"
	PhaseResolving = "resolving"
	PhaseResolved  = "resolved"
)

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// CardTemplate is a catalog card. Only the key and name are persisted; the
// stats come from the server config (veilborn_config.json) and are filled in
// on every load so the config stays the single source of truth.
type CardTemplate struct {
	gorm.Model
	Key  string `json:"key" gorm:"uniqueIndex"`
	Name string `json:"name"`

	Type        engine.CardType `json:"type" gorm:"-"`
	Rarity      Rarity          `json:"rarity" gorm:"-"`
	BaseAttack  int             `json:"base_attack" gorm:"-"`
	BaseDefense int             `json:"base_defense" gorm:"-"`
	Speed       int             `json:"speed" gorm:"-"`
	ManaCost    int             `json:"mana_cost" gorm:"-"`
	Ability     *engine.Ability `json:"ability,omitempty" gorm:"-"`
	Lore        string          `json:"lore" gorm:"-"`
}

func (CardTemplate) TableName() string { return "card_templates" }

// OwnedCard is a player's copy of a catalog card with its progression.
type OwnedCard struct {
	gorm.Model
	PlayerID          string     `json:"player_id" gorm:"index"`
	TemplateKey       string     `json:"template_key" gorm:"index"`
	Level             int        `json:"level" gorm:"default:1"`
	XP                int        `json:"xp"`
	ConsecutiveLosses int        `json:"consecutive_losses"`
	IsDormant         bool       `json:"is_dormant"`
	DormantUntil      *time.Time `json:"dormant_until"`

	Template CardTemplate `json:"template" gorm:"-"`
}

func (OwnedCard) TableName() string { return "owned_cards" }

// DormantAt reports whether the card is still resting at now.
func (c OwnedCard) DormantAt(now time.Time) bool {
	if !c.IsDormant {
		return false
	}
	return c.DormantUntil == nil || now.Before(*c.DormantUntil)
}

// Match is a best-of-five duel between two players.
type Match struct {
	gorm.Model
	PublicID          string        `json:"public_id" gorm:"uniqueIndex"`
	Name              string        `json:"name" gorm:"size:32"`
	Players           []MatchPlayer `json:"players"`
	Status            string        `json:"status"`
	Phase             string        `json:"phase"` // placement | resolving | resolved
	CurrentRound      int           `json:"current_round"`
	Winner            string        `json:"winner"`
	Draw              bool          `json:"draw"`
	Message           string        `json:"message"`
	PlacementDeadline time.Time     `json:"placement_deadline"`
	StatsCounted      bool          `json:"-"`
}

// Player returns the seat held by playerID, or nil.
func (m *Match) Player(playerID string) *MatchPlayer {
	for i := range m.Players {
		if m.Players[i].PlayerID == playerID {
			return &m.Players[i]
		}
	}
	return nil
}

// Opponent returns the other seat, or nil.
func (m *Match) Opponent(playerID string) *MatchPlayer {
	for i := range m.Players {
		if m.Players[i].PlayerID != playerID {
			return &m.Players[i]
		}
	}
	return nil
}

// DisplayName maps a player id to its display name, falling back to the id.
func (m *Match) DisplayName(playerID string) string {
	if p := m.Player(playerID); p != nil && p.DisplayName != "" {
		return p.DisplayName
	}
	return playerID
}

// MatchPlayer is a seat in a match.
type MatchPlayer struct {
	gorm.Model
	MatchID       uint   `json:"-"`
	Seat          int    `json:"seat"`
	PlayerID      string `json:"player_id"`
	DisplayName   string `json:"display_name"`
	Score         int    `json:"score"`
	Mana          int    `json:"mana"`
	VeilSurgeUsed bool   `json:"veil_surge_used"`
	HasSubmitted  bool   `json:"has_submitted"`
	// RatingDelta is the rating change applied when the match finished.
	RatingDelta int `json:"rating_delta"`
}

func (MatchPlayer) TableName() string { return "match_players" }

// Placement is a hidden card placement for one round. It is revealed only
// through the round record once the round resolves.
type Placement struct {
	gorm.Model
	MatchID     uint   `json:"-" gorm:"uniqueIndex:idx_placement_cell;uniqueIndex:idx_placement_card"`
	RoundNumber int    `json:"round" gorm:"uniqueIndex:idx_placement_cell;uniqueIndex:idx_placement_card"`
	PlayerID    string `json:"player_id" gorm:"uniqueIndex:idx_placement_cell;uniqueIndex:idx_placement_card"`
	Column      int    `json:"col" gorm:"column:col;uniqueIndex:idx_placement_cell"`
	Row         string `json:"row" gorm:"column:board_row;uniqueIndex:idx_placement_cell"`
	OwnedCardID uint   `json:"card_id" gorm:"uniqueIndex:idx_placement_card"`
}

func (Placement) TableName() string { return "round_placements" }

// RoundRecord is the persisted result of a resolved round. The unique
// index on (match_id, round_number) makes resolution at-most-once.
type RoundRecord struct {
	gorm.Model
	MatchID           uint                 `json:"-" gorm:"uniqueIndex:idx_round_once"`
	RoundNumber       int                  `json:"round" gorm:"uniqueIndex:idx_round_once"`
	VeilCollapse      bool                 `json:"veil_collapse"`
	FlankingPlayer    string               `json:"flanking_player"`
	Events            []engine.CombatEvent `json:"combat_events" gorm:"serializer:json"`
	Board             []engine.PlacedCard  `json:"board" gorm:"serializer:json"`
	Player1Remaining  int                  `json:"p1_surviving_defense"`
	Player2Remaining  int                  `json:"p2_surviving_defense"`
	WinnerID          string               `json:"winner"`
	Points            int                  `json:"points_awarded"`
	Reason            string               `json:"reason"`
	Narration         string               `json:"narration"`
	RoundTitle        string               `json:"round_title"`
	KeyMoment         string               `json:"key_moment"`
	Tone              string               `json:"tone"`
	NarrationFallback bool                 `json:"narration_fallback"`
	ImagePrompt       string               `json:"image_prompt"`
	ImageURL          string               `json:"image_url"`
}

func (RoundRecord) TableName() string { return "round_records" }

// User stores unique player identity, aggregate stats and rating.
type User struct {
	gorm.Model
	PlayerID      string `json:"player_id" gorm:"uniqueIndex"`
	DisplayName   string `json:"display_name"`
	EloRating     int    `json:"elo_rating" gorm:"default:1000"`
	MatchesPlayed int    `json:"matches_played"`
	Wins          int    `json:"wins"`
	Draws         int    `json:"draws"`
	Resignations  int    `json:"resignations"`
}

func (User) TableName() string { return "player_profiles" }

// Artwork is a generated PNG stored under a key from the keys package
// (round illustrations and card portraits).
type Artwork struct {
	gorm.Model
	Key    string `json:"key" gorm:"uniqueIndex"`
	Prompt string `json:"prompt"`
	PNG    []byte `json:"-"`
}

func (Artwork) TableName() string { return "artworks" }

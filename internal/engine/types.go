package engine

// CardType is the elemental family of a card. The four types form a
// single advantage cycle (see Multiplier).
type CardType string

const (
	Specter  CardType = "Specter"
	Revenant CardType = "Revenant"
	Phantom  CardType = "Phantom"
	Behemoth CardType = "Behemoth"
)

// Valid reports whether t is one of the four known card types.
func (t CardType) Valid() bool {
	switch t {
	case Specter, Revenant, Phantom, Behemoth:
		return true
	}
	return false
}

// Row is the board row a card is placed in.
type Row string

const (
	RowFront Row = "front"
	RowBack  Row = "back"
)

func (r Row) Valid() bool { return r == RowFront || r == RowBack }

// Board and bonus constants.
const (
	Columns  = 4
	MaxLevel = 5

	FlankingMinColumns      = 3
	FlankingOpponentMaxCols = 2
	FlankingBonus           = 2
	ColumnPressureBonus     = 1

	// DefensePerLevel is added to max hit points for every level above 1.
	DefensePerLevel = 2
)

// PlacedCard is a card instance on the board for one round.
type PlacedCard struct {
	InstanceID  string   `json:"instance_id"`
	Name        string   `json:"name"`
	Owner       string   `json:"owner"`
	Type        CardType `json:"type"`
	Level       int      `json:"level"`
	BaseAttack  int      `json:"base_attack"`
	BaseDefense int      `json:"base_defense"`
	Speed       int      `json:"speed"`
	ManaCost    int      `json:"mana_cost"`
	Ability     *Ability `json:"ability,omitempty"`

	Column int `json:"col"`
	Row    Row `json:"row"`

	CurrentHP     int `json:"current_hp"`
	PositionBonus int `json:"position_bonus"`
}

// NewPlacedCard returns c with CurrentHP set to its max and no positional bonus.
func NewPlacedCard(c PlacedCard) PlacedCard {
	c.CurrentHP = c.MaxHP()
	c.PositionBonus = 0
	return c
}

// Attack is the level-adjusted attack stat.
func (c PlacedCard) Attack() int { return c.BaseAttack + (c.Level - 1) }

// MaxHP is the level-adjusted defense, used as the hit point pool.
func (c PlacedCard) MaxHP() int { return c.BaseDefense + (c.Level-1)*DefensePerLevel }

// EffectiveAttack includes the positional bonus accumulated this round.
func (c PlacedCard) EffectiveAttack() int { return c.Attack() + c.PositionBonus }

func (c PlacedCard) Alive() bool { return c.CurrentHP > 0 }

func (c PlacedCard) snapshot() Combatant {
	return Combatant{Name: c.Name, Type: c.Type, Level: c.Level, Owner: c.Owner}
}

// Combatant identifies a card inside a combat event.
type Combatant struct {
	Name  string   `json:"name"`
	Type  CardType `json:"type"`
	Level int      `json:"level"`
	Owner string   `json:"owner"`
}

// AbilityNote annotates an event with an ability that fired during it.
type AbilityNote struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CombatEvent is one resolved attack.
type CombatEvent struct {
	Order             int          `json:"order"`
	Attacker          Combatant    `json:"attacker"`
	Defender          Combatant    `json:"defender"`
	TypeAdvantage     string       `json:"type_advantage"`
	Multiplier        float64      `json:"-"`
	DamageDealt       int          `json:"damage_dealt"`
	PositionBonus     int          `json:"position_bonus"`
	DefenderDestroyed bool         `json:"defender_destroyed"`
	Ability           *AbilityNote `json:"ability,omitempty"`

	attackerIdx int
	defenderIdx int
}

// Result is the output of one round of combat.
type Result struct {
	Events           []CombatEvent `json:"events"`
	Player1Remaining int           `json:"p1_remaining_defense"`
	Player2Remaining int           `json:"p2_remaining_defense"`
	// FlankingPlayer is the player awarded the flanking bonus, empty if none.
	FlankingPlayer string `json:"flanking_player,omitempty"`
	VeilCollapse   bool   `json:"veil_collapse"`
	// Board holds the final state of every card, in input order.
	Board []PlacedCard `json:"board"`
}

// Destroyed reports whether the card at board index i ended the round at or
// below zero hit points.
func (r Result) Destroyed(i int) bool {
	return i >= 0 && i < len(r.Board) && !r.Board[i].Alive()
}

// DamageByCard returns total damage dealt per board index.
func (r Result) DamageByCard() map[int]int {
	out := make(map[int]int, len(r.Board))
	for _, ev := range r.Events {
		out[ev.attackerIdx] += ev.DamageDealt
	}
	return out
}

package engine

import (
	"fmt"
	"math"
)

type AbilityTrigger string

const (
	TriggerOnAttack       AbilityTrigger = "on_attack"
	TriggerOnDeath        AbilityTrigger = "on_death"
	TriggerOnSurviveRound AbilityTrigger = "on_survive_round"
	TriggerPassive        AbilityTrigger = "passive"
)

type AbilityEffect string

const (
	EffectArmor     AbilityEffect = "armor"
	EffectLifesteal AbilityEffect = "lifesteal"
	EffectThorns    AbilityEffect = "thorns"
	EffectLastStand AbilityEffect = "last_stand"
	EffectGhostStep AbilityEffect = "ghost_step"
	EffectVeilEcho  AbilityEffect = "veil_echo"
)

// Ability is a card's special ability. Value is effect specific: flat
// damage reduction for armor, a fraction for lifesteal and veil echo.
type Ability struct {
	Trigger     AbilityTrigger `json:"trigger"`
	Effect      AbilityEffect  `json:"effect"`
	Value       float64        `json:"value"`
	Description string         `json:"description"`
}

// abilityHooks is the behavior of one ability effect during resolution.
// A nil hook means the effect does not act at that point.
type abilityHooks struct {
	// mitigate adjusts damage about to be taken by the holder.
	mitigate func(a Ability, damage int) int
	// onHit runs on the attacker after its damage has been applied.
	onHit func(a Ability, cc *combatContext, attacker, defender int, damage int) *AbilityNote
	// onDestroyed runs on a defender destroyed by attacker.
	onDestroyed func(a Ability, cc *combatContext, defender, attacker int) *AbilityNote
}

// abilityTable is closed: every AbilityEffect has an entry, including the
// ones that are inert in combat (thorns, last_stand, ghost_step).
var abilityTable = map[AbilityEffect]abilityHooks{
	EffectArmor: {
		mitigate: func(a Ability, damage int) int {
			return max(0, damage-int(a.Value))
		},
	},
	EffectLifesteal: {
		onHit: func(a Ability, cc *combatContext, attacker, _ int, damage int) *AbilityNote {
			if a.Trigger != TriggerOnAttack {
				return nil
			}
			c := &cc.cards[attacker]
			heal := int(math.Floor(float64(damage) * a.Value))
			if heal <= 0 {
				return nil
			}
			before := c.CurrentHP
			c.CurrentHP = min(c.CurrentHP+heal, c.MaxHP())
			if c.CurrentHP <= before {
				return nil
			}
			return &AbilityNote{
				Name:        "Lifesteal",
				Description: fmt.Sprintf("%s drained %d vitality", c.Name, c.CurrentHP-before),
			}
		},
	},
	EffectThorns:    {},
	EffectLastStand: {},
	EffectGhostStep: {},
	EffectVeilEcho: {
		onDestroyed: func(a Ability, cc *combatContext, defender, attacker int) *AbilityNote {
			if a.Trigger != TriggerOnDeath {
				return nil
			}
			d := cc.cards[defender]
			echo := int(math.Floor(float64(d.BaseAttack) * a.Value))
			cc.cards[attacker].CurrentHP -= echo
			return &AbilityNote{
				Name:        "Veil Echo",
				Description: fmt.Sprintf("%s released a death echo for %d damage", d.Name, echo),
			}
		},
	},
}

// KnownEffect reports whether e is part of the ability set.
func KnownEffect(e AbilityEffect) bool {
	_, ok := abilityTable[e]
	return ok
}

func hooksFor(a *Ability) (abilityHooks, bool) {
	if a == nil {
		return abilityHooks{}, false
	}
	h, ok := abilityTable[a.Effect]
	return h, ok
}

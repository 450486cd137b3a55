// Package progression applies experience, level ups and dormancy to owned
// cards after a round.
package progression

import (
	"time"

	"github.com/ericogr/veilborn/internal/engine"
)

const (
	SurvivalBonusXP    = 10
	DormancyLossStreak = 3
	DormancyDuration   = 24 * time.Hour
)

// levelThresholds maps a level to the XP needed to leave it.
var levelThresholds = map[int]int{1: 100, 2: 250, 3: 500, 4: 1000}

// XPToNextLevel returns the XP needed to leave level, or 0 at max level.
func XPToNextLevel(level int) int { return levelThresholds[level] }

// Award is the round result for one placed card.
type Award struct {
	InstanceID string
	Owner      string
	XP         int
	Destroyed  bool
	// LostRound is true when the card was destroyed and its owner lost the round.
	LostRound bool
}

// Awards computes per-card XP for a resolved round. Survivors earn their
// damage plus SurvivalBonusXP, destroyed cards half of their damage.
func Awards(res engine.Result, roundLoser string) []Award {
	dmg := res.DamageByCard()
	out := make([]Award, 0, len(res.Board))
	for i, c := range res.Board {
		a := Award{InstanceID: c.InstanceID, Owner: c.Owner, Destroyed: res.Destroyed(i)}
		if a.Destroyed {
			a.XP = dmg[i] / 2
			a.LostRound = roundLoser != "" && c.Owner == roundLoser
		} else {
			a.XP = dmg[i] + SurvivalBonusXP
		}
		out = append(out, a)
	}
	return out
}

// Card is the mutable progression state of an owned card.
type Card struct {
	Level             int
	XP                int
	ConsecutiveLosses int
	IsDormant         bool
	DormantUntil      *time.Time
}

// Change summarizes what Apply did.
type Change struct {
	LevelsGained int
	WentDormant  bool
}

// Apply adds the award to c. Each level consumes its threshold and the
// remainder carries over; XP stops accruing at engine.MaxLevel.
func Apply(c Card, a Award, now time.Time) (Card, Change) {
	var ch Change
	if c.Level < 1 {
		c.Level = 1
	}
	if c.Level < engine.MaxLevel {
		c.XP += a.XP
	}
	for c.Level < engine.MaxLevel && c.XP >= levelThresholds[c.Level] {
		c.XP -= levelThresholds[c.Level]
		c.Level++
		ch.LevelsGained++
	}
	if c.Level >= engine.MaxLevel {
		c.XP = 0
	}

	if a.LostRound {
		c.ConsecutiveLosses++
	} else {
		c.ConsecutiveLosses = 0
	}
	if c.ConsecutiveLosses >= DormancyLossStreak && !c.IsDormant {
		until := now.Add(DormancyDuration)
		c.IsDormant = true
		c.DormantUntil = &until
		c.ConsecutiveLosses = 0
		ch.WentDormant = true
	}
	return c, ch
}

// Wake clears dormancy once its window has passed.
func Wake(c Card, now time.Time) Card {
	if c.IsDormant && c.DormantUntil != nil && !now.Before(*c.DormantUntil) {
		c.IsDormant = false
		c.DormantUntil = nil
	}
	return c
}

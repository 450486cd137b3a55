// Package narration turns a resolved round into a request for an external
// storyteller and validates what comes back. Nothing here can change the
// outcome of a round: the payload is built from the final result and only
// the descriptive fields of the response are read.
package narration

import "github.com/ericogr/veilborn/internal/engine"

// TieLabel is reported as the round winner when nobody scored.
const TieLabel = "Tie"

// Payload is the round outcome sent to the narrator.
type Payload struct {
	Round                  int            `json:"round"`
	VeilCollapse           bool           `json:"veil_collapse"`
	FlankingBonusAwardedTo *string        `json:"flanking_bonus_awarded_to"`
	CombatEvents           []EventPayload `json:"combat_events"`
	RoundOutcome           RoundOutcome   `json:"round_outcome"`
	MatchScore             map[string]int `json:"match_score"`
	MatchWinner            *string        `json:"match_winner"`
	MatchDraw              bool           `json:"match_draw,omitempty"`
}

type EventPayload struct {
	Order             int                 `json:"order"`
	Attacker          engine.Combatant    `json:"attacker"`
	Defender          engine.Combatant    `json:"defender"`
	TypeAdvantage     string              `json:"type_advantage"`
	DamageDealt       int                 `json:"damage_dealt"`
	PositionBonus     int                 `json:"position_bonus"`
	DefenderDestroyed bool                `json:"defender_destroyed"`
	Ability           *engine.AbilityNote `json:"ability,omitempty"`
}

type RoundOutcome struct {
	P1SurvivingDefense int    `json:"p1_surviving_defense"`
	P2SurvivingDefense int    `json:"p2_surviving_defense"`
	Winner             string `json:"winner"`
	PointsAwarded      int    `json:"points_awarded"`
	Reason             string `json:"reason"`
}

// BuildPayload renders the round for the narrator. Owners are shown by
// display name.
func BuildPayload(round int, res engine.Result, out engine.Outcome, p1, p2 engine.Side) Payload {
	label := func(id string) string {
		switch id {
		case p1.ID:
			if p1.Name != "" {
				return p1.Name
			}
		case p2.ID:
			if p2.Name != "" {
				return p2.Name
			}
		}
		return id
	}

	events := make([]EventPayload, 0, len(res.Events))
	for _, ev := range res.Events {
		a, d := ev.Attacker, ev.Defender
		a.Owner = label(a.Owner)
		d.Owner = label(d.Owner)
		events = append(events, EventPayload{
			Order:             ev.Order,
			Attacker:          a,
			Defender:          d,
			TypeAdvantage:     ev.TypeAdvantage,
			DamageDealt:       ev.DamageDealt,
			PositionBonus:     ev.PositionBonus,
			DefenderDestroyed: ev.DefenderDestroyed,
			Ability:           ev.Ability,
		})
	}

	p := Payload{
		Round:        round,
		VeilCollapse: res.VeilCollapse,
		CombatEvents: events,
		RoundOutcome: RoundOutcome{
			P1SurvivingDefense: out.Player1Remaining,
			P2SurvivingDefense: out.Player2Remaining,
			Winner:             TieLabel,
			PointsAwarded:      out.Points,
			Reason:             out.Reason,
		},
		MatchScore: map[string]int{
			label(p1.ID): out.Score.Player1,
			label(p2.ID): out.Score.Player2,
		},
		MatchDraw: out.Draw,
	}
	if res.FlankingPlayer != "" {
		f := label(res.FlankingPlayer)
		p.FlankingBonusAwardedTo = &f
	}
	if out.RoundWinner != "" {
		p.RoundOutcome.Winner = label(out.RoundWinner)
	}
	if out.MatchWinner != "" {
		w := label(out.MatchWinner)
		p.MatchWinner = &w
	}
	return p
}

package engine

import "fmt"

const (
	RoundsPerMatch = 5
	WinningScore   = 3
	WipePoints     = 2
	DefensePoints  = 1
)

// Side names a player for outcome evaluation.
type Side struct {
	ID   string
	Name string
}

func (s Side) label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// Score is the cumulative match score.
type Score struct {
	Player1 int `json:"p1"`
	Player2 int `json:"p2"`
}

// Outcome is the scored result of one round.
type Outcome struct {
	Player1Remaining int    `json:"p1_surviving_defense"`
	Player2Remaining int    `json:"p2_surviving_defense"`
	RoundWinner      string `json:"round_winner,omitempty"`
	Points           int    `json:"points_awarded"`
	Reason           string `json:"reason"`
	Score            Score  `json:"match_score"`
	MatchOver        bool   `json:"match_over"`
	MatchWinner      string `json:"match_winner,omitempty"`
	Draw             bool   `json:"draw"`
}

// EvaluateInput carries everything Evaluate needs.
type EvaluateInput struct {
	Result  Result
	Player1 Side
	Player2 Side
	Prior   Score
	Round   int
}

// wiped reports whether owner has no defense left and lost at least one
// card to a destroying blow in the combat log.
func wiped(res Result, owner string, remaining int) bool {
	if remaining != 0 {
		return false
	}
	for _, ev := range res.Events {
		if ev.DefenderDestroyed && ev.Defender.Owner == owner {
			return true
		}
	}
	return false
}

// Evaluate scores a resolved round and updates the match score. A full wipe
// of one side is worth WipePoints, otherwise higher surviving defense is
// worth DefensePoints. Equal defense, or both sides wiped, scores nothing.
func Evaluate(in EvaluateInput) Outcome {
	res := in.Result
	out := Outcome{
		Player1Remaining: res.Player1Remaining,
		Player2Remaining: res.Player2Remaining,
		Score:            in.Prior,
	}

	p1Wiped := wiped(res, in.Player1.ID, res.Player1Remaining)
	p2Wiped := wiped(res, in.Player2.ID, res.Player2Remaining)

	var winner, loser Side
	var wRem, lRem int
	switch {
	case p1Wiped && p2Wiped:
		out.Reason = "Both sides annihilated each other; mutual destruction"
	case p2Wiped:
		winner, loser = in.Player1, in.Player2
		out.Points = WipePoints
	case p1Wiped:
		winner, loser = in.Player2, in.Player1
		out.Points = WipePoints
	case res.Player1Remaining > res.Player2Remaining:
		winner, loser = in.Player1, in.Player2
		wRem, lRem = res.Player1Remaining, res.Player2Remaining
		out.Points = DefensePoints
	case res.Player2Remaining > res.Player1Remaining:
		winner, loser = in.Player2, in.Player1
		wRem, lRem = res.Player2Remaining, res.Player1Remaining
		out.Points = DefensePoints
	default:
		out.Reason = fmt.Sprintf("Surviving defense was even (%d vs %d)", res.Player1Remaining, res.Player2Remaining)
	}

	if out.Points > 0 {
		out.RoundWinner = winner.ID
		if winner.ID == in.Player1.ID {
			out.Score.Player1 += out.Points
		} else {
			out.Score.Player2 += out.Points
		}
		if out.Points == WipePoints {
			out.Reason = fmt.Sprintf("%s achieved a full wipe, every card of %s destroyed (+%d points)", winner.label(), loser.label(), WipePoints)
		} else {
			out.Reason = fmt.Sprintf("%s had higher surviving defense (%d vs %d) (+%d point)", winner.label(), wRem, lRem, DefensePoints)
		}
	}

	switch {
	case out.Score.Player1 >= WinningScore:
		out.MatchOver, out.MatchWinner = true, in.Player1.ID
	case out.Score.Player2 >= WinningScore:
		out.MatchOver, out.MatchWinner = true, in.Player2.ID
	case in.Round >= RoundsPerMatch:
		out.MatchOver = true
		switch {
		case out.Score.Player1 > out.Score.Player2:
			out.MatchWinner = in.Player1.ID
		case out.Score.Player2 > out.Score.Player1:
			out.MatchWinner = in.Player2.ID
		default:
			out.Draw = true
		}
	}
	return out
}

// IsFinalRound reports whether round is the Veil Collapse round.
func IsFinalRound(round int) bool { return round >= RoundsPerMatch }

// KeyMoment returns the most impactful event of the log: destroying blows
// rank above plain hits, then higher damage, then earlier order.
func KeyMoment(events []CombatEvent) (CombatEvent, bool) {
	if len(events) == 0 {
		return CombatEvent{}, false
	}
	best := events[0]
	for _, ev := range events[1:] {
		if ev.DefenderDestroyed != best.DefenderDestroyed {
			if ev.DefenderDestroyed {
				best = ev
			}
			continue
		}
		if ev.DamageDealt > best.DamageDealt {
			best = ev
		}
	}
	return best, true
}

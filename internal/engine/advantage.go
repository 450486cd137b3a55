package engine

const (
	AdvantageMultiplier    = 1.5
	DisadvantageMultiplier = 0.75
	NeutralMultiplier      = 1.0
)

// beats lists, for each type, the type it has advantage over.
// Specter > Behemoth > Phantom > Revenant > Specter.
var beats = map[CardType]CardType{
	Specter:  Behemoth,
	Behemoth: Phantom,
	Phantom:  Revenant,
	Revenant: Specter,
}

// Multiplier returns the damage multiplier of attacker type a against
// defender type d. Unknown or unrelated pairs are neutral.
func Multiplier(a, d CardType) float64 {
	if !a.Valid() || !d.Valid() {
		return NeutralMultiplier
	}
	if beats[a] == d {
		return AdvantageMultiplier
	}
	if beats[d] == a {
		return DisadvantageMultiplier
	}
	return NeutralMultiplier
}

// AdvantageLabel renders a multiplier for the combat log.
func AdvantageLabel(m float64) string {
	switch m {
	case AdvantageMultiplier:
		return "advantage (1.5x)"
	case DisadvantageMultiplier:
		return "disadvantage (0.75x)"
	default:
		return "neutral (1.0x)"
	}
}

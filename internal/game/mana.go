package game

// Mana rules.
const (
	StartingMana     = 3
	ManaPerRound     = 1
	MaxMana          = 8
	VeilSurgeMaxDebt = 3
)

// OpenRound refreshes mana for a new round. Debt left by a Veil Surge is
// cleared first, then the per-round gain applies up to MaxMana.
func (p *MatchPlayer) OpenRound() {
	if p.Mana < 0 {
		p.Mana = 0
	}
	p.Mana = min(p.Mana+ManaPerRound, MaxMana)
	p.HasSubmitted = false
}

// Spend deducts cost. When cost exceeds available mana the player may
// overdraw up to VeilSurgeMaxDebt once per match; surge reports whether
// that happened. ok is false when the cost cannot be paid at all.
func (p *MatchPlayer) Spend(cost int) (surge, ok bool) {
	if cost <= p.Mana {
		p.Mana -= cost
		return false, true
	}
	if p.VeilSurgeUsed || cost-p.Mana > VeilSurgeMaxDebt {
		return false, false
	}
	p.Mana -= cost
	p.VeilSurgeUsed = true
	return true, true
}

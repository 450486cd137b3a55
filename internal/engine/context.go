package engine

// combatContext owns the board for a single resolution. Cards are addressed
// by their index in the input slice, which stays stable for the whole round.
type combatContext struct {
	cards     []PlacedCard
	player1   string
	player2   string
	final     bool
	events    []CombatEvent
	flanking  string
	turnOrder []int
}

func newCombatContext(cards []PlacedCard, p1, p2 string, final bool) *combatContext {
	arena := make([]PlacedCard, len(cards))
	copy(arena, cards)
	for i := range arena {
		arena[i].PositionBonus = 0
	}
	return &combatContext{
		cards:   arena,
		player1: p1,
		player2: p2,
		final:   final,
		events:  make([]CombatEvent, 0, len(cards)),
	}
}

func (cc *combatContext) opponentOf(owner string) (string, bool) {
	switch owner {
	case cc.player1:
		return cc.player2, true
	case cc.player2:
		return cc.player1, true
	}
	return "", false
}

// at returns the index of the living card of owner at (col,row), or -1.
func (cc *combatContext) at(owner string, col int, row Row) int {
	for i := range cc.cards {
		c := &cc.cards[i]
		if c.Owner == owner && c.Column == col && c.Row == row && c.Alive() {
			return i
		}
	}
	return -1
}

// remaining sums positive hit points of owner's cards.
func (cc *combatContext) remaining(owner string) int {
	total := 0
	for _, c := range cc.cards {
		if c.Owner == owner && c.CurrentHP > 0 {
			total += c.CurrentHP
		}
	}
	return total
}

func (cc *combatContext) record(ev CombatEvent) {
	ev.Order = len(cc.events) + 1
	cc.events = append(cc.events, ev)
}

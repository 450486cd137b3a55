package engine

// targetable reports whether the card at i can be chosen as a target. A
// back-row card is shielded while a living front-row ally holds its column.
func (cc *combatContext) targetable(i int) bool {
	c := cc.cards[i]
	if !c.Alive() {
		return false
	}
	if c.Row == RowBack && cc.at(c.Owner, c.Column, RowFront) >= 0 {
		return false
	}
	return true
}

// findTarget picks the defender for the attacker at index i, or -1 when the
// opponent has nothing left to hit.
//
//  1. the opposing front card in the same column
//  2. the opposing back card in the same column, if targetable
//  3. the nearest targetable opposing card by column distance,
//     lowest current hit points first on ties
func (cc *combatContext) findTarget(i int) int {
	att := cc.cards[i]
	opp, ok := cc.opponentOf(att.Owner)
	if !ok {
		return -1
	}

	if j := cc.at(opp, att.Column, RowFront); j >= 0 {
		return j
	}
	if j := cc.at(opp, att.Column, RowBack); j >= 0 && cc.targetable(j) {
		return j
	}

	best := -1
	bestDist := 0
	for j := range cc.cards {
		c := cc.cards[j]
		if c.Owner != opp || !cc.targetable(j) {
			continue
		}
		dist := abs(c.Column - att.Column)
		if best < 0 || dist < bestDist || (dist == bestDist && c.CurrentHP < cc.cards[best].CurrentHP) {
			best = j
			bestDist = dist
		}
	}
	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

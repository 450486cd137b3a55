package engine

// frontColumns counts the distinct front-row columns occupied by owner.
func (cc *combatContext) frontColumns(owner string) int {
	cols := make(map[int]struct{}, Columns)
	for _, c := range cc.cards {
		if c.Owner == owner && c.Row == RowFront {
			cols[c.Column] = struct{}{}
		}
	}
	return len(cols)
}

// applyFlanking awards FlankingBonus to the front row of the player that
// spreads over at least three columns while the opponent holds two or fewer.
// At most one player can qualify.
func (cc *combatContext) applyFlanking() {
	p1Cols := cc.frontColumns(cc.player1)
	p2Cols := cc.frontColumns(cc.player2)

	switch {
	case p1Cols >= FlankingMinColumns && p2Cols <= FlankingOpponentMaxCols:
		cc.flanking = cc.player1
	case p2Cols >= FlankingMinColumns && p1Cols <= FlankingOpponentMaxCols:
		cc.flanking = cc.player2
	default:
		return
	}
	for i := range cc.cards {
		c := &cc.cards[i]
		if c.Owner == cc.flanking && c.Row == RowFront {
			c.PositionBonus += FlankingBonus
		}
	}
}

// applyColumnPressure gives ColumnPressureBonus to a front-row card facing
// an opposing front-row card it has type advantage over. Each card is
// evaluated on its own, so only the advantaged side of a pair gains it.
func (cc *combatContext) applyColumnPressure() {
	for i := range cc.cards {
		c := &cc.cards[i]
		if c.Row != RowFront {
			continue
		}
		opp, ok := cc.opponentOf(c.Owner)
		if !ok {
			continue
		}
		j := cc.at(opp, c.Column, RowFront)
		if j < 0 {
			continue
		}
		if Multiplier(c.Type, cc.cards[j].Type) == AdvantageMultiplier {
			c.PositionBonus += ColumnPressureBonus
		}
	}
}

// applyVeilCollapse adds half of each card's base attack on the final round.
func (cc *combatContext) applyVeilCollapse() {
	if !cc.final {
		return
	}
	for i := range cc.cards {
		cc.cards[i].PositionBonus += cc.cards[i].BaseAttack / 2
	}
}

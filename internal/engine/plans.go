package engine

import "sort"

// buildTurnOrder fixes the attack order for the round: speed descending,
// then effective attack descending, then board order. The order is computed
// once after bonuses are applied and is never revisited, so hit point
// changes during combat do not reshuffle it.
func (cc *combatContext) buildTurnOrder() {
	order := make([]int, len(cc.cards))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ca, cb := cc.cards[order[a]], cc.cards[order[b]]
		if ca.Speed != cb.Speed {
			return ca.Speed > cb.Speed
		}
		return ca.EffectiveAttack() > cb.EffectiveAttack()
	})
	cc.turnOrder = order
}

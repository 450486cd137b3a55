package engine

// Resolve runs one round of combat over the placed cards and returns the
// ordered combat log together with each player's remaining defense.
//
// Resolve is deterministic and has no side effects: the input slice is
// copied, and final card states are returned in Result.Board in the same
// order as cards. Callers should run ValidateBoard first; cards owned by
// neither player never attack and are never targeted.
func Resolve(cards []PlacedCard, player1ID, player2ID string, isFinalRound bool) Result {
	cc := newCombatContext(cards, player1ID, player2ID, isFinalRound)

	cc.applyFlanking()
	cc.applyColumnPressure()
	cc.applyVeilCollapse()

	cc.buildTurnOrder()
	cc.executeAttacks()

	return Result{
		Events:           cc.events,
		Player1Remaining: cc.remaining(player1ID),
		Player2Remaining: cc.remaining(player2ID),
		FlankingPlayer:   cc.flanking,
		VeilCollapse:     isFinalRound,
		Board:            cc.cards,
	}
}

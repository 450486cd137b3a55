package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidBoard wraps every board precondition violation.
var ErrInvalidBoard = errors.New("invalid board")

type cell struct {
	owner string
	col   int
	row   Row
}

// ValidateBoard checks the preconditions Resolve relies on.
func ValidateBoard(cards []PlacedCard, player1ID, player2ID string) error {
	if player1ID == "" || player2ID == "" {
		return fmt.Errorf("%w: player ids must be set", ErrInvalidBoard)
	}
	if player1ID == player2ID {
		return fmt.Errorf("%w: players must be distinct", ErrInvalidBoard)
	}
	seen := make(map[cell]string, len(cards))
	for _, c := range cards {
		if c.Owner != player1ID && c.Owner != player2ID {
			return fmt.Errorf("%w: card %q owned by unknown player %q", ErrInvalidBoard, c.Name, c.Owner)
		}
		if c.Column < 0 || c.Column >= Columns {
			return fmt.Errorf("%w: card %q column %d out of range 0-%d", ErrInvalidBoard, c.Name, c.Column, Columns-1)
		}
		if !c.Row.Valid() {
			return fmt.Errorf("%w: card %q has invalid row %q", ErrInvalidBoard, c.Name, c.Row)
		}
		if !c.Type.Valid() {
			return fmt.Errorf("%w: card %q has unknown type %q", ErrInvalidBoard, c.Name, c.Type)
		}
		if c.Level < 1 || c.Level > MaxLevel {
			return fmt.Errorf("%w: card %q level %d out of range 1-%d", ErrInvalidBoard, c.Name, c.Level, MaxLevel)
		}
		if c.BaseAttack < 0 || c.BaseDefense < 0 || c.Speed < 0 || c.ManaCost < 0 {
			return fmt.Errorf("%w: card %q has negative stats", ErrInvalidBoard, c.Name)
		}
		if c.CurrentHP <= 0 {
			return fmt.Errorf("%w: card %q placed with no hit points", ErrInvalidBoard, c.Name)
		}
		if c.Ability != nil && !KnownEffect(c.Ability.Effect) {
			return fmt.Errorf("%w: card %q has unknown ability effect %q", ErrInvalidBoard, c.Name, c.Ability.Effect)
		}
		k := cell{owner: c.Owner, col: c.Column, row: c.Row}
		if other, ok := seen[k]; ok {
			return fmt.Errorf("%w: %q and %q share column %d %s row", ErrInvalidBoard, other, c.Name, c.Column, c.Row)
		}
		seen[k] = c.Name
	}
	return nil
}

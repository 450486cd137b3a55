package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ericogr/veilborn/internal/broadcast"
	"github.com/ericogr/veilborn/internal/constants"
	"github.com/ericogr/veilborn/internal/engine"
	"github.com/ericogr/veilborn/internal/game"
	"github.com/ericogr/veilborn/internal/logging"
	"github.com/ericogr/veilborn/internal/storage"
)

// PlacementRequest puts one owned card on a board cell.
type PlacementRequest struct {
	CardID uint   `json:"card_id"`
	Column int    `json:"col"`
	Row    string `json:"row"`
}

type cellKey struct {
	col int
	row string
}

// SubmitPlacements stores a player's hidden placements for the current
// round. An empty request is a valid pass. When the second player submits
// the round resolves immediately and its record is returned.
func (s *Service) SubmitPlacements(ctx context.Context, publicID, playerID string, reqs []PlacementRequest) (*game.Match, *game.RoundRecord, error) {
	m, err := s.getMatch(publicID)
	if err != nil {
		return nil, nil, err
	}
	if m.Status != game.StatusInProgress {
		return nil, nil, ErrMatchNotInProgress
	}
	if m.Phase != game.PhasePlacement {
		return nil, nil, ErrPlacementsLocked
	}
	seat := m.Player(playerID)
	if seat == nil {
		return nil, nil, ErrPlayerNotInMatch
	}
	if seat.HasSubmitted {
		return nil, nil, ErrAlreadySubmitted
	}
	if len(reqs) > engine.Columns*2 {
		return nil, nil, fmt.Errorf("%w: at most %d cards per round", ErrInvalidPlacement, engine.Columns*2)
	}

	placements, cost, err := s.checkPlacements(m, playerID, reqs)
	if err != nil {
		return nil, nil, err
	}
	spentFrom := seat.Mana
	surge, ok := seat.Spend(cost)
	if !ok {
		return nil, nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientMana, cost, seat.Mana)
	}
	seat.HasSubmitted = true
	err = s.repo.SavePlacements(storage.Submission{
		Seat:       seat,
		Round:      m.CurrentRound,
		SpentFrom:  spentFrom,
		Placements: placements,
	})
	switch {
	case errors.Is(err, storage.ErrSeatChanged):
		return nil, nil, ErrAlreadySubmitted
	case errors.Is(err, storage.ErrRoundClosed):
		return nil, nil, ErrPlacementsLocked
	case err != nil:
		return nil, nil, err
	}

	logging.Info("placements submitted", logging.Fields{
		constants.LogFieldMatchID:  m.PublicID,
		constants.LogFieldRound:    m.CurrentRound,
		constants.LogFieldPlayerID: playerID,
		"cards":                    len(placements),
		"veil_surge":               surge,
	})
	s.publish(m, broadcast.Event{Type: broadcast.EventPlacementSubmitted, Round: m.CurrentRound, Data: map[string]string{
		"player_id": playerID,
	}})

	// Reload so a concurrent submission by the opponent is seen.
	fresh, err := s.getMatch(publicID)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range fresh.Players {
		if !p.HasSubmitted {
			return fresh, nil, nil
		}
	}

	rec, err := s.ResolveRound(ctx, fresh.PublicID, fresh.CurrentRound)
	if err != nil {
		return nil, nil, err
	}
	updated, err := s.getMatch(publicID)
	if err != nil {
		return nil, nil, err
	}
	return updated, rec, nil
}

// checkPlacements validates ownership, dormancy and board cells, and
// returns the rows to store plus the total mana cost.
func (s *Service) checkPlacements(m *game.Match, playerID string, reqs []PlacementRequest) ([]game.Placement, int, error) {
	if len(reqs) == 0 {
		return nil, 0, nil
	}
	ids := make([]uint, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.CardID)
	}
	owned, err := s.repo.GetOwnedCardsByIDs(ids)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[uint]game.OwnedCard, len(owned))
	for _, c := range owned {
		byID[c.ID] = c
	}

	now := s.now()
	cells := make(map[cellKey]bool, len(reqs))
	used := make(map[uint]bool, len(reqs))
	placements := make([]game.Placement, 0, len(reqs))
	cost := 0
	for _, r := range reqs {
		c, ok := byID[r.CardID]
		if !ok || c.PlayerID != playerID {
			return nil, 0, fmt.Errorf("%w: card %d", ErrCardNotOwned, r.CardID)
		}
		if c.DormantAt(now) {
			if c.DormantUntil != nil {
				return nil, 0, fmt.Errorf("%w: %s rests until %s", ErrCardDormant, c.Template.Name, c.DormantUntil.UTC().Format(time.RFC3339))
			}
			return nil, 0, fmt.Errorf("%w: %s", ErrCardDormant, c.Template.Name)
		}
		if r.Column < 0 || r.Column >= engine.Columns {
			return nil, 0, fmt.Errorf("%w: column %d out of range", ErrInvalidPlacement, r.Column)
		}
		if !engine.Row(r.Row).Valid() {
			return nil, 0, fmt.Errorf("%w: row %q", ErrInvalidPlacement, r.Row)
		}
		cell := cellKey{r.Column, r.Row}
		if cells[cell] {
			return nil, 0, fmt.Errorf("%w: cell %d/%s used twice", ErrInvalidPlacement, r.Column, r.Row)
		}
		if used[r.CardID] {
			return nil, 0, fmt.Errorf("%w: card %d placed twice", ErrInvalidPlacement, r.CardID)
		}
		cells[cell] = true
		used[r.CardID] = true
		cost += c.Template.ManaCost
		placements = append(placements, game.Placement{
			MatchID:     m.ID,
			RoundNumber: m.CurrentRound,
			PlayerID:    playerID,
			Column:      r.Column,
			Row:         r.Row,
			OwnedCardID: c.ID,
		})
	}
	return placements, cost, nil
}

// PlayerPlacements returns the caller's own placements for the current
// round. The opponent's stay hidden until the round resolves.
func (s *Service) PlayerPlacements(m *game.Match, playerID string) ([]game.Placement, error) {
	if m.Player(playerID) == nil || m.CurrentRound == 0 {
		return nil, nil
	}
	all, err := s.repo.GetPlacements(m.ID, m.CurrentRound)
	if err != nil {
		return nil, err
	}
	mine := make([]game.Placement, 0, len(all))
	for _, p := range all {
		if p.PlayerID == playerID {
			mine = append(mine, p)
		}
	}
	return mine, nil
}

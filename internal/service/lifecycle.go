package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ericogr/veilborn/internal/broadcast"
	"github.com/ericogr/veilborn/internal/constants"
	"github.com/ericogr/veilborn/internal/dedupe"
	"github.com/ericogr/veilborn/internal/game"
	"github.com/ericogr/veilborn/internal/logging"
	"github.com/google/uuid"
)

var (
	ErrDisplayNameTooLong = fmt.Errorf("display name exceeds %d characters", maxNameLength)
	ErrMatchNameTooLong   = fmt.Errorf("match name exceeds %d characters", maxNameLength)
	ErrNotParticipant     = errors.New("only match participants can do this")
)

// CreateMatch opens a match with playerID in seat 1 and makes sure the
// player owns a starter collection.
func (s *Service) CreateMatch(playerID, displayName, name string) (*game.Match, error) {
	displayName = strings.TrimSpace(displayName)
	name = strings.TrimSpace(name)
	if len(displayName) > maxNameLength {
		return nil, ErrDisplayNameTooLong
	}
	if len(name) > maxNameLength {
		return nil, ErrMatchNameTooLong
	}
	if displayName == "" {
		displayName = playerID
	}
	if err := s.registerPlayer(playerID, displayName); err != nil {
		return nil, err
	}

	m := &game.Match{
		PublicID: uuid.NewString(),
		Name:     name,
		Status:   game.StatusWaiting,
		Message:  "Waiting for an opponent to join.",
		Players: []game.MatchPlayer{{
			Seat:        1,
			PlayerID:    playerID,
			DisplayName: displayName,
			Mana:        game.StartingMana,
		}},
	}
	if err := s.repo.CreateMatch(m); err != nil {
		return nil, err
	}
	logging.Info("match created", logging.Fields{
		constants.LogFieldMatchID:  m.PublicID,
		constants.LogFieldPlayerID: playerID,
	})
	return m, nil
}

// JoinMatch seats playerID as the second player.
func (s *Service) JoinMatch(publicID, playerID, displayName string) (*game.Match, error) {
	displayName = strings.TrimSpace(displayName)
	if len(displayName) > maxNameLength {
		return nil, ErrDisplayNameTooLong
	}
	if displayName == "" {
		displayName = playerID
	}
	m, err := s.getMatch(publicID)
	if err != nil {
		return nil, err
	}
	if m.Status != game.StatusWaiting {
		return nil, ErrMatchAlreadyStarted
	}
	if m.Player(playerID) != nil {
		return nil, ErrAlreadyInMatch
	}
	if len(m.Players) >= 2 {
		return nil, ErrMatchFull
	}
	if err := s.registerPlayer(playerID, displayName); err != nil {
		return nil, err
	}

	m.Players = append(m.Players, game.MatchPlayer{
		MatchID:     m.ID,
		Seat:        2,
		PlayerID:    playerID,
		DisplayName: displayName,
		Mana:        game.StartingMana,
	})
	m.Message = "Both players are seated."
	if err := s.repo.UpdateMatch(m); err != nil {
		return nil, err
	}
	s.publish(m, broadcast.Event{Type: broadcast.EventPlayerJoined, Data: map[string]string{
		"player_id":    playerID,
		"display_name": displayName,
	}})
	return m, nil
}

// StartMatch opens round 1. Either seated player may start.
func (s *Service) StartMatch(publicID, playerID string) (*game.Match, error) {
	m, err := s.getMatch(publicID)
	if err != nil {
		return nil, err
	}
	if m.Player(playerID) == nil {
		return nil, ErrNotParticipant
	}
	if m.Status != game.StatusWaiting {
		return nil, ErrMatchAlreadyStarted
	}
	if len(m.Players) != 2 {
		return nil, ErrNotEnoughPlayers
	}

	m.Status = game.StatusInProgress
	m.CurrentRound = 1
	m.Phase = game.PhasePlacement
	m.Message = "Round 1: place your cards."
	for i := range m.Players {
		m.Players[i].Score = 0
		m.Players[i].Mana = game.StartingMana
		m.Players[i].VeilSurgeUsed = false
		m.Players[i].OpenRound()
	}
	m.PlacementDeadline = s.now().Add(s.placementTimeout)
	if err := s.repo.UpdateMatch(m); err != nil {
		return nil, err
	}
	logging.Info("match started", logging.Fields{constants.LogFieldMatchID: m.PublicID})
	s.publish(m, broadcast.Event{Type: broadcast.EventMatchStarted, Round: 1, Data: m})
	return m, nil
}

// EndMatch lets a participant leave. Resigning an in-progress match hands
// the win to the opponent; leaving before start simply closes it.
func (s *Service) EndMatch(publicID, playerID string) (*game.Match, error) {
	m, err := s.getMatch(publicID)
	if err != nil {
		return nil, err
	}
	if m.Player(playerID) == nil {
		return nil, ErrNotParticipant
	}
	switch m.Status {
	case game.StatusFinished:
		return nil, ErrMatchNotInProgress
	case game.StatusWaiting:
		m.Status = game.StatusFinished
		m.Phase = game.PhaseResolved
		m.Message = "Match closed before it started."
		if err := s.repo.UpdateMatch(m); err != nil {
			return nil, err
		}
		return m, nil
	}

	m.Status = game.StatusFinished
	m.Phase = game.PhaseResolved
	m.PlacementDeadline = time.Time{}
	if opp := m.Opponent(playerID); opp != nil {
		m.Winner = opp.PlayerID
		m.Message = fmt.Sprintf("%s resigned. %s wins the match.", m.DisplayName(playerID), m.DisplayName(opp.PlayerID))
	} else {
		m.Message = fmt.Sprintf("%s resigned.", m.DisplayName(playerID))
	}
	if err := s.repo.UpdateMatch(m); err != nil {
		return nil, err
	}
	if !m.StatsCounted {
		if err := s.repo.UpdateStatsOnMatchEnd(m, playerID); err != nil {
			logging.Error("failed to update stats on resignation", err, logging.Fields{constants.LogFieldMatchID: m.PublicID})
		} else {
			m.StatsCounted = true
			if err := s.repo.UpdateMatch(m); err != nil {
				logging.Error("failed to mark stats counted", err, logging.Fields{constants.LogFieldMatchID: m.PublicID})
			}
		}
	}
	s.publish(m, broadcast.Event{Type: broadcast.EventMatchFinished, Round: m.CurrentRound, Data: m})
	return m, nil
}

// registerPlayer records the profile and grants the starter collection
// once per player, even under concurrent requests.
func (s *Service) registerPlayer(playerID, displayName string) error {
	if err := s.repo.UpsertUser(playerID, displayName); err != nil {
		return err
	}
	v, err, _ := dedupe.StarterGroup.Do(playerID, func() (interface{}, error) {
		return s.repo.GrantStarterCards(playerID)
	})
	if err != nil {
		return err
	}
	if n, _ := v.(int); n > 0 {
		logging.Info("starter collection granted", logging.Fields{
			constants.LogFieldPlayerID: playerID,
			"cards":                    n,
		})
	}
	return nil
}

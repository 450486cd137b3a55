package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ericogr/veilborn/internal/broadcast"
	"github.com/ericogr/veilborn/internal/constants"
	"github.com/ericogr/veilborn/internal/dedupe"
	"github.com/ericogr/veilborn/internal/engine"
	"github.com/ericogr/veilborn/internal/game"
	"github.com/ericogr/veilborn/internal/keys"
	"github.com/ericogr/veilborn/internal/logging"
	"github.com/ericogr/veilborn/internal/narration"
	"github.com/ericogr/veilborn/internal/progression"
	"github.com/ericogr/veilborn/internal/storage"
	"gorm.io/gorm"
)

// ResolveRound resolves a round once both players have submitted. It is
// idempotent: concurrent callers share one resolution and later callers get
// the stored record.
func (s *Service) ResolveRound(ctx context.Context, publicID string, round int) (*game.RoundRecord, error) {
	v, err, _ := dedupe.RoundGroup.Do(keys.RoundKey(publicID, round), func() (interface{}, error) {
		return s.resolveOnce(ctx, publicID, round)
	})
	if err != nil {
		return nil, err
	}
	return v.(*game.RoundRecord), nil
}

func (s *Service) resolveOnce(ctx context.Context, publicID string, round int) (*game.RoundRecord, error) {
	start := time.Now()
	m, err := s.getMatch(publicID)
	if err != nil {
		return nil, err
	}
	rec, err := s.repo.GetRoundRecord(m.ID, round)
	if err == nil && rec != nil {
		return rec, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if m.Status != game.StatusInProgress {
		return nil, ErrMatchNotInProgress
	}
	if m.CurrentRound != round {
		return nil, fmt.Errorf("%w: round %d, current %d", ErrRoundMismatch, round, m.CurrentRound)
	}
	if len(m.Players) != 2 {
		return nil, ErrNotEnoughPlayers
	}
	for _, p := range m.Players {
		if !p.HasSubmitted {
			return nil, ErrIncompletePlacements
		}
	}

	seat1, seat2 := &m.Players[0], &m.Players[1]
	side1 := engine.Side{ID: seat1.PlayerID, Name: seat1.DisplayName}
	side2 := engine.Side{ID: seat2.PlayerID, Name: seat2.DisplayName}

	board, owned, err := s.loadBoard(m, round)
	if err != nil {
		return nil, err
	}
	if err := engine.ValidateBoard(board, side1.ID, side2.ID); err != nil {
		return nil, fmt.Errorf("resolve round %d: %w", round, err)
	}

	res := engine.Resolve(board, side1.ID, side2.ID, engine.IsFinalRound(round))
	out := engine.Evaluate(engine.EvaluateInput{
		Result:  res,
		Player1: side1,
		Player2: side2,
		Prior:   engine.Score{Player1: seat1.Score, Player2: seat2.Score},
		Round:   round,
	})

	payload := narration.BuildPayload(round, res, out, side1, side2)
	fb := narration.Fallback(payload)
	rec = &game.RoundRecord{
		MatchID:           m.ID,
		RoundNumber:       round,
		VeilCollapse:      res.VeilCollapse,
		FlankingPlayer:    res.FlankingPlayer,
		Events:            res.Events,
		Board:             res.Board,
		Player1Remaining:  out.Player1Remaining,
		Player2Remaining:  out.Player2Remaining,
		WinnerID:          out.RoundWinner,
		Points:            out.Points,
		Reason:            out.Reason,
		Narration:         fb.Narration,
		RoundTitle:        fb.RoundTitle,
		KeyMoment:         fb.KeyMoment,
		Tone:              fb.Tone,
		NarrationFallback: true,
		ImagePrompt:       narration.ImagePrompt(res),
	}

	loser := ""
	if out.RoundWinner != "" {
		loser = m.Opponent(out.RoundWinner).PlayerID
	}
	now := s.now()
	seat1.Score, seat2.Score = out.Score.Player1, out.Score.Player2
	s.advance(m, out, round, now)
	countStats := out.MatchOver && !m.StatsCounted
	if countStats {
		m.StatsCounted = true
	}

	err = s.repo.CommitRound(storage.RoundCommit{
		Match:      m,
		Record:     rec,
		Cards:      progress(owned, res, loser, now),
		CountStats: countStats,
	})
	if errors.Is(err, storage.ErrRoundAlreadyResolved) {
		return s.repo.GetRoundRecord(m.ID, round)
	}
	if err != nil {
		return nil, err
	}

	logging.Info("round resolved", logging.Fields{
		constants.LogFieldMatchID:  m.PublicID,
		constants.LogFieldRound:    round,
		constants.LogFieldWinner:   out.RoundWinner,
		constants.LogFieldEvents:   len(res.Events),
		constants.LogFieldDuration: time.Since(start).Milliseconds(),
	})
	s.publish(m, broadcast.Event{Type: broadcast.EventRoundResolved, Round: round, Data: rec})
	if out.MatchOver {
		s.publish(m, broadcast.Event{Type: broadcast.EventMatchFinished, Round: round, Data: m})
	}

	recordID, prompt := rec.ID, rec.ImagePrompt
	s.narrations.Add(1)
	go func() {
		defer s.narrations.Done()
		bg := context.WithoutCancel(ctx)
		s.narrate(bg, m, recordID, payload)
		s.illustrate(bg, m, recordID, round, prompt)
	}()
	return rec, nil
}

// loadBoard turns stored placements into combat cards. Instance ids are
// derived from owned card ids so progression can map results back.
func (s *Service) loadBoard(m *game.Match, round int) ([]engine.PlacedCard, map[string]game.OwnedCard, error) {
	ps, err := s.repo.GetPlacements(m.ID, round)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]uint, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.OwnedCardID)
	}
	var cards []game.OwnedCard
	if len(ids) > 0 {
		if cards, err = s.repo.GetOwnedCardsByIDs(ids); err != nil {
			return nil, nil, err
		}
	}
	byID := make(map[uint]game.OwnedCard, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}

	board := make([]engine.PlacedCard, 0, len(ps))
	owned := make(map[string]game.OwnedCard, len(ps))
	for _, p := range ps {
		c, ok := byID[p.OwnedCardID]
		if !ok || c.PlayerID != p.PlayerID {
			return nil, nil, fmt.Errorf("%w: card %d is missing", ErrIncompletePlacements, p.OwnedCardID)
		}
		t := c.Template
		id := keys.InstanceKey(c.ID)
		owned[id] = c
		board = append(board, engine.NewPlacedCard(engine.PlacedCard{
			InstanceID:  id,
			Name:        t.Name,
			Owner:       p.PlayerID,
			Type:        t.Type,
			Level:       c.Level,
			BaseAttack:  t.BaseAttack,
			BaseDefense: t.BaseDefense,
			Speed:       t.Speed,
			ManaCost:    t.ManaCost,
			Ability:     t.Ability,
			Column:      p.Column,
			Row:         engine.Row(p.Row),
		}))
	}
	return board, owned, nil
}

// advance moves the match to the next round or finishes it.
func (s *Service) advance(m *game.Match, out engine.Outcome, round int, now time.Time) {
	if out.MatchOver {
		m.Status = game.StatusFinished
		m.Phase = game.PhaseResolved
		m.Winner = out.MatchWinner
		m.Draw = out.Draw
		m.PlacementDeadline = time.Time{}
		if out.Draw {
			m.Message = fmt.Sprintf("The match ends in a draw, %d to %d.", out.Score.Player1, out.Score.Player2)
		} else {
			m.Message = fmt.Sprintf("%s wins the match, %d to %d.", m.DisplayName(out.MatchWinner), out.Score.Player1, out.Score.Player2)
		}
		return
	}
	m.CurrentRound = round + 1
	m.Phase = game.PhasePlacement
	for i := range m.Players {
		m.Players[i].OpenRound()
	}
	m.PlacementDeadline = now.Add(s.placementTimeout)
	m.Message = fmt.Sprintf("Round %d: place your cards.", m.CurrentRound)
}

// progress applies experience and dormancy to every card that fought.
func progress(owned map[string]game.OwnedCard, res engine.Result, loser string, now time.Time) []game.OwnedCard {
	updated := make([]game.OwnedCard, 0, len(owned))
	for _, a := range progression.Awards(res, loser) {
		oc, ok := owned[a.InstanceID]
		if !ok {
			continue
		}
		pc := progression.Wake(progression.Card{
			Level:             oc.Level,
			XP:                oc.XP,
			ConsecutiveLosses: oc.ConsecutiveLosses,
			IsDormant:         oc.IsDormant,
			DormantUntil:      oc.DormantUntil,
		}, now)
		pc, ch := progression.Apply(pc, a, now)
		oc.Level, oc.XP, oc.ConsecutiveLosses = pc.Level, pc.XP, pc.ConsecutiveLosses
		oc.IsDormant, oc.DormantUntil = pc.IsDormant, pc.DormantUntil
		if ch.LevelsGained > 0 || ch.WentDormant {
			logging.Info("card progressed", logging.Fields{
				constants.LogFieldPlayerID: oc.PlayerID,
				constants.LogFieldName:     oc.Template.Name,
				"level":                    oc.Level,
				"dormant":                  oc.IsDormant,
			})
		}
		updated = append(updated, oc)
	}
	return updated
}

// narrate asks the narrator for prose after the round is committed. The
// stored fallback stays when narration fails.
func (s *Service) narrate(ctx context.Context, m *game.Match, recordID uint, p narration.Payload) {
	if s.narrator == nil {
		return
	}
	n := narration.Narrate(ctx, s.narrator, p, s.narrationTimeout)
	if n.Fallback {
		return
	}
	err := s.repo.UpdateRoundNarration(recordID, storage.NarrationUpdate{
		Narration:  n.Narration,
		RoundTitle: n.RoundTitle,
		KeyMoment:  n.KeyMoment,
		Tone:       n.Tone,
		Fallback:   false,
	})
	if err != nil {
		logging.Warn("failed to store narration", err, logging.Fields{
			constants.LogFieldMatchID: m.PublicID,
			constants.LogFieldRound:   p.Round,
		})
		return
	}
	s.publish(m, broadcast.Event{Type: broadcast.EventRoundNarrated, Round: p.Round, Data: n})
}

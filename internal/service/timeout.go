package service

import (
	"context"
	"time"

	"github.com/ericogr/veilborn/internal/broadcast"
	"github.com/ericogr/veilborn/internal/constants"
	"github.com/ericogr/veilborn/internal/game"
	"github.com/ericogr/veilborn/internal/logging"
	"golang.org/x/sync/errgroup"
)

// sweepConcurrency bounds how many timed-out matches are handled at once.
const sweepConcurrency = 4

// HandleTimedOutMatch applies timeout resolution for a single match.
// Behavior:
// - both players didn't submit -> finish match with no winner
// - exactly one player didn't submit -> submit an empty board for them,
// which resolves the round
func (s *Service) HandleTimedOutMatch(ctx context.Context, m *game.Match) error {
	if m.Status != game.StatusInProgress || m.Phase != game.PhasePlacement {
		return nil
	}

	var missing []game.MatchPlayer
	for _, p := range m.Players {
		if !p.HasSubmitted {
			missing = append(missing, p)
		}
	}

	switch {
	case len(m.Players) != 2 || len(missing) == 2:
		m.Status = game.StatusFinished
		m.Phase = game.PhaseResolved
		m.Winner = ""
		m.Message = "Match ended due to inactivity"
		m.StatsCounted = true
		m.PlacementDeadline = time.Time{}
		logging.Info("both players timed out; finishing match", logging.Fields{constants.LogFieldMatchID: m.PublicID})
		if err := s.repo.UpdateMatch(m); err != nil {
			return err
		}
		s.publish(m, broadcast.Event{Type: broadcast.EventMatchFinished, Round: m.CurrentRound, Data: m})
		return nil
	case len(missing) == 1:
		logging.Info("auto-submitting empty board for inactive player", logging.Fields{
			constants.LogFieldMatchID:  m.PublicID,
			constants.LogFieldPlayerID: missing[0].PlayerID,
		})
		_, _, err := s.SubmitPlacements(ctx, m.PublicID, missing[0].PlayerID, nil)
		return err
	default:
		// Both submitted but the round never resolved, e.g. after a crash.
		_, err := s.ResolveRound(ctx, m.PublicID, m.CurrentRound)
		return err
	}
}

// SweepTimeouts handles every match whose placement deadline has passed.
// Failures are logged per match and do not stop the sweep.
func (s *Service) SweepTimeouts(ctx context.Context) (int, error) {
	matches, err := s.repo.FindTimedOutMatches(s.now())
	if err != nil {
		return 0, err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for i := range matches {
		m := &matches[i]
		g.Go(func() error {
			if err := s.HandleTimedOutMatch(gctx, m); err != nil {
				logging.Error("failed to handle timed out match", err, logging.Fields{constants.LogFieldMatchID: m.PublicID})
			}
			return nil
		})
	}
	return len(matches), g.Wait()
}

// RunTimeoutScanner sweeps on every tick until ctx is done.
func (s *Service) RunTimeoutScanner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepTimeouts(ctx)
			if err != nil {
				logging.Error("timeout sweep failed", err, nil)
				continue
			}
			if n > 0 {
				logging.Info("timeout sweep handled matches", logging.Fields{"count": n})
			}
		}
	}
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ericogr/veilborn/internal/broadcast"
	"github.com/ericogr/veilborn/internal/constants"
	"github.com/ericogr/veilborn/internal/dedupe"
	"github.com/ericogr/veilborn/internal/game"
	"github.com/ericogr/veilborn/internal/imagegen"
	"github.com/ericogr/veilborn/internal/keys"
	"github.com/ericogr/veilborn/internal/logging"
	"github.com/ericogr/veilborn/internal/narration"
)

var (
	ErrArtworkNotFound = errors.New("artwork not found")
	ErrUnknownCard     = errors.New("unknown card")
)

// illustrate renders the round's key moment once the round is committed.
// A failure only costs the picture; the round record keeps an empty URL.
func (s *Service) illustrate(ctx context.Context, m *game.Match, recordID uint, round int, prompt string) {
	if s.images == nil || prompt == "" {
		return
	}
	fields := logging.Fields{
		constants.LogFieldMatchID: m.PublicID,
		constants.LogFieldRound:   round,
	}
	if _, err := s.renderArtwork(ctx, keys.RoundArtKey(m.PublicID, round), prompt); err != nil {
		logging.Warn("round illustration failed", err, fields)
		return
	}
	url := fmt.Sprintf(constants.RoundArtURLFormat, m.PublicID, round)
	if err := s.repo.UpdateRoundImage(recordID, url); err != nil {
		logging.Warn("failed to store round image url", err, fields)
		return
	}
	s.publish(m, broadcast.Event{
		Type:  broadcast.EventRoundIllustrated,
		Round: round,
		Data:  map[string]string{"image_url": url},
	})
}

// renderArtwork generates, shrinks and stores the artwork under key.
// Concurrent callers for one key share a single generation, which keeps
// running for the other waiters when ctx is cancelled.
func (s *Service) renderArtwork(ctx context.Context, key, prompt string) ([]byte, error) {
	ch := dedupe.ImageGroup.DoChan(key, func() (interface{}, error) {
		if a, err := s.repo.GetArtwork(key); err == nil && len(a.PNG) > 0 {
			return a.PNG, nil
		}
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.imageTimeout)
		defer cancel()

		raw, err := s.images.Generate(genCtx, prompt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", constants.ErrImageGenerationFailed, err)
		}
		png, err := imagegen.Thumbnail(raw, imagegen.ArtworkSize)
		if err != nil {
			return nil, err
		}
		if err := s.repo.SaveArtwork(&game.Artwork{Key: key, Prompt: prompt, PNG: png}); err != nil {
			return nil, err
		}
		logging.Info("artwork generated", logging.Fields{
			constants.LogFieldKey: key,
			"bytes":               len(png),
		})
		return png, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RoundArt returns the stored illustration of a resolved round.
func (s *Service) RoundArt(publicID string, round int) ([]byte, error) {
	a, err := s.repo.GetArtwork(keys.RoundArtKey(publicID, round))
	if err != nil || len(a.PNG) == 0 {
		return nil, ErrArtworkNotFound
	}
	return a.PNG, nil
}

// CardArt returns the portrait of a catalog card. The first request
// generates it when an image generator is configured.
func (s *Service) CardArt(ctx context.Context, templateKey string) ([]byte, error) {
	key := keys.CardArtKey(templateKey)
	if a, err := s.repo.GetArtwork(key); err == nil && len(a.PNG) > 0 {
		return a.PNG, nil
	}
	templates, err := s.repo.GetCardTemplates()
	if err != nil {
		return nil, err
	}
	var tpl *game.CardTemplate
	for i := range templates {
		if templates[i].Key == templateKey {
			tpl = &templates[i]
			break
		}
	}
	if tpl == nil {
		return nil, ErrUnknownCard
	}
	if s.images == nil {
		return nil, ErrArtworkNotFound
	}
	return s.renderArtwork(ctx, key, narration.CardArtPrompt(*tpl))
}

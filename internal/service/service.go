// Package service drives a match through its lifecycle: seating players,
// collecting hidden placements, resolving rounds and handling timeouts.
package service

import (
	"errors"
	"sync"
	"time"

	"github.com/ericogr/veilborn/internal/broadcast"
	"github.com/ericogr/veilborn/internal/constants"
	"github.com/ericogr/veilborn/internal/game"
	"github.com/ericogr/veilborn/internal/imagegen"
	"github.com/ericogr/veilborn/internal/logging"
	"github.com/ericogr/veilborn/internal/narration"
	"github.com/ericogr/veilborn/internal/storage"
)

var (
	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchNotInProgress   = errors.New("match is not in progress")
	ErrMatchAlreadyStarted  = errors.New("match already started")
	ErrMatchFull            = errors.New("match is full")
	ErrAlreadyInMatch       = errors.New("player already in match")
	ErrNotEnoughPlayers     = errors.New("match needs two players")
	ErrPlayerNotInMatch     = errors.New("player not in this match")
	ErrPlacementsLocked     = errors.New("placements are locked for this round")
	ErrAlreadySubmitted     = errors.New("placements already submitted this round")
	ErrInvalidPlacement     = errors.New("invalid placement")
	ErrInsufficientMana     = errors.New("insufficient mana")
	ErrCardDormant          = errors.New("card is dormant")
	ErrCardNotOwned         = errors.New("card not owned by player")
	ErrIncompletePlacements = errors.New("round placements are incomplete")
	ErrRoundMismatch        = errors.New("round is not the current round")
)

// Repo is the storage surface the service uses.
type Repo interface {
	GetOwnedCardsByIDs(ids []uint) ([]game.OwnedCard, error)
	GrantStarterCards(playerID string) (int, error)

	CreateMatch(m *game.Match) error
	GetMatchByPublicID(publicID string) (*game.Match, error)
	UpdateMatch(m *game.Match) error
	SavePlacements(s storage.Submission) error
	GetPlacements(matchID uint, round int) ([]game.Placement, error)

	GetRoundRecord(matchID uint, round int) (*game.RoundRecord, error)
	CommitRound(c storage.RoundCommit) error
	UpdateRoundNarration(recordID uint, n storage.NarrationUpdate) error
	UpdateRoundImage(recordID uint, url string) error

	GetCardTemplates() ([]game.CardTemplate, error)
	GetArtwork(key string) (*game.Artwork, error)
	SaveArtwork(a *game.Artwork) error

	UpsertUser(playerID, name string) error
	UpdateStatsOnMatchEnd(m *game.Match, resignedPlayerID string) error
	FindTimedOutMatches(now time.Time) ([]game.Match, error)
}

// Options configures a Service. Zero values fall back to defaults; a nil
// Images generator disables artwork.
type Options struct {
	Narrator         narration.Narrator
	Images           imagegen.Generator
	Publisher        broadcast.Publisher
	NarrationTimeout time.Duration
	ImageTimeout     time.Duration
	PlacementTimeout time.Duration
	Now              func() time.Time
}

type Service struct {
	repo             Repo
	narrator         narration.Narrator
	images           imagegen.Generator
	pub              broadcast.Publisher
	narrationTimeout time.Duration
	imageTimeout     time.Duration
	placementTimeout time.Duration
	now              func() time.Time

	// narrations tracks background narration and illustration so shutdown
	// and tests can wait for them.
	narrations sync.WaitGroup
}

const (
	defaultNarrationTimeout = 20 * time.Second
	defaultImageTimeout     = 90 * time.Second
	defaultPlacementTimeout = 2 * time.Minute
	maxNameLength           = 32
)

func New(repo Repo, opts Options) *Service {
	s := &Service{
		repo:             repo,
		narrator:         opts.Narrator,
		images:           opts.Images,
		pub:              opts.Publisher,
		narrationTimeout: opts.NarrationTimeout,
		imageTimeout:     opts.ImageTimeout,
		placementTimeout: opts.PlacementTimeout,
		now:              opts.Now,
	}
	if s.narrationTimeout <= 0 {
		s.narrationTimeout = defaultNarrationTimeout
	}
	if s.imageTimeout <= 0 {
		s.imageTimeout = defaultImageTimeout
	}
	if s.placementTimeout <= 0 {
		s.placementTimeout = defaultPlacementTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Wait blocks until background narration and illustration have finished.
func (s *Service) Wait() { s.narrations.Wait() }

func (s *Service) publish(m *game.Match, ev broadcast.Event) {
	if s.pub == nil {
		return
	}
	logging.Debug("publishing match event", logging.Fields{
		constants.LogFieldMatchID: m.PublicID,
		constants.LogFieldRound:   ev.Round,
		"type":                    ev.Type,
	})
	s.pub.Publish(m.PublicID, ev)
}

func (s *Service) getMatch(publicID string) (*game.Match, error) {
	m, err := s.repo.GetMatchByPublicID(publicID)
	if err != nil || m == nil {
		return nil, ErrMatchNotFound
	}
	return m, nil
}

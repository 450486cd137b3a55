package storage

import (
	"errors"
	"time"

	"github.com/ericogr/veilborn/internal/game"
)

var (
	ErrRoundAlreadyResolved = errors.New("round already resolved")
	ErrCardNotFound         = errors.New("card not found")
	// ErrSeatChanged means the seat was submitted or its mana moved after
	// the caller read it.
	ErrSeatChanged = errors.New("seat changed since it was read")
	// ErrRoundClosed means the match left the placement phase of the
	// submitted round.
	ErrRoundClosed = errors.New("round no longer accepts placements")
)

// Submission is one player's hidden placements for a round and the seat
// state after paying for them. It is stored only while the seat still has
// SpentFrom mana and has not submitted.
type Submission struct {
	Seat       *game.MatchPlayer
	Round      int
	SpentFrom  int
	Placements []game.Placement
}

// RoundCommit is everything written when a round resolves. It is applied
// in a single transaction.
type RoundCommit struct {
	Match  *game.Match
	Record *game.RoundRecord
	// Cards holds owned cards with updated progression.
	Cards []game.OwnedCard
	// CountStats is set when the match finished with this round.
	CountStats bool
}

// NarrationUpdate carries the descriptive fields written after commit.
type NarrationUpdate struct {
	Narration  string
	RoundTitle string
	KeyMoment  string
	Tone       string
	Fallback   bool
}

type Repository interface {
	GetCardTemplates() ([]game.CardTemplate, error)
	GetOwnedCards(playerID string) ([]game.OwnedCard, error)
	GetOwnedCardsByIDs(ids []uint) ([]game.OwnedCard, error)
	// GrantStarterCards gives the player one copy of every catalog card
	// when they own nothing yet. It returns the number of cards granted.
	GrantStarterCards(playerID string) (int, error)

	CreateMatch(m *game.Match) error
	GetMatchByPublicID(publicID string) (*game.Match, error)
	UpdateMatch(m *game.Match) error
	// SavePlacements stores a player's hidden placements and the updated
	// seat (mana, submission flag) together. It returns ErrSeatChanged or
	// ErrRoundClosed when a concurrent write got there first.
	SavePlacements(s Submission) error
	GetPlacements(matchID uint, round int) ([]game.Placement, error)

	GetRoundRecord(matchID uint, round int) (*game.RoundRecord, error)
	ListRoundRecords(matchID uint) ([]game.RoundRecord, error)
	// CommitRound returns ErrRoundAlreadyResolved when a record for the
	// same (match, round) exists.
	CommitRound(c RoundCommit) error
	UpdateRoundNarration(recordID uint, n NarrationUpdate) error
	UpdateRoundImage(recordID uint, url string) error

	// GetArtwork returns gorm.ErrRecordNotFound when nothing is stored
	// under key.
	GetArtwork(key string) (*game.Artwork, error)
	// SaveArtwork inserts or replaces the artwork stored under a.Key.
	SaveArtwork(a *game.Artwork) error

	UpsertUser(playerID, name string) error
	UpdateStatsOnMatchEnd(m *game.Match, resignedPlayerID string) error
	GetTopPlayers(limit int) ([]game.User, error)

	// FindTimedOutMatches returns matches that are in progress, in the
	// placement phase and whose deadline is at or before now.
	FindTimedOutMatches(now time.Time) ([]game.Match, error)
}

package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"time"

	"github.com/ericogr/veilborn/internal/broadcast"
	"github.com/ericogr/veilborn/internal/engine"
	"github.com/ericogr/veilborn/internal/game"
	"github.com/ericogr/veilborn/internal/narration"
	"github.com/ericogr/veilborn/internal/storage"
	"gorm.io/gorm"
)

type roundKey struct {
	match uint
	round int
}

// fakeRepo keeps everything in memory and hands out copies, so the
// service sees the same persistence semantics it gets from sqlite.
type fakeRepo struct {
	mu         sync.Mutex
	nextID     uint
	cards      map[uint]game.OwnedCard
	matches    map[string]*game.Match
	placements []game.Placement
	records    map[roundKey]*game.RoundRecord
	templates  []game.CardTemplate
	artworks   map[string]game.Artwork
	grants     map[string]int
	commits    int
	statsCalls int
	resigned   []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		nextID:   100,
		cards:    map[uint]game.OwnedCard{},
		matches:  map[string]*game.Match{},
		records:  map[roundKey]*game.RoundRecord{},
		artworks: map[string]game.Artwork{},
		grants:   map[string]int{},
	}
}

func cloneMatch(m *game.Match) *game.Match {
	c := *m
	c.Players = append([]game.MatchPlayer(nil), m.Players...)
	return &c
}

func (r *fakeRepo) addCard(id uint, playerID string, t game.CardTemplate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := game.OwnedCard{PlayerID: playerID, TemplateKey: t.Key, Level: 1, Template: t}
	c.ID = id
	r.cards[id] = c
}

func (r *fakeRepo) card(id uint) game.OwnedCard {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cards[id]
}

func (r *fakeRepo) match(publicID string) *game.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneMatch(r.matches[publicID])
}

func (r *fakeRepo) record(matchID uint, round int) *game.RoundRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[roundKey{matchID, round}]
	if !ok {
		return nil
	}
	c := *rec
	return &c
}

func (r *fakeRepo) GetOwnedCardsByIDs(ids []uint) ([]game.OwnedCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []game.OwnedCard
	for _, id := range ids {
		if c, ok := r.cards[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeRepo) GrantStarterCards(playerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grants[playerID]++
	return 0, nil
}

func (r *fakeRepo) CreateMatch(m *game.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = r.nextID
	for i := range m.Players {
		m.Players[i].MatchID = m.ID
	}
	r.matches[m.PublicID] = cloneMatch(m)
	return nil
}

func (r *fakeRepo) GetMatchByPublicID(publicID string) (*game.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[publicID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneMatch(m), nil
}

func (r *fakeRepo) UpdateMatch(m *game.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[m.PublicID] = cloneMatch(m)
	return nil
}

func (r *fakeRepo) SavePlacements(sub storage.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.matches {
		if m.ID != sub.Seat.MatchID {
			continue
		}
		if m.CurrentRound != sub.Round || m.Phase != game.PhasePlacement {
			return storage.ErrRoundClosed
		}
		for i := range m.Players {
			p := &m.Players[i]
			if p.PlayerID != sub.Seat.PlayerID {
				continue
			}
			if p.HasSubmitted || p.Mana != sub.SpentFrom {
				return storage.ErrSeatChanged
			}
			p.HasSubmitted = true
			p.Mana = sub.Seat.Mana
			p.VeilSurgeUsed = sub.Seat.VeilSurgeUsed
			r.placements = append(r.placements, sub.Placements...)
			return nil
		}
	}
	return errors.New("seat not found")
}

func (r *fakeRepo) GetPlacements(matchID uint, round int) ([]game.Placement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []game.Placement
	for _, p := range r.placements {
		if p.MatchID == matchID && p.RoundNumber == round {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetRoundRecord(matchID uint, round int) (*game.RoundRecord, error) {
	if rec := r.record(matchID, round); rec != nil {
		return rec, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) CommitRound(c storage.RoundCommit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := roundKey{c.Record.MatchID, c.Record.RoundNumber}
	if _, ok := r.records[k]; ok {
		return storage.ErrRoundAlreadyResolved
	}
	r.nextID++
	c.Record.ID = r.nextID
	rec := *c.Record
	r.records[k] = &rec
	r.matches[c.Match.PublicID] = cloneMatch(c.Match)
	for _, card := range c.Cards {
		r.cards[card.ID] = card
	}
	if c.CountStats {
		r.statsCalls++
	}
	r.commits++
	return nil
}

func (r *fakeRepo) UpdateRoundNarration(recordID uint, n storage.NarrationUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == recordID {
			rec.Narration = n.Narration
			rec.RoundTitle = n.RoundTitle
			rec.KeyMoment = n.KeyMoment
			rec.Tone = n.Tone
			rec.NarrationFallback = n.Fallback
			return nil
		}
	}
	return errors.New("record not found")
}

func (r *fakeRepo) UpdateRoundImage(recordID uint, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == recordID {
			rec.ImageURL = url
			return nil
		}
	}
	return errors.New("record not found")
}

func (r *fakeRepo) GetCardTemplates() ([]game.CardTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]game.CardTemplate(nil), r.templates...), nil
}

func (r *fakeRepo) GetArtwork(key string) (*game.Artwork, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.artworks[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r *fakeRepo) SaveArtwork(a *game.Artwork) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artworks[a.Key] = *a
	return nil
}

func (r *fakeRepo) UpsertUser(playerID, name string) error { return nil }

func (r *fakeRepo) UpdateStatsOnMatchEnd(m *game.Match, resignedPlayerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statsCalls++
	r.resigned = append(r.resigned, resignedPlayerID)
	return nil
}

func (r *fakeRepo) FindTimedOutMatches(now time.Time) ([]game.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []game.Match
	for _, m := range r.matches {
		if m.Status == game.StatusInProgress && m.Phase == game.PhasePlacement &&
			!m.PlacementDeadline.IsZero() && !m.PlacementDeadline.After(now) {
			out = append(out, *cloneMatch(m))
		}
	}
	return out, nil
}

type stubNarrator struct {
	n   narration.Narration
	err error
}

func (s stubNarrator) Narrate(ctx context.Context, p narration.Payload) (narration.Narration, error) {
	return s.n, s.err
}

// stubImages returns a solid PNG of the given size and counts calls.
type stubImages struct {
	mu    sync.Mutex
	size  int
	err   error
	calls int
}

func (g *stubImages) Generate(ctx context.Context, prompt string) ([]byte, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	img := image.NewNRGBA(image.Rect(0, 0, g.size, g.size))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *stubImages) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(matchID string, ev broadcast.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev.Type)
}

func (p *recordingPublisher) has(typ string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e == typ {
			return true
		}
	}
	return false
}

func template(key string, atk, def, spd, cost int) game.CardTemplate {
	return game.CardTemplate{
		Key:         key,
		Name:        key,
		Type:        engine.Specter,
		BaseAttack:  atk,
		BaseDefense: def,
		Speed:       spd,
		ManaCost:    cost,
	}
}

package storage

import (
	"errors"
	"time"

	"github.com/ericogr/veilborn/internal/game"
	"github.com/ericogr/veilborn/internal/progression"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sqliteRepository struct {
	db *gorm.DB
	// catalog holds config card definitions in config order.
	catalog []game.CardTemplate
	// templateByKey maps card key -> config definition (stats).
	templateByKey map[string]game.CardTemplate
}

func NewSQLiteRepository(db *gorm.DB, configCards []game.CardTemplate) Repository {
	m := make(map[string]game.CardTemplate, len(configCards))
	for _, c := range configCards {
		m[c.Key] = c
	}
	return &sqliteRepository{db: db, catalog: configCards, templateByKey: m}
}

// withTemplate overrides stats from config (config is source of truth).
func (r *sqliteRepository) withTemplate(c *game.OwnedCard) {
	if conf, ok := r.templateByKey[c.TemplateKey]; ok {
		c.Template = conf
	}
}

func (r *sqliteRepository) GetCardTemplates() ([]game.CardTemplate, error) {
	var rows []game.CardTemplate
	if err := r.db.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]game.CardTemplate, 0, len(rows))
	for _, row := range rows {
		conf, ok := r.templateByKey[row.Key]
		if !ok {
			// Retired from config: not playable anymore.
			continue
		}
		conf.Model = row.Model
		out = append(out, conf)
	}
	return out, nil
}

func (r *sqliteRepository) GetOwnedCards(playerID string) ([]game.OwnedCard, error) {
	var cards []game.OwnedCard
	if err := r.db.Where("player_id = ?", playerID).Order("id").Find(&cards).Error; err != nil {
		return nil, err
	}
	for i := range cards {
		r.withTemplate(&cards[i])
	}
	return cards, nil
}

func (r *sqliteRepository) GetOwnedCardsByIDs(ids []uint) ([]game.OwnedCard, error) {
	var cards []game.OwnedCard
	if len(ids) == 0 {
		return cards, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&cards).Error; err != nil {
		return nil, err
	}
	for i := range cards {
		r.withTemplate(&cards[i])
	}
	return cards, nil
}

func (r *sqliteRepository) GrantStarterCards(playerID string) (int, error) {
	granted := 0
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&game.OwnedCard{}).Where("player_id = ?", playerID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		cards := make([]game.OwnedCard, 0, len(r.catalog))
		for _, c := range r.catalog {
			cards = append(cards, game.OwnedCard{PlayerID: playerID, TemplateKey: c.Key, Level: 1})
		}
		if len(cards) == 0 {
			return nil
		}
		if err := tx.Create(&cards).Error; err != nil {
			return err
		}
		granted = len(cards)
		return nil
	})
	return granted, err
}

func (r *sqliteRepository) CreateMatch(m *game.Match) error {
	return r.db.Create(m).Error
}

func (r *sqliteRepository) GetMatchByPublicID(publicID string) (*game.Match, error) {
	var m game.Match
	err := r.db.Preload("Players", func(db *gorm.DB) *gorm.DB { return db.Order("seat") }).
		Where("public_id = ?", publicID).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *sqliteRepository) UpdateMatch(m *game.Match) error {
	return r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(m).Error
}

func (r *sqliteRepository) SavePlacements(s Submission) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&game.Match{}).
			Where("id = ? AND current_round = ? AND phase = ?", s.Seat.MatchID, s.Round, game.PhasePlacement).
			Count(&open).Error; err != nil {
			return err
		}
		if open == 0 {
			return ErrRoundClosed
		}

		res := tx.Model(&game.MatchPlayer{}).
			Where("id = ? AND has_submitted = ? AND mana = ?", s.Seat.ID, false, s.SpentFrom).
			Updates(map[string]interface{}{
				"has_submitted":   true,
				"mana":            s.Seat.Mana,
				"veil_surge_used": s.Seat.VeilSurgeUsed,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrSeatChanged
		}

		if len(s.Placements) > 0 {
			if err := tx.Create(&s.Placements).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *sqliteRepository) GetPlacements(matchID uint, round int) ([]game.Placement, error) {
	var ps []game.Placement
	err := r.db.Where("match_id = ? AND round_number = ?", matchID, round).Order("id").Find(&ps).Error
	return ps, err
}

func (r *sqliteRepository) GetRoundRecord(matchID uint, round int) (*game.RoundRecord, error) {
	var rec game.RoundRecord
	if err := r.db.Where("match_id = ? AND round_number = ?", matchID, round).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *sqliteRepository) ListRoundRecords(matchID uint) ([]game.RoundRecord, error) {
	var recs []game.RoundRecord
	err := r.db.Where("match_id = ?", matchID).Order("round_number").Find(&recs).Error
	return recs, err
}

func (r *sqliteRepository) CommitRound(c RoundCommit) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	var count int64
	if err := tx.Model(&game.RoundRecord{}).
		Where("match_id = ? AND round_number = ?", c.Record.MatchID, c.Record.RoundNumber).
		Count(&count).Error; err != nil {
		tx.Rollback()
		return err
	}
	if count > 0 {
		tx.Rollback()
		return ErrRoundAlreadyResolved
	}
	if err := tx.Create(c.Record).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrRoundAlreadyResolved
		}
		return err
	}

	if err := tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(c.Match).Error; err != nil {
		tx.Rollback()
		return err
	}

	for _, card := range c.Cards {
		err := tx.Model(&game.OwnedCard{}).Where("id = ?", card.ID).Updates(map[string]interface{}{
			"level":              card.Level,
			"xp":                 card.XP,
			"consecutive_losses": card.ConsecutiveLosses,
			"is_dormant":         card.IsDormant,
			"dormant_until":      card.DormantUntil,
		}).Error
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	if c.CountStats {
		if err := updateStats(tx, c.Match, ""); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit().Error
}

func (r *sqliteRepository) UpdateRoundNarration(recordID uint, n NarrationUpdate) error {
	return r.db.Model(&game.RoundRecord{}).Where("id = ?", recordID).Updates(map[string]interface{}{
		"narration":          n.Narration,
		"round_title":        n.RoundTitle,
		"key_moment":         n.KeyMoment,
		"tone":               n.Tone,
		"narration_fallback": n.Fallback,
	}).Error
}

func (r *sqliteRepository) UpdateRoundImage(recordID uint, url string) error {
	return r.db.Model(&game.RoundRecord{}).Where("id = ?", recordID).Update("image_url", url).Error
}

func (r *sqliteRepository) GetArtwork(key string) (*game.Artwork, error) {
	var a game.Artwork
	if err := r.db.Where(&game.Artwork{Key: key}).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *sqliteRepository) SaveArtwork(a *game.Artwork) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"prompt", "png", "updated_at"}),
	}).Create(a).Error
}

// findUser loads a profile or returns a fresh one with the initial rating.
// Limit+Find keeps gorm from logging "record not found" for new players.
func findUser(db *gorm.DB, playerID string) (game.User, error) {
	var u game.User
	res := db.Where("player_id = ?", playerID).Limit(1).Find(&u)
	if res.Error != nil {
		return u, res.Error
	}
	if res.RowsAffected == 0 {
		u = game.User{PlayerID: playerID, EloRating: progression.InitialRating}
	}
	return u, nil
}

func (r *sqliteRepository) UpsertUser(playerID, name string) error {
	u, err := findUser(r.db, playerID)
	if err != nil {
		return err
	}
	if name != "" {
		u.DisplayName = name
	}
	return r.db.Save(&u).Error
}

func (r *sqliteRepository) UpdateStatsOnMatchEnd(m *game.Match, resignedPlayerID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return updateStats(tx, m, resignedPlayerID)
	})
}

// updateStats counts a finished match for both players and moves their
// ratings: a win scores 1, a draw 0.5. Matches closed without a result
// leave ratings alone.
func updateStats(db *gorm.DB, m *game.Match, resignedPlayerID string) error {
	if len(m.Players) != 2 {
		return nil
	}
	users := make([]game.User, 2)
	for i, p := range m.Players {
		u, err := findUser(db, p.PlayerID)
		if err != nil {
			return err
		}
		users[i] = u
	}

	deltas := [2]int{}
	switch {
	case m.Winner != "":
		score := 0.0
		if m.Winner == m.Players[0].PlayerID {
			score = 1
		}
		deltas[0], deltas[1] = progression.RatingDeltas(users[0].EloRating, users[1].EloRating, score)
	case m.Draw:
		deltas[0], deltas[1] = progression.RatingDeltas(users[0].EloRating, users[1].EloRating, 0.5)
	}

	for i := range m.Players {
		p := &m.Players[i]
		u := &users[i]
		u.DisplayName = p.DisplayName
		u.MatchesPlayed++
		if m.Winner == p.PlayerID {
			u.Wins++
		}
		if m.Draw {
			u.Draws++
		}
		if resignedPlayerID == p.PlayerID {
			u.Resignations++
		}
		before := u.EloRating
		u.EloRating = progression.ApplyRating(u.EloRating, deltas[i])
		p.RatingDelta = u.EloRating - before
		if err := db.Save(u).Error; err != nil {
			return err
		}
		if p.ID != 0 {
			if err := db.Model(&game.MatchPlayer{}).Where("id = ?", p.ID).Update("rating_delta", p.RatingDelta).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// GetTopPlayers returns top N players ordered by rating, then wins.
func (r *sqliteRepository) GetTopPlayers(limit int) ([]game.User, error) {
	if limit <= 0 {
		limit = 10
	}
	var users []game.User
	if err := r.db.Model(&game.User{}).
		Order("elo_rating DESC").
		Order("wins DESC").
		Order("matches_played DESC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *sqliteRepository) FindTimedOutMatches(now time.Time) ([]game.Match, error) {
	var matches []game.Match
	err := r.db.Preload("Players", func(db *gorm.DB) *gorm.DB { return db.Order("seat") }).
		Where("status = ? AND phase = ? AND placement_deadline <= ? AND placement_deadline > ?",
			game.StatusInProgress, game.PhasePlacement, now, time.Time{}).
		Find(&matches).Error
	return matches, err
}

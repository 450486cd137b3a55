package storage

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ericogr/veilborn/internal/game"
	"github.com/ericogr/veilborn/internal/logging"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenAndMigrate opens the sqlite database, migrates the schema and seeds
// the card catalog from config.
func OpenAndMigrate(dataSourceName string, cardsFromConfig []game.CardTemplate) (*gorm.DB, error) {
	if dir := filepath.Dir(dataSourceName); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	// Lookups of rounds and players that do not exist yet are normal.
	gormLogger := logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger,
	})
	if err != nil {
		return nil, err
	}
	// sqlite has a single writer; one connection turns concurrent
	// transactions into a queue instead of SQLITE_BUSY errors.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&game.CardTemplate{}, &game.OwnedCard{}, &game.User{}, &game.Match{}, &game.MatchPlayer{}, &game.Placement{}, &game.RoundRecord{}, &game.Artwork{})
	if err != nil {
		return nil, err
	}

	// The round record index is what makes resolution at-most-once across
	// processes; make sure it exists even on databases migrated before the
	// tag was added.
	if execErr := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_round_once ON round_records(match_id, round_number);").Error; execErr != nil {
		return nil, execErr
	}
	if err := seedCardTemplates(db, cardsFromConfig); err != nil {
		return nil, err
	}
	return db, nil
}

// seedCardTemplates inserts catalog cards missing from the database. Stats
// are not persisted (config stays the source of truth), only key and name.
func seedCardTemplates(db *gorm.DB, cardsFromConfig []game.CardTemplate) error {
	for _, c := range cardsFromConfig {
		var count int64
		if err := db.Model(&game.CardTemplate{}).Where("key = ?", c.Key).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&game.CardTemplate{Key: c.Key, Name: c.Name}).Error; err != nil {
			return err
		}
		logging.Info("card template seeded", logging.Fields{"key": c.Key, "name": c.Name})
	}
	return nil
}

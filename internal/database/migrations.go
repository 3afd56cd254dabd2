package database

import (
	"errors"
	"time"

	"github.com/dyllong/gearbook/internal/gear"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationRecomputeGearscore = "2026-05-20_recompute_gearscore"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

// applyMigrations runs each named migration exactly once, recording it
// in the db_migrations ledger. Startup repair work lives here instead
// of behind ad-hoc process-wide flags.
func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationRecomputeGearscore, apply: recomputeGearscores},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// recomputeGearscores repairs rows whose stored gearscore drifted from
// the AP/AAP/DP columns. Earlier builds trusted the caller-supplied
// score; the score is derived now and must match its inputs.
func recomputeGearscores(db *gorm.DB) error {
	var profiles []gear.Profile
	if err := db.Find(&profiles).Error; err != nil {
		return err
	}

	for _, profile := range profiles {
		expected := gear.Score(profile.AP, profile.AAP, profile.DP)
		if profile.Gearscore == expected {
			continue
		}
		err := db.Model(&gear.Profile{}).
			Where("user_id = ?", profile.UserID).
			Update("gearscore", expected).Error
		if err != nil {
			return err
		}
	}
	return nil
}

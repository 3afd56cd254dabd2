package gear

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound indicates that no profile exists for the requested user.
// It is a normal empty result, not a storage failure.
var ErrNotFound = errors.New("gear: profile not found")

// Store is the persistence contract for gear profiles. Upsert replaces
// the full record for its user id atomically; a concurrent reader sees
// either the fully-old or fully-new record, never a mix. GetAll
// reflects every upsert committed before the call started.
type Store interface {
	Upsert(ctx context.Context, profile Profile) error
	Get(ctx context.Context, userID int64) (Profile, error)
	GetAll(ctx context.Context) (map[int64]Profile, error)
}

// GormStore persists profiles in a relational table via GORM. SQLite
// connections are opened with a single connection slot (see
// database.OpenSQLite), which serializes all access behind the driver.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs a GormStore over an open database handle.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("gear: database handle is required")
	}
	return &GormStore{db: db}, nil
}

// Upsert inserts the profile or, when the user id already exists,
// updates every non-key column from the incoming record.
func (s *GormStore) Upsert(ctx context.Context, profile Profile) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(&profile).Error
	if err != nil {
		return fmt.Errorf("gear: upsert user %d: %w", profile.UserID, err)
	}
	return nil
}

// Get returns the profile stored for userID, or ErrNotFound.
func (s *GormStore) Get(ctx context.Context, userID int64) (Profile, error) {
	var profile Profile
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Profile{}, fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("gear: load user %d: %w", userID, err)
	}
	return profile, nil
}

// GetAll returns every stored profile keyed by user id. An empty store
// yields an empty map, not an error.
func (s *GormStore) GetAll(ctx context.Context) (map[int64]Profile, error) {
	var profiles []Profile
	if err := s.db.WithContext(ctx).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("gear: load all profiles: %w", err)
	}

	byUser := make(map[int64]Profile, len(profiles))
	for _, profile := range profiles {
		byUser[profile.UserID] = profile
	}
	return byUser, nil
}

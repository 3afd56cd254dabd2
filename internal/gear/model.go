package gear

import (
	"errors"
	"fmt"
	"strings"
)

const maxNameLength = 190

var (
	// ErrInvalidUserID indicates that a user identifier is not a positive integer.
	ErrInvalidUserID = errors.New("gear: invalid user id")
	// ErrInvalidState indicates that a state value is neither Awakening nor Succession.
	ErrInvalidState = errors.New("gear: invalid state")
	// ErrMissingClass indicates that a profile was submitted without a class.
	ErrMissingClass = errors.New("gear: class is required")
	// ErrNameTooLong indicates that a display name exceeds storage bounds.
	ErrNameTooLong = errors.New("gear: name exceeds storage bounds")
)

// State enumerates the two supported build states.
type State string

const (
	// StateAwakening is the canonical stored form of the awakening build state.
	StateAwakening State = "Awakening"
	// StateSuccession is the canonical stored form of the succession build state.
	StateSuccession State = "Succession"
)

// ParseState normalizes raw input to a canonical State. Matching is
// case-insensitive; any other value is rejected with ErrInvalidState.
func ParseState(rawInput string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(rawInput)) {
	case "awakening":
		return StateAwakening, nil
	case "succession":
		return StateSuccession, nil
	default:
		return "", fmt.Errorf("%w: %q (expected Awakening or Succession)", ErrInvalidState, rawInput)
	}
}

// String returns the canonical stored form.
func (s State) String() string {
	return string(s)
}

// NewUserID validates a caller-supplied user identifier.
func NewUserID(value int64) (int64, error) {
	if value <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidUserID, value)
	}
	return value, nil
}

// Profile models one member's persisted gear record. Gearscore is
// derived from AP/AAP/DP before every write and is never caller-supplied.
type Profile struct {
	UserID           int64   `gorm:"column:user_id;primaryKey;autoIncrement:false;not null"`
	FamilyName       string  `gorm:"column:familyname;size:190"`
	Class            string  `gorm:"column:class;size:190;not null"`
	State            string  `gorm:"column:state;size:32;not null"`
	AP               int     `gorm:"column:ap;not null"`
	AAP              int     `gorm:"column:aap;not null"`
	DP               int     `gorm:"column:dp;not null"`
	Gearscore        float64 `gorm:"column:gearscore;not null;index:idx_gear_gearscore"`
	ProofPath        string  `gorm:"column:proof;size:512"`
	UpdatedAtSeconds int64   `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Profile) TableName() string {
	return "gear_profiles"
}

// SetInput carries a full-replace profile submission. Omitted optional
// fields (family name, proof path) clear any previously stored value.
type SetInput struct {
	FamilyName string
	Class      string
	State      string
	AP         int
	AAP        int
	DP         int
	ProofPath  string
}

// UpdateInput carries a partial-merge submission. Only non-nil fields
// overwrite the stored record; nil fields retain their prior value.
type UpdateInput struct {
	FamilyName *string
	Class      *string
	State      *string
	AP         *int
	AAP        *int
	DP         *int
	ProofPath  *string
}

// IsValidationError reports whether err stems from rejected caller
// input rather than a storage failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrMissingClass) ||
		errors.Is(err, ErrNameTooLong)
}

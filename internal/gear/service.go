package gear

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	errMissingStore     = errors.New("store is required")
	errMissingBlobStore = errors.New("blob store is required")
	noOpLogger          = zap.NewNop()
)

// ServiceError carries an operation-scoped failure code alongside its cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew  = "gear.service.new"
	opSetGear     = "gear.set"
	opUpdateGear  = "gear.update"
	opGetGear     = "gear.get"
	opLeaderboard = "gear.leaderboard"
	opAttachProof = "gear.attach_proof"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// BlobStore persists proof attachments and returns the path written.
type BlobStore interface {
	Save(ctx context.Context, userID int64, data io.Reader, name string) (string, error)
}

// ServiceConfig describes the dependencies of the gear service.
type ServiceConfig struct {
	Store  Store
	Blobs  BlobStore
	Clock  func() time.Time
	Logger *zap.Logger
}

// Service orchestrates validation, gearscore derivation and persistence
// for gear profiles. Every operation is atomic per call: it either
// fully succeeds or leaves prior state untouched.
type Service struct {
	store  Store
	blobs  BlobStore
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the gear service. Blobs may be nil when proof
// attachments are not served.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, newServiceError(opServiceNew, "missing_store", errMissingStore)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		store:  cfg.Store,
		blobs:  cfg.Blobs,
		clock:  clock,
		logger: logger,
	}, nil
}

// SetGear writes a full profile for userID, replacing any previous
// record. The gearscore is derived immediately before persistence.
func (s *Service) SetGear(ctx context.Context, userID int64, input SetInput) (Profile, error) {
	validatedID, err := NewUserID(userID)
	if err != nil {
		return Profile{}, err
	}

	class := strings.TrimSpace(input.Class)
	if class == "" {
		return Profile{}, ErrMissingClass
	}
	if len(class) > maxNameLength {
		return Profile{}, fmt.Errorf("%w: class", ErrNameTooLong)
	}

	familyName := strings.TrimSpace(input.FamilyName)
	if len(familyName) > maxNameLength {
		return Profile{}, fmt.Errorf("%w: familyname", ErrNameTooLong)
	}

	state, err := ParseState(input.State)
	if err != nil {
		return Profile{}, err
	}

	profile := Profile{
		UserID:           validatedID,
		FamilyName:       familyName,
		Class:            class,
		State:            state.String(),
		AP:               input.AP,
		AAP:              input.AAP,
		DP:               input.DP,
		Gearscore:        Score(input.AP, input.AAP, input.DP),
		ProofPath:        input.ProofPath,
		UpdatedAtSeconds: s.clock().UTC().Unix(),
	}

	if err := s.store.Upsert(ctx, profile); err != nil {
		s.logError(opSetGear, "upsert_failed", err, zap.Int64("user_id", validatedID))
		return Profile{}, newServiceError(opSetGear, "upsert_failed", err)
	}
	return profile, nil
}

// UpdateGear merges the supplied fields into the stored profile for
// userID and recomputes the gearscore before persisting. Fields left
// nil retain their prior value. Returns ErrNotFound when no profile
// exists yet.
func (s *Service) UpdateGear(ctx context.Context, userID int64, input UpdateInput) (Profile, error) {
	validatedID, err := NewUserID(userID)
	if err != nil {
		return Profile{}, err
	}

	// Validate before touching the store so a rejected request is
	// never partially applied.
	var state *State
	if input.State != nil {
		parsed, err := ParseState(*input.State)
		if err != nil {
			return Profile{}, err
		}
		state = &parsed
	}
	if input.Class != nil {
		trimmed := strings.TrimSpace(*input.Class)
		if trimmed == "" {
			return Profile{}, ErrMissingClass
		}
		if len(trimmed) > maxNameLength {
			return Profile{}, fmt.Errorf("%w: class", ErrNameTooLong)
		}
	}
	if input.FamilyName != nil && len(strings.TrimSpace(*input.FamilyName)) > maxNameLength {
		return Profile{}, fmt.Errorf("%w: familyname", ErrNameTooLong)
	}

	profile, err := s.store.Get(ctx, validatedID)
	if errors.Is(err, ErrNotFound) {
		return Profile{}, err
	}
	if err != nil {
		s.logError(opUpdateGear, "load_failed", err, zap.Int64("user_id", validatedID))
		return Profile{}, newServiceError(opUpdateGear, "load_failed", err)
	}

	if input.FamilyName != nil {
		profile.FamilyName = strings.TrimSpace(*input.FamilyName)
	}
	if input.Class != nil {
		profile.Class = strings.TrimSpace(*input.Class)
	}
	if state != nil {
		profile.State = state.String()
	}
	if input.AP != nil {
		profile.AP = *input.AP
	}
	if input.AAP != nil {
		profile.AAP = *input.AAP
	}
	if input.DP != nil {
		profile.DP = *input.DP
	}
	if input.ProofPath != nil {
		profile.ProofPath = *input.ProofPath
	}

	profile.Gearscore = Score(profile.AP, profile.AAP, profile.DP)
	profile.UpdatedAtSeconds = s.clock().UTC().Unix()

	if err := s.store.Upsert(ctx, profile); err != nil {
		s.logError(opUpdateGear, "upsert_failed", err, zap.Int64("user_id", validatedID))
		return Profile{}, newServiceError(opUpdateGear, "upsert_failed", err)
	}
	return profile, nil
}

// GetGear returns the stored profile for userID, or ErrNotFound.
func (s *Service) GetGear(ctx context.Context, userID int64) (Profile, error) {
	validatedID, err := NewUserID(userID)
	if err != nil {
		return Profile{}, err
	}

	profile, err := s.store.Get(ctx, validatedID)
	if errors.Is(err, ErrNotFound) {
		return Profile{}, err
	}
	if err != nil {
		s.logError(opGetGear, "load_failed", err, zap.Int64("user_id", validatedID))
		return Profile{}, newServiceError(opGetGear, "load_failed", err)
	}
	return profile, nil
}

// Leaderboard ranks a snapshot of every stored profile by gearscore
// descending. An empty store yields an empty (non-nil) slice.
func (s *Service) Leaderboard(ctx context.Context) ([]Entry, error) {
	profiles, err := s.store.GetAll(ctx)
	if err != nil {
		s.logError(opLeaderboard, "load_failed", err)
		return nil, newServiceError(opLeaderboard, "load_failed", err)
	}
	return Rank(profiles), nil
}

// AttachProof stores the proof bytes for an existing profile and
// records the resulting path on the record. The blob write happens
// before the store mutation and never while any store lock is held.
func (s *Service) AttachProof(ctx context.Context, userID int64, data io.Reader, name string) (Profile, error) {
	validatedID, err := NewUserID(userID)
	if err != nil {
		return Profile{}, err
	}
	if s.blobs == nil {
		return Profile{}, newServiceError(opAttachProof, "missing_blob_store", errMissingBlobStore)
	}

	profile, err := s.store.Get(ctx, validatedID)
	if errors.Is(err, ErrNotFound) {
		return Profile{}, err
	}
	if err != nil {
		s.logError(opAttachProof, "load_failed", err, zap.Int64("user_id", validatedID))
		return Profile{}, newServiceError(opAttachProof, "load_failed", err)
	}

	path, err := s.blobs.Save(ctx, validatedID, data, name)
	if err != nil {
		s.logError(opAttachProof, "blob_save_failed", err, zap.Int64("user_id", validatedID))
		return Profile{}, newServiceError(opAttachProof, "blob_save_failed", err)
	}

	profile.ProofPath = path
	profile.UpdatedAtSeconds = s.clock().UTC().Unix()

	if err := s.store.Upsert(ctx, profile); err != nil {
		s.logError(opAttachProof, "upsert_failed", err, zap.Int64("user_id", validatedID))
		return Profile{}, newServiceError(opAttachProof, "upsert_failed", err)
	}
	return profile, nil
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("gear service error", attrs...)
}

// Package proofs stores optional proof attachments (screenshots)
// separately from the gear records that reference them.
package proofs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const fallbackFileName = "proof"

// BlobStore is the contract for persisting proof attachments. Save
// returns the path the bytes were written to; repeated saves for the
// same user and name overwrite rather than accumulate.
type BlobStore interface {
	Save(ctx context.Context, userID int64, data io.Reader, name string) (string, error)
}

// DiskStore writes proof blobs to a local directory. The target path
// is derived deterministically from the user id and the suggested
// file name. No size or content-type validation is performed.
type DiskStore struct {
	dir    string
	logger *zap.Logger
}

// NewDiskStore constructs a DiskStore rooted at dir, creating the
// directory if needed.
func NewDiskStore(dir string, logger *zap.Logger) (*DiskStore, error) {
	if dir == "" {
		return nil, errors.New("proofs: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("proofs: create directory %s: %w", dir, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiskStore{dir: dir, logger: logger}, nil
}

// Save streams data to <dir>/<userID>_<name> and returns that path.
func (s *DiskStore) Save(ctx context.Context, userID int64, data io.Reader, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%d_%s", userID, sanitizeName(name)))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("proofs: create %s: %w", path, err)
	}

	written, err := io.Copy(file, data)
	if err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("proofs: write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("proofs: close %s: %w", path, err)
	}

	s.logger.Debug("proof stored",
		zap.Int64("user_id", userID),
		zap.String("path", path),
		zap.Int64("bytes", written))
	return path, nil
}

// sanitizeName reduces a caller-suggested file name to a bare base
// name so the blob can never escape the proofs directory.
func sanitizeName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return fallbackFileName
	}
	return base
}

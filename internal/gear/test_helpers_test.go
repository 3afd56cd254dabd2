package gear

import (
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newSQLiteStore(t *testing.T) *GormStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gear_test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&Profile{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	store, err := NewGormStore(db)
	if err != nil {
		t.Fatalf("failed to build store: %v", err)
	}
	return store
}

func newDocumentStoreAt(t *testing.T, path string) *DocumentStore {
	t.Helper()
	store, err := NewDocumentStore(path)
	if err != nil {
		t.Fatalf("failed to build document store: %v", err)
	}
	return store
}

func newTestService(t *testing.T, store Store, blobs BlobStore) *Service {
	t.Helper()
	service, err := NewService(ServiceConfig{
		Store: store,
		Blobs: blobs,
		Clock: func() time.Time { return time.Unix(1750000000, 0) },
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return service
}

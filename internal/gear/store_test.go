package gear

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func sampleProfile(userID int64) Profile {
	return Profile{
		UserID:           userID,
		FamilyName:       fmt.Sprintf("family-%d", userID),
		Class:            "Witch",
		State:            StateAwakening.String(),
		AP:               200,
		AAP:              150,
		DP:               300,
		Gearscore:        Score(200, 150, 300),
		UpdatedAtSeconds: 1750000000,
	}
}

func TestGormStoreRoundTrip(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	written := sampleProfile(1)
	if err := store.Upsert(ctx, written); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	loaded, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if loaded != written {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", loaded, written)
	}
}

func TestGormStoreUpsertReplacesEveryColumn(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	first := sampleProfile(1)
	first.ProofPath = "proofs/1_old.png"
	if err := store.Upsert(ctx, first); err != nil {
		t.Fatalf("initial upsert failed: %v", err)
	}

	replacement := Profile{
		UserID:           1,
		Class:            "Warrior",
		State:            StateSuccession.String(),
		AP:               100,
		AAP:              90,
		DP:               120,
		Gearscore:        Score(100, 90, 120),
		UpdatedAtSeconds: 1750000100,
	}
	if err := store.Upsert(ctx, replacement); err != nil {
		t.Fatalf("replacement upsert failed: %v", err)
	}

	loaded, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if loaded != replacement {
		t.Fatalf("expected full replacement:\n got %+v\nwant %+v", loaded, replacement)
	}
	if loaded.ProofPath != "" {
		t.Fatalf("expected proof path cleared by full replace, got %q", loaded.ProofPath)
	}
}

func TestGormStoreGetNotFound(t *testing.T) {
	store := newSQLiteStore(t)

	_, err := store.Get(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGormStoreGetAllEmpty(t *testing.T) {
	store := newSQLiteStore(t)

	all, err := store.GetAll(context.Background())
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty map, got %d entries", len(all))
	}
}

func TestGormStoreConcurrentDistinctUpserts(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			errs[index] = store.Upsert(ctx, sampleProfile(int64(index+1)))
		}(i)
	}
	wg.Wait()

	for index, err := range errs {
		if err != nil {
			t.Fatalf("worker %d upsert failed: %v", index, err)
		}
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}
	if len(all) != workers {
		t.Fatalf("expected %d records, got %d", workers, len(all))
	}
	for i := 1; i <= workers; i++ {
		if _, ok := all[int64(i)]; !ok {
			t.Fatalf("user %d missing from scan", i)
		}
	}
}

func TestGormStoreConcurrentSameKeyUpserts(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	const writers = 8
	candidates := make([]Profile, writers)
	for i := range candidates {
		profile := sampleProfile(1)
		profile.AP = 100 + i
		profile.AAP = 100 + i
		profile.DP = 100 + i
		profile.Gearscore = Score(profile.AP, profile.AAP, profile.DP)
		candidates[i] = profile
	}

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			if err := store.Upsert(ctx, candidates[index]); err != nil {
				t.Errorf("writer %d failed: %v", index, err)
			}
		}(i)
	}
	wg.Wait()

	loaded, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	// The final record must equal exactly one of the submitted inputs,
	// never a field-level mix.
	matched := false
	for _, candidate := range candidates {
		if loaded == candidate {
			matched = true
			break
		}
	}
	if !matched {
		t.Fatalf("stored record matches no submitted input: %+v", loaded)
	}
}

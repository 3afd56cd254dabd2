package gear

import "testing"

func TestRankOrdersByGearscoreDescending(t *testing.T) {
	profiles := map[int64]Profile{
		1: {UserID: 1, FamilyName: "Alatar", Gearscore: 300},
		2: {UserID: 2, FamilyName: "Beren", Gearscore: 500},
		3: {UserID: 3, FamilyName: "Celeb", Gearscore: 500},
	}

	entries := Rank(profiles)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	if entries[0].Profile.Gearscore != 500 || entries[1].Profile.Gearscore != 500 {
		t.Fatalf("expected the two 500 scores adjacent at the top, got %v then %v",
			entries[0].Profile.Gearscore, entries[1].Profile.Gearscore)
	}
	if entries[2].Profile.UserID != 1 {
		t.Fatalf("expected the 300 score last, got user %d", entries[2].Profile.UserID)
	}
}

func TestRankBreaksTiesByUserIDAscending(t *testing.T) {
	profiles := map[int64]Profile{
		9: {UserID: 9, Gearscore: 500},
		2: {UserID: 2, Gearscore: 500},
		5: {UserID: 5, Gearscore: 500},
	}

	entries := Rank(profiles)
	expectedOrder := []int64{2, 5, 9}
	for i, expected := range expectedOrder {
		if entries[i].Profile.UserID != expected {
			t.Fatalf("position %d: expected user %d, got %d", i+1, expected, entries[i].Profile.UserID)
		}
	}
}

func TestRankAssignsPositions(t *testing.T) {
	profiles := map[int64]Profile{
		1: {UserID: 1, Gearscore: 100},
		2: {UserID: 2, Gearscore: 200},
	}

	entries := Rank(profiles)
	if entries[0].Position != 1 || entries[1].Position != 2 {
		t.Fatalf("unexpected positions: %d, %d", entries[0].Position, entries[1].Position)
	}
}

func TestRankEmptySnapshot(t *testing.T) {
	entries := Rank(map[int64]Profile{})
	if entries == nil {
		t.Fatalf("expected empty slice, got nil")
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}

func TestPlaceLabels(t *testing.T) {
	tests := []struct {
		position int
		expected string
	}{
		{1, "1st"},
		{2, "2nd"},
		{3, "3rd"},
		{4, "4th"},
		{11, "11th"},
		{12, "12th"},
		{13, "13th"},
		{21, "21st"},
		{102, "102nd"},
		{111, "111th"},
	}

	for _, tc := range tests {
		entry := Entry{Position: tc.position}
		if got := entry.Place(); got != tc.expected {
			t.Fatalf("Place(%d) = %q, expected %q", tc.position, got, tc.expected)
		}
	}
}

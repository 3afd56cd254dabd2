package gear

import (
	"fmt"
	"sort"
)

// Entry is one leaderboard row: a profile with its 1-based position.
type Entry struct {
	Position int
	Profile  Profile
}

// Place renders the positional label for an entry (1st, 2nd, 3rd, 4th, ...).
// The label is purely presentational and carries no tie-breaking meaning.
func (e Entry) Place() string {
	return ordinal(e.Position)
}

func ordinal(position int) string {
	suffix := "th"
	if position%100 < 11 || position%100 > 13 {
		switch position % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", position, suffix)
}

// Rank orders a snapshot of profiles by gearscore descending. Equal
// gearscores are broken by user id ascending so the ordering is
// deterministic regardless of map iteration order. Rank holds no state
// between calls and can be recomputed from any store snapshot.
func Rank(profiles map[int64]Profile) []Entry {
	entries := make([]Entry, 0, len(profiles))
	for _, profile := range profiles {
		entries = append(entries, Entry{Profile: profile})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Profile.Gearscore != entries[j].Profile.Gearscore {
			return entries[i].Profile.Gearscore > entries[j].Profile.Gearscore
		}
		return entries[i].Profile.UserID < entries[j].Profile.UserID
	})

	for i := range entries {
		entries[i].Position = i + 1
	}
	return entries
}

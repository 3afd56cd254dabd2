package gear

import "math"

// Score derives the gearscore for the supplied attack, awakening attack
// and defense power values: (ap + aap) / 2 + dp, rounded to two decimal
// places. Rounding is half-to-even so that exact tie boundaries do not
// reorder the leaderboard depending on sign or magnitude.
func Score(ap, aap, dp int) float64 {
	raw := float64(ap+aap)/2 + float64(dp)
	return roundTwoPlaces(raw)
}

func roundTwoPlaces(value float64) float64 {
	return math.RoundToEven(value*100) / 100
}

package progression

import "math"

// Player rating (Elo).
const (
	InitialRating = 1000
	MinRating     = 100
	RatingKFactor = 32
)

// RatingDeltas returns the rating change for a and b after a match in
// which a scored scoreA (1 win, 0.5 draw, 0 loss).
func RatingDeltas(a, b int, scoreA float64) (int, int) {
	expectedA := 1 / (1 + math.Pow(10, float64(b-a)/400))
	deltaA := math.RoundToEven(RatingKFactor * (scoreA - expectedA))
	deltaB := math.RoundToEven(RatingKFactor * ((1 - scoreA) - (1 - expectedA)))
	return int(deltaA), int(deltaB)
}

// ApplyRating adds delta to rating without going below MinRating.
func ApplyRating(rating, delta int) int {
	return max(MinRating, rating+delta)
}

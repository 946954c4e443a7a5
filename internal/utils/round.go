package utils

import "math"

// RoundHalfUp1 rounds to one decimal place, with halves rounded up.
func RoundHalfUp1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

// Percent returns round(100*part/total) as an integer, 0 when total is 0.
func Percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Floor(100*float64(part)/float64(total) + 0.5))
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

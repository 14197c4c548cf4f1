package common

import (
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// AllFinite reports whether no value in data is NaN or infinite
func AllFinite(data []float64) bool {
	for _, v := range data {
		if !isFinite(v) {
			return false
		}
	}
	return true
}

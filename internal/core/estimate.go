package core

import "math"

// Row estimation drives the cooperative yield cadence of streaming reads.
// Estimates are advisory and never size storage.
const (
	// AvgBytesPerRow is the empirically tuned average size of a data row.
	AvgBytesPerRow = 34

	// EstimateMargin pads the estimate so streams yield a little too often
	// rather than too rarely.
	EstimateMargin = 1.03
)

// EstimateRows guesses the number of data rows in a file of size bytes with
// the given column count. It returns 0 when either input is non-positive.
func EstimateRows(size int64, columns int) int {
	if size <= 0 || columns <= 0 {
		return 0
	}
	return int(math.Ceil(float64(size/AvgBytesPerRow) * EstimateMargin))
}

// YieldInterval returns how many rows a stream processes between yields.
// Larger files yield less often.
func YieldInterval(estimated int) int {
	switch {
	case estimated <= 10_000:
		return 50
	case estimated <= 100_000:
		return 200
	case estimated <= 1_000_000:
		return 500
	default:
		return 1000
	}
}

// ShouldYield reports whether a stream should hand control back after row.
// row counts emitted data rows from 1; headers and blank lines are not
// counted.
func ShouldYield(row, estimated int) bool {
	return row > 0 && row%YieldInterval(estimated) == 0
}

// Package safeconv provides integer conversions that panic on overflow.
package safeconv

import "math"

// MustUint64ToInt64 converts a line count to a chart value, panicking on
// overflow. Use only when overflow is logically impossible.
func MustUint64ToInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		panic("safeconv: uint64 to int64 overflow")
	}

	return int64(v)
}

// Package series assembles per-commit counts into chart series and spreads
// bursts of commits evenly across their calendar month.
package series

import (
	"errors"
	"fmt"
	"slices"
)

// ErrLengthMismatch is returned when adding series of different lengths.
var ErrLengthMismatch = errors.New("series length mismatch")

// Series is one named line of a chart.
type Series struct {
	Name   string  `json:"name"`
	Values []int64 `json:"values"`
}

// New creates an empty series.
func New(name string) *Series {
	return &Series{Name: name}
}

// Push appends a value.
func (s *Series) Push(v int64) {
	s.Values = append(s.Values, v)
}

// Add sums other into s element-wise.
func (s *Series) Add(other *Series) error {
	if len(s.Values) != len(other.Values) {
		return fmt.Errorf("%w: %s has %d values, %s has %d",
			ErrLengthMismatch, s.Name, len(s.Values), other.Name, len(other.Values))
	}

	for i, v := range other.Values {
		s.Values[i] += v
	}

	return nil
}

// Reverse reverses the values in place.
func (s *Series) Reverse() {
	slices.Reverse(s.Values)
}

// Total sums all values.
func (s *Series) Total() int64 {
	var total int64

	for _, v := range s.Values {
		total += v
	}

	return total
}

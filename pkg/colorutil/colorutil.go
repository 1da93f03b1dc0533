// Package colorutil provides shared color utilities.
package colorutil

import (
	"encoding/json"
	"fmt"

	"gocv.io/x/gocv"
)

// HSV is a color triple in OpenCV convention: H 0-180, S 0-255, V 0-255.
type HSV [3]int

// Range is an inclusive HSV band, as used by gocv.InRangeWithScalar.
type Range struct {
	Lo HSV
	Hi HSV
}

// NewRange builds a Range from two triples.
func NewRange(lo, hi HSV) Range {
	return Range{Lo: lo, Hi: hi}
}

// Scalars returns the lower and upper bounds as gocv scalars.
func (r Range) Scalars() (gocv.Scalar, gocv.Scalar) {
	return gocv.NewScalar(float64(r.Lo[0]), float64(r.Lo[1]), float64(r.Lo[2]), 0),
		gocv.NewScalar(float64(r.Hi[0]), float64(r.Hi[1]), float64(r.Hi[2]), 0)
}

// Key returns a stable identifier used for memoizing masks.
func (r Range) Key() string {
	return fmt.Sprintf("%d.%d.%d-%d.%d.%d", r.Lo[0], r.Lo[1], r.Lo[2], r.Hi[0], r.Hi[1], r.Hi[2])
}

// MarshalJSON encodes the band as [[h,s,v],[h,s,v]].
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]HSV{r.Lo, r.Hi})
}

// UnmarshalJSON decodes a band from [[h,s,v],[h,s,v]].
func (r *Range) UnmarshalJSON(data []byte) error {
	var v [2]HSV
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("hsv range: %w", err)
	}
	r.Lo, r.Hi = v[0], v[1]
	return nil
}

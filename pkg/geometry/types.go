// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"encoding/json"
	"fmt"
	"image"
)

// ReferenceWidth and ReferenceHeight define the resolution every configured
// region is expressed in. Regions are scaled to the actual frame size.
const (
	ReferenceWidth  = 1920
	ReferenceHeight = 1080
)

// RectInt represents a rectangle with integer coordinates.
// Persisted as a JSON array [x, y, width, height].
type RectInt struct {
	X      int
	Y      int
	Width  int
	Height int
}

// R is shorthand for building a RectInt.
func R(x, y, w, h int) RectInt {
	return RectInt{X: x, Y: y, Width: w, Height: h}
}

// Empty reports whether the rectangle has no area.
func (r RectInt) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Scaled maps a reference-resolution rectangle onto a frame using per-axis
// scale factors, clamped to [0,maxW)x[0,maxH). The second return value is
// false when the clamped rectangle degenerates.
func (r RectInt) Scaled(sx, sy float64, maxW, maxH int) (image.Rectangle, bool) {
	x0 := max(0, int(float64(r.X)*sx))
	y0 := max(0, int(float64(r.Y)*sy))
	x1 := min(maxW, int(float64(r.X+r.Width)*sx))
	y1 := min(maxH, int(float64(r.Y+r.Height)*sy))
	if x1 <= x0 || y1 <= y0 {
		return image.Rectangle{}, false
	}
	return image.Rect(x0, y0, x1, y1), true
}

// String implements fmt.Stringer.
func (r RectInt) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", r.X, r.Y, r.Width, r.Height)
}

// MarshalJSON encodes the rectangle as [x, y, width, height].
func (r RectInt) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{r.X, r.Y, r.Width, r.Height})
}

// UnmarshalJSON decodes a rectangle from [x, y, width, height].
func (r *RectInt) UnmarshalJSON(data []byte) error {
	var v [4]int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("rect: %w", err)
	}
	*r = RectInt{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
	return nil
}

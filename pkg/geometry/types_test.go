package geometry

import (
	"encoding/json"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		r      RectInt
		sx, sy float64
		w, h   int
		want   image.Rectangle
		ok     bool
	}{
		{"half size", R(0, 0, 1920, 1080), 0.5, 0.5, 960, 540, image.Rect(0, 0, 960, 540), true},
		{"clamped", R(1900, 1000, 100, 100), 1, 1, 1920, 1080, image.Rect(1900, 1000, 1920, 1080), true},
		{"outside", R(2000, 0, 10, 10), 1, 1, 1920, 1080, image.Rectangle{}, false},
		{"zero frame", R(0, 0, 10, 10), 0, 0, 0, 0, image.Rectangle{}, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := tt.r.Scaled(tt.sx, tt.sy, tt.w, tt.h)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRectJSON(t *testing.T) {
	t.Parallel()

	r := R(140, 870, 170, 65)
	assert.Equal(t, "(140,870,170,65)", r.String())
	assert.False(t, r.Empty())
	assert.True(t, R(0, 0, 0, 5).Empty())

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, "[140,870,170,65]", string(data))

	var back RectInt
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back)
}

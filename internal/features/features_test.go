package features

import (
	"encoding/json"
	"testing"

	"shot-sorter/internal/config"
	"shot-sorter/internal/diag"
	"shot-sorter/internal/image"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// hsvFrame returns a uniform BGR frame whose HSV value is (h, s, v).
func hsvFrame(w, h int, hue, sat, val float64) gocv.Mat {
	px := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(hue, sat, val, 0), 1, 1, gocv.MatTypeCV8UC3)
	defer px.Close()
	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(px, &bgr, gocv.ColorHSVToBGR)
	c := bgr.GetVecbAt(0, 0)
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(c[0]), float64(c[1]), float64(c[2]), 0), h, w, gocv.MatTypeCV8UC3)
}

func TestExtractSandyFrame(t *testing.T) {
	t.Parallel()

	ctx := image.NewContext(hsvFrame(1920, 1080, 30, 150, 180))
	defer ctx.Close()

	tr := diag.NewTrace()
	v := Extract(ctx, config.Default(), tr)

	assert.InDelta(t, 1.0, v[SandyFloor], 1e-6)
	assert.InDelta(t, 0.0, v[ELSHFloor], 1e-6)
	assert.InDelta(t, 0.0, v[PaletoFloor], 1e-6)
	assert.InDelta(t, 30, v["floor_h"], 2)
	assert.InDelta(t, 150, v["floor_s"], 3)
	assert.InDelta(t, 0, v["floor_std_v"], 1)
	assert.Equal(t, 1920.0, v["img_w"])
	assert.Equal(t, 1080.0, v["img_h"])
	assert.Len(t, tr.Lines(), 3)
}

func TestExtractKeySet(t *testing.T) {
	t.Parallel()

	ctx := image.NewContext(hsvFrame(960, 540, 100, 30, 60))
	defer ctx.Close()

	v := Extract(ctx, config.Default(), nil)

	// 15 ratios, 12 windows of three channels, two dimensions.
	assert.Len(t, v, 15+12*3+2)
	assert.ElementsMatch(t, Keys(), v.Keys())
	for _, k := range []string{"wall_std_h", "corner_lr_v", "minimap_s", "center_h"} {
		assert.Contains(t, v, k)
	}
	for k, x := range v {
		if k == "img_w" || k == "img_h" {
			continue
		}
		assert.GreaterOrEqual(t, x, 0.0, k)
	}
}

func TestExtractEmptyFrame(t *testing.T) {
	t.Parallel()

	ctx := image.NewContext(gocv.NewMat())
	defer ctx.Close()

	v := Extract(ctx, config.Default(), nil)
	assert.Equal(t, 0.0, v[SandyFloor])
	assert.Equal(t, 0.0, v["floor_h"])
	assert.Equal(t, 0.0, v["img_w"])
}

func TestVectorLenientJSON(t *testing.T) {
	t.Parallel()

	var v Vector
	require.NoError(t, json.Unmarshal([]byte(`{"a": 1.5, "b": "text", "c": null, "d": 2, "e": [1]}`), &v))
	if diff := cmp.Diff(Vector{"a": 1.5, "d": 2}, v); diff != "" {
		t.Errorf("vector mismatch (-want +got):\n%s", diff)
	}

	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &v))
}

func TestVectorKeysAndClone(t *testing.T) {
	t.Parallel()

	v := Vector{"b": 2, "a": 1}
	assert.Equal(t, []string{"a", "b"}, v.Keys())

	c := v.Clone()
	c["a"] = 9
	assert.Equal(t, 1.0, v.Get("a"))
	assert.Equal(t, 0.0, v.Get("missing"))
}

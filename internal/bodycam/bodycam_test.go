package bodycam

import (
	goimage "image"
	"image/color"
	"testing"

	"shot-sorter/internal/config"
	"shot-sorter/internal/diag"
	"shot-sorter/internal/image"
	"shot-sorter/internal/ocr"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"
)

type fakeRecognizer struct {
	text  string
	calls int
}

func (f *fakeRecognizer) Recognize(img gocv.Mat, opts ocr.Options) (ocr.Reading, error) {
	f.calls++
	if f.text == "" {
		return ocr.Reading{}, nil
	}
	return ocr.Reading{Text: f.text, Confidence: 0.9}, nil
}

func (f *fakeRecognizer) Name() string { return "fake" }

func black(w, h int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), h, w, gocv.MatTypeCV8UC3)
}

func TestCheckBlankFrame(t *testing.T) {
	t.Parallel()

	rec := &fakeRecognizer{text: "12:34"}
	ctx := image.NewContext(black(1920, 1080))
	defer ctx.Close()

	det := New(config.Default(), rec).Check(ctx, nil)
	assert.False(t, det.Found)
	assert.Equal(t, StageNone, det.Stage)
	// A flat timer region is never read.
	assert.Equal(t, 0, rec.calls)
}

func TestCheckEmptyFrame(t *testing.T) {
	t.Parallel()

	ctx := image.NewContext(gocv.NewMat())
	defer ctx.Close()

	det := New(config.Default(), nil).Check(ctx, nil)
	assert.False(t, det.Found)
	assert.Equal(t, 0.0, det.Ratio)
}

func TestCheckRedIndicator(t *testing.T) {
	t.Parallel()

	img := black(1920, 1080)
	gocv.Circle(&img, goimage.Pt(40, 830), 20, color.RGBA{R: 220, A: 255}, -1)
	ctx := image.NewContext(img)
	defer ctx.Close()

	tr := diag.NewTrace()
	det := New(config.Default(), nil).Check(ctx, tr)
	assert.True(t, det.Found)
	assert.Equal(t, StageROI, det.Stage)
	assert.GreaterOrEqual(t, det.Ratio, 0.002)
	assert.NotEmpty(t, tr.Lines())
}

func TestCheckTimerFallback(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	newFrame := func() *image.Context {
		img := black(1920, 1080)
		// Half-white timer region gives the contrast the reader needs.
		gocv.Rectangle(&img, goimage.Rect(68, 836, 103, 855), color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)
		return image.NewContext(img)
	}

	t.Run("reads timer", func(t *testing.T) {
		t.Parallel()
		ctx := newFrame()
		defer ctx.Close()

		det := New(cfg, &fakeRecognizer{text: "01 : 23"}).Check(ctx, nil)
		assert.True(t, det.Found)
		assert.Equal(t, StageTimer, det.Stage)
		assert.Equal(t, 0.5, det.Ratio)
		assert.Equal(t, "01:23", det.Timer)
	})

	t.Run("zero timer rejected", func(t *testing.T) {
		t.Parallel()
		ctx := newFrame()
		defer ctx.Close()

		rec := &fakeRecognizer{text: "00:00"}
		det := New(cfg, rec).Check(ctx, nil)
		assert.False(t, det.Found)
		assert.Equal(t, 4, rec.calls)
	})
}

func TestParseTimer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12:34", "12:34", true},
		{" 1 2 . 3 4 ", "12.34", true},
		{"rec 0:05:17", "0:05:17", true},
		{"00:00", "", false},
		{"abc", "", false},
		{"7", "", false},
	}
	for _, tt := range tests {
		got, ok := parseTimer(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestPixelRules(t *testing.T) {
	t.Parallel()

	// BGR triples.
	px := []byte{
		0, 0, 200,     // strong red
		60, 60, 90,    // dim red
		200, 200, 200, // gray
		10, 10, 40,    // dark red
	}
	assert.Equal(t, 1, countStrictBGR(px, 100, 95, 1.3))
	assert.Equal(t, 2, countDimBGR(px, 80, 220, 90, 85, 1.2))
	assert.InDelta(t, 0.5, redDominance(px), 1e-9)
	assert.InDelta(t, 0.75, reddish(px), 1e-9)
	assert.Equal(t, 0.0, redDominance(nil))
}

func TestPrecheckSmallFramePasses(t *testing.T) {
	t.Parallel()

	ctx := image.NewContext(black(320, 180))
	defer ctx.Close()
	bc := config.Default().Bodycam
	assert.True(t, Precheck(ctx, &bc))

	big := image.NewContext(black(1920, 1080))
	defer big.Close()
	assert.False(t, Precheck(big, &bc))
	assert.False(t, big.Flag(PrecheckFlag, func() bool { return true }))
	assert.False(t, Precheck(big, &bc))
}

package ocr

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestCollect(t *testing.T) {
	t.Parallel()

	lines := []Line{
		{Text: "  Вылечил ", Confidence: 0.9, Height: 20},
		{Text: "x", Confidence: 0.9, Height: 20},      // too short
		{Text: "faint", Confidence: 0.05, Height: 20}, // low confidence
		{Text: "tiny", Confidence: 0.8, Height: 2},    // too short a box
		{Text: "NoBox", Confidence: 0.5},              // height unknown, kept
	}
	got := Collect(lines, Options{MinConfidence: 0.1, MinHeight: 3, MinLength: 2})
	assert.Equal(t, "вылечил nobox", got.Text)
	assert.InDelta(t, 0.7, got.Confidence, 1e-9)

	assert.True(t, Collect(nil, DefaultOptions()).Empty())
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Kind{"tesseract": KindTesseract, " EXEC ": KindExec, "none": KindNone} {
		got, err := ParseKind(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseKind("paddle")
	assert.Error(t, err)
	assert.Equal(t, "tesseract", KindTesseract.String())
}

func TestNoneEngine(t *testing.T) {
	t.Parallel()

	e := None()
	assert.False(t, e.Ready())
	img := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	defer img.Close()
	_, err := e.Recognize(img, DefaultOptions())
	assert.ErrorIs(t, err, ErrEngineUnavailable)
	assert.NoError(t, e.Close())
}

func TestOpenFallsBackToNone(t *testing.T) {
	t.Parallel()

	e := Open([]string{"bogus", "exec"}, EngineSettings{ExecCommand: ""})
	assert.Equal(t, KindNone, e.Kind())
}

func TestExecEngine(t *testing.T) {
	t.Parallel()

	e, err := NewExec("sh", "-c", `echo '{"text":"Hello World","confidence":0.9,"height":20}'; echo 'plain LINE'`)
	require.NoError(t, err)
	defer e.Close()

	img := gocv.NewMatWithSize(20, 40, gocv.MatTypeCV8UC3)
	defer img.Close()
	got, err := e.Recognize(img, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "hello world plain line", got.Text)
	assert.InDelta(t, 0.95, got.Confidence, 1e-9)

	_, err = NewExec("definitely-not-a-real-ocr-binary")
	assert.Error(t, err)
}

func TestParseExecOutputDigits(t *testing.T) {
	t.Parallel()

	lines := parseExecOutput([]byte("REC 01:23\n\n"), Options{Digits: true})
	require.Len(t, lines, 1)
	assert.Equal(t, " 01:23", lines[0].Text)
}

func TestBinaryPair(t *testing.T) {
	t.Parallel()

	gray := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(20, 0, 0, 0), 10, 30, gocv.MatTypeCV8U)
	defer gray.Close()
	pair := BinaryPair(gray, 4, true)
	defer CloseAll(pair)

	require.Len(t, pair, 2)
	for _, m := range pair {
		assert.Equal(t, 3, m.Channels())
		assert.Equal(t, 120, m.Cols())
		assert.Equal(t, 40, m.Rows())
	}
}

func TestDiskCache(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ocr_cache.json")
	c := NewDiskCache(path, 3, 2)
	c.Put("a", []string{"вылечил"}, "TAB")
	time.Sleep(2 * time.Millisecond)
	c.Put("b", nil, "")
	time.Sleep(2 * time.Millisecond)
	c.Put("c", []string{"вакцина"}, "VAC")
	assert.Equal(t, 3, c.Len())

	time.Sleep(2 * time.Millisecond)
	c.Put("d", []string{"реанимировал"}, "PMP")
	assert.Equal(t, 2, c.Len(), "two oldest pruned")
	_, ok := c.Get("a")
	assert.False(t, ok)

	require.NoError(t, c.Save())
	loaded, err := LoadDiskCache(path, 3, 2)
	require.NoError(t, err)
	e, ok := loaded.Get("d")
	require.True(t, ok)
	assert.Equal(t, "PMP", e.Category)
	assert.Equal(t, []string{"реанимировал"}, e.Texts)

	missing, err := LoadDiskCache(filepath.Join(t.TempDir(), "none.json"), 0, 0)
	require.NoError(t, err)
	assert.Zero(t, missing.Len())
}

package trigger

import (
	goimage "image"
	"image/color"
	"testing"

	"shot-sorter/internal/config"
	"shot-sorter/internal/diag"
	"shot-sorter/internal/image"
	"shot-sorter/internal/knowledge"
	"shot-sorter/internal/ocr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// scriptedRecognizer returns its replies in order, then repeats the last one.
type scriptedRecognizer struct {
	replies []string
	calls   int
}

func (s *scriptedRecognizer) Recognize(img gocv.Mat, opts ocr.Options) (ocr.Reading, error) {
	if len(s.replies) == 0 {
		return ocr.Reading{}, nil
	}
	i := min(s.calls, len(s.replies)-1)
	s.calls++
	return ocr.Reading{Text: s.replies[i], Confidence: 0.8}, nil
}

func (s *scriptedRecognizer) Name() string { return "scripted" }

type fixedPredictor knowledge.Prediction

func (p fixedPredictor) Predict([]string) knowledge.Prediction { return knowledge.Prediction(p) }

// chatFrame paints glyph-like blocks where the chat box usually is.
func chatFrame() *image.Context {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 40, 40, 0), 1080, 1920, gocv.MatTypeCV8UC3)
	white := color.RGBA{R: 235, G: 235, B: 235, A: 255}
	for row := 0; row < 6; row++ {
		y := 840 + row*30
		for x := 20; x < 640; x += 14 {
			gocv.Rectangle(&img, goimage.Rect(x, y, x+8, y+14), white, -1)
		}
	}
	return image.NewContext(img)
}

func TestFindFullFrame(t *testing.T) {
	t.Parallel()

	ctx := chatFrame()
	defer ctx.Close()

	rec := &scriptedRecognizer{replies: []string{"игрок вылечил пациента"}}
	f := New(config.Default(), rec, nil).Find(ctx, nil)
	assert.True(t, f.Found)
	assert.Equal(t, Tablets, f.Category)
	assert.Equal(t, "full-frame", f.Method)
	assert.Equal(t, []string{"игрок вылечил пациента"}, f.Texts)
	assert.Equal(t, 1, rec.calls)
}

func TestFindRegion(t *testing.T) {
	t.Parallel()

	ctx := chatFrame()
	defer ctx.Close()

	rec := &scriptedRecognizer{replies: []string{"", "Игрок   сделал ВАКЦИНУ"}}
	tr := diag.NewTrace()
	f := New(config.Default(), rec, nil).Find(ctx, tr)
	require.True(t, f.Found)
	assert.Equal(t, Vaccines, f.Category)
	assert.Equal(t, "translit", f.Method)
	assert.Equal(t, []string{"игрок сделал вакцину"}, f.Texts)
	assert.NotEmpty(t, tr.Lines())
}

func TestFindRejectVeto(t *testing.T) {
	t.Parallel()

	ctx := chatFrame()
	defer ctx.Close()

	rec := &scriptedRecognizer{replies: []string{"", "семейный транспорт вылечил"}}
	f := New(config.Default(), rec, nil).Find(ctx, nil)
	assert.False(t, f.Found)
	assert.Equal(t, []string{"семейный транспорт вылечил"}, f.Texts)
}

func TestFindLearnedFallback(t *testing.T) {
	t.Parallel()

	ctx := chatFrame()
	defer ctx.Close()

	cfg := config.Default()
	rec := &scriptedRecognizer{replies: []string{"", "нечто невнятное"}}

	f := New(cfg, rec, fixedPredictor{Code: "PMP", Confidence: 0.6}).Find(ctx, nil)
	assert.True(t, f.Found)
	assert.Equal(t, PMP, f.Category)
	assert.Equal(t, "learned", f.Method)

	rec = &scriptedRecognizer{replies: []string{"", "нечто невнятное"}}
	f = New(cfg, rec, fixedPredictor{Code: "PMP", Confidence: 0.4}).Find(ctx, nil)
	assert.False(t, f.Found)
	assert.Equal(t, []string{"нечто невнятное"}, f.Texts)
}

func TestFindNothingReadable(t *testing.T) {
	t.Parallel()

	ctx := chatFrame()
	defer ctx.Close()

	f := New(config.Default(), &scriptedRecognizer{}, nil).Find(ctx, nil)
	assert.Equal(t, Finding{}, f)

	blank := image.NewContext(gocv.NewMat())
	defer blank.Close()
	assert.Equal(t, Finding{}, New(config.Default(), &scriptedRecognizer{replies: []string{"вакцин"}}, nil).Find(blank, nil))
}

func TestReadChat(t *testing.T) {
	t.Parallel()

	ctx := chatFrame()
	defer ctx.Close()

	cfg := config.Default()
	assert.Equal(t, []string{"игрок сделал вакцину"}, New(cfg, &scriptedRecognizer{replies: []string{" игрок сделал вакцину "}}, nil).ReadChat(ctx))
	assert.Nil(t, New(cfg, &scriptedRecognizer{}, nil).ReadChat(ctx))
	assert.Nil(t, New(cfg, nil, nil).ReadChat(ctx))
}

func TestLevenshtein(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, Levenshtein("kitten", "sitting"))
	assert.Equal(t, 0, Levenshtein("вакцин", "вакцин"))
	assert.Equal(t, 2, Levenshtein("вылечил", "вылечли"))
	assert.Equal(t, 99, Levenshtein("a", "abcde"))
	assert.Equal(t, 3, Levenshtein("abc", ""))
}

func TestFuzzyFind(t *testing.T) {
	t.Parallel()

	core := []string{"вылечил"}
	assert.True(t, FuzzyFind("игрок вылечил пациента", core, 2))
	assert.True(t, FuzzyFind("игрок вылечнл пациента", core, 2))
	assert.True(t, FuzzyFind("игрок вьлечнл пациента", core, 2))
	assert.False(t, FuzzyFind("игрок купил машину", core, 2))

	// Short keywords only match literally.
	assert.True(t, FuzzyFind("выдал пмп", []string{"пмп"}, 2))
	assert.False(t, FuzzyFind("выдал пнп", []string{"пмп"}, 2))
}

func TestMatcher(t *testing.T) {
	t.Parallel()

	m := NewMatcher(config.Default().Keywords)

	tests := []struct {
		name string
		fn   func(string) Category
		text string
		want Category
	}{
		{"translit vaccine", m.Translit, "bakuih nocle", Vaccines},
		{"translit medicine", m.Translit, "npenapat", Tablets},
		{"translit pmp confirmed", m.Translit, "b3an pmp", PMP},
		{"translit pmp unconfirmed", m.Translit, "pmp", None},
		{"translit stem without category", m.Translit, "ta6teleok", None},
		{"exact pmp confirmed", m.Exact, "реанимировал спасен", PMP},
		{"exact pmp unconfirmed", m.Exact, "реанимировал", None},
		{"exact vaccine", m.Exact, "поставил прививку", Vaccines},
		{"fuzzy pmp", m.Fuzzy, "реанимирввал 750", PMP},
		{"fuzzy vaccine", m.Fuzzy, "вакцинирвал", Vaccines},
		{"fuzzy nothing", m.Fuzzy, "обычный текст", None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(tt.text))
		})
	}

	assert.True(t, m.Rejected("удалён из семьи"))
	assert.True(t, m.Refused("игрок отказался от лечения"))
	assert.False(t, m.Refused("игрок вылечен"))
}

func TestVariants(t *testing.T) {
	t.Parallel()

	ctx := chatFrame()
	defer ctx.Close()
	roi, ok := ctx.CropPixels(goimage.Rect(0, 820, 700, 1020))
	require.True(t, ok)

	text := config.Default().Text
	vs := Variants(roi, text, 5)
	defer ocr.CloseAll(vs)
	require.Len(t, vs, 5)
	assert.Equal(t, roi.Cols(), vs[0].Cols())
	for _, v := range vs[1:] {
		assert.Equal(t, 3, v.Channels())
		assert.Equal(t, int(float64(roi.Cols())*1.8+0.5), v.Cols())
	}

	two := Variants(roi, text, maxVariants)
	defer ocr.CloseAll(two)
	assert.Len(t, two, 2)
}

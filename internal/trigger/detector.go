// Package trigger finds the chat line that marks a screenshot as a medical
// service (tablets, vaccination or resuscitation) and decides its category.
package trigger

import (
	goimage "image"
	"strings"
	"unicode/utf8"

	"shot-sorter/internal/config"
	"shot-sorter/internal/diag"
	"shot-sorter/internal/image"
	"shot-sorter/internal/knowledge"
	"shot-sorter/internal/ocr"

	"gocv.io/x/gocv"
)

// Category is a service category code.
type Category string

const (
	None     Category = ""
	Tablets  Category = knowledge.CodeTablets
	Vaccines Category = knowledge.CodeVaccines
	PMP      Category = knowledge.CodePMP
)

const (
	// maxOCRRegions caps how many candidate regions reach the recognizer.
	maxOCRRegions = 3
	maxROIWidth   = 600
	minTextRunes  = 3
	learnedFloor  = 0.5
)

// fullFrameRules are checked in order against a read of the whole frame.
var fullFrameRules = []struct {
	cat   Category
	words []string
}{
	{Tablets, []string{"лекарств", "препарат", "nekapctb", "npenapat", "lekarst", "preparat"}},
	{Vaccines, []string{"вакцин", "vakc", "bakuih", "прививк"}},
	{PMP, []string{"реаним", "reanim", "resuscitat", "спасен", "спасён"}},
	{Tablets, []string{"вылечил", "вылечен", "лечил", "лечен", "вылеч"}},
	{Tablets, []string{"таблетк", "таблет", "tabletk", "tablet"}},
}

var (
	fullFrameOptions = ocr.Options{MinConfidence: 0.05, MinHeight: 3, MinLength: 2}
	regionOptions    = ocr.Options{MinConfidence: 0.10, MinHeight: 3, MinLength: 2}
)

// Finding is the outcome of Find. Texts holds every distinct normalized text
// read, in order, even when nothing was found.
type Finding struct {
	Found    bool
	Category Category
	Texts    []string
	Method   string
}

// Predictor is the learned vocabulary vote.
type Predictor interface {
	Predict(texts []string) knowledge.Prediction
}

// Detector reads candidate chat regions and matches them against keywords.
type Detector struct {
	cfg     *config.Config
	rec     ocr.TextRecognizer
	learned Predictor
	match   *Matcher
}

// New returns a detector. learned may be nil.
func New(cfg *config.Config, rec ocr.TextRecognizer, learned Predictor) *Detector {
	return &Detector{
		cfg:     cfg,
		rec:     rec,
		learned: learned,
		match:   NewMatcher(cfg.Keywords),
	}
}

// Find looks for a service trigger in a frame. Recognizer failures are
// treated as unreadable regions.
func (d *Detector) Find(ctx *image.Context, tr *diag.Trace) Finding {
	if d.rec == nil || ctx.Empty() {
		return Finding{}
	}

	if f, ok := d.fullFrame(ctx, tr); ok {
		return f
	}

	var texts []string
	seen := make(map[string]bool)
	found := Finding{}
	regions := 0

	for i, rect := range d.candidates(ctx) {
		if found.Found || regions >= maxOCRRegions {
			break
		}
		roi, ok := ctx.CropPixels(rect)
		if !ok {
			continue
		}
		gray, ok := ctx.CropGrayPixels(rect)
		if !ok || image.GrayStd(gray) < 8 || !image.HasTextRegion(gray, 1) {
			continue
		}
		regions++
		tr.Addf("  [trigger] region %d %v", i, rect)

		small := downscale(roi)
		variants := Variants(small, d.cfg.Text, maxVariants)
		small.Close()

		for vi, v := range variants {
			reading, err := d.rec.Recognize(v, regionOptions)
			if err != nil || utf8.RuneCountInString(reading.Text) < minTextRunes {
				continue
			}
			text := normalize(reading.Text)
			if seen[text] {
				continue
			}
			seen[text] = true
			texts = append(texts, text)
			tr.Addf("  [trigger] region %d variant %d conf=%.2f: %q", i, vi, reading.Confidence, clip(text, 60))

			if f := d.classify(text); f.Found {
				found = f
				break
			}
		}
		ocr.CloseAll(variants)
	}

	if len(texts) == 0 {
		return Finding{}
	}

	combined := strings.Join(texts, " ")
	if d.match.Rejected(combined) {
		tr.Addf("  [trigger] rejected")
		return Finding{Texts: texts}
	}
	if found.Found {
		found.Texts = texts
		return found
	}
	if f := d.classify(combined); f.Found {
		f.Texts = texts
		return f
	}
	if d.learned != nil {
		p := d.learned.Predict(texts)
		if p.Code != "" && p.Confidence >= learnedFloor {
			tr.Addf("  [trigger] learned %s conf=%.2f", p.Code, p.Confidence)
			return Finding{Found: true, Category: Category(p.Code), Texts: texts, Method: "learned"}
		}
	}
	if d.match.Refused(combined) {
		tr.Addf("  [trigger] refused treatment")
	}
	return Finding{Texts: texts}
}

// ReadChat returns the text of the primary chat region, for labeling. It
// reads at most one region and applies no keyword matching.
func (d *Detector) ReadChat(ctx *image.Context) []string {
	if d.rec == nil || len(d.cfg.ChatScanROIs) == 0 {
		return nil
	}
	roi, ok := ctx.Crop(d.cfg.ChatScanROIs[0])
	if !ok {
		return nil
	}
	reading, err := d.rec.Recognize(roi, regionOptions)
	if err != nil || reading.Empty() {
		return nil
	}
	return []string{strings.TrimSpace(reading.Text)}
}

// classify runs translit, exact and fuzzy matching in that order.
func (d *Detector) classify(text string) Finding {
	if c := d.match.Translit(text); c != None {
		return Finding{Found: true, Category: c, Method: "translit"}
	}
	if c := d.match.Exact(text); c != None {
		return Finding{Found: true, Category: c, Method: "exact"}
	}
	if c := d.match.Fuzzy(text); c != None {
		return Finding{Found: true, Category: c, Method: "fuzzy"}
	}
	return Finding{}
}

func (d *Detector) fullFrame(ctx *image.Context, tr *diag.Trace) (Finding, bool) {
	reading, err := d.rec.Recognize(ctx.Source(), fullFrameOptions)
	if err != nil {
		tr.Addf("  [trigger] full frame: %v", err)
		return Finding{}, false
	}
	if reading.Empty() {
		return Finding{}, false
	}
	text := strings.ToLower(reading.Text)
	tr.Addf("  [trigger] full frame: %q", clip(text, 200))
	for _, rule := range fullFrameRules {
		if containsAny(text, rule.words) {
			return Finding{Found: true, Category: rule.cat, Texts: []string{reading.Text}, Method: "full-frame"}, true
		}
	}
	return Finding{}, false
}

// candidates lists pixel rectangles to scan: the detected chat area first,
// then the fixed scan regions.
func (d *Detector) candidates(ctx *image.Context) []goimage.Rectangle {
	var out []goimage.Rectangle
	if r, ok := ctx.DetectChatArea(); ok {
		out = append(out, r)
	}
	for _, ref := range d.cfg.ChatScanROIs {
		if r, ok := ctx.Bounds(ref, false); ok {
			out = append(out, r)
		}
	}
	return out
}

func downscale(roi gocv.Mat) gocv.Mat {
	if roi.Cols() <= maxROIWidth {
		return roi.Clone()
	}
	return ocr.Scale(roi, float64(maxROIWidth)/float64(roi.Cols()), gocv.InterpolationArea)
}

func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

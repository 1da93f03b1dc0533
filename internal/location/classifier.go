package location

import (
	"fmt"

	"shot-sorter/internal/config"
	"shot-sorter/internal/diag"
	"shot-sorter/internal/features"
	"shot-sorter/internal/image"
	"shot-sorter/internal/knowledge"
	"shot-sorter/internal/ocr"
)

// Methods reported by Classify.
const (
	MethodKBOCR     = "kb+ocr"
	MethodColor     = "color"
	MethodColorWeak = "color_weak"
	MethodOCR       = "ocr"
	MethodUnknown   = "unknown"
)

// uncertainKB is the margin below which a learned answer is cross-checked
// against the minimap.
const uncertainKB = 0.15

// Samples is the read side of the location knowledge base.
type Samples interface {
	SampleCount() int
	LocationCounts() map[string]int
	Ranges() map[string]map[string]knowledge.Stat
}

// Classifier combines the three tiers.
type Classifier struct {
	cfg *config.Config
	kb  Samples
	rec ocr.TextRecognizer
}

// NewClassifier returns a classifier. kb and rec may be nil, which disables
// the learned and OCR tiers respectively.
func NewClassifier(cfg *config.Config, kb Samples, rec ocr.TextRecognizer) *Classifier {
	return &Classifier{cfg: cfg, kb: kb, rec: rec}
}

// Decision is a location together with the tier that produced it and that
// tier's margin.
type Decision struct {
	Location   Location
	Method     string
	Confidence float64
}

// Classify returns a location and the method that decided it. It never
// fails; when nothing is conclusive the location is Unknown.
func (c *Classifier) Classify(ctx *image.Context, vec features.Vector, tr *diag.Trace) (Location, string) {
	d := c.Decide(ctx, vec, tr)
	return d.Location, d.Method
}

// Decide is Classify with the deciding margin.
func (c *Classifier) Decide(ctx *image.Context, vec features.Vector, tr *diag.Trace) Decision {
	if c.hasEnoughSamples() {
		p := PredictFromKB(c.kb.Ranges(), vec)
		tr.Addf("  [kb] prediction %s (confidence=%.4f)", p.Key, p.Confidence)
		for _, k := range sortedKeys(p.Scores) {
			tr.Addf("    %s: %.4f", k, p.Scores[k])
		}
		if p.Confidence >= c.cfg.Thresholds.DBConfidence && p.Location != Unknown {
			if p.Confidence < uncertainKB {
				if loc := ReadMinimap(ctx, c.cfg, c.rec, tr); loc != Unknown {
					return Decision{loc, MethodKBOCR, p.Confidence}
				}
			}
			return Decision{p.Location, fmt.Sprintf("kb(d=%.3f)", p.Confidence), p.Confidence}
		}
	}

	rs := ScoreRules(c.cfg, vec, tr)
	switch {
	case rs.Winner != Unknown && rs.Confidence >= c.cfg.Thresholds.SkipOCR:
		return Decision{rs.Winner, MethodColor, rs.Confidence}
	case rs.Winner != Unknown:
		if loc := ReadMinimap(ctx, c.cfg, c.rec, tr); loc != Unknown {
			return Decision{loc, MethodOCR, rs.Confidence}
		}
		return Decision{rs.Winner, MethodColorWeak, rs.Confidence}
	}
	if loc := ReadMinimap(ctx, c.cfg, c.rec, tr); loc != Unknown {
		return Decision{Location: loc, Method: MethodOCR}
	}
	return Decision{Location: Unknown, Method: MethodUnknown}
}

// hasEnoughSamples gates the learned tier: enough samples overall and at
// least one location seen twice.
func (c *Classifier) hasEnoughSamples() bool {
	if c.kb == nil || c.kb.SampleCount() < c.cfg.Thresholds.MinDBSamples {
		return false
	}
	for _, n := range c.kb.LocationCounts() {
		if n >= 2 {
			return true
		}
	}
	return false
}

// Package bodycam decides whether a frame shows the red body-camera recording
// indicator. Detection is a cascade: a cheap precheck, a multi-band scan of
// fixed corner regions, then four fallbacks (warm vignette, tint, OCR of the
// recording timer, red blob search).
package bodycam

import (
	"shot-sorter/internal/config"
	"shot-sorter/internal/diag"
	"shot-sorter/internal/image"
	"shot-sorter/internal/ocr"

	"gocv.io/x/gocv"
)

// Stage names the cascade step that decided a detection.
type Stage string

const (
	StageNone       Stage = "none"
	StageROI        Stage = "roi"
	StageSoft       Stage = "soft"
	StageWarmCorner Stage = "warm-corner"
	StageTint       Stage = "tint"
	StageTimer      Stage = "timer"
	StageBlobStrict Stage = "blob-strict"
	StageBlobDim    Stage = "blob-dim"
	StageBlobSoft   Stage = "blob-soft"
)

// Fixed ratios reported by the fallbacks.
const (
	ratioWarmCorner = 0.003
	ratioTint       = 0.002
	ratioTimer      = 0.5
	ratioBlobStrict = 0.005
	ratioBlobDim    = 0.004
	ratioBlobSoft   = 0.003

	softPenalty = 0.8
)

// Detection is the outcome of Check. Ratio is the evidence strength; on a
// negative result it carries the best ROI ratio seen.
type Detection struct {
	Found bool
	Ratio float64
	Stage Stage
	Timer string
}

// Detector runs the cascade. The recognizer is used only for the timer
// fallback and may be nil.
type Detector struct {
	cfg *config.Config
	rec ocr.TextRecognizer
}

// New returns a detector.
func New(cfg *config.Config, rec ocr.TextRecognizer) *Detector {
	return &Detector{cfg: cfg, rec: rec}
}

// Check runs the cascade on a frame. It never fails; an unreadable or blank
// frame is simply not a body-camera frame.
func (d *Detector) Check(ctx *image.Context, tr *diag.Trace) Detection {
	bc := d.cfg.Bodycam

	if !Precheck(ctx, &bc) {
		tr.Addf("  [bodycam] precheck failed, tint and timer only")
		if d.tinted(ctx, tr) {
			return Detection{Found: true, Ratio: ratioTint, Stage: StageTint}
		}
		if t, ok := d.readTimer(ctx, tr); ok {
			return Detection{Found: true, Ratio: ratioTimer, Stage: StageTimer, Timer: t}
		}
		return Detection{Stage: StageNone}
	}

	best, soft := d.scanROIs(ctx, tr)
	if best >= bc.RedThreshold {
		return Detection{Found: true, Ratio: best, Stage: StageROI}
	}
	if soft > 0 {
		return Detection{Found: true, Ratio: soft * softPenalty, Stage: StageSoft}
	}
	if d.warmCorners(ctx, tr) {
		return Detection{Found: true, Ratio: ratioWarmCorner, Stage: StageWarmCorner}
	}
	if d.tinted(ctx, tr) {
		return Detection{Found: true, Ratio: ratioTint, Stage: StageTint}
	}
	if t, ok := d.readTimer(ctx, tr); ok {
		return Detection{Found: true, Ratio: ratioTimer, Stage: StageTimer, Timer: t}
	}
	switch stage := d.findBlobs(ctx, tr); stage {
	case StageBlobStrict:
		return Detection{Found: true, Ratio: ratioBlobStrict, Stage: stage}
	case StageBlobDim:
		return Detection{Found: true, Ratio: ratioBlobDim, Stage: stage}
	case StageBlobSoft:
		return Detection{Found: true, Ratio: ratioBlobSoft, Stage: stage}
	}
	return Detection{Ratio: best, Stage: StageNone}
}

// scanROIs returns the best effective red ratio over the body-camera regions
// and the best soft candidate ratio (zero when there is none).
func (d *Detector) scanROIs(ctx *image.Context, tr *diag.Trace) (best, soft float64) {
	bc := d.cfg.Bodycam
	strict := []config.Range{bc.RedStrict, bc.Red2Strict}
	dim := []config.Range{bc.RedDim, bc.Red2Dim}
	softBands := []config.Range{bc.RedSoft, bc.Red2Soft}
	thr := bc.RedThreshold

	for i, r := range bc.ROIs {
		roi, ok := ctx.Crop(r)
		if !ok {
			continue
		}
		t := float64(roi.Rows() * roi.Cols())
		sm, ok1 := ctx.CropMask(r, false, strict...)
		dm, ok2 := ctx.CropMask(r, false, dim...)
		if !ok1 || !ok2 {
			continue
		}
		rs := float64(gocv.CountNonZero(sm))
		rd := float64(gocv.CountNonZero(dm))
		if rs/t+rd/t > bc.MaxRedRatio {
			tr.Addf("  [bodycam] roi %d skipped, red %.4f", i, rs/t+rd/t)
			continue
		}

		px := pixels(roi)
		rb := float64(countStrictBGR(px, bc.BGRRMin, bc.BGRBGMax, bc.BGRDominance))
		rbd := float64(countDimBGR(px, bc.DimRMin, bc.DimRMax, bc.DimGMax, bc.DimBMax, bc.DimDominance))
		rdm := redDominance(px)
		confirm := float64(bc.DimMinConfirm)

		ef := 0.0
		switch {
		case rb/t >= thr:
			ef = rb / t
		case rs/t >= thr && rb > 0:
			ef = rs / t
		case rbd/t >= thr && rbd >= confirm:
			ef = rbd / t
		case rd/t >= thr && rbd >= confirm:
			ef = rd / t
		case rdm >= 0.15 && rd/t >= 0.001:
			ef = rdm * 0.02
		case rd/t >= thr*0.5 && rdm >= 0.05:
			ef = rd / t
		}
		if ef > best {
			best = ef
		}
		if ef > 0 {
			tr.Addf("  [bodycam] roi %d ratio=%.4f", i, ef)
		}
		if ef >= thr {
			continue
		}

		fm, ok := ctx.CropMask(r, false, softBands...)
		if !ok {
			continue
		}
		rf := float64(gocv.CountNonZero(fm)) / t
		if rf < bc.RedThresholdSoft || rf > bc.MaxRedRatio {
			continue
		}
		if rb < 1 && rbd < confirm && rdm < 0.05 {
			continue
		}
		bm, gm, rm := meanBGR(roi)
		if rm > max(gm, bm)*1.05 && rf > soft {
			soft = rf
			tr.Addf("  [bodycam] roi %d soft candidate %.4f", i, rf)
		}
	}
	return best, soft
}

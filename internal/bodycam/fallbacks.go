package bodycam

import (
	goimage "image"
	"math"
	"regexp"
	"strings"

	"shot-sorter/internal/config"
	"shot-sorter/internal/diag"
	"shot-sorter/internal/image"
	"shot-sorter/internal/ocr"

	"gocv.io/x/gocv"
)

var timerPattern = regexp.MustCompile(`(\d{1,2}[:.]?\d{2}[:.]?\d{0,2})`)

// warmCorners looks for the warm red vignette the recording overlay leaves in
// the frame corners: strong in one corner or weak in two.
func (d *Detector) warmCorners(ctx *image.Context, tr *diag.Trace) bool {
	bc := d.cfg.Bodycam
	strong, weak := 0, 0
	for _, r := range bc.WarmCorners {
		roi, ok1 := ctx.Crop(r)
		hsv, ok2 := ctx.CropHSV(r)
		if !ok1 || !ok2 {
			continue
		}
		wr := warmRatio(hsv.ToBytes(), &bc)
		px := pixels(roi)
		rd := redDominance(px)
		bm, gm, rm := meanBGR(roi)
		mg := max(gm, bm)
		switch {
		case wr > bc.WarmStrongRatio && rd > bc.WarmStrongRDom && rm > mg:
			strong++
		case wr > bc.WarmWeakRatio && rd > bc.WarmWeakRDom && rm > mg*0.95:
			weak++
		}
	}
	if strong >= 1 || weak >= 2 {
		tr.Addf("  [bodycam] warm corners strong=%d weak=%d", strong, weak)
		return true
	}
	return false
}

func warmRatio(hsv []byte, bc *config.Bodycam) float64 {
	total := len(hsv) / 3
	if total == 0 {
		return 0
	}
	n := 0
	for i := 0; i+2 < len(hsv); i += 3 {
		h, s, v := int(hsv[i]), int(hsv[i+1]), int(hsv[i+2])
		if (h <= bc.WarmHueMax || h >= bc.WarmHueMin2) && s > bc.WarmSatMin && v > bc.WarmValMin {
			n++
		}
	}
	return float64(n) / float64(total)
}

// tinted compares corner saturation and brightness with the frame center.
func (d *Detector) tinted(ctx *image.Context, tr *diag.Trace) bool {
	bc := d.cfg.Bodycam
	center, ok := ctx.CropHSV(bc.TintCenter)
	if !ok {
		return false
	}
	cm, _ := image.MeanStd(center)
	cs, cv := cm[1], cm[2]

	tint, dark := 0, 0
	for _, r := range bc.TintCorners {
		hsv, ok := ctx.CropHSV(r)
		if !ok {
			continue
		}
		m, _ := image.MeanStd(hsv)
		s, v := m[1], m[2]
		if s-cs > 10 && s > float64(bc.TintSatMin) {
			tint++
		}
		if cv-v > 30 && v < float64(bc.VignetteValMax) {
			dark++
		}
		if saturatedShare(hsv.ToBytes()) > bc.TintCornerRatio {
			tint++
		}
	}
	if tint >= bc.TintCornersNeeded || dark >= 3 || (tint >= 2 && dark >= 1) {
		tr.Addf("  [bodycam] tint=%d dark=%d", tint, dark)
		return true
	}
	return false
}

func saturatedShare(hsv []byte) float64 {
	total := len(hsv) / 3
	if total == 0 {
		return 0
	}
	n := 0
	for i := 1; i < len(hsv); i += 3 {
		if hsv[i] > 40 {
			n++
		}
	}
	return float64(n) / float64(total)
}

// readTimer reads the recording timer under the indicator. A reading counts
// only when it looks like a clock and is not all zeros.
func (d *Detector) readTimer(ctx *image.Context, tr *diag.Trace) (string, bool) {
	if d.rec == nil {
		return "", false
	}
	gray, ok := ctx.CropGray(d.cfg.Bodycam.TimerROI)
	if !ok || image.GrayStd(gray) < 10 {
		return "", false
	}

	variants := ocr.BinaryPair(gray, 4, false)
	defer ocr.CloseAll(variants)

	passes := []ocr.Options{
		{MinConfidence: 0.15, MinHeight: 3, MinLength: 1},
		{MinLength: 1, Digits: true},
	}
	for _, opts := range passes {
		for _, v := range variants {
			reading, err := d.rec.Recognize(v, opts)
			if err != nil || reading.Empty() {
				continue
			}
			if t, ok := parseTimer(reading.Text); ok {
				tr.Addf("  [bodycam] timer %q", t)
				return t, true
			}
		}
	}
	return "", false
}

// parseTimer extracts a non-zero MM:SS style value.
func parseTimer(text string) (string, bool) {
	text = strings.ReplaceAll(strings.TrimSpace(text), " ", "")
	m := timerPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, m[1])
	if strings.Trim(digits, "0") == "" {
		return "", false
	}
	return m[1], true
}

// findBlobs searches the left-edge strips for small round red components.
func (d *Detector) findBlobs(ctx *image.Context, tr *diag.Trace) Stage {
	bc := d.cfg.Bodycam
	bands := []config.Range{bc.RedStrict, bc.Red2Strict, bc.RedDim, bc.Red2Dim, bc.RedSoft, bc.Red2Soft}
	invX := 1.0
	if ctx.ScaleX() > 0 {
		invX = 1 / ctx.ScaleX()
	}

	strict, dim, soft := 0, 0, 0
	for _, s := range bc.ScanStrips {
		mask, ok := ctx.CropMask(s, false, bands...)
		if !ok || gocv.CountNonZero(mask) == 0 {
			continue
		}
		strip, ok := ctx.Crop(s)
		if !ok {
			continue
		}
		contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
		for i := 0; i < contours.Size(); i++ {
			c := contours.At(i)
			area := gocv.ContourArea(c)
			if area < 5 {
				continue
			}
			perim := gocv.ArcLength(c, true)
			if perim == 0 {
				continue
			}
			circ := 4 * math.Pi * area / (perim * perim)
			box := gocv.BoundingRect(c).Intersect(goimage.Rect(0, 0, strip.Cols(), strip.Rows()))
			if box.Empty() {
				continue
			}
			region := strip.Region(box)
			b, g, r := meanBGR(region)
			region.Close()

			ox := int(float64(box.Min.X)*invX) + s.X
			if ox > bc.BlobMaxX {
				continue
			}
			switch {
			case bc.BlobStrict.Accepts(area, circ, ox, r, g, b, bc.BlobMaxX):
				strict++
			case bc.BlobDim.Accepts(area, circ, ox, r, g, b, bc.BlobMaxX):
				dim++
			case bc.BlobSoft.Accepts(area, circ, ox, r, g, b, bc.BlobMaxX):
				soft++
			}
		}
		contours.Close()
	}

	tr.Addf("  [bodycam] blobs strict=%d dim=%d soft=%d", strict, dim, soft)
	switch {
	case strict > 0:
		return StageBlobStrict
	case dim > 0:
		return StageBlobDim
	case soft >= 2:
		return StageBlobSoft
	}
	return StageNone
}

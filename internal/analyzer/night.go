package analyzer

import (
	"regexp"
	"strconv"

	"shot-sorter/internal/config"
	"shot-sorter/internal/diag"
	"shot-sorter/internal/image"
	"shot-sorter/internal/ocr"
)

var (
	clockPattern = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	clockOptions = ocr.Options{MinLength: 1, Digits: true}
)

// isNight reads the in-game clock and reports whether it shows a night hour.
// An unreadable clock counts as day.
func isNight(ctx *image.Context, cfg *config.Config, rec ocr.TextRecognizer, tr *diag.Trace) bool {
	if rec == nil {
		return false
	}
	gray, ok := ctx.CropGray(cfg.Regions.Clock)
	if !ok {
		return false
	}

	variants := ocr.BinaryPair(gray, 3, false)
	defer ocr.CloseAll(variants)

	for _, v := range variants {
		reading, err := rec.Recognize(v, clockOptions)
		if err != nil {
			continue
		}
		m := clockPattern.FindStringSubmatch(reading.Text)
		if m == nil {
			continue
		}
		hour, _ := strconv.Atoi(m[1])
		if hour > 23 {
			continue
		}
		night := cfg.IsNight(hour)
		tr.Addf("  [clock] %s:%s night=%v", m[1], m[2], night)
		return night
	}
	return false
}

package location

import (
	"strings"

	"shot-sorter/internal/config"
	"shot-sorter/internal/diag"
	"shot-sorter/internal/image"
	"shot-sorter/internal/ocr"

	"golang.org/x/text/cases"
)

var minimapOptions = ocr.Options{MinConfidence: 0.20, MinHeight: 6, MinLength: 2}

// ReadMinimap reads street names off the minimap and matches them against the
// hospital keyword lists. The inverted rendition is read only when the first
// read returns nothing. Recognizer errors count as no reading.
func ReadMinimap(ctx *image.Context, cfg *config.Config, rec ocr.TextRecognizer, tr *diag.Trace) Location {
	if rec == nil {
		return Unknown
	}
	gray, ok := ctx.CropGray(cfg.Regions.Minimap)
	if !ok {
		return Unknown
	}

	variants := ocr.BinaryPair(gray, 4, true)
	defer ocr.CloseAll(variants)

	var text string
	for _, v := range variants {
		reading, err := rec.Recognize(v, minimapOptions)
		if err == nil && !reading.Empty() {
			text = reading.Text
			break
		}
	}
	if text == "" {
		return Unknown
	}
	tr.Addf("  [minimap] %q", text)

	fold := cases.Fold()
	text = fold.String(text)
	for _, h := range cfg.Hospitals {
		for _, kw := range h.Words {
			if strings.Contains(text, fold.String(kw)) {
				return FromName(h.Location)
			}
		}
	}
	return Unknown
}

package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

type tesseract struct {
	client *gosseract.Client
}

// NewTesseract creates a Tesseract-backed engine for the given languages
// (default rus+eng).
func NewTesseract(languages ...string) (*Engine, error) {
	if len(languages) == 0 {
		languages = []string{"rus", "eng"}
	}
	client := gosseract.NewClient()

	if err := client.SetLanguage(languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Keep Tesseract's own warnings off stderr
	_ = client.SetVariable("debug_file", "/dev/null")

	t := &tesseract{client: client}
	return &Engine{
		kind:  KindTesseract,
		name:  "tesseract (" + strings.Join(languages, "+") + ")",
		read:  t.read,
		close: client.Close,
	}, nil
}

func (t *tesseract) read(img gocv.Mat, opts Options) ([]Line, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	// PSM 6 = a single uniform block of text; PSM 7 = a single line
	psm := gosseract.PSM_SINGLE_BLOCK
	whitelist := ""
	if opts.Digits {
		psm = gosseract.PSM_SINGLE_LINE
		whitelist = DigitChars
	}
	if err := t.client.SetPageSegMode(psm); err != nil {
		return nil, fmt.Errorf("failed to set PSM: %w", err)
	}
	if err := t.client.SetWhitelist(whitelist); err != nil && whitelist != "" {
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}

	if err := t.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	lines := make([]Line, 0, len(boxes))
	for _, b := range boxes {
		text := strings.Join(strings.Fields(b.Word), " ")
		if text == "" {
			continue
		}
		lines = append(lines, Line{
			Text:       text,
			Confidence: b.Confidence / 100,
			Height:     b.Box.Dy(),
		})
	}
	return lines, nil
}

// Package ocr provides text recognition for screenshot regions.
package ocr

import (
	"errors"
	"strings"
	"unicode/utf8"

	"gocv.io/x/gocv"
)

// ErrEngineUnavailable is returned by the placeholder engine when no real
// OCR backend could be initialized.
var ErrEngineUnavailable = errors.New("no OCR engine available")

// DigitChars is the character set used when reading clocks and timers.
const DigitChars = "0123456789:"

// Options filter the lines a recognizer returns.
type Options struct {
	MinConfidence float64 // 0..1
	MinHeight     int     // line box height in pixels; ignored when the engine reports none
	MinLength     int     // characters after trimming
	Digits        bool    // restrict recognition to DigitChars
}

// DefaultOptions match the general-purpose read.
func DefaultOptions() Options {
	return Options{MinConfidence: 0.15, MinHeight: 5, MinLength: 2}
}

// Line is one recognized text line.
type Line struct {
	Text       string
	Confidence float64
	Height     int
}

// Reading is the filtered, joined and lower-cased result of a recognition.
type Reading struct {
	Text       string
	Confidence float64
}

// Empty reports whether nothing survived filtering.
func (r Reading) Empty() bool {
	return r.Text == ""
}

// TextRecognizer reads text from an image. An empty Reading with a nil error
// means no text was found; errors are engine failures.
type TextRecognizer interface {
	Recognize(img gocv.Mat, opts Options) (Reading, error)
	Name() string
}

// Collect applies opts to raw lines and joins the survivors with spaces.
// Confidence is the mean over kept lines.
func Collect(lines []Line, opts Options) Reading {
	kept := make([]string, 0, len(lines))
	sum := 0.0
	for _, l := range lines {
		text := strings.TrimSpace(l.Text)
		if l.Confidence < opts.MinConfidence || utf8.RuneCountInString(text) < opts.MinLength {
			continue
		}
		if l.Height > 0 && l.Height < opts.MinHeight {
			continue
		}
		kept = append(kept, text)
		sum += l.Confidence
	}
	if len(kept) == 0 {
		return Reading{}
	}
	return Reading{
		Text:       strings.ToLower(strings.Join(kept, " ")),
		Confidence: sum / float64(len(kept)),
	}
}

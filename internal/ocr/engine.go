package ocr

import (
	"fmt"
	"strings"
	"sync"

	"shot-sorter/internal/diag"

	"gocv.io/x/gocv"
)

// Kind identifies an OCR backend.
type Kind int

const (
	KindNone Kind = iota
	KindTesseract
	KindExec
)

func (k Kind) String() string {
	switch k {
	case KindTesseract:
		return "tesseract"
	case KindExec:
		return "exec"
	default:
		return "none"
	}
}

// ParseKind maps a configured engine name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tesseract":
		return KindTesseract, nil
	case "exec", "command":
		return KindExec, nil
	case "none", "":
		return KindNone, nil
	}
	return KindNone, fmt.Errorf("unknown OCR engine %q", s)
}

// Engine is a TextRecognizer backed by one concrete backend. Calls are
// serialized because backends keep per-call state.
type Engine struct {
	kind  Kind
	name  string
	mu    sync.Mutex
	read  func(img gocv.Mat, opts Options) ([]Line, error)
	close func() error
}

// Kind returns the backend kind.
func (e *Engine) Kind() Kind { return e.kind }

// Name returns a human-readable backend description.
func (e *Engine) Name() string { return e.name }

// Ready reports whether the engine can recognize anything.
func (e *Engine) Ready() bool { return e != nil && e.kind != KindNone }

// Recognize implements TextRecognizer.
func (e *Engine) Recognize(img gocv.Mat, opts Options) (Reading, error) {
	if !e.Ready() {
		return Reading{}, ErrEngineUnavailable
	}
	if img.Empty() {
		return Reading{}, nil
	}
	e.mu.Lock()
	lines, err := e.read(img, opts)
	e.mu.Unlock()
	if err != nil {
		return Reading{}, fmt.Errorf("%s: %w", e.kind, err)
	}
	return Collect(lines, opts), nil
}

// Close releases backend resources.
func (e *Engine) Close() error {
	if e == nil || e.close == nil {
		return nil
	}
	return e.close()
}

// None returns the placeholder engine used when nothing else initializes.
func None() *Engine {
	return &Engine{kind: KindNone, name: "none"}
}

// EngineSettings configure backend construction.
type EngineSettings struct {
	Languages   []string
	ExecCommand string
	ExecArgs    []string
}

// Open tries each preferred backend in order and returns the first that
// initializes. It never fails: the placeholder engine is the last resort.
func Open(prefs []string, s EngineSettings) *Engine {
	for _, pref := range prefs {
		kind, err := ParseKind(pref)
		if err != nil {
			diag.Logf("ocr: %v", err)
			continue
		}

		var e *Engine
		switch kind {
		case KindTesseract:
			e, err = NewTesseract(s.Languages...)
		case KindExec:
			e, err = NewExec(s.ExecCommand, s.ExecArgs...)
		default:
			continue
		}
		if err != nil {
			diag.Logf("ocr: %s unavailable: %v", kind, err)
			continue
		}
		diag.Logf("ocr: using %s", e.Name())
		return e
	}
	diag.Logf("ocr: no engine available, text-based detection disabled")
	return None()
}

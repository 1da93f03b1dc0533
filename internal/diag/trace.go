package diag

import "fmt"

// Trace collects human-readable detector decisions for a single file.
// A nil *Trace discards everything, so detectors can call Addf unconditionally.
type Trace struct {
	lines []string
}

// NewTrace returns an empty trace.
func NewTrace() *Trace {
	return &Trace{}
}

// Addf appends a formatted line.
func (t *Trace) Addf(format string, args ...interface{}) {
	if t == nil {
		return
	}
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
}

// Lines returns the recorded lines.
func (t *Trace) Lines() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}

// Enabled reports whether lines are being recorded.
func (t *Trace) Enabled() bool {
	return t != nil
}

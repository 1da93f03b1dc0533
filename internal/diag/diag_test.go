package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) { got = format })
	Logf("hello")
	assert.Equal(t, "hello", got)

	got = ""
	SetLogger(nil)
	Logf("muted")
	assert.Empty(t, got)
}

func TestTrace(t *testing.T) {
	t.Parallel()

	var nilTrace *Trace
	nilTrace.Addf("ignored %d", 1)
	assert.Nil(t, nilTrace.Lines())
	assert.False(t, nilTrace.Enabled())

	tr := NewTrace()
	tr.Addf("roi %d ratio=%.3f", 2, 0.5)
	tr.Addf("done")
	assert.True(t, tr.Enabled())
	assert.Equal(t, []string{"roi 2 ratio=0.500", "done"}, tr.Lines())
}

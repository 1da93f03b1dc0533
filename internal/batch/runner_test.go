package batch

import (
	"context"
	"sync"
	"testing"

	"shot-sorter/internal/analyzer"
	"shot-sorter/internal/location"
	"shot-sorter/internal/trigger"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted returns one result per path and call; the last result repeats.
type scripted struct {
	mu      sync.Mutex
	results map[string][]analyzer.Result
	calls   map[string]int
	forgot  []string
}

func newScripted(results map[string][]analyzer.Result) *scripted {
	return &scripted{results: results, calls: make(map[string]int)}
}

func (s *scripted) Run(path string) analyzer.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs := s.results[path]
	if len(rs) == 0 {
		panic("unexpected file " + path)
	}
	i := min(s.calls[path], len(rs)-1)
	s.calls[path]++
	r := rs[i]
	r.Path = path
	return r
}

func (s *scripted) Forget(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forgot = append(s.forgot, path)
}

var (
	tabletsELSH = analyzer.Result{OK: true, Category: trigger.Tablets, Location: location.ELSH}
	pmpNight    = analyzer.Result{OK: true, Category: trigger.PMP, Location: location.Sandy, Night: true}
	noCamera    = analyzer.Result{Err: analyzer.ReasonNoBodycam}
	noTrigger   = analyzer.Result{Err: analyzer.ReasonNoTrigger, Bodycam: true}
)

func TestRunTwoPasses(t *testing.T) {
	t.Parallel()

	az := newScripted(map[string][]analyzer.Result{
		"a.png": {tabletsELSH},
		"b.png": {noCamera, tabletsELSH},
		"c.png": {noTrigger},
		"d.png": {pmpNight},
		"e.png": {noCamera},
		"f.png": nil,
	})
	r := New(az, nil)

	var events []Outcome
	var secondPass int
	r.On(EventFileDone, func(data interface{}) { events = append(events, data.(Outcome)) })
	r.On(EventSecondPass, func(data interface{}) { secondPass = data.(int) })

	sum := r.Run(context.Background(), []string{"a.png", "b.png", "c.png", "d.png", "e.png", "f.png"})

	assert.NotEmpty(t, sum.RunID)
	assert.False(t, sum.Stopped)
	assert.Equal(t, 6, sum.Total)
	assert.Equal(t, 6, sum.Processed)
	assert.Equal(t, 3, sum.OK)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 1, sum.NoBodycam)
	assert.Equal(t, 1, sum.Errors)
	assert.Equal(t, 2, secondPass)
	assert.Equal(t, []string{"b.png", "e.png"}, az.forgot)
	assert.ElementsMatch(t, []string{"c.png", "e.png", "f.png"}, sum.Unsorted)

	want := []FolderCount{
		{"Таблетки - ELSH", 2},
		{"ПМП - Пригород [НОЧЬ]", 1},
	}
	if diff := cmp.Diff(want, sum.Histogram()); diff != "" {
		t.Errorf("histogram mismatch (-want +got):\n%s", diff)
	}

	// Every attempt is reported, including first-pass rejections.
	assert.Len(t, events, 8)
	var retried []string
	for _, o := range sum.Outcomes {
		if o.Pass == 2 {
			retried = append(retried, o.Path)
		}
	}
	assert.Equal(t, []string{"b.png", "e.png"}, retried)
}

func TestRunStops(t *testing.T) {
	t.Parallel()

	az := newScripted(map[string][]analyzer.Result{
		"a.png": {noCamera},
		"b.png": {tabletsELSH},
		"c.png": {tabletsELSH},
	})
	r := New(az, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.On(EventFileDone, func(data interface{}) {
		if data.(Outcome).Path == "b.png" {
			cancel()
		}
	})

	var finished Summary
	r.On(EventFinished, func(data interface{}) { finished = data.(Summary) })

	sum := r.Run(ctx, []string{"a.png", "b.png", "c.png"})
	assert.True(t, sum.Stopped)
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 1, sum.OK)
	assert.Empty(t, az.forgot)
	assert.Equal(t, 0, az.calls["c.png"])
	require.Equal(t, sum.RunID, finished.RunID)
}

func TestRunEmpty(t *testing.T) {
	t.Parallel()

	sum := New(newScripted(nil), nil).Run(context.Background(), nil)
	assert.Equal(t, 0, sum.Total)
	assert.Empty(t, sum.Histogram())
	assert.False(t, sum.Stopped)
}

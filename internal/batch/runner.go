// Package batch classifies a list of files with a two-pass strategy: files
// rejected only for a missing body camera are retried once after every other
// file has had the chance to record a sighting.
package batch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"shot-sorter/internal/analyzer"
	"shot-sorter/internal/diag"
	"shot-sorter/internal/image"

	"github.com/google/uuid"
)

// lookahead is how many upcoming files are handed to the preloader.
const lookahead = 3

// Classifier is the part of the analyzer the runner drives.
type Classifier interface {
	Run(path string) analyzer.Result
	Forget(path string)
}

// EventType identifies runner events.
type EventType int

const (
	// EventFileDone carries an Outcome.
	EventFileDone EventType = iota
	// EventSecondPass carries the number of files retried.
	EventSecondPass
	// EventFinished carries the Summary.
	EventFinished
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// Outcome is the classification of one file within a run.
type Outcome struct {
	Path   string
	Pass   int
	Result analyzer.Result
	// Err is set when classification panicked.
	Err error
}

// FolderCount is one row of the folder histogram.
type FolderCount struct {
	Folder string
	Count  int
}

// Summary totals a run.
type Summary struct {
	RunID     string
	Total     int
	Processed int
	OK        int
	Skipped   int
	NoBodycam int
	Errors    int
	Stopped   bool
	Duration  time.Duration

	Folders  map[string]int
	Outcomes []Outcome
	// Unsorted lists files that did not reach a folder.
	Unsorted []string
}

// Histogram returns the folder counts, largest first.
func (s Summary) Histogram() []FolderCount {
	out := make([]FolderCount, 0, len(s.Folders))
	for f, n := range s.Folders {
		out = append(out, FolderCount{f, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Folder < out[j].Folder
	})
	return out
}

// Runner processes files sequentially.
type Runner struct {
	mu        sync.RWMutex
	az        Classifier
	pre       *image.Preloader
	listeners map[EventType][]EventListener
}

// New returns a runner. pre may be nil; when set, the classifier should load
// through it (see analyzer.WithLoader).
func New(az Classifier, pre *image.Preloader) *Runner {
	return &Runner{
		az:        az,
		pre:       pre,
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (r *Runner) On(event EventType, listener EventListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[event] = append(r.listeners[event], listener)
}

func (r *Runner) emit(event EventType, data interface{}) {
	r.mu.RLock()
	listeners := r.listeners[event]
	r.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Run classifies files in order. Cancelling ctx stops the run between files.
func (r *Runner) Run(ctx context.Context, files []string) Summary {
	start := time.Now()
	sum := Summary{
		RunID:   uuid.New().String(),
		Total:   len(files),
		Folders: make(map[string]int),
	}
	diag.Logf("batch %s: %d files", sum.RunID, len(files))

	var retry []string
	for i, path := range files {
		if ctx.Err() != nil {
			sum.Stopped = true
			break
		}
		if r.pre != nil && i+1 < len(files) {
			r.pre.Prefetch(files[i+1 : min(i+1+lookahead, len(files))])
		}
		o := r.process(path, 1)
		if o.Err == nil && !o.Result.OK && o.Result.Err == analyzer.ReasonNoBodycam {
			retry = append(retry, path)
			r.emit(EventFileDone, o)
			continue
		}
		r.record(&sum, o)
	}

	if len(retry) > 0 && !sum.Stopped {
		diag.Logf("batch %s: second pass over %d files", sum.RunID, len(retry))
		r.emit(EventSecondPass, len(retry))
		for _, path := range retry {
			if ctx.Err() != nil {
				sum.Stopped = true
				break
			}
			r.az.Forget(path)
			r.record(&sum, r.process(path, 2))
		}
	}

	sum.Duration = time.Since(start)
	diag.Logf("batch %s: ok=%d skipped=%d no-bodycam=%d errors=%d total=%d (%s)",
		sum.RunID, sum.OK, sum.Skipped, sum.NoBodycam, sum.Errors, sum.Total, sum.Duration.Round(time.Millisecond))
	r.emit(EventFinished, sum)
	return sum
}

func (r *Runner) process(path string, pass int) (o Outcome) {
	o = Outcome{Path: path, Pass: pass}
	defer func() {
		if p := recover(); p != nil {
			o.Err = fmt.Errorf("classification panicked: %v", p)
		}
	}()
	o.Result = r.az.Run(path)
	return o
}

func (r *Runner) record(sum *Summary, o Outcome) {
	sum.Processed++
	sum.Outcomes = append(sum.Outcomes, o)
	switch {
	case o.Err != nil:
		sum.Errors++
		sum.Unsorted = append(sum.Unsorted, o.Path)
		diag.Logf("batch %s: %s: %v", sum.RunID, o.Path, o.Err)
	case o.Result.OK:
		sum.OK++
		sum.Folders[o.Result.Folder()]++
	case o.Result.Err == analyzer.ReasonNoBodycam:
		sum.NoBodycam++
		sum.Unsorted = append(sum.Unsorted, o.Path)
	default:
		sum.Skipped++
		sum.Unsorted = append(sum.Unsorted, o.Path)
	}
	r.emit(EventFileDone, o)
}

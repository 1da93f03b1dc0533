// Package analyzer runs the per-file classification pipeline: body camera,
// trigger text, location and time of day.
package analyzer

import (
	"fmt"
	"path/filepath"
	"time"

	"shot-sorter/internal/bodycam"
	"shot-sorter/internal/cache"
	"shot-sorter/internal/config"
	"shot-sorter/internal/diag"
	"shot-sorter/internal/features"
	"shot-sorter/internal/image"
	"shot-sorter/internal/knowledge"
	"shot-sorter/internal/location"
	"shot-sorter/internal/ocr"
	"shot-sorter/internal/trigger"
)

// inheritedRatio is reported for frames that borrow a neighbor's sighting.
const inheritedRatio = 0.001

// Options control a single run.
type Options struct {
	// Force bypasses the result cache.
	Force bool
	// Diagnose collects trace lines and ignores the OCR disk cache.
	Diagnose bool
}

// Analyzer classifies screenshots. It is safe for concurrent use; each call
// works on its own decoded frame.
type Analyzer struct {
	cfg            *config.Config
	rec            ocr.TextRecognizer
	requireBodycam bool
	window         time.Duration

	bodycam  *bodycam.Detector
	trigger  *trigger.Detector
	location *location.Classifier

	locationKB *knowledge.LocationKB
	triggerKB  *knowledge.TriggerKB
	ocrCache   *ocr.DiskCache

	results   *cache.LRU[string, Result]
	sightings SightingIndex

	load      image.LoadFunc
	hash      func(path string) (string, error)
	timestamp func(path string) (time.Time, bool)
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLoader replaces image.Load, e.g. with a Preloader's Get.
func WithLoader(load image.LoadFunc) Option {
	return func(a *Analyzer) { a.load = load }
}

// WithBodycamRequired sets whether frames without a body camera are rejected.
func WithBodycamRequired(required bool) Option {
	return func(a *Analyzer) { a.requireBodycam = required }
}

// WithGroupWindow sets how far apart a frame and a sighting may be for the
// frame to inherit it.
func WithGroupWindow(d time.Duration) Option {
	return func(a *Analyzer) { a.window = d }
}

// WithCacheSize sets the result cache capacity.
func WithCacheSize(n int) Option {
	return func(a *Analyzer) { a.results = cache.NewLRU[string, Result](n) }
}

// WithKnowledge attaches the knowledge bases.
func WithKnowledge(loc *knowledge.LocationKB, trig *knowledge.TriggerKB) Option {
	return func(a *Analyzer) {
		if loc != nil {
			a.locationKB = loc
		}
		if trig != nil {
			a.triggerKB = trig
		}
	}
}

// WithOCRCache attaches a persistent OCR cache.
func WithOCRCache(c *ocr.DiskCache) Option {
	return func(a *Analyzer) { a.ocrCache = c }
}

// WithTimestamps replaces image.FileTimestamp.
func WithTimestamps(f func(path string) (time.Time, bool)) Option {
	return func(a *Analyzer) { a.timestamp = f }
}

// New builds an analyzer. rec may be nil, in which case every OCR stage
// finds nothing. Without WithKnowledge the analyzer uses empty in-memory
// knowledge bases.
func New(cfg *config.Config, rec ocr.TextRecognizer, opts ...Option) *Analyzer {
	a := &Analyzer{
		cfg:            cfg,
		rec:            rec,
		requireBodycam: true,
		window:         30 * time.Second,
		locationKB:     knowledge.NewLocationKB(""),
		triggerKB:      knowledge.NewTriggerKB(""),
		results:        cache.NewLRU[string, Result](500),
		load:           image.Load,
		hash:           image.ContentHash,
		timestamp:      image.FileTimestamp,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.bodycam = bodycam.New(cfg, rec)
	a.trigger = trigger.New(cfg, rec, a.triggerKB)
	a.location = location.NewClassifier(cfg, a.locationKB, rec)
	return a
}

// Run classifies a file, serving repeated content from the result cache.
func (a *Analyzer) Run(path string) Result {
	return a.RunWithOptions(path, Options{})
}

// RunWithOptions classifies a file.
func (a *Analyzer) RunWithOptions(path string, opts Options) Result {
	hash, err := a.hash(path)
	if err != nil {
		hash = ""
	}
	if hash != "" && !opts.Force && !opts.Diagnose {
		if r, ok := a.results.Get(hash); ok {
			return r.cached(path)
		}
	}

	r := a.classify(path, hash, opts.Diagnose)
	if hash != "" {
		a.results.Put(hash, r)
	}
	return r
}

func (a *Analyzer) classify(path, hash string, diagnose bool) (r Result) {
	r.Path = path
	var tr *diag.Trace
	if diagnose {
		tr = diag.NewTrace()
		defer func() { r.Trace = tr.Lines() }()
	}

	m, err := a.load(path)
	if err != nil {
		m.Close()
		diag.Logf("analyzer: %v", err)
		r.Err = ReasonLoad
		return r
	}
	ctx := image.NewContext(m)
	defer ctx.Close()

	var seeded trigger.Finding
	if a.ocrCache != nil && hash != "" && !diagnose {
		if e, ok := a.ocrCache.Get(hash); ok && e.Category != "" && len(e.Texts) > 0 {
			seeded = trigger.Finding{Found: true, Category: trigger.Category(e.Category), Texts: e.Texts, Method: "cache"}
			tr.Addf("  [cache] %s from OCR cache", e.Category)
		}
	}

	ts, hasTS := a.timestamp(path)

	det := a.bodycam.Check(ctx, tr)
	r.Bodycam = det.Found
	r.BodycamRatio = det.Ratio
	switch {
	case det.Found:
		if hasTS {
			a.sightings.Record(ts)
		}
	case a.requireBodycam:
		if hasTS && a.sightings.Near(ts, a.window) {
			r.Bodycam = true
			r.Inherited = true
			r.BodycamRatio = inheritedRatio
			tr.Addf("  [bodycam] inherited from a sighting within %s", a.window)
		} else {
			r.Err = ReasonNoBodycam
			return r
		}
	}

	start := time.Now()
	f := seeded
	if !f.Found {
		f = a.trigger.Find(ctx, tr)
		if a.ocrCache != nil && hash != "" && f.Found {
			a.ocrCache.Put(hash, f.Texts, string(f.Category))
		}
	}
	r.Texts = f.Texts
	tr.Addf("  [trigger] found=%v category=%q method=%s (%dms)", f.Found, f.Category, f.Method, time.Since(start).Milliseconds())
	if !f.Found {
		r.Err = ReasonNoTrigger
		if r.Inherited {
			r.Bodycam = false
			r.Inherited = false
		}
		return r
	}
	r.Category = f.Category

	r.Features = features.Extract(ctx, a.cfg, tr)
	d := a.location.Decide(ctx, r.Features, tr)
	r.Location = d.Location
	r.Method = d.Method
	r.Confidence = d.Confidence
	tr.Addf("  [result] %s | %s | %s", r.Category, r.Location.Key(), r.Method)

	r.Night = isNight(ctx, a.cfg, a.rec, tr)
	r.OK = true
	return r
}

// Forget drops the cached result for a file so the next run recomputes it.
func (a *Analyzer) Forget(path string) {
	hash, err := a.hash(path)
	if err != nil {
		return
	}
	a.results.Pop(hash)
}

// Teach extracts the features of a labeled file and adds them to the
// location knowledge base.
func (a *Analyzer) Teach(path string, loc location.Location) (features.Vector, error) {
	if loc == location.Unknown {
		return nil, fmt.Errorf("cannot teach %s: no location", filepath.Base(path))
	}
	m, err := a.load(path)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to load %s: %w", filepath.Base(path), err)
	}
	ctx := image.NewContext(m)
	defer ctx.Close()

	vec := features.Extract(ctx, a.cfg, nil)
	if err := a.locationKB.AddSample(vec, loc.Key(), filepath.Base(path)); err != nil {
		return vec, fmt.Errorf("failed to save sample: %w", err)
	}
	return vec, nil
}

// TeachTrigger reads the chat area of a labeled file and records the texts
// in the trigger knowledge base.
func (a *Analyzer) TeachTrigger(path string, cat trigger.Category) ([]string, error) {
	if cat == trigger.None {
		return nil, fmt.Errorf("cannot teach %s: no category", filepath.Base(path))
	}
	m, err := a.load(path)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to load %s: %w", filepath.Base(path), err)
	}
	ctx := image.NewContext(m)
	defer ctx.Close()

	texts := a.trigger.ReadChat(ctx)
	vec := features.Extract(ctx, a.cfg, nil)
	if err := a.triggerKB.AddSample(filepath.Base(path), string(cat), texts, vec); err != nil {
		return texts, fmt.Errorf("failed to save sample: %w", err)
	}
	return texts, nil
}

// Knowledge returns the attached knowledge bases.
func (a *Analyzer) Knowledge() (*knowledge.LocationKB, *knowledge.TriggerKB) {
	return a.locationKB, a.triggerKB
}

// Close persists the OCR cache.
func (a *Analyzer) Close() error {
	if a.ocrCache == nil {
		return nil
	}
	if err := a.ocrCache.Save(); err != nil {
		return fmt.Errorf("failed to save OCR cache: %w", err)
	}
	return nil
}

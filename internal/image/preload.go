package image

import (
	"context"
	"sync"

	"gocv.io/x/gocv"
	"golang.org/x/sync/semaphore"
)

// LoadFunc decodes a file into a BGR Mat.
type LoadFunc func(path string) (gocv.Mat, error)

// Preloader decodes upcoming files in the background. Decoded frames are
// handed over exactly once through Get; the table holds at most 3x depth
// entries, evicting the oldest.
type Preloader struct {
	mu       sync.Mutex
	ready    map[string]gocv.Mat
	order    []string
	inflight map[string]chan struct{}

	depth int
	sem   *semaphore.Weighted
	load  LoadFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPreloader creates a preloader with the given lookahead depth and worker
// count. A nil load function uses Load.
func NewPreloader(depth, workers int, load LoadFunc) *Preloader {
	if depth <= 0 {
		depth = 4
	}
	if workers <= 0 {
		workers = 2
	}
	if load == nil {
		load = Load
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Preloader{
		ready:    make(map[string]gocv.Mat),
		inflight: make(map[string]chan struct{}),
		depth:    depth,
		sem:      semaphore.NewWeighted(int64(workers)),
		load:     load,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Prefetch schedules background decoding of the first depth paths that are
// neither ready nor already loading.
func (p *Preloader) Prefetch(paths []string) {
	if len(paths) > p.depth {
		paths = paths[:p.depth]
	}
	for _, path := range paths {
		p.mu.Lock()
		_, ready := p.ready[path]
		_, loading := p.inflight[path]
		if ready || loading || p.ctx.Err() != nil {
			p.mu.Unlock()
			continue
		}
		done := make(chan struct{})
		p.inflight[path] = done
		p.mu.Unlock()

		p.wg.Add(1)
		go p.fetch(path, done)
	}
}

func (p *Preloader) fetch(path string, done chan struct{}) {
	defer p.wg.Done()
	defer func() {
		p.mu.Lock()
		delete(p.inflight, path)
		p.mu.Unlock()
		close(done)
	}()

	if err := p.sem.Acquire(p.ctx, 1); err != nil {
		return
	}
	m, err := p.load(path)
	p.sem.Release(1)
	if err != nil {
		m.Close()
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx.Err() != nil {
		m.Close()
		return
	}
	if old, ok := p.ready[path]; ok {
		old.Close()
	} else {
		p.order = append(p.order, path)
	}
	p.ready[path] = m
	for len(p.ready) > p.depth*3 && len(p.order) > 0 {
		oldest := p.order[0]
		p.order = p.order[1:]
		if om, ok := p.ready[oldest]; ok {
			om.Close()
			delete(p.ready, oldest)
		}
	}
}

// Get returns the decoded frame for path, removing it from the table. A
// prefetch still in flight is waited for; a path that was never prefetched,
// or whose prefetch failed, is decoded synchronously. The caller owns the
// returned Mat.
func (p *Preloader) Get(path string) (gocv.Mat, error) {
	p.mu.Lock()
	done, loading := p.inflight[path]
	p.mu.Unlock()
	if loading {
		<-done
	}

	p.mu.Lock()
	if m, ok := p.take(path); ok {
		p.mu.Unlock()
		return m, nil
	}
	p.mu.Unlock()
	return p.load(path)
}

// take removes a ready frame from the table. p.mu must be held.
func (p *Preloader) take(path string) (gocv.Mat, bool) {
	m, ok := p.ready[path]
	if !ok {
		return m, false
	}
	delete(p.ready, path)
	for i, o := range p.order {
		if o == path {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return m, true
}

// Len returns the number of frames waiting to be claimed.
func (p *Preloader) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ready)
}

// Wait blocks until all scheduled loads have finished.
func (p *Preloader) Wait() {
	p.wg.Wait()
}

// Close stops scheduling, waits for running loads and releases unclaimed frames.
func (p *Preloader) Close() {
	p.cancel()
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range p.ready {
		m.Close()
	}
	p.ready = make(map[string]gocv.Mat)
	p.order = nil
}

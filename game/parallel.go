package game

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/neural"
)

// birdSnapshot captures read-only state for parallel processing.
type birdSnapshot struct {
	Entity ecs.Entity
	Body   components.Body
	Bird   components.Bird
	Policy neural.Policy
}

// intent captures computed outputs to apply after the parallel phase.
type intent struct {
	Body     components.Body // Body after integration and jump
	Err      error           // Policy failure
	Collided bool            // Cull flag
}

// workChunk represents a range of birds for a worker to process.
type workChunk struct {
	start, end int
	fn         func(i0, i1 int)
}

// parallelState holds resources for parallel per-bird computation. Workers
// only read snapshots and write their own intents; everything else happens
// on the stepping goroutine in population order.
type parallelState struct {
	snapshots  []birdSnapshot
	intents    []intent
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState(workers int) *parallelState {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &parallelState{
		numWorkers: workers,
		snapshots:  make([]birdSnapshot, 0, 64),
		intents:    make([]intent, 0, 64),
	}
}

// snapshotAlive copies every alive bird into the snapshot buffer in
// population order and clears the intents.
func (g *Generation) snapshotAlive() {
	p := g.parallel
	p.snapshots = p.snapshots[:0]
	for _, e := range g.alive {
		body, bird := g.birdMap.Get(e)
		p.snapshots = append(p.snapshots, birdSnapshot{
			Entity: e,
			Body:   *body,
			Bird:   *bird,
			Policy: g.candidates[bird.Slot].Policy,
		})
	}

	n := len(p.snapshots)
	if cap(p.intents) < n {
		p.intents = make([]intent, n)
	}
	p.intents = p.intents[:n]
	clear(p.intents)
}

// run calls fn over [0, n). Below threshold (or with threshold 0) it runs on
// the calling goroutine; otherwise the range is split across the workers.
func (p *parallelState) run(n, threshold int, fn func(i0, i1 int)) {
	if n == 0 {
		return
	}
	if threshold <= 0 || n < threshold || p.numWorkers < 2 {
		fn(0, n)
		return
	}

	if !p.running {
		p.start()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end, fn: fn}
		dispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}

// start launches persistent worker goroutines.
func (p *parallelState) start() {
	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *parallelState) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker processes chunks until stopped.
func (p *parallelState) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.fn(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

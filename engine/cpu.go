package engine

import (
	"runtime"
	"sync"

	"github.com/voxfield/voxfield/components"
	"github.com/voxfield/voxfield/forces"
)

// parallelThreshold is the minimum particle count to use the worker
// pool. Below this, single-threaded is faster due to goroutine
// overhead.
const parallelThreshold = 1024

// workChunk is a particle range for one worker dispatch.
type workChunk struct {
	start, end int
}

// CPUBackend integrates particles on the host with a persistent worker
// pool. It is the reference backend: the GPU backend must match its
// semantics, not the other way around.
type CPUBackend struct {
	composer   *forces.Composer
	numWorkers int

	workChan chan workChunk
	doneChan chan int // healed count per chunk
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool

	// Per-dispatch inputs, written single-threaded before chunks are
	// sent, read-only inside workers.
	src, dst *Buffers
	targets  *Targets
	fp       *forces.FrameParams
	dt       float32
}

// NewCPUBackend builds the backend and starts its workers.
func NewCPUBackend(composer *forces.Composer) *CPUBackend {
	b := &CPUBackend{
		composer:   composer,
		numWorkers: runtime.GOMAXPROCS(0),
	}
	b.startWorkers()
	return b
}

func (b *CPUBackend) Name() string { return "cpu" }

func (b *CPUBackend) startWorkers() {
	if b.running {
		return
	}
	b.workChan = make(chan workChunk, b.numWorkers)
	b.doneChan = make(chan int, b.numWorkers)
	b.stopChan = make(chan struct{})
	b.running = true

	for i := 0; i < b.numWorkers; i++ {
		b.wg.Add(1)
		go b.worker()
	}
}

func (b *CPUBackend) worker() {
	defer b.wg.Done()
	for {
		select {
		case <-b.stopChan:
			return
		case chunk, ok := <-b.workChan:
			if !ok {
				return
			}
			b.doneChan <- b.stepChunk(chunk.start, chunk.end)
		}
	}
}

// Step integrates [0, n) from src into dst and reports healed faults.
func (b *CPUBackend) Step(src, dst *Buffers, t *Targets, fp *forces.FrameParams, dt float32) int {
	n := len(src.PosX)
	b.src, b.dst, b.targets, b.fp, b.dt = src, dst, t, fp, dt

	if n < parallelThreshold {
		return b.stepChunk(0, n)
	}

	chunkSize := (n + b.numWorkers - 1) / b.numWorkers
	sent := 0
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		b.workChan <- workChunk{start: start, end: end}
		sent++
	}
	healed := 0
	for i := 0; i < sent; i++ {
		healed += <-b.doneChan
	}
	return healed
}

// stepChunk advances one particle range: semi-implicit Euler over the
// composed force, then a finiteness check that resets faulted
// particles onto their target point.
func (b *CPUBackend) stepChunk(start, end int) int {
	src, dst, t, fp, dt := b.src, b.dst, b.targets, b.fp, b.dt
	healed := 0
	for i := start; i < end; i++ {
		p := components.Vec3{X: src.PosX[i], Y: src.PosY[i], Z: src.PosZ[i]}
		v := components.Vec3{X: src.VelX[i], Y: src.VelY[i], Z: src.VelZ[i]}
		tgt := components.Vec3{X: t.X[i], Y: t.Y[i], Z: t.Z[i]}

		f := b.composer.Force(p, v, tgt, fp)
		v = v.Add(f.Scale(dt))
		p = p.Add(v.Scale(dt))

		if !p.IsFinite() || !v.IsFinite() {
			p, v = tgt, components.Vec3{}
			healed++
		}
		dst.PosX[i], dst.PosY[i], dst.PosZ[i] = p.X, p.Y, p.Z
		dst.VelX[i], dst.VelY[i], dst.VelZ[i] = v.X, v.Y, v.Z
	}
	return healed
}

// Close stops the workers.
func (b *CPUBackend) Close() {
	if !b.running {
		return
	}
	close(b.stopChan)
	b.wg.Wait()
	close(b.workChan)
	close(b.doneChan)
	b.running = false
}

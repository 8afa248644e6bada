// Package palette implements the palette construction stage (C3): the
// cross product of source samples and a pitch grid, turned into the
// columns of the non-negative basis matrix W via pitch-shift -> first-tick
// -> mel feature extraction. Feature extraction is farmed across a worker
// pool sized to available cores, grounded on the teacher's
// cmd/piano-fit-fast/optimize.go worker-pool pattern (sync.WaitGroup over a
// fixed goroutine count rather than one goroutine per task).
package palette

import (
	"runtime"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/caeklol/sample-palette/internal/obslog"
	"github.com/caeklol/sample-palette/sound"
	"github.com/caeklol/sample-palette/spectral"
)

// Key identifies one palette column: a source identifier and the pitch
// factor it was shifted by.
type Key struct {
	ID    string
	Pitch float32
}

// InterpolatedRange returns r equally spaced points in [a,b] inclusive,
// r >= 2. Ported from the original implementation's algebra.rs
// interpolated_range, used here to build the pitch grid.
func InterpolatedRange(a, b float32, r int) []float32 {
	if r < 2 {
		r = 2
	}
	step := (b - a) / float32(r-1)
	out := make([]float32, r)
	for i := range out {
		out[i] = a + float32(i)*step
	}
	return out
}

// Options configures Build.
type Options struct {
	PitchResolution int // R, default 256
	TargetRate      int // 48000
	Workers         int // 0 = runtime.GOMAXPROCS(0)
	Log             *obslog.Logger
}

type task struct {
	id     string
	pitch  float32
	source sound.Sound
}

type result struct {
	key     Key
	feature []float64
	ok      bool
}

// Build computes the cross product of samples x pitch grid and returns the
// palette matrix W (m, r) alongside the parallel key list, in
// samples-outer/pitches-inner insertion order. Identifiers are iterated in
// sorted order since the input map has none of its own; this keeps column
// order deterministic across runs for the same input, which is what
// spec.md's ordering guarantee actually requires. Entries whose
// pitch-shifted source is shorter than one tick are silently dropped
// (spec.md §7's tolerated decode-short).
func Build(cache *spectral.PlanCache, samples map[string]sound.Sound, opts Options) (*mat.Dense, []Key, error) {
	resolution := opts.PitchResolution
	if resolution <= 0 {
		resolution = 256
	}
	targetRate := opts.TargetRate
	if targetRate <= 0 {
		targetRate = 48000
	}
	pitches := InterpolatedRange(0.5, 2.0, resolution)

	ids := make([]string, 0, len(samples))
	for id := range samples {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Every palette column must share one feature length (spec.md §3's
	// fixed-length feature vector invariant), so sources are conformed to
	// the target rate once per identifier, before the per-pitch fan-out.
	conformed := make(map[string]sound.Sound, len(ids))
	for _, id := range ids {
		s := samples[id]
		if s.SampleRate != targetRate {
			s = sound.Resample(s, targetRate)
		}
		conformed[id] = s
	}

	tasks := make([]task, 0, len(ids)*len(pitches))
	for _, id := range ids {
		for _, p := range pitches {
			tasks = append(tasks, task{id: id, pitch: p, source: conformed[id]})
		}
	}
	if len(tasks) == 0 {
		return &mat.Dense{}, nil, nil
	}

	results := make([]result, len(tasks))
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	var idx int64Counter
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i, ok := idx.next(len(tasks))
				if !ok {
					return
				}
				results[i] = extractFeature(cache, tasks[i], opts)
			}
		}()
	}
	wg.Wait()

	rows := make([][]float64, 0, len(tasks))
	keys := make([]Key, 0, len(tasks))
	for _, r := range results {
		if !r.ok {
			continue
		}
		rows = append(rows, r.feature)
		keys = append(keys, r.key)
	}
	if len(rows) == 0 {
		return &mat.Dense{}, nil, nil
	}

	m := len(rows[0])
	w := mat.NewDense(m, len(rows), nil)
	for col, feat := range rows {
		for row, v := range feat {
			w.Set(row, col, v)
		}
	}
	return w, keys, nil
}

func extractFeature(cache *spectral.PlanCache, t task, opts Options) result {
	shifted := sound.PitchShift(t.source, t.pitch)
	tickLen := sound.TickSamples(t.source.SampleRate)
	if len(shifted.Samples) < tickLen {
		if opts.Log != nil {
			opts.Log.Warnf("palette: dropping %q @ pitch %.4f: %d samples after shift, need %d", t.id, t.pitch, len(shifted.Samples), tickLen)
		}
		return result{}
	}
	tick := sound.FirstTick(shifted)
	shaped := spectral.Mel(cache, tick)
	feat := make([]float64, len(shaped.Samples))
	for i, v := range shaped.Samples {
		feat[i] = float64(v)
	}
	return result{key: Key{ID: t.id, Pitch: t.pitch}, feature: feat, ok: true}
}

// int64Counter hands out sequential work indices to a fixed worker pool,
// grounded on optimize.go's atomic eval-reservation pattern but specialized
// to a simple monotonically increasing cursor (no budget to race against).
type int64Counter struct {
	mu  sync.Mutex
	cur int
}

func (c *int64Counter) next(limit int) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur >= limit {
		return 0, false
	}
	i := c.cur
	c.cur++
	return i, true
}

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/caeklol/sample-palette/internal/obslog"
	"github.com/caeklol/sample-palette/matrix"
	"github.com/caeklol/sample-palette/palette"
	"github.com/caeklol/sample-palette/schedule"
	"github.com/caeklol/sample-palette/sound"
	"github.com/caeklol/sample-palette/spectral"
)

// ErrStereoInput is returned when Build is given audio with more than one
// channel; the caller must downmix (sound.DownmixStereo) before ingestion
// (spec.md §6).
var ErrStereoInput = errors.New("pipeline: stereo input rejected, caller must downmix")

// ErrEmptyPalette is returned when Build has no usable palette columns
// (every source sample was dropped as decode-short, or none were given).
var ErrEmptyPalette = errors.New("pipeline: palette is empty")

// Input is the audio-ingestion boundary: a PCM stream, its sample rate, and
// its channel count. The core only ever accepts Channels <= 1.
type Input struct {
	Samples    []float32
	SampleRate int
	Channels   int // 0 is treated as mono
}

// Schedule is the ordered playback schedule Build produces: one TickRecord
// per input tick, plus enough palette metadata for a collaborator to
// resolve identifiers.
type Schedule struct {
	SampleRate int
	Records    []schedule.TickRecord
	Keys       []palette.Key
}

// Pipeline glues C1-C6 behind one entry point (C8). Construct with New and
// reuse across calls; the palette matrix is cached after the first
// Palette/Build call so repeated Build calls against the same sample set
// don't repeat the pitch-shift/mel fan-out.
type Pipeline struct {
	Config Config
	Log    *obslog.Logger

	cache *spectral.PlanCache

	paletteW    *mat.Dense
	paletteKeys []palette.Key
}

// New constructs a Pipeline. A nil logger discards observability output:
// obslog's methods do nothing on a nil *Logger.
func New(cfg Config, log *obslog.Logger) *Pipeline {
	return &Pipeline{
		Config: cfg,
		Log:    log,
		cache:  spectral.NewPlanCache(log),
	}
}

// ResetPalette discards the cached palette matrix, forcing the next
// Palette/Build call to rebuild it.
func (p *Pipeline) ResetPalette() {
	p.paletteW = nil
	p.paletteKeys = nil
}

// Palette builds (or returns the cached) palette matrix W and its parallel
// key list for the given source samples. Once a palette is cached it is
// returned whatever samples are passed; ResetPalette clears it.
func (p *Pipeline) Palette(samples map[string]sound.Sound) (*mat.Dense, []palette.Key, error) {
	if p.paletteW != nil {
		return p.paletteW, p.paletteKeys, nil
	}
	w, keys, err := palette.Build(p.cache, samples, palette.Options{
		PitchResolution: p.Config.PitchResolution,
		TargetRate:      p.Config.TargetRate,
		Workers:         p.Config.Workers,
		Log:             p.Log,
	})
	if err != nil {
		return nil, nil, err
	}
	p.paletteW = w
	p.paletteKeys = keys
	return w, keys, nil
}

// Build runs the full signal-to-palette decomposition for input against
// samples, returning the tick-ordered playback schedule.
func (p *Pipeline) Build(ctx context.Context, samples map[string]sound.Sound, input Input) (Schedule, error) {
	if input.Channels > 1 {
		return Schedule{}, ErrStereoInput
	}
	if ctx != nil && ctx.Err() != nil {
		return Schedule{}, ctx.Err()
	}

	w, keys, err := p.Palette(samples)
	if err != nil {
		return Schedule{}, fmt.Errorf("pipeline: building palette: %w", err)
	}
	rows, _ := w.Dims()
	if rows == 0 || len(keys) == 0 {
		return Schedule{}, ErrEmptyPalette
	}

	if ctx != nil && ctx.Err() != nil {
		return Schedule{}, ctx.Err()
	}

	v := p.buildInputMatrix(input)

	if ctx != nil && ctx.Err() != nil {
		return Schedule{}, ctx.Err()
	}

	backend := p.Config.backend()
	iters := p.Config.SolverIterations
	if iters <= 0 {
		iters = 128
	}
	step := p.Config.SolverStep
	if step == 0 {
		step = 1e-6
	}
	h, err := backend.Solve(ctx, v, w, iters, step)
	if err != nil {
		return Schedule{}, fmt.Errorf("pipeline: nnls solve: %w", err)
	}

	matrix.NormalizeToGlobal(h)
	eps := p.Config.ActivationEpsilon
	if eps == 0 {
		eps = 1e-5
	}
	matrix.ApplyEpsilon(h, eps)

	records := schedule.Build(h, keys, p.Config.TopK)
	return Schedule{
		SampleRate: p.Config.TargetRate,
		Records:    records,
		Keys:       keys,
	}, nil
}

// buildInputMatrix conforms input to the target rate, chunks it into whole
// ticks (the trailing partial tick is dropped, not padded — the asymmetric
// counterpart to the palette path's first-tick zero-padding, spec.md §9),
// and stacks each tick's mel feature as a column of V.
func (p *Pipeline) buildInputMatrix(input Input) *mat.Dense {
	targetRate := p.Config.TargetRate
	if targetRate <= 0 {
		targetRate = 48000
	}
	s := sound.New(input.Samples, input.SampleRate)
	if s.SampleRate != targetRate {
		s = sound.Resample(s, targetRate)
	}
	s = sound.DropPartialTick(s)

	tickLen := sound.TickSamples(targetRate)
	if tickLen <= 0 || len(s.Samples) == 0 {
		return mat.NewDense(tickLen, 0, nil)
	}
	numTicks := len(s.Samples) / tickLen

	v := mat.NewDense(tickLen, numTicks, nil)
	for k := 0; k < numTicks; k++ {
		chunk := sound.New(s.Samples[k*tickLen:(k+1)*tickLen], targetRate)
		shaped := spectral.Mel(p.cache, chunk)
		for row, val := range shaped.Samples {
			v.Set(row, k, float64(val))
		}
	}
	return v
}

// Package spectral implements the short-window perceptual frontend (C2): a
// windowed forward/inverse discrete Fourier transform with a read-through
// plan cache, and the mel-like spectral weighting applied to every tick.
//
// The plan cache mirrors the teacher's analysis/distance.go pattern (plans
// keyed by transform length) and the original Rust implementation's
// Processor. One complex plan per length serves both the forward and the
// inverse transform; there are no separate forward and inverse caches. The
// cache is pre-warmed for exactly the two lengths this system ever actually sees: 2205
// samples (one 50ms tick at 44.1kHz) and 2400 samples (one tick at 48kHz).
package spectral

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/caeklol/sample-palette/internal/obslog"
	"github.com/caeklol/sample-palette/sound"
)

// Samples-per-tick at the two sample rates this system is ever warmed for.
const (
	TickSamples44100 = 2205
	TickSamples48000 = 2400
)

// PlanCache is a read-through cache of FFT plans keyed by transform length.
// A miss builds and uses a fresh, uninserted plan: the cache is deliberately
// kept lock-free on the hot path rather than synchronized for concurrent
// insertion (spec design note, §5/§9).
type PlanCache struct {
	log   *obslog.Logger
	plans sync.Map // map[int]*fourier.CmplxFFT
}

// NewPlanCache returns a cache pre-warmed for the two hot tick lengths.
func NewPlanCache(log *obslog.Logger) *PlanCache {
	c := &PlanCache{log: log}
	c.plans.Store(TickSamples44100, fourier.NewCmplxFFT(TickSamples44100))
	c.plans.Store(TickSamples48000, fourier.NewCmplxFFT(TickSamples48000))
	return c
}

func (c *PlanCache) plan(n int) *fourier.CmplxFFT {
	if v, ok := c.plans.Load(n); ok {
		return v.(*fourier.CmplxFFT)
	}
	c.log.Debugf("spectral: fft plan cache miss for length %d", n)
	return fourier.NewCmplxFFT(n)
}

// hamming returns a length-n Hamming window.
func hamming(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// FFT applies a Hamming window to s, embeds it as complex, and runs the
// cached forward plan. The returned slice has len(s.Samples) bins; bin i
// carries raw frequency i*rate/N, i.e. it is not folded back below Nyquist.
func FFT(c *PlanCache, s sound.Sound) []complex128 {
	n := len(s.Samples)
	if n == 0 {
		return nil
	}
	win := hamming(n)
	buf := make([]complex128, n)
	for i, v := range s.Samples {
		buf[i] = complex(float64(v)*win[i], 0)
	}
	plan := c.plan(n)
	out := make([]complex128, n)
	plan.Coefficients(out, buf)
	return out
}

// IFFT runs the cached inverse plan over bins and returns the real parts.
// The transform is not energy-normalized; callers must not depend on
// amplitude scale except through downstream normalization (spec.md §4.2).
func IFFT(c *PlanCache, bins []complex128, sampleRate int) sound.Sound {
	n := len(bins)
	if n == 0 {
		return sound.Sound{SampleRate: sampleRate}
	}
	plan := c.plan(n)
	out := make([]complex128, n)
	plan.Sequence(out, bins)
	samples := make([]float32, n)
	for i, v := range out {
		samples[i] = float32(real(v))
	}
	return sound.Sound{Samples: samples, SampleRate: sampleRate}
}

// melTerm is the mel-like component of the frequency weighting. The
// constants (2595, 700, 24000) are undocumented in the original
// implementation and are not a calibrated mel filterbank; they are
// preserved bit-for-bit per spec.md §9.
func melTerm(f float64) float64 {
	return (2 * 2595 * math.Log10(1+f/700)) / 24000
}

// highPassTerm is the high-pass component of the frequency weighting,
// clamped to <= 1 by the caller before multiplying by melTerm.
func highPassTerm(f float64) float64 {
	return f/(f*f+100*100) + 0.4
}

// weight computes w(f) = m(f) * clamp(h(f), <=1) for frequency f in Hz.
func weight(f float64) float64 {
	h := highPassTerm(f)
	if h > 1 {
		h = 1
	}
	return melTerm(f) * h
}

// Mel round-trips s through fft -> weight -> ifft, boosting mid-frequency
// content and de-emphasizing bass per spec.md §4.2. The output retains s's
// sample rate and length.
func Mel(c *PlanCache, s sound.Sound) sound.Sound {
	n := len(s.Samples)
	if n == 0 {
		return s
	}
	bins := FFT(c, s)
	rate := float64(s.SampleRate)
	for i, b := range bins {
		f := float64(i) * rate / float64(n)
		bins[i] = b * complex(weight(f), 0)
	}
	return IFFT(c, bins, s.SampleRate)
}

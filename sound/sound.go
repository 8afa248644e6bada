// Package sound implements the sample-utility primitives (C1): pitch
// shifting, resampling, tick truncation and volume scaling over a mono PCM
// buffer. It mirrors the lerp-based resampling the original Rust
// implementation used (original_source/src/audio.rs's adjust_pitch) and the
// teacher's habit of keeping per-sample DSP free of heap churn in hot loops.
package sound

import (
	"math"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
)

// Sound is a mono PCM buffer plus its sample rate. Samples are finite
// real-valued; SampleRate is always > 0 for a non-empty Sound.
type Sound struct {
	Samples    []float32
	SampleRate int
}

// New wraps samples at the given sample rate.
func New(samples []float32, sampleRate int) Sound {
	return Sound{Samples: samples, SampleRate: sampleRate}
}

func lerp(a, b, t float32) float32 {
	return a*(1-t) + b*t
}

// PitchShift resamples s by playback-speed factor p: output length is
// floor(len(s)/p). p == 1.0 returns s unchanged (sample rate preserved).
func PitchShift(s Sound, p float32) Sound {
	if p == 1.0 {
		return s
	}
	n := len(s.Samples)
	if n == 0 || p <= 0 {
		return Sound{SampleRate: s.SampleRate}
	}

	outLen := int(float32(n) / p)
	out := make([]float32, outLen)
	for i := 0; i < outLen; i++ {
		x := float32(i) * p
		lo := int(math.Floor(float64(x)))
		hi := int(math.Ceil(float64(x)))
		if hi >= n {
			hi = n - 1
		}
		if lo >= n {
			lo = n - 1
		}
		out[i] = lerp(s.Samples[lo], s.Samples[hi], x-float32(lo))
	}
	return Sound{Samples: out, SampleRate: s.SampleRate}
}

// Resample changes the sample rate of s to targetRate, preserving duration.
// It uses algo-dsp's QualityBest resampler and conforms the result to
// floor(len(s)*targetRate/sampleRate) samples; plain linear interpolation
// (linearResample) is used only when that resampler cannot be built for
// the given rates. Returns an empty Sound if either the input or the
// computed output length is zero.
func Resample(s Sound, targetRate int) Sound {
	n := len(s.Samples)
	if n == 0 || targetRate <= 0 || s.SampleRate <= 0 {
		return Sound{SampleRate: targetRate}
	}
	outLen := int(float64(n) * float64(targetRate) / float64(s.SampleRate))
	if outLen == 0 {
		return Sound{SampleRate: targetRate}
	}

	in64 := make([]float64, n)
	for i, v := range s.Samples {
		in64[i] = float64(v)
	}

	r, err := dspresample.NewForRates(
		float64(s.SampleRate),
		float64(targetRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return linearResample(s, targetRate, outLen)
	}
	out64 := r.Process(in64)
	if len(out64) == 0 {
		return Sound{SampleRate: targetRate}
	}
	// The spec's contract is an exact output length of
	// floor(len(s)*targetRate/sampleRate); algo-dsp's resampler may land a
	// frame or two off that due to its own filter design, so the result is
	// conformed to the contracted length rather than passed through raw.
	if len(out64) != outLen {
		out64 = conformLength(out64, outLen)
	}
	out := make([]float32, len(out64))
	for i, v := range out64 {
		out[i] = float32(v)
	}
	return Sound{Samples: out, SampleRate: targetRate}
}

// conformLength linearly resamples x to exactly n samples.
func conformLength(x []float64, n int) []float64 {
	if len(x) == 0 || n <= 0 {
		return make([]float64, n)
	}
	if n == 1 {
		return []float64{x[0]}
	}
	out := make([]float64, n)
	step := float64(len(x)-1) / float64(n-1)
	for i := 0; i < n; i++ {
		pos := float64(i) * step
		lo := int(math.Floor(pos))
		hi := lo + 1
		if hi >= len(x) {
			hi = len(x) - 1
		}
		t := pos - float64(lo)
		out[i] = x[lo]*(1-t) + x[hi]*t
	}
	return out
}

// linearResample is the spec-literal fallback (step = (n-1)/(outLen-1)),
// used when algo-dsp's resampler cannot be constructed for the given rates.
func linearResample(s Sound, targetRate, outLen int) Sound {
	n := len(s.Samples)
	out := make([]float32, outLen)
	if outLen == 1 {
		out[0] = s.Samples[0]
		return Sound{Samples: out, SampleRate: targetRate}
	}
	step := float64(n-1) / float64(outLen-1)
	for i := 0; i < outLen; i++ {
		x := float64(i) * step
		lo := int(math.Floor(x))
		hi := lo + 1
		if hi >= n {
			hi = n - 1
		}
		out[i] = lerp(s.Samples[lo], s.Samples[hi], float32(x-float64(lo)))
	}
	return Sound{Samples: out, SampleRate: targetRate}
}

// TickSamples returns the number of samples in one 50ms tick at rate.
func TickSamples(rate int) int {
	return (rate*50 + 999) / 1000
}

// FirstTick truncates s to exactly one tick's worth of samples, zero-padding
// if s is shorter. This is the palette-construction path's contract; see
// DropPartialTick for the input-ingestion path's asymmetric contract.
func FirstTick(s Sound) Sound {
	n := TickSamples(s.SampleRate)
	out := make([]float32, n)
	copy(out, s.Samples)
	return Sound{Samples: out, SampleRate: s.SampleRate}
}

// DropPartialTick truncates s to a whole number of ticks, discarding any
// trailing partial tick rather than padding it. This is the input-ingestion
// path's contract, deliberately asymmetric with FirstTick's padding.
func DropPartialTick(s Sound) Sound {
	n := TickSamples(s.SampleRate)
	if n <= 0 {
		return Sound{SampleRate: s.SampleRate}
	}
	whole := (len(s.Samples) / n) * n
	out := make([]float32, whole)
	copy(out, s.Samples[:whole])
	return Sound{Samples: out, SampleRate: s.SampleRate}
}

// Volume scales s in place by g.
func Volume(s Sound, g float32) {
	for i := range s.Samples {
		s.Samples[i] *= g
	}
}

// DownmixStereo arithmetic-mean-downmixes an interleaved stereo buffer to
// mono. Ingestion boundaries call this before handing audio to the core,
// which itself only ever accepts mono (spec.md §6).
func DownmixStereo(interleaved []float32) []float32 {
	n := len(interleaved) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = 0.5 * (interleaved[2*i] + interleaved[2*i+1])
	}
	return out
}

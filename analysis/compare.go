// Package analysis implements the reconstruction diagnostics component
// (C7): an offline quality check comparing the original input audio
// against whatever a collaborator resynthesizes by replaying an emitted
// schedule. It is grounded directly on the teacher's
// analysis/distance.go — the same plan-cache-by-length pattern (lazily
// built fast/safe FFT plans keyed by transform length, sync.Map-backed) and
// the same windowed-spectral-RMSE-in-dB metric — scoped down since ticks
// coming out of this module's scheduler are already time-aligned, so no lag
// estimation is needed.
package analysis

import (
	"errors"
	"math"
	"math/cmplx"
	"sync"

	algofft "github.com/cwbudde/algo-fft"
)

var spectralPlanCache sync.Map // map[int]*spectralFFTPlan

type spectralFFTPlan struct {
	mu   sync.Mutex
	fast *algofft.FastPlanReal64
	safe *algofft.PlanRealT[float64, complex128]
}

func getSpectralFFTPlan(n int) (*spectralFFTPlan, error) {
	if v, ok := spectralPlanCache.Load(n); ok {
		return v.(*spectralFFTPlan), nil
	}
	p := &spectralFFTPlan{}
	if fast, err := algofft.NewFastPlanReal64(n); err == nil {
		p.fast = fast
	} else if !errors.Is(err, algofft.ErrNotImplemented) {
		// Ignore fast-plan setup errors and rely on the safe plan.
	}
	safe, err := algofft.NewPlanReal64(n)
	if err != nil {
		if p.fast == nil {
			return nil, err
		}
	} else {
		p.safe = safe
	}
	actual, _ := spectralPlanCache.LoadOrStore(n, p)
	return actual.(*spectralFFTPlan), nil
}

func (p *spectralFFTPlan) forward(dst []complex128, src []float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fast != nil {
		p.fast.Forward(dst, src)
		return nil
	}
	if p.safe != nil {
		return p.safe.Forward(dst, src)
	}
	return errors.New("analysis: missing fft plan")
}

// Report holds the reconstruction-quality comparison between an input
// signal and its resynthesis.
type Report struct {
	SampleRate     int
	Frames         int
	TimeRMSE       float64
	SpectralRMSEDB float64
	Score          float64
	Similarity     float64
}

// Compare returns reconstruction-quality metrics between input and
// resynth, the collaborator-rendered audio for an emitted schedule. The two
// signals are compared sample-for-sample over their common length; callers
// are responsible for time-aligning them (this module's output is already
// tick-aligned with the input by construction, unlike the teacher's
// arbitrary-offset candidate renders, so no cross-correlation lag search is
// performed here).
func Compare(input, resynth []float64, sampleRate int) Report {
	n := len(input)
	if len(resynth) < n {
		n = len(resynth)
	}
	rpt := Report{SampleRate: sampleRate, Frames: n}
	if n == 0 || sampleRate <= 0 {
		rpt.Score = 1.0
		return rpt
	}
	a := input[:n]
	b := resynth[:n]

	rpt.TimeRMSE = rmse(a, b)
	rpt.SpectralRMSEDB = spectralRMSEDB(a, b)

	const normTime = 0.25
	const normSpectral = 30.0
	timeNorm := clamp01(rpt.TimeRMSE / normTime)
	specNorm := clamp01(rpt.SpectralRMSEDB / normSpectral)
	rpt.Score = clamp01(0.5*timeNorm + 0.5*specNorm)
	rpt.Similarity = clamp01(math.Exp(-4.0 * rpt.Score))
	return rpt
}

func rmse(a, b []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(a)))
}

func spectralRMSEDB(a, b []float64) float64 {
	n := len(a)
	if n < 512 {
		return 0
	}
	if n > 4096 {
		n = 4096
	}
	if n%2 != 0 {
		n--
	}
	if n < 512 {
		return 0
	}

	aw := make([]float64, n)
	bw := make([]float64, n)
	for i := 0; i < n; i++ {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		aw[i] = a[i] * w
		bw[i] = b[i] * w
	}

	bins := n / 2
	plan, err := getSpectralFFTPlan(n)
	if err != nil {
		return 0
	}
	specA := make([]complex128, bins+1)
	specB := make([]complex128, bins+1)
	if err := plan.forward(specA, aw); err != nil {
		return 0
	}
	if err := plan.forward(specB, bw); err != nil {
		return 0
	}

	var sum float64
	for k := 1; k < bins; k++ {
		da := linToDB(cmplx.Abs(specA[k]))
		db := linToDB(cmplx.Abs(specB[k]))
		d := da - db
		sum += d * d
	}
	return math.Sqrt(sum / float64(bins-1))
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

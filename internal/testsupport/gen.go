// Package testsupport provides small synthetic-signal helpers shared by
// this module's tests, matching spec.md §8's round-trip scenarios (which
// are phrased directly in terms of a gen_tone helper).
package testsupport

import (
	"math"

	"github.com/caeklol/sample-palette/sound"
)

// GenTone generates a pure sine tone at hz Hz, sampled at rate Hz, for
// durationMs milliseconds.
func GenTone(hz float64, rate int, durationMs int) sound.Sound {
	n := rate * durationMs / 1000
	samples := make([]float32, n)
	for i := range samples {
		t := float64(i) / float64(rate)
		samples[i] = float32(math.Sin(2 * math.Pi * hz * t))
	}
	return sound.Sound{Samples: samples, SampleRate: rate}
}

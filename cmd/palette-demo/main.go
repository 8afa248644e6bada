// Command palette-demo decomposes a synthetic input tone against a small
// set of synthetic sample sources and prints the resulting tick schedule.
// It is a demonstration harness, not a file-format tool: real sample and
// input audio decoding is out of scope (spec.md §1's Non-goals), so every
// source here is a generated sine tone.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/caeklol/sample-palette/internal/obslog"
	"github.com/caeklol/sample-palette/pipeline"
	"github.com/caeklol/sample-palette/sound"
)

func main() {
	inputHz := flag.Float64("input-hz", 220.0, "frequency of the synthetic input tone")
	durationMS := flag.Int("duration-ms", 250, "input tone duration in milliseconds")
	pitchResolution := flag.Int("pitch-resolution", 64, "pitch grid resolution R")
	solverIterations := flag.Int("solver-iterations", 128, "NNLS projected-gradient iteration count")
	backendName := flag.String("backend", "reference", "NNLS backend: reference or accelerated")
	topK := flag.Int("top-k", 64, "max schedule entries per tick")
	flag.Parse()

	backend := pipeline.BackendReference
	switch *backendName {
	case "reference":
		backend = pipeline.BackendReference
	case "accelerated":
		backend = pipeline.BackendAccelerated
	default:
		fmt.Fprintf(os.Stderr, "unknown backend %q (want reference or accelerated)\n", *backendName)
		os.Exit(1)
	}

	cfg := pipeline.DefaultConfig()
	cfg.PitchResolution = *pitchResolution
	cfg.SolverIterations = *solverIterations
	cfg.Backend = backend
	cfg.TopK = *topK

	log := obslog.New(os.Stderr)
	p := pipeline.New(cfg, log)

	samples := map[string]sound.Sound{
		"kick":  genTone(80, 48000, 400),
		"snare": genTone(220, 48000, 400),
		"hat":   genTone(6000, 48000, 200),
	}

	input := genTone(*inputHz, 48000, *durationMS)

	fmt.Printf("decomposing %.1f Hz x %dms against %d sources (R=%d, backend=%s)...\n",
		*inputHz, *durationMS, len(samples), *pitchResolution, *backendName)

	sched, err := p.Build(context.Background(), samples, pipeline.Input{
		Samples:    input.Samples,
		SampleRate: input.SampleRate,
		Channels:   1,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}

	for _, rec := range sched.Records {
		fmt.Printf("tick %3d:", rec.Tick)
		for _, e := range rec.Entries {
			if e.Amplitude == 0 {
				break
			}
			fmt.Printf(" %s@%.3fx=%.4f", e.ID, e.Pitch, e.Amplitude)
		}
		fmt.Println()
	}
}

func genTone(hz float64, rate int, durationMs int) sound.Sound {
	n := rate * durationMs / 1000
	samples := make([]float32, n)
	for i := range samples {
		t := float64(i) / float64(rate)
		samples[i] = float32(math.Sin(2 * math.Pi * hz * t))
	}
	return sound.Sound{Samples: samples, SampleRate: rate}
}

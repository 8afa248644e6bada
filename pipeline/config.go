// Package pipeline wires the sample-utility, spectral, palette, matrix,
// NNLS, and scheduler components into the single Build entry point
// spec.md's "system" needs (C8), in the data-flow order spec.md §2 draws.
// The shape — one façade type wrapping the subsystems, constructed once and
// driven with a small number of public methods — is the same shape the
// teacher's piano.Piano/NewPiano(...).Process(...) takes.
package pipeline

import "github.com/caeklol/sample-palette/nnls"

// Backend selects which NNLS implementation a Pipeline solves with.
type Backend int

const (
	// BackendReference is the host-CPU NNLS implementation.
	BackendReference Backend = iota
	// BackendAccelerated is the simulated offload-device implementation.
	BackendAccelerated
)

// Config gathers every configuration value spec.md §6 enumerates.
type Config struct {
	PitchResolution   int     // R, default 256
	TargetRate        int     // fixed at 48000 Hz
	TickMS            int     // fixed at 50 ms
	SolverIterations  int     // default 128
	SolverStep        float64 // default 1e-6
	ActivationEpsilon float64 // default 1e-5
	TopK              int     // default 64
	Backend           Backend
	Workers           int // 0 = runtime.GOMAXPROCS(0)
}

// DefaultConfig returns the documented defaults from spec.md §6.
func DefaultConfig() Config {
	return Config{
		PitchResolution:   256,
		TargetRate:        48000,
		TickMS:            50,
		SolverIterations:  128,
		SolverStep:        1e-6,
		ActivationEpsilon: 1e-5,
		TopK:              64,
		Backend:           BackendReference,
	}
}

func (c Config) backend() nnls.Backend {
	switch c.Backend {
	case BackendAccelerated:
		return nnls.AcceleratedBackend{Workers: c.Workers}
	default:
		return nnls.ReferenceBackend{}
	}
}

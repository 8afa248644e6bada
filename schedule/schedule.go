// Package schedule implements the activation post-processor and scheduler
// (C6): selecting the top-K palette entries per tick from a normalized,
// epsilon-thresholded activation matrix and emitting the playback records a
// collaborator drives its sample engine from.
package schedule

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/caeklol/sample-palette/palette"
)

// Entry is one palette entry's contribution to a tick: its identifier,
// pitch factor, and activation amplitude.
type Entry struct {
	ID        string
	Pitch     float32
	Amplitude float64
}

// TickRecord is the schedule for one 50ms tick: up to K entries sorted by
// descending amplitude. A record whose first entry has amplitude 0 is a
// stop cue (spec.md §4.6) — it is still emitted, never suppressed.
type TickRecord struct {
	Tick    int
	Entries []Entry
}

// DefaultTopK is the K in spec.md's "up to K = 64 entries per tick".
const DefaultTopK = 64

// Build selects, for every column k of h, the top topK entries by
// descending amplitude (ties broken by palette insertion order, i.e. the
// row index in h) and returns one TickRecord per column in ascending tick
// order.
func Build(h *mat.Dense, keys []palette.Key, topK int) []TickRecord {
	if topK <= 0 {
		topK = DefaultTopK
	}
	r, n := h.Dims()
	records := make([]TickRecord, n)
	for k := 0; k < n; k++ {
		entries := make([]Entry, r)
		for j := 0; j < r; j++ {
			entries[j] = Entry{ID: keys[j].ID, Pitch: keys[j].Pitch, Amplitude: h.At(j, k)}
		}
		// Stable sort preserves ascending row index (insertion order) among
		// equal amplitudes, per spec.md's tie-break rule.
		sort.SliceStable(entries, func(a, b int) bool {
			return entries[a].Amplitude > entries[b].Amplitude
		})
		if len(entries) > topK {
			entries = entries[:topK]
		}
		records[k] = TickRecord{Tick: k, Entries: entries}
	}
	return records
}

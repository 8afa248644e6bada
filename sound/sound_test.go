package sound_test

import (
	"testing"

	"github.com/caeklol/sample-palette/internal/testsupport"
	"github.com/caeklol/sample-palette/sound"
)

func TestFirstTickLength(t *testing.T) {
	s := testsupport.GenTone(300, 48000, 50)
	got := sound.FirstTick(s)
	want := 2400
	if len(got.Samples) != want {
		t.Fatalf("FirstTick length = %d, want %d", len(got.Samples), want)
	}
}

func TestFirstTickZeroPadsShortInput(t *testing.T) {
	s := sound.New([]float32{1, 2, 3}, 48000)
	got := sound.FirstTick(s)
	if len(got.Samples) != 2400 {
		t.Fatalf("length = %d, want 2400", len(got.Samples))
	}
	for i := 3; i < len(got.Samples); i++ {
		if got.Samples[i] != 0 {
			t.Fatalf("sample %d = %v, want zero pad", i, got.Samples[i])
		}
	}
}

func TestResampleLength(t *testing.T) {
	s := testsupport.GenTone(300, 44100, 50)
	got := sound.Resample(s, 48000)
	if len(got.Samples) != 2400 {
		t.Fatalf("Resample length = %d, want 2400", len(got.Samples))
	}
}

func TestResampleEmptyInput(t *testing.T) {
	s := sound.New(nil, 44100)
	got := sound.Resample(s, 48000)
	if len(got.Samples) != 0 {
		t.Fatalf("expected empty Sound, got %d samples", len(got.Samples))
	}
}

func TestPitchShiftHalvesSpeedDoublesLength(t *testing.T) {
	s := testsupport.GenTone(300, 48000, 50)
	got := sound.PitchShift(s, 0.5)
	if len(got.Samples) != 4800 {
		t.Fatalf("PitchShift length = %d, want 4800", len(got.Samples))
	}
}

func TestPitchShiftUnityIsIdentity(t *testing.T) {
	s := testsupport.GenTone(300, 48000, 50)
	got := sound.PitchShift(s, 1.0)
	if len(got.Samples) != len(s.Samples) {
		t.Fatalf("length changed under unity pitch shift")
	}
	for i := range s.Samples {
		if got.Samples[i] != s.Samples[i] {
			t.Fatalf("sample %d changed under unity pitch shift", i)
		}
	}
}

func TestDropPartialTickDropsTrailingRemainder(t *testing.T) {
	tick := sound.TickSamples(48000)
	s := sound.New(make([]float32, tick+10), 48000)
	got := sound.DropPartialTick(s)
	if len(got.Samples) != tick {
		t.Fatalf("DropPartialTick length = %d, want %d", len(got.Samples), tick)
	}
}

func TestVolumeScalesInPlace(t *testing.T) {
	s := sound.New([]float32{1, 2, 3}, 48000)
	sound.Volume(s, 2)
	want := []float32{2, 4, 6}
	for i, v := range want {
		if s.Samples[i] != v {
			t.Fatalf("sample %d = %v, want %v", i, s.Samples[i], v)
		}
	}
}

func TestDownmixStereoIsArithmeticMean(t *testing.T) {
	got := sound.DownmixStereo([]float32{1, 3, 2, -2})
	want := []float32{2, 0}
	for i, v := range want {
		if got[i] != v {
			t.Fatalf("sample %d = %v, want %v", i, got[i], v)
		}
	}
}

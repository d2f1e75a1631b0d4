package audio

import (
	"math"
	"testing"
	"time"
)

// chunk returns 100ms of constant-amplitude samples.
func chunk(amp float32) []float32 {
	s := make([]float32, SampleRate/10)
	for i := range s {
		s[i] = amp
	}
	return s
}

func TestEnergyDB(t *testing.T) {
	if got := EnergyDB(nil); got != -100 {
		t.Errorf("EnergyDB(nil) = %v, want -100", got)
	}
	if got := EnergyDB(make([]float32, 1600)); got != -100 {
		t.Errorf("EnergyDB(zeros) = %v, want -100", got)
	}
	got := EnergyDB(chunk(0.5))
	want := 20 * math.Log10(0.5)
	if math.Abs(got-want) > 0.01 {
		t.Errorf("EnergyDB(0.5) = %v, want %v", got, want)
	}
}

func TestClassifyThreshold(t *testing.T) {
	d := NewDetector(-30)
	frames := Timestamped(time.Now(), chunk(0.5), chunk(0.001), chunk(0))

	if got := d.Classify(frames[0]); got != ClassSpeech {
		t.Errorf("loud frame classified %v", got)
	}
	if got := d.Classify(frames[1]); got != ClassSilence {
		t.Errorf("quiet frame classified %v", got)
	}
	if got := d.Classify(frames[2]); got != ClassSilence {
		t.Errorf("zero frame classified %v", got)
	}
}

func TestClassifyAtThresholdIsSilence(t *testing.T) {
	f := NewFrame(chunk(0.25), time.Now())
	d := NewDetector(f.EnergyDB)

	if got := d.Classify(f); got != ClassSilence {
		t.Errorf("frame exactly at threshold classified %v, want silence", got)
	}
	d.SetThreshold(f.EnergyDB - 0.01)
	if got := d.Classify(f); got != ClassSpeech {
		t.Errorf("frame just above threshold classified %v, want speech", got)
	}
}

func TestSetThreshold(t *testing.T) {
	d := NewDetector(-30)
	f := NewFrame(chunk(0.001), time.Now()) // about -60dB

	if d.Classify(f) != ClassSilence {
		t.Fatal("frame below threshold should be silence")
	}
	d.SetThreshold(-70)
	if d.Classify(f) != ClassSpeech {
		t.Error("frame above lowered threshold should be speech")
	}
}

func TestFrameDuration(t *testing.T) {
	f := NewFrame(make([]float32, SampleRate/10), time.Now())
	if f.Duration != 100*time.Millisecond {
		t.Errorf("Duration = %v, want 100ms", f.Duration)
	}
}

func TestFromInt16(t *testing.T) {
	out := FromInt16([]int16{0, math.MaxInt16, -math.MaxInt16})
	if out[0] != 0 || out[1] != 1 || out[2] != -1 {
		t.Errorf("FromInt16 = %v", out)
	}
}

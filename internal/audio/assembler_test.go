package audio

import (
	"testing"
	"time"
)

func testConfig() SegmentConfig {
	return SegmentConfig{
		Pause:        300 * time.Millisecond,
		MinSpeech:    200 * time.Millisecond,
		MaxUtterance: 2 * time.Second,
		PreRoll:      100 * time.Millisecond,
	}
}

// feed classifies and processes a frame sequence, returning every
// emitted utterance.
func feed(a *Assembler, d *Detector, frames []Frame) []*Utterance {
	var out []*Utterance
	for _, f := range frames {
		if u := a.Process(f, d.Classify(f)); u != nil {
			out = append(out, u)
		}
	}
	return out
}

func TestPauseClosesSegment(t *testing.T) {
	a := NewAssembler(testConfig())
	d := NewDetector(-30)

	// 500ms speech then 400ms silence.
	frames := Timestamped(time.Now(),
		chunk(0.5), chunk(0.5), chunk(0.5), chunk(0.5), chunk(0.5),
		chunk(0), chunk(0), chunk(0), chunk(0),
	)
	got := feed(a, d, frames)
	if len(got) != 1 {
		t.Fatalf("utterances = %d, want 1", len(got))
	}
	if got[0].Speech != 500*time.Millisecond {
		t.Errorf("Speech = %v, want 500ms", got[0].Speech)
	}
	if got[0].Forced {
		t.Error("pause close marked Forced")
	}
	if a.Collecting() {
		t.Error("assembler still collecting after close")
	}
}

func TestShortBlipDiscarded(t *testing.T) {
	a := NewAssembler(testConfig())
	d := NewDetector(-30)

	// A single 100ms cough is under the 200ms speech floor.
	frames := Timestamped(time.Now(),
		chunk(0.5), chunk(0), chunk(0), chunk(0), chunk(0),
	)
	if got := feed(a, d, frames); len(got) != 0 {
		t.Errorf("utterances = %d, want 0", len(got))
	}
}

func TestMidSegmentPauseShorterThanThresholdKeepsCollecting(t *testing.T) {
	a := NewAssembler(testConfig())
	d := NewDetector(-30)

	// speech, 200ms gap (under the 300ms pause), more speech, close.
	frames := Timestamped(time.Now(),
		chunk(0.5), chunk(0.5), chunk(0), chunk(0),
		chunk(0.5), chunk(0.5),
		chunk(0), chunk(0), chunk(0),
	)
	got := feed(a, d, frames)
	if len(got) != 1 {
		t.Fatalf("utterances = %d, want 1", len(got))
	}
	if got[0].Speech != 400*time.Millisecond {
		t.Errorf("Speech = %v, want 400ms across the gap", got[0].Speech)
	}
}

func TestMaxUtteranceForcesClose(t *testing.T) {
	a := NewAssembler(testConfig())
	d := NewDetector(-30)

	// 2.5s of continuous speech against a 2s cap.
	chunks := make([][]float32, 25)
	for i := range chunks {
		chunks[i] = chunk(0.5)
	}
	got := feed(a, d, Timestamped(time.Now(), chunks...))
	if len(got) != 1 {
		t.Fatalf("utterances = %d, want 1 forced", len(got))
	}
	if !got[0].Forced {
		t.Error("cap close not marked Forced")
	}
	// The remainder opened a fresh segment.
	if !a.Collecting() {
		t.Error("speech after forced close should reopen collection")
	}
}

func TestPreRollPrepended(t *testing.T) {
	a := NewAssembler(testConfig())
	d := NewDetector(-30)

	frames := Timestamped(time.Now(),
		chunk(0.001), chunk(0.001), // quiet lead-in fills the pre-roll ring
		chunk(0.5), chunk(0.5), chunk(0.5),
		chunk(0), chunk(0), chunk(0),
	)
	got := feed(a, d, frames)
	if len(got) != 1 {
		t.Fatalf("utterances = %d, want 1", len(got))
	}
	// 100ms pre-roll + 300ms speech + 300ms trailing silence.
	if want := 700 * time.Millisecond; got[0].Duration() != want {
		t.Errorf("Duration = %v, want %v", got[0].Duration(), want)
	}
	if got[0].Samples[0] != 0.001 {
		t.Errorf("segment does not start with pre-roll audio: %v", got[0].Samples[0])
	}
}

func TestResetDiscardsOpenSegment(t *testing.T) {
	a := NewAssembler(testConfig())
	d := NewDetector(-30)

	frames := Timestamped(time.Now(), chunk(0.5), chunk(0.5))
	feed(a, d, frames)
	if !a.Collecting() {
		t.Fatal("expected open segment")
	}
	a.Reset()
	if a.Collecting() {
		t.Error("Reset left segment open")
	}

	// Silence after reset must not emit the discarded audio.
	after := Timestamped(time.Now(), chunk(0), chunk(0), chunk(0), chunk(0))
	if got := feed(a, d, after); len(got) != 0 {
		t.Errorf("utterances after reset = %d, want 0", len(got))
	}
}

func TestDurationIndependentOfFrameSize(t *testing.T) {
	// The same audio delivered as 50ms frames must segment the same
	// as 100ms frames.
	half := func(amp float32) []float32 {
		s := make([]float32, SampleRate/20)
		for i := range s {
			s[i] = amp
		}
		return s
	}
	a := NewAssembler(testConfig())
	d := NewDetector(-30)

	var chunks [][]float32
	for range 10 { // 500ms speech
		chunks = append(chunks, half(0.5))
	}
	for range 8 { // 400ms silence
		chunks = append(chunks, half(0))
	}
	got := feed(a, d, Timestamped(time.Now(), chunks...))
	if len(got) != 1 {
		t.Fatalf("utterances = %d, want 1", len(got))
	}
	if got[0].Speech != 500*time.Millisecond {
		t.Errorf("Speech = %v, want 500ms with 50ms frames", got[0].Speech)
	}
}

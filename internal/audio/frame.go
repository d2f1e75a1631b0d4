package audio

import (
	"math"
	"time"
)

// SampleRate is the pipeline's internal rate. Capture sources running
// at other rates are resampled before framing.
const SampleRate = 16000

// silenceFloorDB is the energy reported for empty or all-zero frames.
const silenceFloorDB = -100

// Frame is one fixed-duration chunk of mono PCM handed to the voice
// activity detector. Time is the capture timestamp of the first sample.
type Frame struct {
	Samples  []float32
	Time     time.Time
	Duration time.Duration
	EnergyDB float64
}

// NewFrame stamps a sample slice with its duration and energy.
func NewFrame(samples []float32, ts time.Time) Frame {
	return Frame{
		Samples:  samples,
		Time:     ts,
		Duration: time.Duration(len(samples)) * time.Second / SampleRate,
		EnergyDB: EnergyDB(samples),
	}
}

// EnergyDB returns the RMS energy of a sample slice in dBFS.
func EnergyDB(samples []float32) float64 {
	if len(samples) == 0 {
		return silenceFloorDB
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms < 1e-10 {
		return silenceFloorDB
	}
	return 20 * math.Log10(rms)
}

// FromInt16 converts device PCM to the float32 range the pipeline uses.
func FromInt16(in []int16) []float32 {
	out := make([]float32, len(in))
	for i, s := range in {
		out[i] = float32(s) / math.MaxInt16
	}
	return out
}

// Timestamped builds a frame sequence with consecutive capture times,
// used by tests and tuning tooling.
func Timestamped(start time.Time, chunks ...[]float32) []Frame {
	out := make([]Frame, len(chunks))
	ts := start
	for i, s := range chunks {
		out[i] = NewFrame(s, ts)
		ts = ts.Add(out[i].Duration)
	}
	return out
}

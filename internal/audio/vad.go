package audio

// Class is the voice activity verdict for a single frame.
type Class int

const (
	ClassSilence Class = iota
	ClassSpeech
)

func (c Class) String() string {
	if c == ClassSpeech {
		return "speech"
	}
	return "silence"
}

// Detector classifies frames by comparing their RMS energy against a
// fixed dBFS threshold. Segmentation state lives in the Assembler;
// the detector stays stateless so the threshold can be swapped at
// runtime without disturbing an open segment.
type Detector struct {
	thresholdDB float64
}

// NewDetector builds a detector for the given speech threshold in dBFS.
func NewDetector(thresholdDB float64) *Detector {
	return &Detector{thresholdDB: thresholdDB}
}

// Classify labels a single frame. Speech requires energy strictly
// above the threshold; a frame sitting exactly on it is silence.
func (d *Detector) Classify(f Frame) Class {
	if f.EnergyDB > d.thresholdDB {
		return ClassSpeech
	}
	return ClassSilence
}

// Threshold reports the active speech threshold.
func (d *Detector) Threshold() float64 { return d.thresholdDB }

// SetThreshold replaces the speech threshold.
func (d *Detector) SetThreshold(db float64) { d.thresholdDB = db }

package audio

import "time"

// SegmentConfig controls how classified frames are grouped into
// utterances. All limits are durations, so the behavior is unchanged
// if the capture layer delivers frames of a different size.
type SegmentConfig struct {
	// Pause is the accumulated trailing silence that closes a segment.
	Pause time.Duration
	// MinSpeech discards segments whose speech content is shorter,
	// which filters coughs and keyboard thumps.
	MinSpeech time.Duration
	// MaxUtterance force-closes a segment even while speech continues.
	MaxUtterance time.Duration
	// PreRoll is how much audio from just before speech onset is
	// prepended, so soft word openings are not clipped.
	PreRoll time.Duration
}

// Utterance is one completed speech segment ready for transcription.
type Utterance struct {
	Samples []float32
	Start   time.Time
	// Speech is the accumulated duration of speech-classified frames.
	Speech time.Duration
	// Forced marks segments closed by the max-utterance cap rather
	// than by a natural pause.
	Forced bool
}

// Duration is the total audio length including trailing silence.
func (u *Utterance) Duration() time.Duration {
	return time.Duration(len(u.Samples)) * time.Second / SampleRate
}

// Assembler groups classified frames into utterances. It is a
// two-state machine: idle until a speech frame arrives, then
// collecting until enough trailing silence or the utterance cap
// closes the segment. Not safe for concurrent use; the session loop
// owns it.
type Assembler struct {
	cfg SegmentConfig

	collecting bool
	start      time.Time
	buf        []float32
	speech     time.Duration
	silence    time.Duration
	total      time.Duration

	pre    []float32
	preLen int
}

// NewAssembler builds an assembler with the given segmentation tuning.
func NewAssembler(cfg SegmentConfig) *Assembler {
	preLen := int(cfg.PreRoll.Seconds() * float64(SampleRate))
	return &Assembler{
		cfg:    cfg,
		pre:    make([]float32, 0, preLen),
		preLen: preLen,
	}
}

// Process feeds one classified frame in. It returns a non-nil
// Utterance when the frame completes a segment.
func (a *Assembler) Process(f Frame, c Class) *Utterance {
	if !a.collecting {
		if c == ClassSilence {
			a.updatePreRoll(f.Samples)
			return nil
		}
		a.collecting = true
		a.start = f.Time.Add(-time.Duration(len(a.pre)) * time.Second / SampleRate)
		a.buf = append(a.buf, a.pre...)
		a.pre = a.pre[:0]
	}

	a.buf = append(a.buf, f.Samples...)
	a.total += f.Duration
	if c == ClassSpeech {
		a.speech += f.Duration
		a.silence = 0
	} else {
		a.silence += f.Duration
	}

	if a.cfg.MaxUtterance > 0 && a.total >= a.cfg.MaxUtterance {
		return a.close(true)
	}
	if c == ClassSilence && a.silence >= a.cfg.Pause {
		return a.close(false)
	}
	return nil
}

// Collecting reports whether a segment is open.
func (a *Assembler) Collecting() bool { return a.collecting }

// Reset discards any open segment and pre-roll audio. Used when
// listening stops; partial segments are never transcribed.
func (a *Assembler) Reset() {
	a.collecting = false
	a.buf = nil
	a.pre = a.pre[:0]
	a.speech, a.silence, a.total = 0, 0, 0
}

func (a *Assembler) close(forced bool) *Utterance {
	u := &Utterance{
		Samples: a.buf,
		Start:   a.start,
		Speech:  a.speech,
		Forced:  forced,
	}
	a.collecting = false
	a.buf = nil
	a.speech, a.silence, a.total = 0, 0, 0

	if u.Speech < a.cfg.MinSpeech {
		return nil
	}
	return u
}

func (a *Assembler) updatePreRoll(samples []float32) {
	if a.preLen == 0 {
		return
	}
	a.pre = append(a.pre, samples...)
	if len(a.pre) > a.preLen {
		a.pre = a.pre[len(a.pre)-a.preLen:]
	}
}

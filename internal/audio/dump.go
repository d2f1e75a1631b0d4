package audio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Dumper writes completed utterances to disk as WAV files for offline
// threshold tuning. A nil Dumper discards everything.
type Dumper struct {
	dir string
}

// NewDumper creates the target directory if needed. An empty dir
// disables dumping.
func NewDumper(dir string) (*Dumper, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dump dir: %w", err)
	}
	return &Dumper{dir: dir}, nil
}

// Dump writes one utterance. The filename embeds the sequence number
// and capture time so files sort in question order.
func (d *Dumper) Dump(seq uint64, u *Utterance) (string, error) {
	if d == nil {
		return "", nil
	}
	name := fmt.Sprintf("utt-%06d-%s.wav", seq, u.Start.Format("150405.000"))
	path := filepath.Join(d.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create dump file: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, SampleRate, 16, 1, 1)
	data := make([]int, len(u.Samples))
	for i, s := range u.Samples {
		clamped := max(-1.0, min(1.0, s))
		data[i] = int(clamped * math.MaxInt16)
	}
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return "", fmt.Errorf("write dump: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("finalize dump: %w", err)
	}
	return path, nil
}

// Command calibrate analyzes dumped utterance WAV files and suggests a
// voice activity threshold for the machine that recorded them. Run the
// companion with DEBUG_AUDIO_DIR set, speak a few questions in a normal
// room, then point calibrate at the dump directory.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-audio/wav"

	"github.com/liveinsight/companion/internal/audio"
)

func main() {
	dir := flag.String("dir", "", "directory containing utterance WAV dumps")
	windowMs := flag.Int("window-ms", 100, "analysis window in milliseconds")
	marginDB := flag.Float64("margin-db", 8, "margin below the speech median")
	flag.Parse()

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "usage: calibrate --dir ./dumps/")
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	files, err := filepath.Glob(filepath.Join(*dir, "*.wav"))
	if err != nil {
		slog.Error("glob files", "error", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no .wav files found in", *dir)
		os.Exit(1)
	}

	var energies []float64
	for _, f := range files {
		e, fileErr := fileEnergies(f, *windowMs)
		if fileErr != nil {
			slog.Error("analyze file", "file", f, "error", fileErr)
			continue
		}
		energies = append(energies, e...)
		slog.Info("analyzed", "file", filepath.Base(f), "windows", len(e))
	}
	if len(energies) == 0 {
		slog.Error("no analyzable audio found")
		os.Exit(1)
	}

	sort.Float64s(energies)
	p10 := percentile(energies, 0.10)
	p50 := percentile(energies, 0.50)
	p90 := percentile(energies, 0.90)

	// Dumps are speech-dominated, so the median tracks typical speaking
	// level and the 10th percentile tracks in-utterance gaps.
	suggested := p50 - *marginDB
	if suggested <= p10 {
		suggested = (p10 + p50) / 2
	}

	slog.Info("energy distribution",
		"files", len(files),
		"windows", len(energies),
		"p10_db", round1(p10),
		"p50_db", round1(p50),
		"p90_db", round1(p90))

	fmt.Printf("suggested threshold: VAD_SPEECH_THRESHOLD_DB=%.0f\n", suggested)
}

func fileEnergies(path string, windowMs int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	rate := int(dec.SampleRate)
	if rate <= 0 || len(buf.Data) == 0 {
		return nil, fmt.Errorf("empty or malformed wav")
	}

	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(v) / math.MaxInt16
	}

	win := rate * windowMs / 1000
	if win <= 0 {
		return nil, fmt.Errorf("window too small for rate %d", rate)
	}
	var out []float64
	for off := 0; off+win <= len(samples); off += win {
		out = append(out, audio.EnergyDB(samples[off:off+win]))
	}
	return out, nil
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

package audio

import "math"

// Resample converts device audio at srcRate to the pipeline rate using
// linear interpolation, with a moving-average pre-filter when
// downsampling. Speech headed for ASR does not need audiophile
// reconstruction; frequencies above 8 kHz carry nothing the models use.
func Resample(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate == dstRate || len(samples) == 0 {
		return samples
	}

	if srcRate > dstRate {
		// Smooth at roughly the decimation window to keep aliasing
		// out of the speech band.
		win := int(math.Round(float64(srcRate) / float64(dstRate)))
		samples = smooth(samples, win)
	}

	ratio := float64(srcRate) / float64(dstRate)
	out := make([]float32, int(float64(len(samples))/ratio))
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx+1 >= len(samples) {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}

// smooth is a centered moving average of width win.
func smooth(samples []float32, win int) []float32 {
	if win <= 1 {
		return samples
	}
	half := win / 2
	out := make([]float32, len(samples))
	for i := range samples {
		lo := max(0, i-half)
		hi := min(len(samples), i+half+1)
		var sum float32
		for j := lo; j < hi; j++ {
			sum += samples[j]
		}
		out[i] = sum / float32(hi-lo)
	}
	return out
}

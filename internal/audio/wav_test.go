package audio

import (
	"encoding/binary"
	"testing"
)

func TestEncodeWAVHeader(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1.0, -1.0}
	b := EncodeWAV(samples, SampleRate)

	if len(b) != 44+len(samples)*2 {
		t.Fatalf("len = %d, want %d", len(b), 44+len(samples)*2)
	}
	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE magic")
	}
	if rate := binary.LittleEndian.Uint32(b[24:28]); rate != SampleRate {
		t.Errorf("sample rate = %d", rate)
	}
	if bits := binary.LittleEndian.Uint16(b[34:36]); bits != 16 {
		t.Errorf("bits per sample = %d", bits)
	}
	if dataLen := binary.LittleEndian.Uint32(b[40:44]); dataLen != uint32(len(samples)*2) {
		t.Errorf("data length = %d", dataLen)
	}
}

func TestEncodeWAVClamps(t *testing.T) {
	b := EncodeWAV([]float32{2.0, -2.0}, SampleRate)
	first := int16(binary.LittleEndian.Uint16(b[44:46]))
	second := int16(binary.LittleEndian.Uint16(b[46:48]))
	if first != 32767 {
		t.Errorf("over-range sample = %d, want 32767", first)
	}
	if second != -32767 {
		t.Errorf("under-range sample = %d, want -32767", second)
	}
}

func TestResampleDownPreservesDuration(t *testing.T) {
	in := make([]float32, 48000) // 1s at 48kHz
	out := Resample(in, 48000, SampleRate)
	if got := len(out); got < SampleRate-10 || got > SampleRate+10 {
		t.Errorf("resampled length = %d, want about %d", got, SampleRate)
	}
}

func TestResampleIdentity(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	out := Resample(in, SampleRate, SampleRate)
	if &out[0] != &in[0] {
		t.Error("matching rates should return input unchanged")
	}
}

// ABOUTME: Round-trip test for the WAV source using the go-audio encoder
package source

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeWAV(t *testing.T, path string, rate, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
}

func TestWAVStereoRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	data := make([]int, 200*2)
	for i := range data {
		data[i] = i - 200
	}
	writeWAV(t, path, 44100, 2, data)

	src, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()

	if got := src.SampleRate(); got != 44100 {
		t.Errorf("rate = %d, want 44100", got)
	}

	out := make([]int16, 0, len(data))
	buf := make([]int16, 64*2)
	for {
		n, err := src.Read(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		out = append(out, buf[:n*2]...)
	}
	if len(out) != len(data) {
		t.Fatalf("decoded %d samples, want %d", len(out), len(data))
	}
	for i := range data {
		if int(out[i]) != data[i] {
			t.Fatalf("sample %d: got %d, want %d", i, out[i], data[i])
		}
	}
}

func TestWAVMonoDuplicatesToStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	data := []int{100, -100, 3000, -3000}
	writeWAV(t, path, 8000, 1, data)

	src, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()

	buf := make([]int16, 16*2)
	n, err := src.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != len(data) {
		t.Fatalf("frames = %d, want %d", n, len(data))
	}
	for i, want := range data {
		if int(buf[i*2]) != want || int(buf[i*2+1]) != want {
			t.Errorf("frame %d: (%d, %d), want both %d", i, buf[i*2], buf[i*2+1], want)
		}
	}
}

func TestNewWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("not a riff file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("expected error for non-wav content")
	}
}

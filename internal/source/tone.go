// ABOUTME: Synthetic sine tone source
// ABOUTME: Deterministic stereo signal for diagnostics and tests
package source

import "math"

// Tone generates a stereo sine wave forever. Used by the probe tool and by
// tests that need a known signal.
type Tone struct {
	rate      int
	frequency float64
	amplitude float64
	index     uint64
}

// NewTone creates a tone source at the given sample rate and frequency.
func NewTone(sampleRate int, frequency, amplitude float64) *Tone {
	return &Tone{rate: sampleRate, frequency: frequency, amplitude: amplitude}
}

func (t *Tone) SampleRate() int { return t.rate }

func (t *Tone) Read(dst []int16) (int, error) {
	frames := len(dst) / 2
	for i := 0; i < frames; i++ {
		at := float64(t.index+uint64(i)) / float64(t.rate)
		s := int16(math.Sin(2*math.Pi*t.frequency*at) * t.amplitude * math.MaxInt16)
		dst[i*2] = s
		dst[i*2+1] = s
	}
	t.index += uint64(frames)
	return frames, nil
}

func (t *Tone) Close() error { return nil }

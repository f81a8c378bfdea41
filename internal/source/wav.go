// ABOUTME: WAV file source via go-audio
// ABOUTME: Streams PCM chunks and widens or narrows to 16-bit stereo
package source

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV streams PCM from a RIFF/WAVE file.
type WAV struct {
	f   *os.File
	dec *wav.Decoder
	buf *audio.IntBuffer
}

// NewWAV wraps an open WAV file. The file is owned by the source and closed
// with it.
func NewWAV(f *os.File) (*WAV, error) {
	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		_ = f.Close()
		return nil, fmt.Errorf("%s: not a valid wav file", f.Name())
	}
	if dec.NumChans != 1 && dec.NumChans != 2 {
		_ = f.Close()
		return nil, fmt.Errorf("%s: unsupported channel count %d", f.Name(), dec.NumChans)
	}
	return &WAV{
		f:   f,
		dec: dec,
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: int(dec.NumChans),
				SampleRate:  int(dec.SampleRate),
			},
		},
	}, nil
}

func (w *WAV) SampleRate() int { return int(w.dec.SampleRate) }

func (w *WAV) Read(dst []int16) (int, error) {
	frames := len(dst) / 2
	ch := int(w.dec.NumChans)
	want := frames * ch
	if cap(w.buf.Data) < want {
		w.buf.Data = make([]int, want)
	}
	w.buf.Data = w.buf.Data[:want]

	n, err := w.dec.PCMBuffer(w.buf)
	if err != nil {
		return 0, fmt.Errorf("reading wav: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}

	shift := int(w.dec.BitDepth) - 16
	got := n / ch
	for i := 0; i < got; i++ {
		var l, r int
		if ch == 1 {
			l = w.buf.Data[i]
			r = l
		} else {
			l = w.buf.Data[i*2]
			r = w.buf.Data[i*2+1]
		}
		dst[i*2] = narrow(l, shift)
		dst[i*2+1] = narrow(r, shift)
	}
	return got, nil
}

func (w *WAV) Close() error { return w.f.Close() }

// narrow rescales a sample from the source bit depth to 16 bits.
func narrow(s, shift int) int16 {
	if shift > 0 {
		return int16(s >> shift)
	}
	if shift < 0 {
		return int16(s << -shift)
	}
	return int16(s)
}

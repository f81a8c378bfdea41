// ABOUTME: MP3 file source via hajimehoshi/go-mp3
// ABOUTME: go-mp3 always emits 16-bit little-endian stereo
package source

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// MP3 streams PCM from an MP3 file.
type MP3 struct {
	f   *os.File
	dec *mp3.Decoder
	buf []byte
}

// NewMP3 wraps an open MP3 file. The file is owned by the source and closed
// with it.
func NewMP3(f *os.File) (*MP3, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", f.Name(), err)
	}
	return &MP3{f: f, dec: dec}, nil
}

func (m *MP3) SampleRate() int { return m.dec.SampleRate() }

func (m *MP3) Read(dst []int16) (int, error) {
	frames := len(dst) / 2
	want := frames * 4 // 2 channels x 2 bytes
	if cap(m.buf) < want {
		m.buf = make([]byte, want)
	}
	n, err := io.ReadFull(m.dec, m.buf[:want])
	if err == io.ErrUnexpectedEOF {
		err = nil
	}
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("reading mp3: %w", err)
	}
	got := n / 4
	if got == 0 {
		return 0, io.EOF
	}
	for i := 0; i < got*2; i++ {
		dst[i] = int16(binary.LittleEndian.Uint16(m.buf[i*2:]))
	}
	return got, nil
}

func (m *MP3) Close() error { return m.f.Close() }

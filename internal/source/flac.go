// ABOUTME: FLAC file source via mewkiz/flac
// ABOUTME: Interleaves per-channel subframes and buffers partial frames
package source

import (
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

// FLAC streams PCM from a FLAC file. Decoded frames rarely line up with
// Read sizes, so leftovers are carried between calls.
type FLAC struct {
	f       *os.File
	stream  *flac.Stream
	pending []int16
	eof     bool
}

// NewFLAC wraps an open FLAC file. The file is owned by the source and
// closed with it.
func NewFLAC(f *os.File) (*FLAC, error) {
	stream, err := flac.New(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", f.Name(), err)
	}
	if n := stream.Info.NChannels; n != 1 && n != 2 {
		_ = f.Close()
		return nil, fmt.Errorf("%s: unsupported channel count %d", f.Name(), n)
	}
	return &FLAC{f: f, stream: stream}, nil
}

func (s *FLAC) SampleRate() int { return int(s.stream.Info.SampleRate) }

func (s *FLAC) Read(dst []int16) (int, error) {
	frames := len(dst) / 2
	for len(s.pending) < frames*2 && !s.eof {
		if err := s.decodeFrame(); err != nil {
			if err == io.EOF {
				s.eof = true
				break
			}
			return 0, fmt.Errorf("reading flac: %w", err)
		}
	}

	got := len(s.pending) / 2
	if got > frames {
		got = frames
	}
	if got == 0 {
		return 0, io.EOF
	}
	copy(dst, s.pending[:got*2])
	s.pending = s.pending[got*2:]
	return got, nil
}

func (s *FLAC) decodeFrame() error {
	fr, err := s.stream.ParseNext()
	if err != nil {
		return err
	}
	shift := int(s.stream.Info.BitsPerSample) - 16
	mono := len(fr.Subframes) == 1
	n := len(fr.Subframes[0].Samples)
	for i := 0; i < n; i++ {
		l := fr.Subframes[0].Samples[i]
		r := l
		if !mono {
			r = fr.Subframes[1].Samples[i]
		}
		s.pending = append(s.pending, narrow(int(l), shift), narrow(int(r), shift))
	}
	return nil
}

func (s *FLAC) Close() error { return s.f.Close() }

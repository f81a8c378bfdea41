// ABOUTME: Stereo PCM sources that feed the mixer
// ABOUTME: Source interface plus extension-based file dispatch
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source produces interleaved stereo 16-bit PCM. Read fills dst with whole
// frames (len(dst) must be even), returns the number of frames produced and
// io.EOF once the stream ends. Mono inputs are duplicated to both channels
// by the implementation.
type Source interface {
	SampleRate() int
	Read(dst []int16) (int, error)
	Close() error
}

// Open creates a Source for a file based on its extension.
func Open(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return NewWAV(f)
	case ".mp3":
		return NewMP3(f)
	case ".flac":
		return NewFLAC(f)
	}
	_ = f.Close()
	return nil, fmt.Errorf("unsupported file type: %s", path)
}

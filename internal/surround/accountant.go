// ABOUTME: Block-aligned decode accounting over a bounded decoded-sample FIFO
// ABOUTME: Bridges whole-block decoding to arbitrary-size output requests
package surround

import (
	"errors"

	"github.com/hollowpine/resound/internal/pcm"
)

// DefaultFIFOSamples bounds the decoded FIFO; at 48 kHz 5.1 this is roughly
// 110 ms of audio, comfortably above one decode block of carryover.
const DefaultFIFOSamples = 32768

var (
	// ErrPartialBlock reports a Feed that is not a whole number of decode
	// blocks. The engine contract forbids partial blocks, so this is a
	// caller bug, never recovered.
	ErrPartialBlock = errors.New("surround: input is not a whole number of decode blocks")

	// ErrShortDrain reports a Drain of more frames than are buffered.
	// Clamping silently would mask glitches, so it fails instead.
	ErrShortDrain = errors.New("surround: drain exceeds buffered frames")

	// ErrOverflow reports a Feed that would not fit in the FIFO.
	ErrOverflow = errors.New("surround: decoded fifo overflow")
)

// Accountant owns a bounded FIFO of decoded surround samples in canonical
// channel order. It computes how much stereo input a pending output request
// still needs, feeds the decode engine in exact block multiples, remaps the
// engine's native channel order, and serves arbitrary-size drains.
//
// Not safe for concurrent use; the playback tick thread is the only caller.
type Accountant struct {
	engine   Engine
	remap    []int
	channels int

	// Decoded sample ring. size is always a multiple of channels between
	// calls: pushes add whole blocks, drains remove whole frames.
	fifo []float32
	head int
	size int

	scratch []float32
}

// NewAccountant wraps a decode engine with a FIFO of capacitySamples
// samples (DefaultFIFOSamples if zero or negative). The capacity must hold
// at least one decoded block plus one maximal request worth of carryover;
// callers sizing requests through QueryFramesNeeded stay within it.
func NewAccountant(engine Engine, capacitySamples int) *Accountant {
	if capacitySamples <= 0 {
		capacitySamples = DefaultFIFOSamples
	}
	return &Accountant{
		engine:   engine,
		remap:    engine.Layout().Remap(),
		channels: engine.Channels(),
		fifo:     make([]float32, capacitySamples),
		scratch:  make([]float32, engine.BlockSize()*2),
	}
}

// BufferedFrames returns the number of whole decoded frames in the FIFO.
func (a *Accountant) BufferedFrames() int {
	return a.size / a.channels
}

// QueryFramesNeeded returns how many stereo input frames must be fed before
// a Drain of outputFrames can succeed. Zero means the FIFO already holds
// enough. A non-zero result is always a whole number of decode blocks, so
// the engine is only ever invoked on full blocks; any excess decode output
// stays buffered for the next request.
func (a *Accountant) QueryFramesNeeded(outputFrames int) int {
	buffered := a.BufferedFrames()
	if buffered >= outputFrames {
		return 0
	}
	block := a.engine.BlockSize()
	shortfall := outputFrames - buffered
	blocks := (shortfall + block - 1) / block
	return blocks * block
}

// Feed normalizes interleaved stereo 16-bit input, decodes it block by
// block, remaps each decoded frame into canonical channel order and appends
// it to the FIFO. len(in) must be a whole number of decode blocks of stereo
// frames.
func (a *Accountant) Feed(in []int16) error {
	block := a.engine.BlockSize()
	if len(in)%2 != 0 || (len(in)/2)%block != 0 {
		return ErrPartialBlock
	}
	frames := len(in) / 2
	if a.size+frames*a.channels > len(a.fifo) {
		return ErrOverflow
	}

	for len(in) > 0 {
		for i := 0; i < block*2; i++ {
			a.scratch[i] = pcm.Int16ToFloat(in[i])
		}
		decoded := a.engine.Decode(a.scratch)

		ch := a.channels
		for f := 0; f < block; f++ {
			native := decoded[f*ch : f*ch+ch]
			for _, src := range a.remap {
				a.push(native[src])
			}
		}
		in = in[block*2:]
	}
	return nil
}

// Drain pops exactly frames whole frames from the FIFO front into dst,
// preserving push order. dst must hold frames*channels samples. Draining
// more than is buffered returns ErrShortDrain and removes nothing.
func (a *Accountant) Drain(dst []float32, frames int) error {
	want := frames * a.channels
	if want > a.size {
		return ErrShortDrain
	}
	for i := 0; i < want; i++ {
		dst[i] = a.fifo[a.head]
		a.head++
		if a.head == len(a.fifo) {
			a.head = 0
		}
	}
	a.size -= want
	return nil
}

// Reset empties the FIFO and flushes the engine's filter state. Used on
// stream restarts and speed or seek discontinuities so stale audio cannot
// surface after the discontinuity.
func (a *Accountant) Reset() {
	a.head = 0
	a.size = 0
	a.engine.Flush()
}

func (a *Accountant) push(s float32) {
	tail := a.head + a.size
	if tail >= len(a.fifo) {
		tail -= len(a.fifo)
	}
	a.fifo[tail] = s
	a.size++
}

// ABOUTME: Tests for the block-aligned decode accountant
// ABOUTME: Uses a deterministic stub engine so decode output is predictable
package surround

import (
	"errors"
	"testing"
)

// stubEngine emits a fixed linear transform of its input in native
// FL FC FR RL RR LFE order, so remapped output is easy to predict.
type stubEngine struct {
	block   int
	out     []float32
	decodes int
	flushes int
}

func newStubEngine(block int) *stubEngine {
	return &stubEngine{block: block, out: make([]float32, block*6)}
}

func (e *stubEngine) BlockSize() int { return e.block }
func (e *stubEngine) Channels() int  { return 6 }
func (e *stubEngine) Layout() Layout { return Layout51 }
func (e *stubEngine) Flush()         { e.flushes++ }

func (e *stubEngine) Decode(block []float32) []float32 {
	e.decodes++
	for i := 0; i < e.block; i++ {
		l := block[i*2]
		r := block[i*2+1]
		o := e.out[i*6:]
		o[natFrontLeft] = l
		o[natFrontCenter] = (l + r) / 2
		o[natFrontRight] = r
		o[natRearLeft] = -l
		o[natRearRight] = -r
		o[natLFE] = l - r
	}
	return e.out
}

// ramp produces frames stereo frames of deterministic int16 input.
func ramp(frames int, seed int) []int16 {
	in := make([]int16, frames*2)
	for i := range in {
		in[i] = int16((seed + i*37) % 4096)
	}
	return in
}

func TestQueryFramesNeededRoundsUpToBlocks(t *testing.T) {
	a := NewAccountant(newStubEngine(512), 0)

	if got := a.QueryFramesNeeded(256); got != 512 {
		t.Fatalf("empty fifo, request 256: need = %d, want 512", got)
	}
	if got := a.QueryFramesNeeded(512); got != 512 {
		t.Fatalf("empty fifo, request 512: need = %d, want 512", got)
	}
	if got := a.QueryFramesNeeded(513); got != 1024 {
		t.Fatalf("empty fifo, request 513: need = %d, want 1024", got)
	}

	if err := a.Feed(ramp(512, 0)); err != nil {
		t.Fatalf("feed: %v", err)
	}
	if got := a.BufferedFrames(); got != 512 {
		t.Fatalf("buffered = %d, want 512", got)
	}

	dst := make([]float32, 256*6)
	if err := a.Drain(dst, 256); err != nil {
		t.Fatalf("drain: %v", err)
	}

	// 256 frames of carryover remain, enough for the next 256-frame request.
	if got := a.QueryFramesNeeded(256); got != 0 {
		t.Fatalf("after carryover, request 256: need = %d, want 0", got)
	}
}

func TestDrainMatchesSingleShotDecode(t *testing.T) {
	const frames = 2048
	input := ramp(frames, 7)

	ref := NewAccountant(newStubEngine(512), 0)
	if err := ref.Feed(input); err != nil {
		t.Fatalf("reference feed: %v", err)
	}
	want := make([]float32, frames*6)
	if err := ref.Drain(want, frames); err != nil {
		t.Fatalf("reference drain: %v", err)
	}

	// Interleaved feeds and odd-sized drains must reproduce the exact same
	// sample sequence.
	a := NewAccountant(newStubEngine(512), 0)
	requests := []int{100, 412, 512, 24, 1000}
	fed := 0
	got := make([]float32, 0, frames*6)
	for _, req := range requests {
		need := a.QueryFramesNeeded(req)
		if need > 0 {
			if err := a.Feed(input[fed*2 : (fed+need)*2]); err != nil {
				t.Fatalf("feed %d frames: %v", need, err)
			}
			fed += need
		}
		dst := make([]float32, req*6)
		if err := a.Drain(dst, req); err != nil {
			t.Fatalf("drain %d frames: %v", req, err)
		}
		got = append(got, dst...)
	}

	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("sample %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFeedRemapsToCanonicalOrder(t *testing.T) {
	eng := newStubEngine(4)
	a := NewAccountant(eng, 0)

	// Left at full scale, right silent: native output per frame is
	// FL=1 FC=0.5 FR=0 RL=-1 RR=0 LFE=1.
	in := make([]int16, 4*2)
	for f := 0; f < 4; f++ {
		in[f*2] = 32767
	}
	if err := a.Feed(in); err != nil {
		t.Fatalf("feed: %v", err)
	}

	dst := make([]float32, 6)
	if err := a.Drain(dst, 1); err != nil {
		t.Fatalf("drain: %v", err)
	}
	want := []float32{1, 0, 0.5, 1, -1, 0} // FL FR FC LFE RL RR
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("canonical channel %d: got %v, want %v", i, dst[i], want[i])
		}
	}
}

func TestFeedRejectsPartialBlock(t *testing.T) {
	a := NewAccountant(newStubEngine(512), 0)

	if err := a.Feed(ramp(511, 0)); !errors.Is(err, ErrPartialBlock) {
		t.Errorf("511 frames: err = %v, want ErrPartialBlock", err)
	}
	if err := a.Feed(ramp(512, 0)[:1023]); !errors.Is(err, ErrPartialBlock) {
		t.Errorf("odd sample count: err = %v, want ErrPartialBlock", err)
	}
	if got := a.BufferedFrames(); got != 0 {
		t.Errorf("rejected feed must not buffer anything, got %d frames", got)
	}
}

func TestFeedRejectsOverflow(t *testing.T) {
	// Capacity for one block only.
	a := NewAccountant(newStubEngine(4), 4*6)

	if err := a.Feed(ramp(4, 0)); err != nil {
		t.Fatalf("first block: %v", err)
	}
	if err := a.Feed(ramp(4, 0)); !errors.Is(err, ErrOverflow) {
		t.Errorf("second block: err = %v, want ErrOverflow", err)
	}
	if got := a.BufferedFrames(); got != 4 {
		t.Errorf("overflowing feed must leave fifo intact, got %d frames", got)
	}
}

func TestDrainBeyondBufferedFails(t *testing.T) {
	a := NewAccountant(newStubEngine(512), 0)
	if err := a.Feed(ramp(512, 0)); err != nil {
		t.Fatalf("feed: %v", err)
	}

	dst := make([]float32, 513*6)
	if err := a.Drain(dst, 513); !errors.Is(err, ErrShortDrain) {
		t.Fatalf("over-drain: err = %v, want ErrShortDrain", err)
	}
	// Failed drain removes nothing.
	if got := a.BufferedFrames(); got != 512 {
		t.Errorf("buffered = %d after failed drain, want 512", got)
	}
}

func TestResetEmptiesFifoAndFlushesEngine(t *testing.T) {
	eng := newStubEngine(512)
	a := NewAccountant(eng, 0)
	if err := a.Feed(ramp(512, 0)); err != nil {
		t.Fatalf("feed: %v", err)
	}

	a.Reset()

	if got := a.BufferedFrames(); got != 0 {
		t.Errorf("buffered = %d after reset, want 0", got)
	}
	if eng.flushes != 1 {
		t.Errorf("engine flushes = %d, want 1", eng.flushes)
	}
	dst := make([]float32, 6)
	if err := a.Drain(dst, 1); !errors.Is(err, ErrShortDrain) {
		t.Errorf("drain after reset: err = %v, want ErrShortDrain", err)
	}
}

// ABOUTME: Tests for the ring-buffered stream mixer
package mixer

import "testing"

func stereoRamp(start, frames int) []int16 {
	s := make([]int16, frames*2)
	for i := range s {
		s[i] = int16(start + i)
	}
	return s
}

func TestPushMixPreservesOrderAcrossWrap(t *testing.T) {
	m := NewStream(48000, 8)

	if n := m.Push(stereoRamp(0, 6)); n != 6 {
		t.Fatalf("push accepted %d frames, want 6", n)
	}
	dst := make([]int16, 4*2)
	if n := m.Mix(dst, 4); n != 4 {
		t.Fatalf("mix produced %d frames, want 4", n)
	}
	for i := 0; i < 8; i++ {
		if dst[i] != int16(i) {
			t.Fatalf("sample %d = %d, want %d", i, dst[i], i)
		}
	}

	// Second push wraps around the ring end.
	if n := m.Push(stereoRamp(100, 6)); n != 6 {
		t.Fatalf("wrap push accepted %d frames, want 6", n)
	}
	dst = make([]int16, 8*2)
	if n := m.Mix(dst, 8); n != 8 {
		t.Fatalf("mix produced %d frames, want 8", n)
	}
	want := append(stereoRamp(8, 2), stereoRamp(100, 6)...)
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, dst[i], want[i])
		}
	}
}

func TestPushRefusesOverfill(t *testing.T) {
	m := NewStream(48000, 4)
	if n := m.Push(stereoRamp(0, 10)); n != 4 {
		t.Fatalf("push accepted %d frames into a 4-frame ring, want 4", n)
	}
	if got := m.BufferedFrames(); got != 4 {
		t.Fatalf("buffered = %d, want 4", got)
	}
}

func TestMixZeroFillsShortfall(t *testing.T) {
	m := NewStream(48000, 16)
	m.Push(stereoRamp(1, 2))

	dst := make([]int16, 5*2)
	for i := range dst {
		dst[i] = -1
	}
	if n := m.Mix(dst, 5); n != 2 {
		t.Fatalf("mix produced %d frames, want 2", n)
	}
	for i := 4; i < 10; i++ {
		if dst[i] != 0 {
			t.Errorf("sample %d = %d, want zero fill", i, dst[i])
		}
	}
}

func TestSetSampleRateDropsBufferedAudio(t *testing.T) {
	m := NewStream(48000, 16)
	m.Push(stereoRamp(0, 8))

	m.SetSampleRate(44100)

	if got := m.SampleRate(); got != 44100 {
		t.Errorf("rate = %d, want 44100", got)
	}
	if got := m.BufferedFrames(); got != 0 {
		t.Errorf("buffered = %d after rate change, want 0", got)
	}
}

func TestSpeedRoundTrips(t *testing.T) {
	m := NewStream(48000, 16)
	if got := m.CurrentSpeed(); got != 1.0 {
		t.Fatalf("initial speed = %v, want 1.0", got)
	}
	m.SetSpeed(0.25)
	if got := m.CurrentSpeed(); got != 0.25 {
		t.Errorf("speed = %v, want 0.25", got)
	}
}

func TestClearEmptiesRing(t *testing.T) {
	m := NewStream(48000, 16)
	m.Push(stereoRamp(0, 8))
	m.Clear()
	if got := m.BufferedFrames(); got != 0 {
		t.Errorf("buffered = %d after clear, want 0", got)
	}
}

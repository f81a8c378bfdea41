// ABOUTME: Tests for the passive-matrix upmix engine
package surround

import (
	"math"
	"testing"
)

func constBlock(blockSize int, l, r float32) []float32 {
	b := make([]float32, blockSize*2)
	for i := 0; i < blockSize; i++ {
		b[i*2] = l
		b[i*2+1] = r
	}
	return b
}

func TestMatrixFrontsPassThrough(t *testing.T) {
	// Rate 1000 keeps the rear delay short (12 frames) relative to the block.
	e := NewMatrixEngine(64, 1000)
	out := e.Decode(constBlock(64, 0.5, -0.25))

	if len(out) != 64*6 {
		t.Fatalf("output length = %d, want %d", len(out), 64*6)
	}
	for f := 0; f < 64; f++ {
		o := out[f*6:]
		if o[natFrontLeft] != 0.5 || o[natFrontRight] != -0.25 {
			t.Fatalf("frame %d: fronts (%v, %v) not passed through", f, o[natFrontLeft], o[natFrontRight])
		}
		if o[natFrontCenter] != 0.125 {
			t.Fatalf("frame %d: center = %v, want 0.125", f, o[natFrontCenter])
		}
	}
}

func TestMatrixRearDelayAndPolarity(t *testing.T) {
	e := NewMatrixEngine(64, 1000)
	delayFrames := 1000 * rearDelayMillis / 1000

	out := e.Decode(constBlock(64, 0.5, -0.25))

	// Rears are silent until the delay line fills, then carry the
	// difference signal with opposite polarities.
	for f := 0; f < delayFrames; f++ {
		if out[f*6+natRearLeft] != 0 || out[f*6+natRearRight] != 0 {
			t.Fatalf("frame %d: rears active before delay elapsed", f)
		}
	}
	diff := float32((0.5 - (-0.25)) * rearGain)
	o := out[delayFrames*6:]
	if o[natRearLeft] != diff {
		t.Errorf("rear left = %v, want %v", o[natRearLeft], diff)
	}
	if o[natRearRight] != -diff {
		t.Errorf("rear right = %v, want %v", o[natRearRight], -diff)
	}
}

func TestMatrixLFEConvergesToMid(t *testing.T) {
	e := NewMatrixEngine(512, 48000)

	var out []float32
	for i := 0; i < 20; i++ {
		out = e.Decode(constBlock(512, 0.6, 0.2))
	}
	last := out[511*6:]
	mid := float32((0.6 + 0.2) * centerGain)
	if math.Abs(float64(last[natLFE]-mid)) > 1e-3 {
		t.Errorf("LFE = %v after DC input, want about %v", last[natLFE], mid)
	}
}

func TestMatrixFlushClearsState(t *testing.T) {
	e := NewMatrixEngine(64, 1000)
	e.Decode(constBlock(64, 0.9, -0.9))

	e.Flush()

	out := e.Decode(constBlock(64, 0, 0))
	for i, s := range out {
		if s != 0 {
			t.Fatalf("sample %d = %v after flush on silence, want 0", i, s)
		}
	}
}

func TestLayoutRemapIsPermutation(t *testing.T) {
	for _, l := range []Layout{Layout51, Layout71, LayoutPositional} {
		remap := l.Remap()
		if len(remap) != l.Channels() {
			t.Errorf("%s: remap length %d, want %d", l, len(remap), l.Channels())
		}
		seen := make(map[int]bool)
		for _, src := range remap {
			if src < 0 || src >= l.Channels() || seen[src] {
				t.Errorf("%s: remap %v is not a permutation", l, remap)
				break
			}
			seen[src] = true
		}
	}
}

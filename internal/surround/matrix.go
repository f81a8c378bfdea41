// ABOUTME: Default passive-matrix stereo to 5.1 decode engine
// ABOUTME: Fronts pass through, rears are the delayed difference, LFE is low-passed mid
package surround

import "math"

// Engine-native 5.1 channel order. The Accountant's remap table corrects
// this into canonical order.
const (
	natFrontLeft = iota
	natFrontCenter
	natFrontRight
	natRearLeft
	natRearRight
	natLFE
)

const (
	rearDelayMillis = 12
	lfeCutoffHz     = 120.0
	centerGain      = 0.5
	rearGain        = 0.5
)

// MatrixEngine is a stateful passive-matrix upmixer. It exists to put a real
// engine behind the block contract; the transform itself is intentionally
// simple. Rear channels carry a delayed L-R difference, the LFE carries a
// one-pole low-passed mid signal, so Flush has real state to clear.
type MatrixEngine struct {
	blockSize int
	rate      int

	out []float32

	// Rear difference delay line, circular.
	delay    []float32
	delayPos int

	// One-pole low-pass state for the LFE.
	lfeCoeff float32
	lfeState float32
}

// NewMatrixEngine creates an engine consuming blockSize stereo frames per
// Decode call at the given sample rate.
func NewMatrixEngine(blockSize, sampleRate int) *MatrixEngine {
	delayFrames := sampleRate * rearDelayMillis / 1000
	if delayFrames < 1 {
		delayFrames = 1
	}
	return &MatrixEngine{
		blockSize: blockSize,
		rate:      sampleRate,
		out:       make([]float32, blockSize*Layout51.Channels()),
		delay:     make([]float32, delayFrames),
		lfeCoeff:  float32(1 - math.Exp(-2*math.Pi*lfeCutoffHz/float64(sampleRate))),
	}
}

func (e *MatrixEngine) BlockSize() int { return e.blockSize }
func (e *MatrixEngine) Channels() int  { return Layout51.Channels() }
func (e *MatrixEngine) Layout() Layout { return Layout51 }

// Decode consumes exactly BlockSize stereo frames and returns BlockSize
// frames in engine-native order. The returned slice is reused on the next
// call.
func (e *MatrixEngine) Decode(block []float32) []float32 {
	ch := e.Channels()
	for i := 0; i < e.blockSize; i++ {
		l := block[i*2]
		r := block[i*2+1]
		mid := (l + r) * centerGain
		diff := (l - r) * rearGain

		delayed := e.delay[e.delayPos]
		e.delay[e.delayPos] = diff
		e.delayPos++
		if e.delayPos == len(e.delay) {
			e.delayPos = 0
		}

		e.lfeState += e.lfeCoeff * (mid - e.lfeState)

		o := e.out[i*ch:]
		o[natFrontLeft] = l
		o[natFrontCenter] = mid
		o[natFrontRight] = r
		o[natRearLeft] = delayed
		o[natRearRight] = -delayed
		o[natLFE] = e.lfeState
	}
	return e.out
}

// Flush resets the delay line and filter state to silence.
func (e *MatrixEngine) Flush() {
	for i := range e.delay {
		e.delay[i] = 0
	}
	e.delayPos = 0
	e.lfeState = 0
}

// ABOUTME: Stereo PCM producer boundary and ring-buffered implementation
// ABOUTME: Decouples the producing thread from the playback tick thread
package mixer

import (
	"math"
	"sync"
	"sync/atomic"
)

// Mixer produces interleaved stereo PCM frames on demand. Mix never blocks:
// it returns however many frames it can produce up to the requested count,
// possibly zero. SampleRate and CurrentSpeed may change between calls; the
// playback scheduler re-reads both every tick.
type Mixer interface {
	SampleRate() int
	CurrentSpeed() float64
	Mix(dst []int16, frames int) int
}

// DefaultRingFrames is roughly a quarter second of stereo audio at 48 kHz.
const DefaultRingFrames = 12288

// StreamMixer is a Mixer fed by a producer goroutine through Push. Frames
// cross exactly one mutex; speed and sample rate are atomics because the
// producer updates them while the tick thread reads them every tick.
type StreamMixer struct {
	mu   sync.Mutex
	ring []int16
	head int
	size int

	rate  atomic.Int64
	speed atomic.Uint64
}

// NewStream creates a StreamMixer at the given sample rate holding up to
// capacityFrames stereo frames (DefaultRingFrames if zero or negative).
func NewStream(sampleRate, capacityFrames int) *StreamMixer {
	if capacityFrames <= 0 {
		capacityFrames = DefaultRingFrames
	}
	m := &StreamMixer{ring: make([]int16, capacityFrames*2)}
	m.rate.Store(int64(sampleRate))
	m.speed.Store(math.Float64bits(1.0))
	return m
}

// SampleRate returns the current producer sample rate.
func (m *StreamMixer) SampleRate() int {
	return int(m.rate.Load())
}

// SetSampleRate announces a new producer sample rate and drops buffered
// frames; they were timed for the old rate.
func (m *StreamMixer) SetSampleRate(rate int) {
	m.mu.Lock()
	m.head = 0
	m.size = 0
	m.mu.Unlock()
	m.rate.Store(int64(rate))
}

// CurrentSpeed returns the producer speed factor relative to nominal.
func (m *StreamMixer) CurrentSpeed() float64 {
	return math.Float64frombits(m.speed.Load())
}

// SetSpeed updates the producer speed factor.
func (m *StreamMixer) SetSpeed(speed float64) {
	m.speed.Store(math.Float64bits(speed))
}

// Push appends interleaved stereo frames and returns how many frames were
// accepted; the rest were refused because the ring is full. The producer is
// expected to retry after a short wait.
func (m *StreamMixer) Push(frames []int16) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	free := (len(m.ring) - m.size) / 2
	n := len(frames) / 2
	if n > free {
		n = free
	}
	for i := 0; i < n*2; i++ {
		tail := m.head + m.size
		if tail >= len(m.ring) {
			tail -= len(m.ring)
		}
		m.ring[tail] = frames[i]
		m.size++
	}
	return n
}

// BufferedFrames returns the number of frames waiting to be mixed.
func (m *StreamMixer) BufferedFrames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size / 2
}

// Mix pops up to frames stereo frames into dst in push order and returns
// the count produced. Any remainder of dst up to frames is zero-filled so
// callers feeding block-aligned consumers can hand the whole buffer on.
func (m *StreamMixer) Mix(dst []int16, frames int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.size / 2
	if n > frames {
		n = frames
	}
	for i := 0; i < n*2; i++ {
		dst[i] = m.ring[m.head]
		m.head++
		if m.head == len(m.ring) {
			m.head = 0
		}
	}
	m.size -= n * 2
	for i := n * 2; i < frames*2; i++ {
		dst[i] = 0
	}
	return n
}

// Clear drops all buffered frames, used on transport discontinuities.
func (m *StreamMixer) Clear() {
	m.mu.Lock()
	m.head = 0
	m.size = 0
	m.mu.Unlock()
}

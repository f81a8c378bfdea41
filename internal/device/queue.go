// ABOUTME: Shared slot queue backing the real device voices
// ABOUTME: Tracks Free/Queued/Processed slot states and the observed play state
package device

import "sync"

// slot is one queued buffer: decoded float samples and its frame count.
type slot struct {
	samples []float32
	frames  int
}

// slotQueue is the common bookkeeping behind the oto and portaudio voices.
// The scheduler thread submits and reclaims; the device render thread calls
// fill. Pitch is realized as a fractional read step, which doubles as the
// resampler between the voice rate and the device rate.
type slotQueue struct {
	mu       sync.Mutex
	channels int
	maxSlots int

	pending   []slot
	pos       float64 // fractional frame position inside pending[0]
	rateRatio float64 // voice rate / device rate
	pitch     float64

	completed int // slots fully consumed by the device
	reclaimed int // slots returned via unqueue

	playing bool
	gain    float32
}

func newSlotQueue(channels, maxSlots int, rateRatio float64) *slotQueue {
	return &slotQueue{
		channels:  channels,
		maxSlots:  maxSlots,
		rateRatio: rateRatio,
		pitch:     1.0,
		gain:      1.0,
	}
}

func (q *slotQueue) submit(samples []float32, frames int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == q.maxSlots {
		return ErrNoFreeSlot
	}
	q.pending = append(q.pending, slot{samples: samples, frames: frames})
	return nil
}

func (q *slotQueue) processed() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.completed - q.reclaimed
}

func (q *slotQueue) unqueue(n int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n > q.completed-q.reclaimed {
		return ErrBadUnqueue
	}
	q.reclaimed += n
	return nil
}

func (q *slotQueue) play() {
	q.mu.Lock()
	q.playing = true
	q.mu.Unlock()
}

func (q *slotQueue) stop() {
	q.mu.Lock()
	q.playing = false
	q.mu.Unlock()
}

func (q *slotQueue) isPlaying() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.playing
}

func (q *slotQueue) setGain(gain float64) {
	q.mu.Lock()
	q.gain = float32(gain)
	q.mu.Unlock()
}

func (q *slotQueue) setPitch(pitch float64) {
	q.mu.Lock()
	q.pitch = pitch
	q.mu.Unlock()
}

// fill renders device frames into out. Queued audio is consumed at
// pitch*rateRatio source frames per device frame, nearest neighbor. When the
// queue drains while playing, the remaining frames are silence and the
// observed play state drops, surfacing the underrun to the scheduler.
func (q *slotQueue) fill(out []float32) {
	q.mu.Lock()
	defer q.mu.Unlock()

	step := q.pitch * q.rateRatio
	ch := q.channels
	frames := len(out) / ch

	for f := 0; f < frames; f++ {
		for len(q.pending) > 0 && int(q.pos) >= q.pending[0].frames {
			q.pos -= float64(q.pending[0].frames)
			q.pending = q.pending[1:]
			q.completed++
		}
		if !q.playing || len(q.pending) == 0 {
			if q.playing {
				q.playing = false
			}
			for c := 0; c < ch; c++ {
				out[f*ch+c] = 0
			}
			continue
		}
		src := q.pending[0].samples[int(q.pos)*ch:]
		for c := 0; c < ch; c++ {
			out[f*ch+c] = src[c] * q.gain
		}
		q.pos += step
	}
}

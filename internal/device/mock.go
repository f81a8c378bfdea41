// ABOUTME: Scripted in-memory device for hardware-independent tests
// ABOUTME: Records submissions and lets tests drive processed counts and play state
package device

import "sync"

// MockDevice implements Device without touching hardware. Tests configure
// its capabilities and failure script, then inspect what the scheduler did.
type MockDevice struct {
	mu    sync.Mutex
	caps  Capabilities
	open  []*MockVoice
	close int

	// RejectMultichannelOpen makes OpenVoice fail voices with more than
	// two channels even when Multichannel is advertised.
	RejectMultichannelOpen bool

	// MultichannelSubmitFails scripts voices with more than two channels
	// to bounce every submission, the way a device can accept a 5.1 voice
	// but reject 5.1 buffer data.
	MultichannelSubmitFails bool
}

// NewMockDevice creates a mock advertising the given capabilities.
func NewMockDevice(caps Capabilities) *MockDevice {
	return &MockDevice{caps: caps}
}

func (d *MockDevice) Name() string               { return "mock" }
func (d *MockDevice) Capabilities() Capabilities { return d.caps }

func (d *MockDevice) OpenVoice(cfg VoiceConfig) (Voice, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cfg.Channels > 2 && (d.RejectMultichannelOpen || !d.caps.Multichannel) {
		return nil, ErrFormatRejected
	}
	v := &MockVoice{Config: cfg}
	if cfg.Channels > 2 && d.MultichannelSubmitFails {
		v.FailSubmits = true
	}
	d.open = append(d.open, v)
	return v, nil
}

func (d *MockDevice) Close() error {
	d.mu.Lock()
	d.close++
	d.mu.Unlock()
	return nil
}

// Voices returns every voice opened so far, in order.
func (d *MockDevice) Voices() []*MockVoice {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*MockVoice, len(d.open))
	copy(out, d.open)
	return out
}

// MockSubmission records one accepted Submit call.
type MockSubmission struct {
	Slot   int
	Frames int
	Bytes  int
}

// MockVoice is the scripted voice handed out by MockDevice.
type MockVoice struct {
	mu     sync.Mutex
	Config VoiceConfig

	subs      []MockSubmission
	submits   int
	queued    int
	processed int
	playing   bool
	gain      float64
	pitches   []float64
	closed    bool

	// FailSubmits makes every Submit return ErrFormatRejected.
	FailSubmits bool
}

func (v *MockVoice) Submit(slot int, data []byte, frames int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	if v.FailSubmits {
		return ErrFormatRejected
	}
	if slot != v.submits%v.Config.Slots {
		return ErrSlotOrder
	}
	if v.queued == v.Config.Slots {
		return ErrNoFreeSlot
	}
	v.subs = append(v.subs, MockSubmission{Slot: slot, Frames: frames, Bytes: len(data)})
	v.submits++
	v.queued++
	return nil
}

func (v *MockVoice) Processed() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.processed
}

func (v *MockVoice) Unqueue(n int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if n > v.processed {
		return ErrBadUnqueue
	}
	v.processed -= n
	v.queued -= n
	return nil
}

func (v *MockVoice) Playing() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.playing
}

func (v *MockVoice) Play() {
	v.mu.Lock()
	v.playing = true
	v.mu.Unlock()
}

func (v *MockVoice) Stop() {
	v.mu.Lock()
	v.playing = false
	v.mu.Unlock()
}

func (v *MockVoice) SetGain(gain float64) {
	v.mu.Lock()
	v.gain = gain
	v.mu.Unlock()
}

func (v *MockVoice) SetPitch(pitch float64) {
	v.mu.Lock()
	v.pitches = append(v.pitches, pitch)
	v.mu.Unlock()
}

func (v *MockVoice) Close() error {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	return nil
}

// CompleteBuffers marks n queued buffers as processed by the "hardware".
func (v *MockVoice) CompleteBuffers(n int) {
	v.mu.Lock()
	v.processed += n
	v.mu.Unlock()
}

// SimulateUnderrun drops the observed play state, as a real device does
// when its queue drains.
func (v *MockVoice) SimulateUnderrun() {
	v.mu.Lock()
	v.playing = false
	v.mu.Unlock()
}

// Submissions returns a copy of the accepted submissions.
func (v *MockVoice) Submissions() []MockSubmission {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]MockSubmission, len(v.subs))
	copy(out, v.subs)
	return out
}

// Queued returns the number of slots currently queued.
func (v *MockVoice) Queued() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.queued
}

// Gain returns the last gain applied.
func (v *MockVoice) Gain() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gain
}

// Pitches returns every pitch value applied, in order.
func (v *MockVoice) Pitches() []float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]float64, len(v.pitches))
	copy(out, v.pitches)
	return out
}

// Closed reports whether the voice was closed.
func (v *MockVoice) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

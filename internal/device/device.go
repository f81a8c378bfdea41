// ABOUTME: Output device boundary consumed by the playback scheduler
// ABOUTME: Capability flags, voice contract and submission errors
package device

import (
	"errors"

	"github.com/hollowpine/resound/internal/pcm"
)

var (
	// ErrFormatRejected reports a format or channel count the device cannot
	// accept. The scheduler recovers locally by downgrading; this never
	// propagates past it.
	ErrFormatRejected = errors.New("device: format rejected")

	// ErrNoFreeSlot reports a submission while every buffer slot is queued.
	ErrNoFreeSlot = errors.New("device: no free buffer slot")

	// ErrSlotOrder reports a submission out of round-robin order, which is
	// a scheduler bug.
	ErrSlotOrder = errors.New("device: buffer slot submitted out of order")

	// ErrBadUnqueue reports reclaiming more slots than were processed.
	ErrBadUnqueue = errors.New("device: unqueue exceeds processed count")

	// ErrClosed reports use of a closed voice or device.
	ErrClosed = errors.New("device: closed")
)

// Capabilities advertises what the device accepts. Queried once per session;
// only the surround capability can be demoted afterwards, by a rejected
// submission.
type Capabilities struct {
	Float32      bool
	Fixed32      bool
	Multichannel bool
}

// VoiceConfig describes one playback voice and its buffer slots.
type VoiceConfig struct {
	Channels   int
	SampleRate int
	Format     pcm.Format
	Slots      int
}

// Voice is a device-side playback entity bound to a fixed set of buffer
// slots consumed in submission order.
//
// Submit hands the next slot to the device; slot must follow round-robin
// order. Processed reports slots the device has finished with; Unqueue
// returns them to the free pool. Playing reflects device-observed state: it
// goes false on its own when the queue drains, which is how the scheduler
// detects underruns.
type Voice interface {
	Submit(slot int, data []byte, frames int) error
	Processed() int
	Unqueue(n int) error
	Playing() bool
	Play()
	Stop()
	SetGain(gain float64)
	SetPitch(pitch float64)
	Close() error
}

// Device opens playback voices and reports its capabilities.
type Device interface {
	Name() string
	Capabilities() Capabilities
	OpenVoice(cfg VoiceConfig) (Voice, error)
	Close() error
}

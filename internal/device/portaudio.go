// ABOUTME: Output device backed by PortAudio callback streams
// ABOUTME: The multichannel-capable backend: float32, fixed32 and 5.1 voices
package device

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/hollowpine/resound/internal/pcm"
)

// PortAudioDevice plays through PortAudio. Each voice owns a callback
// stream at its own rate and channel count, so surround voices and
// per-voice sample-rate changes map directly onto stream lifecycle.
type PortAudioDevice struct {
	initialized bool
}

// OpenPortAudio initializes the PortAudio subsystem.
func OpenPortAudio() (*PortAudioDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}
	return &PortAudioDevice{initialized: true}, nil
}

func (d *PortAudioDevice) Name() string { return "portaudio" }

func (d *PortAudioDevice) Capabilities() Capabilities {
	return Capabilities{Float32: true, Fixed32: true, Multichannel: true}
}

// OpenVoice opens a callback stream on the default output device. Channel
// counts beyond the hardware's limit surface as a stream-open error mapped
// to ErrFormatRejected so the scheduler can downgrade.
func (d *PortAudioDevice) OpenVoice(cfg VoiceConfig) (Voice, error) {
	if !d.initialized {
		return nil, ErrClosed
	}
	v := &portAudioVoice{
		q:      newSlotQueue(cfg.Channels, cfg.Slots, 1.0),
		format: cfg.Format,
	}
	stream, err := portaudio.OpenDefaultStream(
		0,
		cfg.Channels,
		float64(cfg.SampleRate),
		0,
		func(out []float32) { v.q.fill(out) },
	)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %d-channel stream: %v", ErrFormatRejected, cfg.Channels, err)
	}
	v.stream = stream
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("starting stream: %w", err)
	}
	return v, nil
}

// Close terminates the PortAudio subsystem. Voices must be closed first.
func (d *PortAudioDevice) Close() error {
	if !d.initialized {
		return nil
	}
	d.initialized = false
	return portaudio.Terminate()
}

type portAudioVoice struct {
	q       *slotQueue
	stream  *portaudio.Stream
	format  pcm.Format
	submits int
	closed  bool
}

func (v *portAudioVoice) Submit(slot int, data []byte, frames int) error {
	if v.closed {
		return ErrClosed
	}
	if slot != v.submits%v.q.maxSlots {
		return ErrSlotOrder
	}
	samples := pcm.ToFloats(data, v.format, make([]float32, 0, frames*v.q.channels))
	if err := v.q.submit(samples, frames); err != nil {
		return err
	}
	v.submits++
	return nil
}

func (v *portAudioVoice) Processed() int      { return v.q.processed() }
func (v *portAudioVoice) Unqueue(n int) error { return v.q.unqueue(n) }
func (v *portAudioVoice) Playing() bool       { return v.q.isPlaying() }
func (v *portAudioVoice) Play()               { v.q.play() }
func (v *portAudioVoice) Stop()               { v.q.stop() }

func (v *portAudioVoice) SetGain(gain float64)   { v.q.setGain(gain) }
func (v *portAudioVoice) SetPitch(pitch float64) { v.q.setPitch(pitch) }

func (v *portAudioVoice) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true
	v.q.stop()
	if err := v.stream.Stop(); err != nil {
		_ = v.stream.Close()
		return err
	}
	return v.stream.Close()
}

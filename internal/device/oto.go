// ABOUTME: Output device backed by ebitengine/oto v3
// ABOUTME: Pull-model stereo device, float32 transport, no multichannel
package device

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/hollowpine/resound/internal/pcm"
)

// OtoDevice plays through the default system output via oto. The context is
// stereo float32 at a fixed rate; voices at other rates are adapted by the
// slot queue's fractional read step. Surround submissions are rejected,
// which exercises the scheduler's stereo downgrade on this backend.
type OtoDevice struct {
	ctx  *oto.Context
	rate int
}

// OpenOto creates the oto context at the given device rate. oto allows one
// context per process, so the device must outlive every session.
func OpenOto(sampleRate int) (*OtoDevice, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   10 * time.Millisecond,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("creating oto context: %w", err)
	}
	<-ready
	return &OtoDevice{ctx: ctx, rate: sampleRate}, nil
}

func (d *OtoDevice) Name() string { return "oto" }

func (d *OtoDevice) Capabilities() Capabilities {
	return Capabilities{Float32: true, Fixed32: false, Multichannel: false}
}

// OpenVoice creates a stereo voice. Multichannel and fixed-point 32 are
// outside oto's surface and rejected up front.
func (d *OtoDevice) OpenVoice(cfg VoiceConfig) (Voice, error) {
	if cfg.Channels != 2 || cfg.Format == pcm.FormatInt32 {
		return nil, ErrFormatRejected
	}
	v := &otoVoice{
		q:      newSlotQueue(2, cfg.Slots, float64(cfg.SampleRate)/float64(d.rate)),
		format: cfg.Format,
	}
	v.player = d.ctx.NewPlayer(v)
	v.player.Play()
	return v, nil
}

// Close releases the device. The oto context itself cannot be torn down;
// it is silenced by closing its players.
func (d *OtoDevice) Close() error { return nil }

type otoVoice struct {
	q       *slotQueue
	player  *oto.Player
	format  pcm.Format
	submits int
	scratch []float32
	closed  bool
}

func (v *otoVoice) Submit(slot int, data []byte, frames int) error {
	if v.closed {
		return ErrClosed
	}
	if slot != v.submits%v.q.maxSlots {
		return ErrSlotOrder
	}
	samples := pcm.ToFloats(data, v.format, make([]float32, 0, frames*2))
	if err := v.q.submit(samples, frames); err != nil {
		return err
	}
	v.submits++
	return nil
}

func (v *otoVoice) Processed() int      { return v.q.processed() }
func (v *otoVoice) Unqueue(n int) error { return v.q.unqueue(n) }
func (v *otoVoice) Playing() bool       { return v.q.isPlaying() }
func (v *otoVoice) Play()               { v.q.play() }
func (v *otoVoice) Stop()               { v.q.stop() }

func (v *otoVoice) SetGain(gain float64)   { v.q.setGain(gain) }
func (v *otoVoice) SetPitch(pitch float64) { v.q.setPitch(pitch) }

func (v *otoVoice) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true
	v.q.stop()
	return v.player.Close()
}

// Read is the oto pull path: render queued slots as stereo float32 bytes.
func (v *otoVoice) Read(p []byte) (int, error) {
	const frameBytes = 2 * 4
	frames := len(p) / frameBytes
	if frames == 0 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	if cap(v.scratch) < frames*2 {
		v.scratch = make([]float32, frames*2)
	}
	out := v.scratch[:frames*2]
	v.q.fill(out)

	for i, s := range out {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return frames * frameBytes, nil
}

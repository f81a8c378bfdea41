// ABOUTME: Multi-buffer playback scheduler driving device voices
// ABOUTME: Polling tick loop with underrun recovery and one-way surround downgrade
package playback

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hollowpine/resound/internal/device"
	"github.com/hollowpine/resound/internal/mixer"
	"github.com/hollowpine/resound/internal/pcm"
	"github.com/hollowpine/resound/internal/surround"
)

const (
	DefaultLatencyMs = 64
	DefaultSlots     = 4

	// MaxFramesPerBuffer caps one buffer regardless of latency settings.
	MaxFramesPerBuffer = 4096

	minSlots = 2
	maxSlots = 32

	// Below this speed factor the pitch is left alone; startup silence
	// bursts report near-zero speed and would otherwise warp audibly.
	minPitchSpeed = 0.10

	// tickWait bounds the back-off when no buffer slot is free.
	tickWait = time.Millisecond
)

// EngineFactory builds a surround decode engine for a sample rate. The
// scheduler rebuilds the engine on rate changes so filter state never
// crosses a discontinuity.
type EngineFactory func(sampleRate int) surround.Engine

// Config controls scheduling behavior for one output session.
type Config struct {
	LatencyMs int
	Slots     int
	MaxFrames int

	// Surround requests 5.1 output; it is granted only when the device
	// advertises multichannel support and can be demoted at runtime.
	Surround bool

	// Stretch marks an active time stretcher; pitch is then held at unity
	// because the stretcher owns timing.
	Stretch bool
}

func (c Config) withDefaults() Config {
	if c.LatencyMs <= 0 {
		c.LatencyMs = DefaultLatencyMs
	}
	if c.Slots == 0 {
		c.Slots = DefaultSlots
	}
	if c.Slots < minSlots {
		c.Slots = minSlots
	}
	if c.Slots > maxSlots {
		c.Slots = maxSlots
	}
	if c.MaxFrames <= 0 {
		c.MaxFrames = MaxFramesPerBuffer
	}
	return c
}

// Stats are cumulative per-session counters.
type Stats struct {
	Submitted   int64
	Underruns   int64
	ShortReads  int64
	Downgrades  int64
	RateChanges int64
}

// Scheduler owns a set of device voices and drives them from one background
// tick thread. Voices are serviced sequentially within a tick; the only
// fields touched from other goroutines are the run flag, volume and stats,
// all atomics.
type Scheduler struct {
	dev    device.Device
	caps   device.Capabilities
	cfg    Config
	format pcm.Format

	voices []*voice

	running        atomic.Bool
	kick           chan struct{}
	wg             sync.WaitGroup
	volumePct      atomic.Int64
	muted          atomic.Bool
	gainDirty      atomic.Bool
	surroundActive atomic.Bool

	submitted   atomic.Int64
	underruns   atomic.Int64
	shortReads  atomic.Int64
	downgrades  atomic.Int64
	rateChanges atomic.Int64
}

type voice struct {
	mix       mixer.Mixer
	newEngine EngineFactory
	acct      *surround.Accountant
	dv        device.Voice

	surround   bool
	downgraded bool
	started    bool

	rate     int
	channels int
	frames   int
	queued   int
	nextSlot int

	mixBuf  []int16
	feedBuf []int16
	chunk   []float32
	data    []byte
}

// New negotiates the transport format against the device capabilities and
// prepares a scheduler. Voices are added with AddVoice before Start.
func New(dev device.Device, cfg Config) *Scheduler {
	caps := dev.Capabilities()
	s := &Scheduler{
		dev:    dev,
		caps:   caps,
		cfg:    cfg.withDefaults(),
		format: pcm.Pick(caps.Float32, caps.Fixed32),
		kick:   make(chan struct{}, 1),
	}
	s.volumePct.Store(100)
	s.gainDirty.Store(true)
	return s
}

// Format returns the negotiated transport format.
func (s *Scheduler) Format() pcm.Format { return s.format }

// SurroundActive reports whether any voice is currently in surround mode.
func (s *Scheduler) SurroundActive() bool { return s.surroundActive.Load() }

// AddVoice binds a mixer to a new device voice. newEngine may be nil for a
// stereo-only voice. Must be called before Start.
func (s *Scheduler) AddVoice(m mixer.Mixer, newEngine EngineFactory) error {
	v := &voice{mix: m, newEngine: newEngine, rate: m.SampleRate()}
	wantSurround := s.cfg.Surround && newEngine != nil
	if wantSurround && !s.caps.Multichannel {
		log.Printf("playback: device lacks multichannel support, using stereo")
		wantSurround = false
	}
	if err := s.openVoice(v, wantSurround); err != nil {
		return err
	}
	s.voices = append(s.voices, v)
	s.refreshSurroundActive()
	return nil
}

// openVoice opens the device voice for its current mode and sizes the
// scratch buffers. A surround open rejected by the device falls back to
// stereo immediately and permanently.
func (s *Scheduler) openVoice(v *voice, wantSurround bool) error {
	channels := 2
	var engine surround.Engine
	if wantSurround {
		engine = v.newEngine(v.rate)
		channels = engine.Channels()
	}

	dv, err := s.dev.OpenVoice(device.VoiceConfig{
		Channels:   channels,
		SampleRate: v.rate,
		Format:     s.format,
		Slots:      s.cfg.Slots,
	})
	if wantSurround && errors.Is(err, device.ErrFormatRejected) {
		log.Printf("playback: %d-channel voice rejected, falling back to stereo", channels)
		v.downgraded = true
		s.downgrades.Add(1)
		return s.openVoice(v, false)
	}
	if err != nil {
		return fmt.Errorf("opening voice: %w", err)
	}

	v.dv = dv
	v.surround = wantSurround
	v.channels = channels
	if wantSurround {
		v.acct = surround.NewAccountant(engine, 0)
	} else {
		v.acct = nil
	}
	v.frames = s.framesPerBuffer(v.rate, wantSurround)
	v.queued = 0
	v.nextSlot = 0
	v.started = false
	log.Printf("playback: voice open: %d Hz, %d channels, %s, %d slots x %d frames",
		v.rate, channels, s.format, s.cfg.Slots, v.frames)
	return nil
}

// framesPerBuffer splits the requested latency across the buffer slots,
// clamped to the implementation maximum and floored to the decoder minimum
// when surround is active.
func (s *Scheduler) framesPerBuffer(rate int, surroundMode bool) int {
	f := rate * s.cfg.LatencyMs / 1000 / s.cfg.Slots
	if f > s.cfg.MaxFrames {
		f = s.cfg.MaxFrames
	}
	if surroundMode && f < surround.MinFrames {
		f = surround.MinFrames
	}
	if f < 1 {
		f = 1
	}
	return f
}

// Start launches the tick thread.
func (s *Scheduler) Start() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	s.wg.Add(1)
	go s.loop()
}

// Stop shuts the tick thread down in two phases: clear the run flag, wake a
// parked loop, then join before touching any voice. Buffers and voices are
// only released after the join.
func (s *Scheduler) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	s.Kick()
	s.wg.Wait()
	for _, v := range s.voices {
		v.dv.Stop()
		if err := v.dv.Close(); err != nil {
			log.Printf("playback: closing voice: %v", err)
		}
	}
}

// Kick wakes the tick loop early, e.g. after a volume change or when a
// producer has pushed a large batch.
func (s *Scheduler) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// SetVolume sets the session volume in percent. Safe from any goroutine.
func (s *Scheduler) SetVolume(pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	s.volumePct.Store(int64(pct))
	s.gainDirty.Store(true)
	s.Kick()
}

// SetMuted mutes or unmutes the session. Safe from any goroutine.
func (s *Scheduler) SetMuted(muted bool) {
	s.muted.Store(muted)
	s.gainDirty.Store(true)
	s.Kick()
}

// Stats returns a snapshot of the session counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Submitted:   s.submitted.Load(),
		Underruns:   s.underruns.Load(),
		ShortReads:  s.shortReads.Load(),
		Downgrades:  s.downgrades.Load(),
		RateChanges: s.rateChanges.Load(),
	}
}

func (s *Scheduler) loop() {
	defer s.wg.Done()
	for s.running.Load() {
		s.applyGain()
		progress := false
		for _, v := range s.voices {
			if s.service(v) {
				progress = true
			}
		}
		if !progress {
			select {
			case <-s.kick:
			case <-time.After(tickWait):
			}
		}
	}
}

func (s *Scheduler) applyGain() {
	if !s.gainDirty.Swap(false) {
		return
	}
	gain := float64(s.volumePct.Load()) / 100.0
	if s.muted.Load() {
		gain = 0
	}
	for _, v := range s.voices {
		v.dv.SetGain(gain)
	}
}

// service runs one scheduling tick for one voice. It returns false when the
// voice made no progress, letting the loop park briefly.
func (s *Scheduler) service(v *voice) bool {
	if rate := v.mix.SampleRate(); rate != v.rate {
		s.reconfigure(v, rate)
		return true
	}

	if s.cfg.Stretch {
		v.dv.SetPitch(1.0)
	} else if speed := v.mix.CurrentSpeed(); speed > minPitchSpeed {
		v.dv.SetPitch(speed)
	}

	processed := v.dv.Processed()
	if v.queued == s.cfg.Slots && processed == 0 {
		// Full queue. Trust the device over our own bookkeeping: if it
		// stopped with buffers queued, that is an underrun to recover.
		if v.started && v.queued > 0 && !v.dv.Playing() {
			v.dv.Play()
			s.underruns.Add(1)
			return true
		}
		return false
	}
	if processed > 0 {
		if err := v.dv.Unqueue(processed); err != nil {
			log.Printf("playback: unqueue: %v", err)
			return false
		}
		v.queued -= processed
	}

	var frames int
	if v.surround {
		var ok bool
		frames, ok = s.renderSurround(v)
		if !ok {
			return false
		}
	} else {
		frames = s.renderStereo(v)
		if frames == 0 {
			return false
		}
	}

	err := v.dv.Submit(v.nextSlot, v.data, frames)
	switch {
	case errors.Is(err, device.ErrFormatRejected):
		s.downgrade(v)
		return true
	case errors.Is(err, device.ErrNoFreeSlot):
		return false
	case err != nil:
		log.Printf("playback: submit: %v", err)
		return false
	}
	v.queued++
	v.nextSlot = (v.nextSlot + 1) % s.cfg.Slots
	s.submitted.Add(1)

	if !v.dv.Playing() {
		v.dv.Play()
		if v.started {
			s.underruns.Add(1)
		}
		v.started = true
	}
	return true
}

// renderSurround tops the accountant up to one buffer of decoded frames,
// drains it and encodes the chunk. It reports not-ok when the mixer had
// nothing and the FIFO cannot cover the buffer; short buffers are never
// submitted.
func (s *Scheduler) renderSurround(v *voice) (int, bool) {
	target := v.frames
	if need := v.acct.QueryFramesNeeded(target); need > 0 {
		if cap(v.feedBuf) < need*2 {
			v.feedBuf = make([]int16, need*2)
		}
		feed := v.feedBuf[:need*2]
		produced := v.mix.Mix(feed, need)
		if produced == 0 && v.acct.BufferedFrames() < target {
			s.shortReads.Add(1)
			return 0, false
		}
		// The mixer zero-fills the remainder, keeping the feed a whole
		// number of decode blocks.
		if err := v.acct.Feed(feed); err != nil {
			log.Printf("playback: surround feed: %v", err)
			return 0, false
		}
	}
	if v.acct.BufferedFrames() < target {
		s.shortReads.Add(1)
		return 0, false
	}

	channels := v.channels
	if cap(v.chunk) < target*channels {
		v.chunk = make([]float32, target*channels)
	}
	chunk := v.chunk[:target*channels]
	if err := v.acct.Drain(chunk, target); err != nil {
		log.Printf("playback: surround drain: %v", err)
		return 0, false
	}
	v.data = pcm.AppendFloats(v.data[:0], chunk, s.format)
	return target, true
}

// renderStereo pulls up to one buffer straight from the mixer and encodes
// whatever was produced; zero production skips the tick.
func (s *Scheduler) renderStereo(v *voice) int {
	target := v.frames
	if cap(v.mixBuf) < target*2 {
		v.mixBuf = make([]int16, target*2)
	}
	produced := v.mix.Mix(v.mixBuf[:target*2], target)
	if produced == 0 {
		return 0
	}
	v.data = pcm.AppendInt16s(v.data[:0], v.mixBuf[:produced*2], s.format)
	return produced
}

// downgrade permanently demotes a voice to stereo after the device rejected
// a surround submission. One-way for the rest of the session.
func (s *Scheduler) downgrade(v *voice) {
	log.Printf("playback: device rejected surround submission, falling back to stereo")
	v.dv.Stop()
	if err := v.dv.Close(); err != nil {
		log.Printf("playback: closing rejected voice: %v", err)
	}
	v.downgraded = true
	s.downgrades.Add(1)
	if err := s.openVoice(v, false); err != nil {
		log.Printf("playback: reopening stereo voice: %v", err)
	}
	s.refreshSurroundActive()
	s.gainDirty.Store(true)
}

// reconfigure follows a mixer sample-rate change: stop and recreate the
// voice at the new rate with fresh counters and buffers. The device context
// stays open throughout.
func (s *Scheduler) reconfigure(v *voice, rate int) {
	log.Printf("playback: sample rate changed %d -> %d Hz", v.rate, rate)
	v.dv.Stop()
	if err := v.dv.Close(); err != nil {
		log.Printf("playback: closing voice for rate change: %v", err)
	}
	v.rate = rate
	s.rateChanges.Add(1)
	wantSurround := v.surround && !v.downgraded
	if err := s.openVoice(v, wantSurround); err != nil {
		log.Printf("playback: reopening voice at %d Hz: %v", rate, err)
	}
	s.refreshSurroundActive()
	s.gainDirty.Store(true)
}

func (s *Scheduler) refreshSurroundActive() {
	active := false
	for _, v := range s.voices {
		if v.surround {
			active = true
		}
	}
	s.surroundActive.Store(active)
}

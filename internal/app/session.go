// ABOUTME: Output session orchestration
// ABOUTME: Wires source, mixer, scheduler and device with clean shutdown ordering
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hollowpine/resound/internal/device"
	"github.com/hollowpine/resound/internal/mixer"
	"github.com/hollowpine/resound/internal/pcm"
	"github.com/hollowpine/resound/internal/playback"
	"github.com/hollowpine/resound/internal/source"
	"github.com/hollowpine/resound/internal/surround"
)

// producerChunkFrames is how much the feed goroutine reads per iteration.
const producerChunkFrames = 2048

// Config holds session configuration collected from CLI flags.
type Config struct {
	Backend   string
	LatencyMs int
	Slots     int
	Surround  bool
	Stretch   bool
	Volume    int
	Speed     float64
}

// Session owns one playback pipeline: a producer goroutine pulls PCM from
// the source into the mixer, and the scheduler's tick thread drains the
// mixer into device buffers. Created on device open, destroyed on close.
type Session struct {
	ID string

	src   source.Source
	dev   device.Device
	mix   *mixer.StreamMixer
	sched *playback.Scheduler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	eof    chan struct{}
}

// New opens the device backend and builds the pipeline. The session owns
// the source and the device until Stop.
func New(src source.Source, cfg Config) (*Session, error) {
	dev, err := openBackend(cfg.Backend, src.SampleRate())
	if err != nil {
		return nil, err
	}

	mix := mixer.NewStream(src.SampleRate(), 0)
	if cfg.Speed > 0 {
		mix.SetSpeed(cfg.Speed)
	}

	sched := playback.New(dev, playback.Config{
		LatencyMs: cfg.LatencyMs,
		Slots:     cfg.Slots,
		Surround:  cfg.Surround,
		Stretch:   cfg.Stretch,
	})
	engineFor := func(rate int) surround.Engine {
		return surround.NewMatrixEngine(surround.DefaultBlockSize, rate)
	}
	if err := sched.AddVoice(mix, engineFor); err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("adding voice: %w", err)
	}
	sched.SetVolume(cfg.Volume)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:     uuid.New().String(),
		src:    src,
		dev:    dev,
		mix:    mix,
		sched:  sched,
		ctx:    ctx,
		cancel: cancel,
		eof:    make(chan struct{}),
	}
	log.Printf("session %s: %s backend, %d Hz, format %s, surround=%v",
		s.ID, dev.Name(), src.SampleRate(), sched.Format(), sched.SurroundActive())
	return s, nil
}

func openBackend(name string, sampleRate int) (device.Device, error) {
	switch name {
	case "", "oto":
		return device.OpenOto(sampleRate)
	case "portaudio":
		return device.OpenPortAudio()
	case "mock":
		return device.NewMockDevice(device.Capabilities{
			Float32: true, Fixed32: true, Multichannel: true,
		}), nil
	}
	return nil, fmt.Errorf("unknown audio backend %q", name)
}

// Start launches the producer goroutine and the scheduler tick thread.
func (s *Session) Start() {
	s.wg.Add(1)
	go s.produce()
	s.sched.Start()
}

// produce pulls PCM from the source into the mixer until EOF or cancel.
// The mixer ring applies backpressure by refusing frames; the producer
// retries after a short wait.
func (s *Session) produce() {
	defer s.wg.Done()
	chunk := make([]int16, producerChunkFrames*2)

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		frames, err := s.src.Read(chunk)
		if frames > 0 {
			rest := chunk[:frames*2]
			for len(rest) > 0 {
				pushed := s.mix.Push(rest)
				rest = rest[pushed*2:]
				if len(rest) == 0 {
					break
				}
				select {
				case <-s.ctx.Done():
					return
				case <-time.After(time.Millisecond):
				}
			}
			s.sched.Kick()
		}
		if err == io.EOF {
			log.Printf("session %s: source drained", s.ID)
			close(s.eof)
			return
		}
		if err != nil {
			log.Printf("session %s: source error: %v", s.ID, err)
			close(s.eof)
			return
		}
	}
}

// Done is closed when the source has been fully consumed or failed.
func (s *Session) Done() <-chan struct{} { return s.eof }

// Drained reports whether all produced audio has left the mixer.
func (s *Session) Drained() bool { return s.mix.BufferedFrames() == 0 }

// Stop tears the session down: producer first, then the scheduler's
// two-phase stop, then the device. Ordering matters; the tick thread must
// be joined before the device goes away.
func (s *Session) Stop() {
	s.cancel()
	s.wg.Wait()
	s.sched.Stop()
	if err := s.dev.Close(); err != nil {
		log.Printf("session %s: closing device: %v", s.ID, err)
	}
	if err := s.src.Close(); err != nil {
		log.Printf("session %s: closing source: %v", s.ID, err)
	}
	log.Printf("session %s: stopped", s.ID)
}

// SetVolume adjusts session volume in percent; safe from the UI goroutine.
func (s *Session) SetVolume(pct int) { s.sched.SetVolume(pct) }

// SetMuted mutes or unmutes; safe from the UI goroutine.
func (s *Session) SetMuted(muted bool) { s.sched.SetMuted(muted) }

// SetSpeed updates the producer speed factor the scheduler adapts pitch to.
func (s *Session) SetSpeed(speed float64) { s.mix.SetSpeed(speed) }

// Stats returns scheduler counters for display.
func (s *Session) Stats() playback.Stats { return s.sched.Stats() }

// Format returns the negotiated transport format.
func (s *Session) Format() pcm.Format { return s.sched.Format() }

// SurroundActive reports whether 5.1 output is currently in use.
func (s *Session) SurroundActive() bool { return s.sched.SurroundActive() }

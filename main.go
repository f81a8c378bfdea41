// ABOUTME: Entry point for the resound player
// ABOUTME: Parses CLI flags and runs a playback session
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hollowpine/resound/internal/app"
	"github.com/hollowpine/resound/internal/source"
	"github.com/hollowpine/resound/internal/ui"
	"github.com/hollowpine/resound/internal/version"
)

var (
	filePath    = flag.String("file", "", "Audio file to play (wav, mp3, flac)")
	tone        = flag.Bool("tone", false, "Play a 440 Hz test tone instead of a file")
	backend     = flag.String("backend", "oto", "Audio backend: oto or portaudio")
	latencyMs   = flag.Int("latency-ms", 64, "Total buffered latency in milliseconds")
	buffers     = flag.Int("buffers", 4, "Device buffer count (2-32)")
	surroundOut = flag.Bool("surround", false, "Upmix stereo to 5.1 when the device supports it")
	volume      = flag.Int("volume", 100, "Initial volume in percent")
	speed       = flag.Float64("speed", 1.0, "Producer speed factor")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	logFile     = flag.String("log-file", "resound.log", "Log file path")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		multiWriter := io.MultiWriter(os.Stdout, f)
		log.SetOutput(multiWriter)
	}
	log.Printf("Starting %s", version.String())

	src, title, err := openSource()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	session, err := app.New(src, app.Config{
		Backend:   *backend,
		LatencyMs: *latencyMs,
		Slots:     *buffers,
		Surround:  *surroundOut,
		Volume:    *volume,
		Speed:     *speed,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open output: %v\n", err)
		os.Exit(1)
	}
	session.Start()

	var tuiProg *tea.Program
	ctrl := ui.NewControl()
	if useTUI {
		tuiProg, err = ui.Run(ctrl)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI stopped: %v", err)
			}
		}()
		tuiProg.Send(ui.StatusMsg{
			State:    "playing",
			Title:    title,
			Backend:  *backend,
			Format:   session.Format().String(),
			Rate:     src.SampleRate(),
			Surround: session.SurroundActive(),
			Speed:    *speed,
		})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			log.Printf("signal received, shutting down")
			shutdown(session, tuiProg)
			return
		case <-ctrl.Quit:
			shutdown(session, tuiProg)
			return
		case v := <-ctrl.Volume:
			session.SetVolume(v)
		case m := <-ctrl.Mute:
			session.SetMuted(m)
		case <-session.Done():
			// Let the device drain what is already queued.
			waitDrain(session)
			shutdown(session, tuiProg)
			return
		case <-ticker.C:
			if tuiProg != nil {
				st := session.Stats()
				tuiProg.Send(ui.StatusMsg{
					Backend:    *backend,
					Format:     session.Format().String(),
					Rate:       src.SampleRate(),
					Surround:   session.SurroundActive(),
					HasStats:   true,
					Submitted:  st.Submitted,
					Underruns:  st.Underruns,
					ShortReads: st.ShortReads,
					Downgraded: st.Downgrades > 0,
				})
			}
		}
	}
}

func openSource() (source.Source, string, error) {
	if *tone {
		return source.NewTone(48000, 440.0, 0.5), "440 Hz test tone", nil
	}
	if *filePath == "" {
		return nil, "", fmt.Errorf("no input: pass -file or -tone")
	}
	src, err := source.Open(*filePath)
	if err != nil {
		return nil, "", err
	}
	return src, filepath.Base(*filePath), nil
}

func waitDrain(session *app.Session) {
	deadline := time.Now().Add(2 * time.Second)
	for !session.Drained() && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	// One extra latency window for buffers already on the device.
	time.Sleep(time.Duration(*latencyMs) * time.Millisecond)
}

func shutdown(session *app.Session, tuiProg *tea.Program) {
	session.Stop()
	if tuiProg != nil {
		tuiProg.Quit()
	}
}

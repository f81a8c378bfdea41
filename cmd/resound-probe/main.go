// ABOUTME: Device capability probe
// ABOUTME: Prints negotiated format and plays a short tone burst
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hollowpine/resound/internal/app"
	"github.com/hollowpine/resound/internal/source"
	"github.com/hollowpine/resound/internal/version"
)

var (
	backend  = flag.String("backend", "oto", "Audio backend: oto or portaudio")
	surround = flag.Bool("surround", false, "Probe 5.1 output")
	burstMs  = flag.Int("burst-ms", 1000, "Tone burst duration in milliseconds")
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	fmt.Printf("%s device probe\n", version.String())

	src := source.NewTone(48000, 440.0, 0.3)
	session, err := app.New(src, app.Config{
		Backend:  *backend,
		Surround: *surround,
		Volume:   80,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "open failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("backend:  %s\n", *backend)
	fmt.Printf("format:   %s\n", session.Format())
	mode := "stereo"
	if session.SurroundActive() {
		mode = "5.1"
	}
	fmt.Printf("channels: %s\n", mode)

	session.Start()
	time.Sleep(time.Duration(*burstMs) * time.Millisecond)
	session.Stop()

	st := session.Stats()
	fmt.Printf("buffers submitted: %d, underruns: %d, downgrades: %d\n",
		st.Submitted, st.Underruns, st.Downgrades)
}

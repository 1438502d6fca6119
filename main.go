// ABOUTME: Entry point for the Vocalis speech player
// ABOUTME: Parses CLI flags and wires auth, ingest, engine and TUI
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vocalis-audio/vocalis-go/internal/auth"
	"github.com/vocalis-audio/vocalis-go/internal/backend"
	"github.com/vocalis-audio/vocalis-go/internal/discovery"
	"github.com/vocalis-audio/vocalis-go/internal/engine"
	"github.com/vocalis-audio/vocalis-go/internal/ingest"
	"github.com/vocalis-audio/vocalis-go/internal/intent"
	"github.com/vocalis-audio/vocalis-go/internal/ui"
	"github.com/vocalis-audio/vocalis-go/internal/version"
)

// pitchStep is the per-keypress pitch adjustment.
const pitchStep = 0.25

var (
	serverAddr = flag.String("server", "", "Manual synth server address (skip mDNS)")
	port       = flag.Int("port", 8930, "Port for mDNS advertisement")
	name       = flag.String("name", "", "Player friendly name (default: hostname-vocalis-player)")
	sampleRate = flag.Int("sample-rate", 48000, "Output device sample rate in Hz")
	autoUnlock = flag.Bool("auto-unlock", false, "Unlock output immediately instead of waiting for a keypress")
	logFile    = flag.String("log-file", "vocalis-player.log", "Log file path")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	useTUI := !*noTUI

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	playerName := *name
	if playerName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		playerName = fmt.Sprintf("%s-vocalis-player", hostname)
	}

	log.Printf("Starting %s %s: %s", version.Product, version.Version, playerName)

	// TUI setup
	var tuiProg *tea.Program
	var controls *ui.Controls

	if useTUI {
		controls = ui.NewControls()
		tuiProg, err = ui.Run(controls)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go tuiProg.Run()
	}

	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	// Auth: a missing token is fine for local servers.
	authSvc := auth.NewService(nil)
	if err := authSvc.Authenticate(context.Background()); err != nil {
		log.Printf("Proceeding unauthenticated: %v", err)
	}

	// Find a synth server.
	serverAddress := *serverAddr
	if serverAddress == "" {
		log.Printf("Starting synth server discovery...")
		disc := discovery.NewManager(discovery.Config{
			InstanceName: playerName,
			Port:         *port,
		})
		if err := disc.Advertise(); err != nil {
			log.Printf("Advertisement failed: %v", err)
		}
		disc.Browse()

		select {
		case server := <-disc.Servers():
			serverAddress = server.Addr()
			log.Printf("Discovered synth server at %s", serverAddress)
		case <-time.After(10 * time.Second):
			log.Fatalf("No synth server found after 10 seconds")
		}
		disc.Stop()
	}

	// Output device and engine.
	out, err := backend.NewOto(*sampleRate)
	if err != nil {
		log.Fatalf("Failed to open output device: %v", err)
	}

	pushState := func(eng *engine.Engine) {
		st := eng.State()
		playing := st.Playing
		unlocked := st.Unlocked
		updateTUI(ui.StatusMsg{
			Unlocked:      &unlocked,
			Playing:       &playing,
			HasSchedule:   true,
			Pending:       st.Pending,
			Ready:         st.Ready,
			ActiveSources: st.ActiveSources,
			DeviceTime:    st.DeviceTime,
			Cursor:        st.NextScheduledTime,
			Pitch:         st.PitchFactor,
		})
	}

	var eng *engine.Engine
	eng, err = engine.New(out, out, engine.Config{
		OnStart:  func() { log.Printf("Playback started") },
		OnFinish: func() { log.Printf("Playback finished") },
		OnCancel: func() { log.Printf("Playback cancelled") },
		OnAutoplayBlocked: func() {
			log.Printf("Output locked: press space to unlock")
		},
		OnError: func(err error) { log.Printf("Playback error: %v", err) },
	})
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	if *autoUnlock {
		if err := eng.Unlock(context.Background()); err != nil {
			log.Printf("Unlock failed: %v", err)
		}
	}

	// Speech stream.
	client, err := ingest.NewClient(ingest.Config{
		ServerAddr: serverAddress,
		Name:       playerName,
		Token:      authSvc.Token(),
	})
	if err != nil {
		log.Fatalf("Failed to create stream client: %v", err)
	}
	if err := client.Connect(); err != nil {
		log.Fatalf("Connection failed: %v", err)
	}

	connected := true
	updateTUI(ui.StatusMsg{Connected: &connected, ServerName: serverAddress})
	log.Printf("Connected to synth server: %s", serverAddress)

	classifier := intent.NewClassifier()

	go streamLoop(eng, client, classifier, updateTUI)

	if controls != nil {
		go handleControls(eng, controls)
	}

	if tuiProg != nil {
		go func() {
			ticker := time.NewTicker(500 * time.Millisecond)
			defer ticker.Stop()
			for range ticker.C {
				pushState(eng)
			}
		}()
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Printf("Shutdown signal received")

	eng.Stop()
	client.Close()
	log.Printf("Player stopped")
}

// streamLoop routes everything the stream client produces into the
// engine and the TUI.
func streamLoop(eng *engine.Engine, client *ingest.Client, classifier *intent.Classifier, updateTUI func(ui.StatusMsg)) {
	for {
		select {
		case chunk, ok := <-client.Chunks:
			if !ok {
				return
			}
			if err := eng.Enqueue(chunk); err != nil {
				log.Printf("Enqueue failed: %v", err)
			}

		case clip, ok := <-client.Clips:
			if !ok {
				return
			}
			if _, err := eng.PlayClip(clip); err != nil {
				log.Printf("Clip playback failed: %v", err)
			}

		case tr, ok := <-client.Transcripts:
			if !ok {
				return
			}
			result := classifier.DetectToolIntent(tr.Text)
			if result.RequiresTools {
				log.Printf("Transcript implicates tools %v (confidence %.2f)",
					result.DetectedTools, result.Confidence)
			}
			updateTUI(ui.StatusMsg{Transcript: tr.Text, Tools: result.DetectedTools})

		case ctl, ok := <-client.Control:
			if !ok {
				return
			}
			switch ctl {
			case ingest.ControlFlush:
				eng.Flush()
			case ingest.ControlStop:
				eng.Stop()
			}
		}
	}
}

// handleControls processes keyboard commands from the TUI.
func handleControls(eng *engine.Engine, controls *ui.Controls) {
	for cmd := range controls.Commands {
		switch cmd {
		case ui.CmdUnlock:
			if err := eng.Unlock(context.Background()); err != nil {
				log.Printf("Unlock failed: %v", err)
			}
		case ui.CmdStop:
			eng.Stop()
		case ui.CmdFlush:
			eng.Flush()
		case ui.CmdPitchUp:
			adjustPitch(eng, pitchStep)
		case ui.CmdPitchDown:
			adjustPitch(eng, -pitchStep)
		case ui.CmdQuit:
			return
		}
	}
}

func adjustPitch(eng *engine.Engine, delta float64) {
	if err := eng.SetPitchFactor(eng.PitchFactor() + delta); err != nil {
		log.Printf("Pitch change rejected: %v", err)
	}
}

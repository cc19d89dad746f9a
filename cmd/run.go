// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rhythm/internal/analysis"
	"rhythm/internal/audio"
	"rhythm/internal/beat"
	"rhythm/internal/config"
	"rhythm/internal/log"
	"rhythm/internal/session"
	"rhythm/internal/transport"
	"rhythm/internal/transport/udp"
	"rhythm/internal/tui"
	"rhythm/pkg/build"
)

func newRunCommand(a *app) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Detect beats on live input and play along",
		Long: `Captures the input device, detects beats per frequency band and scores
hits against them. By default a terminal dashboard takes the hits (f and j, or
the arrow keys); --headless only detects and streams.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyRunFlags()
			return a.run(cmd.Context())
		},
	}

	f := runCmd.Flags()
	// Audio device configuration
	f.IntP("device", "d", config.MinDeviceID,
		"Input device ID. Use the 'devices' command to see available devices.")
	f.Float64P("sample-rate", "s", config.DefaultSampleRate, "Sample rate, measured in Hertz (Hz)")
	f.IntP("channels", "n", config.DefaultChannels, "Number of input channels (downmixed to mono)")
	f.IntP("frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	f.BoolP("low-latency", "l", false, "Use the device's low latency setting")
	f.String("window", "", "FFT window function (e.g. BlackmanHarris, Hann)")

	// Recording configuration
	f.BoolP("record", "r", false, "Record the input to a WAV file")
	f.StringP("output", "o", "", "Recording file (default is <output_dir>/session_<time>.wav)")

	// Session and transports
	f.Float64("start-delay", config.DefaultStartDelay, "Seconds between start and detection")
	f.Bool("headless", false, "Run without the dashboard")
	f.Duration("duration", 0, "Stop after this long (headless only; 0 runs until interrupted)")
	f.String("log-file", "", "Write logs here while the dashboard is open (default discards them)")
	f.String("websocket", "", "Serve beats and snapshots over WebSocket on this address")
	f.String("udp", "", "Send binary snapshots to this UDP address")
	f.Bool("log-events", false, "Log every outbound beat and snapshot as JSON at debug level")
	return runCmd
}

// applyRunFlags copies the flags the user set onto the loaded configuration.
func (a *app) applyRunFlags() {
	c := a.cfg
	if a.changed("device") {
		c.Audio.InputDevice = a.v.GetInt("device")
	}
	if a.changed("sample-rate") {
		c.Audio.SampleRate = a.v.GetFloat64("sample-rate")
	}
	if a.changed("channels") {
		c.Audio.InputChannels = a.v.GetInt("channels")
	}
	if a.changed("frames-per-buffer") {
		c.Audio.FramesPerBuffer = a.v.GetInt("frames-per-buffer")
	}
	if a.changed("low-latency") {
		c.Audio.LowLatency = a.v.GetBool("low-latency")
	}
	if a.changed("window") {
		c.Audio.FFTWindow = a.v.GetString("window")
	}
	if a.changed("record") {
		c.Recording.Enabled = a.v.GetBool("record")
	}
	if a.changed("start-delay") {
		c.Session.StartDelay = a.v.GetFloat64("start-delay")
	}
	if a.changed("websocket") {
		c.Transport.WebSocketEnabled = true
		c.Transport.WebSocketAddress = a.v.GetString("websocket")
	}
	if a.changed("udp") {
		c.Transport.UDPEnabled = true
		c.Transport.UDPTargetAddress = a.v.GetString("udp")
	}
	for _, w := range c.Sanitize() {
		log.Warnf("configuration: %s", w)
	}
}

// run is the live session. The program flow has three phases: startup
// (devices, engine, session, transports), the tick loop owned by the
// dashboard or the headless ticker, and shutdown in reverse order.
func (a *app) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := a.cfg

	// ==================== STARTUP PHASE ====================

	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	fft, err := analysis.NewFFTProcessor(cfg.Audio.SpectrumSize, cfg.Audio.SampleRate, cfg.Audio.Window())
	if err != nil {
		return err
	}
	engine, err := audio.NewEngine(cfg.Audio, fft.FFTSize())
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Errorf("error closing audio engine: %v", err)
		}
	}()

	if cfg.Recording.Enabled {
		path := a.v.GetString("output")
		if path == "" {
			path = audio.RecordingPath(cfg.Recording, time.Now())
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating recording directory: %w", err)
		}
		if err := engine.StartRecording(path, cfg.Recording.BitDepth); err != nil {
			return err
		}
		defer func() {
			if err := engine.StopInputStream(); err != nil {
				log.Errorf("error stopping input stream: %v", err)
			}
			if err := engine.StopRecording(); err != nil {
				log.Errorf("error stopping recording: %v", err)
				return
			}
			fmt.Printf("Recording saved to: %s\n", path)
		}()
	}

	store := beat.NewSnapshotStore()
	opts := session.OptionsFromConfig(cfg)
	opts.Snapshots = store
	sess, err := session.New(audio.NewCapture(engine, fft), opts)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out, stopTransports, err := a.startTransports(ctx, sess, store)
	if err != nil {
		return err
	}
	defer stopTransports()

	// ==================== TICK LOOP ====================

	sess.Start()
	interval := cfg.Session.TickInterval()
	if a.v.GetBool("headless") {
		runHeadless(ctx, sess, interval, a.v.GetDuration("duration"))
	} else {
		title := fmt.Sprintf("%s %s", build.GetBuildFlags().Name, build.GetBuildFlags().Version)
		if err := tui.RunDashboard(sess, title, interval, a.v.GetString("log-file")); err != nil {
			return err
		}
	}

	// ==================== SHUTDOWN PHASE ====================

	if err := sess.Stop(); err != nil {
		log.Errorf("%v", err)
	}
	summary := sess.Summary()
	if out != nil {
		if err := out.Send(transport.ScoreMessage(summary)); err != nil {
			log.Warnf("transport: final score not sent: %v", err)
		}
	}
	fmt.Println(summary)
	return nil
}

// startTransports wires the configured outbound streams to the session. The
// returned transport (nil when none is configured) receives the final score.
func (a *app) startTransports(ctx context.Context, sess *session.Session, store *beat.SnapshotStore) (transport.Transport, func(), error) {
	cfg := a.cfg.Transport
	var (
		streams transport.Multi
		closers []func()
	)
	stop := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if a.v.GetBool("log-events") {
		streams = append(streams, transport.NewLoggingTransport())
	}

	if cfg.WebSocketEnabled {
		ws, err := transport.NewWebSocketTransport(cfg.WebSocketAddress)
		if err != nil {
			stop()
			return nil, nil, err
		}
		streams = append(streams, ws)
		closers = append(closers, func() {
			if err := ws.Close(); err != nil {
				log.Warnf("transport: %v", err)
			}
		})
	}

	if cfg.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.UDPTargetAddress)
		if err != nil {
			stop()
			return nil, nil, err
		}
		pub, err := udp.NewUDPPublisher(cfg.UDPSendInterval, sender, store)
		if err != nil {
			sender.Close()
			stop()
			return nil, nil, err
		}
		pub.Start()
		log.Infof("transport: sending snapshots to udp://%s", sender.Target())
		closers = append(closers, func() {
			pub.Close()
			sender.Close()
		})
	}

	if len(streams) == 0 {
		return nil, stop, nil
	}

	sess.Subscribe(transport.NewEventForwarder(streams))
	snapCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		transport.StreamSnapshots(snapCtx, streams, store, a.cfg.Transport.UDPSendInterval)
	}()
	// Closers run last to first: snapshot streaming stops before the transports close.
	closers = append(closers, func() { cancel(); <-done })
	return streams, stop, nil
}

// runHeadless ticks the session at interval until ctx is done or limit
// elapses (0 for no limit).
func runHeadless(ctx context.Context, sess *session.Session, interval, limit time.Duration) {
	if limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	status := log.NewThrottle(10 * time.Second)
	last := time.Now()
	beats := 0
	for {
		select {
		case <-ctx.Done():
			log.Infof("session: stopped after %.1fs, %d beats", sess.Now(), beats)
			return
		case now := <-ticker.C:
			beats += sess.Tick(now.Sub(last).Seconds())
			last = now
			if status.Allow(log.Seconds(sess.Now())) {
				log.Infof("session: %.1fs, %d beats, %s", sess.Now(), beats, sess.Summary())
			}
		}
	}
}

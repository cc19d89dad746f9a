// SPDX-License-Identifier: MIT
/*
Package audio feeds the beat detector from a live input or a WAV file.

The live path captures with PortAudio, downmixes each callback block to mono
into a sliding analysis window and hands that window to the tick loop through
an analysis.Handoff. The tick loop runs the FFT, so the callback does no
spectral work and never blocks.

Thread Safety:
- The PortAudio callback is the Handoff's only producer
- Gate and recording state are atomic
- Buffers are pre-allocated so the callback does not allocate
*/
package audio

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	"rhythm/internal/analysis"
	"rhythm/internal/config"
	"rhythm/internal/log"
)

const int32Scale = 1.0 / float64(0x80000000) // int32 PCM to [-1, 1).

type Engine struct {
	cfg config.AudioConfig

	// Audio input handling.
	inputBuffer  []int32
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// Analysis window, producer-owned. Newest samples at the end.
	window  []float64
	handoff *analysis.Handoff
	blocks  atomic.Uint64

	// Noise gate. An open gate means the source is playing.
	gateEnabled   bool
	gateThreshold int32 // Absolute amplitude threshold (0-2147483647).
	gateOpen      atomic.Bool

	// Recording state and buffers. recMu guards the encoder between the
	// callback and StopRecording.
	isRecording int32 // Atomic flag for thread-safe state.
	recMu       sync.Mutex
	bitDepth    int
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer // Reusable buffer for format conversion.
}

// NewEngine resolves the input device and allocates every buffer the callback
// needs. windowSize is the number of mono samples handed to the FFT. PortAudio
// must be initialized.
func NewEngine(cfg config.AudioConfig, windowSize int) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.InputDevice)
	if err != nil {
		return nil, err
	}
	engine := newEngine(cfg, windowSize)
	engine.inputDevice = inputDevice

	if cfg.LowLatency {
		engine.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		engine.inputLatency = inputDevice.DefaultHighInputLatency
	}

	log.Infof("audio: input %q (%d ch @ %.0f Hz, %d frames, latency %s)",
		inputDevice.Name, cfg.InputChannels, cfg.SampleRate, cfg.FramesPerBuffer, engine.inputLatency)
	return engine, nil
}

// newEngine builds an engine without a device, for the callback path alone.
func newEngine(cfg config.AudioConfig, windowSize int) *Engine {
	e := &Engine{
		cfg:         cfg,
		inputBuffer: make([]int32, cfg.FramesPerBuffer*cfg.InputChannels),
		window:      make([]float64, windowSize),
		handoff:     analysis.NewHandoff(windowSize),
		gateEnabled: cfg.GateEnabled,
		bitDepth:    16,
	}
	e.SetGateThreshold(cfg.GateThreshold)
	return e
}

// Handoff is the consumer side of the captured analysis window.
func (e *Engine) Handoff() *analysis.Handoff { return e.handoff }

// SampleRate returns the capture rate in Hz.
func (e *Engine) SampleRate() float64 { return e.cfg.SampleRate }

// Blocks returns how many callback blocks were processed.
func (e *Engine) Blocks() uint64 { return e.blocks.Load() }

// Running reports whether the input stream is open.
func (e *Engine) Running() bool { return e.inputStream != nil }

func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.cfg.InputChannels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device.
			Device:   nil,
		},
		FramesPerBuffer: e.cfg.FramesPerBuffer,
		SampleRate:      e.cfg.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		e.inputStream = nil
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	return nil
}

func (e *Engine) StopInputStream() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}

		if err := e.inputStream.Close(); err != nil {
			return err
		}

		e.inputStream = nil
	}
	e.gateOpen.Store(false)

	return nil
}

// processInputStream is the PortAudio callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
// - No dynamic allocations in the hot path
func (e *Engine) processInputStream(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := copy(e.inputBuffer, in)
	e.processBuffer(e.inputBuffer[:n])
	e.writeRecording(e.inputBuffer[:n])
}

// processBuffer updates the gate, slides the interleaved block into the mono
// analysis window and publishes the window.
func (e *Engine) processBuffer(buffer []int32) {
	e.gateOpen.Store(e.passesGate(buffer))

	channels := max(e.cfg.InputChannels, 1)
	frames := len(buffer) / channels
	if frames == 0 {
		return
	}

	// Slide: keep the newest len(window)-frames samples, append the block.
	w := e.window
	if frames < len(w) {
		copy(w, w[frames:])
	}
	dst := w[max(len(w)-frames, 0):]
	src := buffer[(frames-len(dst))*channels:]
	scale := int32Scale / float64(channels)
	for i := range dst {
		var sum float64
		for _, s := range src[i*channels : (i+1)*channels] {
			sum += float64(s)
		}
		dst[i] = sum * scale
	}

	e.handoff.Write(w)
	e.blocks.Add(1)
}

// Close stops the input stream, then finalizes any recording.
func (e *Engine) Close() error {
	if err := e.StopInputStream(); err != nil {
		return err
	}

	return e.StopRecording()
}

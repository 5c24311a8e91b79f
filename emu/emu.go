package emu

import (
	"bytes"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"x65/emu/log"
	"x65/hw"
	"x65/hw/cgia"
)

type Output interface {
	BeginFrame() []byte
	EndFrame([]byte)
	Poll() bool
	Close()
	Screenshot() *image.RGBA
}

// Image is a raw binary program.
type Image struct {
	Data     []byte
	LoadAddr uint32

	// ResetVector, if not nil, replaces the reset vector.
	ResetVector *uint16
}

// PowerUp creates a machine, loads img in memory and resets the machine.
func PowerUp(img Image, cfg MachineConfig) (*hw.Machine, error) {
	m, err := hw.NewMachine(hw.MachineConfig{
		ClockHz:     cfg.ClockHz,
		BCDDisabled: cfg.BCDDisabled,
	})
	if err != nil {
		return nil, fmt.Errorf("power up failed: %w", err)
	}
	if _, err := m.LoadImage(bytes.NewReader(img.Data), img.LoadAddr); err != nil {
		return nil, fmt.Errorf("power up failed: %w", err)
	}
	if img.ResetVector != nil {
		m.SetResetVector(*img.ResetVector)
	}
	m.Reset()
	return m, nil
}

type Emulator struct {
	Machine *hw.Machine
	out     Output
	cfg     GeneralConfig

	// These are accessed concurrently by the emulator loop and the UI.
	quit   atomic.Bool
	paused atomic.Bool
	reset  atomic.Bool

	frames     atomic.Uint64
	screenshot string
	scale      int
}

// Launch shows the window and plugs the CPU trace. It doesn't start the
// emulation loop, call Run() for that.
func Launch(m *hw.Machine, cfg Config) (*Emulator, error) {
	out, err := hw.NewOutput(hw.OutputConfig{
		Width:           cgia.DisplayWidth,
		Height:          cgia.DisplayHeight,
		NumVideoBuffers: 2,
		Title:           "x65",
		Scale:           cfg.Video.Scale,
		DisableVSync:    cfg.Video.DisableVSync,
		Shader:          cfg.Video.Shader,
	})
	if err != nil {
		return nil, err
	}
	return newEmulator(m, out, cfg), nil
}

func newEmulator(m *hw.Machine, out Output, cfg Config) *Emulator {
	if cfg.TraceOut != nil {
		m.CPU.SetTraceOutput(cfg.TraceOut, m)
	}
	return &Emulator{
		Machine: m,
		out:     out,
		cfg:     cfg.General,
		scale:   max(cfg.Video.Scale, 1),
	}
}

// RunOneFrame emulates a frame and sends it to the output.
func (e *Emulator) RunOneFrame() {
	video := e.out.BeginFrame()
	e.Machine.RunFrame()
	hw.PaletteToRGBA(video, e.Machine.Framebuffer(), e.Machine.CGIA.Palette())
	e.out.EndFrame(video)
	e.frames.Add(1)
}

// Frames returns the number of frames emulated since launch.
func (e *Emulator) Frames() uint64 { return e.frames.Load() }

func (e *Emulator) loop() {
	var pace <-chan time.Time
	if e.cfg.FramesPerSecondCap > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(e.cfg.FramesPerSecondCap))
		defer ticker.Stop()
		pace = ticker.C
	}

	for e.out.Poll() {
		// Handle pause.
		if e.isPaused() {
			// Don't burn cpu while paused.
			time.Sleep(100 * time.Millisecond)
		} else {
			e.RunOneFrame()
			if pace != nil {
				<-pace
			}
		}
		if e.shouldStop() {
			break
		}
		e.handleReset()
	}

	e.out.Close()
}

func (e *Emulator) Run() {
	log.AddContext(e.Machine)
	defer log.RemoveContext(e.Machine)

	e.loop()
	log.ModEmu.InfoZ("Emulation loop exited").Uint("frames", e.Frames()).End()

	if e.screenshot != "" {
		e.save()
	}
}

func (e *Emulator) save() {
	if err := SaveScreenshot(e.out.Screenshot(), e.screenshot, e.scale); err != nil {
		log.ModEmu.WarnZ("Failed to save screenshot").
			String("path", e.screenshot).
			Error("err", err).
			End()
	}
}

// SetScreenshotPath sets the PNG file the last frame is saved to on exit.
func (e *Emulator) SetScreenshotPath(path string) { e.screenshot = path }

// SetPause, Stop and Reset allow to control the emulator loop in a
// concurrent-safe way.

func (e *Emulator) SetPause(pause bool) { e.paused.CompareAndSwap(!pause, pause) }
func (e *Emulator) Reset()              { e.reset.Store(true) }
func (e *Emulator) Stop()               { e.quit.Store(true) }

func (e *Emulator) isPaused() bool {
	return e.paused.Load()
}

func (e *Emulator) shouldStop() bool {
	return e.quit.Load()
}

func (e *Emulator) handleReset() {
	if e.reset.CompareAndSwap(true, false) {
		log.ModEmu.InfoZ("Performing reset").End()
		e.Machine.Reset()
	}
}

package emu

import (
	"context"
	"errors"
	"flag"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"x65/emu/log"
	"x65/hw"
	"x65/hw/cgia"
)

var imagePath = flag.String("image", "", "raw image to load at $8000 for BenchmarkFrameSpeed")

// setBack sets the CGIA background color then stops the CPU.
var setBack = []uint8{
	0xA9, 0x07, // LDA #$07
	0x8D, 0x03, 0xFF, // STA $FF03
	0xDB, // STP
}

func powerUp(tb testing.TB, prog []uint8) *hw.Machine {
	tb.Helper()

	vec := uint16(0x8000)
	m, err := PowerUp(Image{Data: prog, LoadAddr: 0x8000, ResetVector: &vec}, DefaultConfig().Machine)
	if err != nil {
		tb.Fatal(err)
	}
	return m
}

type testingOutput struct {
	maxFrames int
	frames    int
	video     []byte
	closed    bool
}

func newTestingOutput(maxFrames int) *testingOutput {
	return &testingOutput{
		maxFrames: maxFrames,
		video:     make([]byte, cgia.FramebufferSize*4),
	}
}

func (o *testingOutput) BeginFrame() []byte { return o.video }
func (o *testingOutput) EndFrame([]byte)    { o.frames++ }
func (o *testingOutput) Poll() bool         { return o.frames < o.maxFrames }
func (o *testingOutput) Close()             { o.closed = true }

func (o *testingOutput) Screenshot() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cgia.DisplayWidth, cgia.DisplayHeight))
	copy(img.Pix, o.video)
	return img
}

func TestEmulatorLoop(t *testing.T) {
	out := newTestingOutput(3)
	e := newEmulator(powerUp(t, setBack), out, Config{})
	shot := filepath.Join(t.TempDir(), "shot.png")
	e.SetScreenshotPath(shot)
	e.Run()

	if e.Frames() != 3 || !out.closed {
		t.Errorf("ran %d frames (closed: %t), want 3 and closed", e.Frames(), out.closed)
	}
	// BACK is palette entry 7, the brightest grey.
	if got := out.video[:4]; got[0] != 0xFE || got[3] != 0xFF {
		t.Errorf("first pixel = % X, want FE FE FE FF", got)
	}
	if _, err := os.Stat(shot); err != nil {
		t.Errorf("screenshot not saved: %v", err)
	}
}

func TestEmulatorStopReset(t *testing.T) {
	out := newTestingOutput(100)
	e := newEmulator(powerUp(t, setBack), out, Config{})

	e.Reset()
	e.Stop()
	e.Run()
	if e.Frames() != 1 {
		t.Errorf("ran %d frames after Stop, want 1", e.Frames())
	}

	e.SetPause(true)
	if !e.isPaused() {
		t.Errorf("SetPause(true) not effective")
	}
	e.SetPause(false)
	if e.isPaused() {
		t.Errorf("SetPause(false) not effective")
	}
}

func TestRunHeadless(t *testing.T) {
	m := powerUp(t, setBack)
	shot := filepath.Join(t.TempDir(), "shot.png")

	err := RunHeadless(context.Background(), m, HeadlessConfig{Frames: 2, Screenshot: shot, Scale: 2})
	if err != nil {
		t.Fatal(err)
	}
	if m.CGIA.Frame() != 2 {
		t.Errorf("CGIA frame = %d, want 2", m.CGIA.Frame())
	}

	f, err := os.Open(shot)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 2*cgia.DisplayWidth || b.Dy() != 2*cgia.DisplayHeight {
		t.Errorf("screenshot is %v, want %dx%d", b, 2*cgia.DisplayWidth, 2*cgia.DisplayHeight)
	}
	want := color.RGBA{0xFE, 0xFE, 0xFE, 0xFF}
	if got := color.RGBAModel.Convert(img.At(100, 100)); got != want {
		t.Errorf("screenshot pixel = %v, want %v", got, want)
	}
}

func TestRunHeadlessCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunHeadless(ctx, powerUp(t, setBack), HeadlessConfig{Frames: 10})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RunHeadless error = %v, want %v", err, context.Canceled)
	}
}

func TestPowerUpErrors(t *testing.T) {
	if _, err := PowerUp(Image{Data: make([]byte, 16), LoadAddr: 0xFFFFF8}, DefaultConfig().Machine); err == nil {
		t.Errorf("PowerUp with oversized image succeeded")
	}
	if _, err := PowerUp(Image{}, MachineConfig{ClockHz: -1}); err == nil {
		t.Errorf("PowerUp with negative clock succeeded")
	}
}

func BenchmarkFrameSpeed(b *testing.B) {
	log.SetOutput(io.Discard)
	b.ReportAllocs()

	prog := setBack
	if *imagePath != "" {
		buf, err := os.ReadFile(*imagePath)
		if err != nil {
			b.Fatal(err)
		}
		prog = buf
	}
	e := newEmulator(powerUp(b, prog), newTestingOutput(0), Config{})

	const nframes = 10

	nloops := 0
	start := time.Now()

	for b.Loop() {
		for range nframes {
			e.RunOneFrame()
		}
		nloops++
	}
	fps := float64(nframes*nloops) / time.Since(start).Seconds()
	b.ReportMetric(fps, "frames/s")
}

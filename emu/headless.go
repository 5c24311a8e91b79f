package emu

import (
	"context"
	"image"

	"golang.org/x/sync/errgroup"

	"x65/emu/log"
	"x65/hw"
	"x65/hw/cgia"
)

// HeadlessConfig configures a run without window.
type HeadlessConfig struct {
	Frames     int    // number of frames to emulate
	Screenshot string // if set, PNG file the last frame is saved to
	Scale      int    // screenshot scale factor
}

// RunHeadless emulates frames without a window. Emulation and frame encoding
// run concurrently.
func RunHeadless(ctx context.Context, m *hw.Machine, cfg HeadlessConfig) error {
	frames := make(chan *image.RGBA, 1)
	out, err := hw.NewOutput(hw.OutputConfig{
		Width:           cgia.DisplayWidth,
		Height:          cgia.DisplayHeight,
		NumVideoBuffers: 3,
		Headless:        true,
		FrameOutCh:      frames,
	})
	if err != nil {
		return err
	}
	e := newEmulator(m, out, Config{Video: VideoConfig{Scale: cfg.Scale}})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer out.Close()
		for range cfg.Frames {
			if err := ctx.Err(); err != nil {
				return err
			}
			e.RunOneFrame()
		}
		return nil
	})
	g.Go(func() error {
		var last *image.RGBA
		for img := range frames {
			last = img
		}
		if cfg.Screenshot == "" || last == nil {
			return nil
		}
		return SaveScreenshot(last, cfg.Screenshot, e.scale)
	})

	err = g.Wait()
	log.ModEmu.InfoZ("headless run done").
		Uint("frames", e.Frames()).
		Error("err", err).
		End()
	return err
}

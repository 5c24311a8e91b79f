package hw

import (
	"encoding/binary"
	"fmt"
	"image"
	"sync"

	"x65/emu/log"
)

type OutputConfig struct {
	Width           int
	Height          int
	NumVideoBuffers int

	// Window settings, ignored in headless mode.
	Title        string
	Scale        int
	DisableVSync bool
	Shader       string

	// Headless disables the window. Frames are sent on FrameOutCh, if not
	// nil, or discarded.
	Headless   bool
	FrameOutCh chan *image.RGBA
}

// Output receives RGBA frames from the emulation loop and shows them in a
// window, or forwards them when headless.
type Output struct {
	framebufidx int
	framebuf    [][]byte

	framecounter int
	framech      chan frame
	done         chan struct{}

	mu   sync.Mutex
	last []byte // last displayed frame

	win *window
	cfg OutputConfig
}

func NewOutput(cfg OutputConfig) (*Output, error) {
	if cfg.NumVideoBuffers < 2 {
		cfg.NumVideoBuffers = 2
	}
	if cfg.Scale == 0 {
		cfg.Scale = 1
	}

	vb := make([][]byte, cfg.NumVideoBuffers)
	for i := range vb {
		vb[i] = make([]byte, cfg.Width*cfg.Height*4)
	}
	o := &Output{
		framebuf: vb,
		cfg:      cfg,
		framech:  make(chan frame),
		done:     make(chan struct{}),
		last:     make([]byte, cfg.Width*cfg.Height*4),
	}

	if !cfg.Headless {
		w, err := newWindow(cfg.Title, cfg.Width, cfg.Height, cfg.Scale, cfg.Shader, !cfg.DisableVSync)
		if err != nil {
			return nil, fmt.Errorf("output: %w", err)
		}
		o.win = w
	}

	go o.render()
	return o, nil
}

type frame struct {
	video []byte
}

// BeginFrame returns the next RGBA buffer to draw into.
func (o *Output) BeginFrame() (video []byte) {
	o.framebufidx++
	if o.framebufidx == o.cfg.NumVideoBuffers {
		o.framebufidx = 0
	}

	return o.framebuf[o.framebufidx]
}

// EndFrame hands a buffer returned by BeginFrame to the renderer.
func (o *Output) EndFrame(video []byte) {
	o.framecounter++
	o.framech <- frame{video: video}
}

// Poll processes window events. It returns false once the user asked to quit.
func (o *Output) Poll() bool {
	if o.win == nil {
		return true
	}
	return o.win.poll()
}

// Close stops the renderer and destroys the window, if any.
func (o *Output) Close() {
	close(o.framech)
	<-o.done
	if o.win != nil {
		if err := o.win.Close(); err != nil {
			log.ModEmu.WarnZ("failed to close window").Error("err", err).End()
		}
	}
}

// Screenshot returns a copy of the last rendered frame.
func (o *Output) Screenshot() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, o.cfg.Width, o.cfg.Height))
	o.mu.Lock()
	copy(img.Pix, o.last)
	o.mu.Unlock()
	return img
}

func (o *Output) render() {
	defer close(o.done)

	for frame := range o.framech {
		o.mu.Lock()
		copy(o.last, frame.video)
		o.mu.Unlock()

		switch {
		case o.win != nil:
			o.win.render(frame.video)
		case o.cfg.FrameOutCh != nil:
			img := image.NewRGBA(image.Rect(0, 0, o.cfg.Width, o.cfg.Height))
			copy(img.Pix, frame.video)
			o.cfg.FrameOutCh <- img
		default:
			// We're headless, just discard all frames.
		}
	}
	if o.cfg.FrameOutCh != nil {
		close(o.cfg.FrameOutCh)
	}
}

// PaletteToRGBA converts palette indices into RGBA pixels. dst must hold 4
// bytes per index.
func PaletteToRGBA(dst []byte, indices []uint8, pal *[256]uint32) {
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(dst[i*4:], pal[idx])
	}
}

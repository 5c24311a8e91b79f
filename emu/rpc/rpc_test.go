package rpc

import (
	"sync"
	"testing"
)

type fakeEmu struct {
	mu     sync.Mutex
	resets int
	paused bool
	stop   bool
}

func (e *fakeEmu) Reset()              { e.mu.Lock(); e.resets++; e.mu.Unlock() }
func (e *fakeEmu) SetPause(pause bool) { e.mu.Lock(); e.paused = pause; e.mu.Unlock() }
func (e *fakeEmu) Stop()               { e.mu.Lock(); e.stop = true; e.mu.Unlock() }
func (e *fakeEmu) Frames() uint64      { return 1234 }

func TestClientServer(t *testing.T) {
	emu := &fakeEmu{}
	port := UnusedPort()
	srv, err := NewServer(port, emu)
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	c, err := NewClient(port)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	for _, err := range []error{c.Reset(), c.Reset(), c.SetPause(true), c.Stop()} {
		if err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Frames()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1234 {
		t.Errorf("Frames() = %d, want 1234", n)
	}

	emu.mu.Lock()
	defer emu.mu.Unlock()
	if emu.resets != 2 || !emu.paused || !emu.stop {
		t.Errorf("emu state = %+v, want 2 resets, paused and stopped", emu)
	}
}

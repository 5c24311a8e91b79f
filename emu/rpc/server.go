package rpc

import (
	"errors"
	"net"
	"net/http"
	"net/rpc"
	"strconv"
)

// Emu is the part of the emulator exposed to remote clients.
type Emu interface {
	Reset()
	SetPause(pause bool)
	Stop()
	Frames() uint64
}

type emuProxy struct {
	emu Emu
}

func (ep *emuProxy) Reset(_, _ *struct{}) error             { ep.emu.Reset(); return nil }
func (ep *emuProxy) SetPause(pause bool, _ *struct{}) error { ep.emu.SetPause(pause); return nil }
func (ep *emuProxy) Stop(_, _ *struct{}) error              { ep.emu.Stop(); return nil }

func (ep *emuProxy) Frames(_ *struct{}, reply *uint64) error {
	*reply = ep.emu.Frames()
	return nil
}

type Server struct {
	l    net.Listener
	done chan struct{}
}

// NewServer starts serving emu on localhost:port, over HTTP.
func NewServer(port int, emu Emu) (*Server, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName("emu", &emuProxy{emu: emu}); err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle(rpc.DefaultRPCPath, srv)

	l, err := net.Listen("tcp", "localhost:"+strconv.Itoa(port))
	if err != nil {
		return nil, err
	}

	s := &Server{l: l, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		err := http.Serve(l, mux)
		if err != nil && !errors.Is(err, net.ErrClosed) {
			modRPC.WarnZ("rpc server stopped").Error("err", err).End()
		}
	}()

	modRPC.InfoZ("rpc server listening").Int("port", port).End()
	return s, nil
}

func (s *Server) Close() error {
	err := s.l.Close()
	<-s.done
	return err
}

package relay

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/hub"
)

// Server accepts chat connections and runs an Actor for each of them.
type Server struct {
	addr         string
	wsAddr       string
	maxFrameSize uint32
	hub          *hub.Hub
	users        UserService
	logger       logging.Logger

	nextID  atomic.Uint64
	mu      sync.Mutex
	stopped bool
	actors  sync.WaitGroup
}

// NewServer returns a server listening on addr for TCP clients and, when
// wsAddr is not empty, on wsAddr for WebSocket clients.
func NewServer(addr, wsAddr string, maxFrameSize uint32, h *hub.Hub, users UserService, logger logging.Logger) *Server {
	return &Server{
		addr:         addr,
		wsAddr:       wsAddr,
		maxFrameSize: maxFrameSize,
		hub:          h,
		users:        users,
		logger:       logger,
	}
}

// Run listens on the configured addresses and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	var wsLn net.Listener
	if s.wsAddr != "" {
		wsLn, err = net.Listen("tcp", s.wsAddr)
		if err != nil {
			_ = ln.Close()
			return err
		}
	}

	return s.Serve(ctx, ln, wsLn)
}

// Serve accepts TCP clients on ln and WebSocket clients on wsLn (which may
// be nil). When ctx is done it stops accepting, closes the hub and waits for
// every actor to finish. Both listeners are closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener, wsLn net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		_ = ln.Close()
	}()

	if wsLn != nil {
		srv := &http.Server{
			Handler:           s.webSocketMux(ctx),
			ReadHeaderTimeout: 10 * time.Second,
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.logger.Info(ctx, "websocket listener started", "addr", wsLn.Addr().String(), "path", WebSocketPath)
			if err := srv.Serve(wsLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error(ctx, "websocket listener failed", "error", err)
				cancel()
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()
			_ = srv.Close()
		}()
	}

	s.logger.Info(ctx, "chat listener started", "addr", ln.Addr().String())
	err := s.acceptLoop(ctx, ln)

	cancel()
	wg.Wait()

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.hub.Close()
	s.actors.Wait()
	s.logger.Info(context.Background(), "chat listener stopped")

	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.logger.Warn(ctx, "accept failed, retrying", "error", err)
				time.Sleep(50 * time.Millisecond)
				continue
			}
			return err
		}
		s.start(ctx, NewTCPConn(c, s.maxFrameSize))
	}
}

func (s *Server) webSocketMux(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(WebSocketPath, func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Warn(ctx, "websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		s.start(ctx, NewWebSocketConn(ws, s.maxFrameSize, r.RemoteAddr))
	})
	return mux
}

// start assigns the next connection id and runs an actor for conn.
func (s *Server) start(ctx context.Context, conn Conn) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.actors.Add(1)
	s.mu.Unlock()

	id := hub.ConnID(s.nextID.Add(1))
	sub := s.hub.Subscribe()
	a := NewActor(id, conn, s.hub, sub, s.users, s.logger)
	s.logger.Info(ctx, "connection accepted",
		"conn", uint64(a.ID()), "remote", conn.RemoteAddr(), "connections", s.hub.Len())

	go func() {
		defer s.actors.Done()
		a.Run(ctx)
	}()
}

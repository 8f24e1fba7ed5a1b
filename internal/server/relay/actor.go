package relay

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/protocol"
	"github.com/dmitrijs2005/gophchat/internal/server/hub"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
)

// UserService is the account logic an actor relies on.
type UserService interface {
	Signup(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, *models.User, error)
	VerifyToken(token string) error
}

// Actor serves one client connection. It processes inbound frames one at a
// time and forwards hub events addressed to its connection.
type Actor struct {
	id     hub.ConnID
	conn   Conn
	hub    *hub.Hub
	sub    *hub.Subscription
	users  UserService
	logger logging.Logger
}

// NewActor wires an actor. sub must have been taken from h before the
// connection can produce any traffic, so no reply addressed to it is missed.
func NewActor(id hub.ConnID, conn Conn, h *hub.Hub, sub *hub.Subscription, users UserService, logger logging.Logger) *Actor {
	return &Actor{
		id:     id,
		conn:   conn,
		hub:    h,
		sub:    sub,
		users:  users,
		logger: logger.With("conn", uint64(id), "remote", conn.RemoteAddr()),
	}
}

// ID returns the connection id the actor was created with.
func (a *Actor) ID() hub.ConnID { return a.id }

// Run serves the connection until the client disconnects, a read or write
// fails, the client violates the protocol, the hub closes or ctx is done.
// The connection and the subscription are closed before Run returns.
func (a *Actor) Run(ctx context.Context) {
	frames := make(chan []byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(frames)
		for {
			body, err := a.conn.ReadFrame()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- body:
			case <-done:
				return
			}
		}
	}()

	defer func() {
		close(done)
		_ = a.conn.Close()
		a.sub.Close()
		wg.Wait()
	}()

	a.logger.Info(ctx, "client connected")

	for {
		select {
		case <-ctx.Done():
			a.logger.Debug(ctx, "closing connection: shutdown")
			return

		case body, ok := <-frames:
			if !ok {
				a.logReadEnd(ctx, <-readErr)
				return
			}
			if err := a.handleFrame(ctx, body); err != nil {
				a.logger.Warn(ctx, "closing connection: bad frame", "error", err)
				return
			}

		case ev, ok := <-a.sub.C():
			if !ok {
				a.logger.Debug(ctx, "closing connection: hub closed")
				return
			}
			if lagged := a.sub.Lagged(); lagged > 0 {
				a.logger.Warn(ctx, "connection lagging, events dropped", "dropped", lagged)
			}
			if !ev.Scope.Delivers(a.id) {
				continue
			}
			if err := a.conn.WriteFrame(ev.Payload); err != nil {
				a.logger.Info(ctx, "closing connection: write failed", "error", err)
				return
			}
		}
	}
}

func (a *Actor) handleFrame(ctx context.Context, body []byte) error {
	msg, err := protocol.DecodeMessage(body)
	if err != nil {
		return err
	}

	ev, ok, err := a.dispatch(ctx, msg)
	if err != nil || !ok {
		return err
	}
	n := a.hub.Publish(ev)
	a.logger.Debug(ctx, "event published",
		"directed", ev.Scope.IsDirected(), "target", uint64(ev.Scope.Conn()), "subscribers", n)
	return nil
}

func (a *Actor) logReadEnd(ctx context.Context, err error) {
	switch {
	case errors.Is(err, io.EOF):
		a.logger.Info(ctx, "client disconnected")
	case errors.Is(err, protocol.ErrProtocol):
		a.logger.Warn(ctx, "closing connection: protocol error", "error", err)
	case errors.Is(err, net.ErrClosed):
		a.logger.Debug(ctx, "connection closed")
	default:
		a.logger.Info(ctx, "closing connection: read failed", "error", err)
	}
}

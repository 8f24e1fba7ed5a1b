package relay

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/protocol"
	"github.com/dmitrijs2005/gophchat/internal/server/auth"
	"github.com/dmitrijs2005/gophchat/internal/server/hub"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophchat/internal/server/services"
	"github.com/stretchr/testify/require"
)

const testTimeout = 3 * time.Second

func newUserService(t *testing.T) *services.UserService {
	t.Helper()
	issuer, err := auth.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	return services.NewUserService(users.NewMemoryRepository(), issuer)
}

// testClient speaks the frame protocol over a raw stream connection.
type testClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func newTestClient(t *testing.T, conn net.Conn) *testClient {
	t.Helper()
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *testClient) send(m protocol.Message) {
	c.t.Helper()
	frame, err := protocol.EncodeMessage(m)
	require.NoError(c.t, err)
	c.sendRaw(frame)
}

func (c *testClient) sendRaw(b []byte) {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetWriteDeadline(time.Now().Add(testTimeout)))
	_, err := c.conn.Write(b)
	require.NoError(c.t, err)
}

func (c *testClient) recv() protocol.Message {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(testTimeout)))
	body, err := protocol.ReadFrame(c.r, protocol.DefaultMaxFrameSize)
	require.NoError(c.t, err)
	m, err := protocol.DecodeMessage(body)
	require.NoError(c.t, err)
	return m
}

// expectNothing fails if any byte arrives within d.
func (c *testClient) expectNothing(d time.Duration) {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(d)))
	_, err := c.r.Peek(1)
	var ne net.Error
	require.True(c.t, errors.As(err, &ne) && ne.Timeout(), "expected silence, got %v", err)
}

// expectClosed waits for the server to drop the connection.
func (c *testClient) expectClosed() {
	c.t.Helper()
	if err := c.conn.SetReadDeadline(time.Now().Add(testTimeout)); err != nil {
		// net.Pipe refuses deadlines once either end is closed.
		require.ErrorIs(c.t, err, io.ErrClosedPipe)
		return
	}
	_, err := c.r.ReadByte()
	require.Error(c.t, err)
	var ne net.Error
	require.False(c.t, errors.As(err, &ne) && ne.Timeout(), "connection still open")
}

func (c *testClient) signup(name, password string) protocol.Message {
	c.t.Helper()
	c.send(protocol.Signup{Credentials: protocol.Credentials{Username: name, Password: password}})
	return c.recv()
}

// login signs in and returns the issued token.
func (c *testClient) login(name, password string) string {
	c.t.Helper()
	c.send(protocol.Login{Credentials: protocol.Credentials{Username: name, Password: password}})
	m := c.recv()
	srv, ok := m.(protocol.Server)
	require.True(c.t, ok, "unexpected reply %#v", m)
	tok, ok := srv.Response.(protocol.UserToken)
	require.True(c.t, ok, "unexpected response %#v", srv.Response)
	require.Equal(c.t, name, tok.Username)
	return tok.Token
}

// actorHarness runs actors over in-memory pipes.
type actorHarness struct {
	t      *testing.T
	hub    *hub.Hub
	users  UserService
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	nextID hub.ConnID
}

func newActorHarness(t *testing.T) *actorHarness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := &actorHarness{t: t, hub: hub.New(hub.DefaultCapacity), users: newUserService(t), ctx: ctx, cancel: cancel}
	t.Cleanup(func() {
		cancel()
		h.wg.Wait()
	})
	return h
}

// connect starts an actor and returns the client end together with a
// channel closed when the actor's Run returns.
func (h *actorHarness) connect() (*testClient, <-chan struct{}) {
	h.t.Helper()
	clientSide, serverSide := net.Pipe()

	h.nextID++
	a := NewActor(h.nextID, NewTCPConn(serverSide, 1024), h.hub, h.hub.Subscribe(), h.users, logging.Nop())

	done := make(chan struct{})
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer close(done)
		a.Run(h.ctx)
	}()

	return newTestClient(h.t, clientSide), done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("actor did not stop")
	}
}

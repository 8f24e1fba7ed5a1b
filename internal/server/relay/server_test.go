package relay

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/protocol"
	"github.com/dmitrijs2005/gophchat/internal/server/hub"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runningServer struct {
	addr   string
	wsAddr string
	cancel context.CancelFunc
	done   chan error
}

func startServer(t *testing.T, withWebSocket bool) *runningServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	rs := &runningServer{addr: ln.Addr().String(), done: make(chan error, 1)}

	var wsLn net.Listener
	if withWebSocket {
		wsLn, err = net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		rs.wsAddr = wsLn.Addr().String()
	}

	srv := NewServer("", "", 1024, hub.New(hub.DefaultCapacity), newUserService(t), logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	rs.cancel = cancel
	go func() { rs.done <- srv.Serve(ctx, ln, wsLn) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-rs.done:
		case <-time.After(testTimeout):
			t.Error("server did not stop")
		}
	})
	return rs
}

func (rs *runningServer) dial(t *testing.T) *testClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", rs.addr, testTimeout)
	require.NoError(t, err)
	return newTestClient(t, conn)
}

func TestServer_EndToEnd(t *testing.T) {
	rs := startServer(t, false)

	alice := rs.dial(t)
	bob := rs.dial(t)
	carol := rs.dial(t)

	assert.Equal(t, protocol.Server{Response: protocol.UserCreated{}}, alice.signup("alice", "pw1"))
	aliceToken := alice.login("alice", "pw1")

	assert.Equal(t, protocol.Server{Response: protocol.UserCreated{}}, bob.signup("bob", "pw2"))
	bobToken := bob.login("bob", "pw2")

	// directed replies reach only their target
	assert.Equal(t, protocol.NewError(ReasonUserExists), carol.signup("alice", "x"))
	alice.expectNothing(200 * time.Millisecond)
	bob.expectNothing(50 * time.Millisecond)

	// signed message goes to everyone but the sender, logged in or not
	alice.send(protocol.MsgOut{Username: "alice", Data: protocol.Text("hello"), Token: aliceToken})
	assert.Equal(t, protocol.MsgIn{Username: "alice", Data: protocol.Text("hello")}, bob.recv())
	assert.Equal(t, protocol.MsgIn{Username: "alice", Data: protocol.Text("hello")}, carol.recv())
	alice.expectNothing(200 * time.Millisecond)

	// forged token is never relayed
	bob.send(protocol.MsgOut{Username: "bob", Data: protocol.Text("evil"), Token: bobToken + "x"})
	assert.Equal(t, protocol.NewError(ReasonNotSigned), bob.recv())
	alice.expectNothing(200 * time.Millisecond)
	carol.expectNothing(50 * time.Millisecond)

	// wrong password
	carol.send(protocol.Login{Credentials: protocol.Credentials{Username: "bob", Password: "pw1"}})
	assert.Equal(t, protocol.NewError(ReasonBadCredentials), carol.recv())
}

func TestServer_OversizeFrameDropsOnlyOffender(t *testing.T) {
	rs := startServer(t, false)

	good := rs.dial(t)
	bad := rs.dial(t)
	good.signup("alice", "pw")

	hdr := make([]byte, protocol.HeaderSize)
	binary.LittleEndian.PutUint32(hdr, 1<<30)
	bad.sendRaw(hdr)
	bad.expectClosed()

	assert.Equal(t, protocol.NewError(ReasonUserExists), good.signup("alice", "pw"))
}

func TestServer_ShutdownClosesClients(t *testing.T) {
	rs := startServer(t, false)

	c := rs.dial(t)
	c.signup("alice", "pw")

	rs.cancel()
	select {
	case err := <-rs.done:
		assert.NoError(t, err)
		rs.done <- err
	case <-time.After(testTimeout):
		t.Fatal("server did not stop")
	}
	c.expectClosed()

	_, err := net.DialTimeout("tcp", rs.addr, 200*time.Millisecond)
	assert.Error(t, err, "listener must be closed")
}

func TestServer_Run_ListenError(t *testing.T) {
	srv := NewServer("256.0.0.1:0", "", 1024, hub.New(1), newUserService(t), logging.Nop())
	assert.Error(t, srv.Run(context.Background()))
}

type wsClient struct {
	t  *testing.T
	ws *websocket.Conn
}

func dialWebSocket(t *testing.T, addr string) *wsClient {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial("ws://"+addr+WebSocketPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return &wsClient{t: t, ws: ws}
}

func (c *wsClient) send(m protocol.Message) {
	c.t.Helper()
	frame, err := protocol.EncodeMessage(m)
	require.NoError(c.t, err)
	require.NoError(c.t, c.ws.WriteMessage(websocket.BinaryMessage, frame))
}

func (c *wsClient) recv() protocol.Message {
	c.t.Helper()
	require.NoError(c.t, c.ws.SetReadDeadline(time.Now().Add(testTimeout)))
	mt, data, err := c.ws.ReadMessage()
	require.NoError(c.t, err)
	require.Equal(c.t, websocket.BinaryMessage, mt)
	require.GreaterOrEqual(c.t, len(data), protocol.HeaderSize)
	n, err := protocol.DecodeHeader(data)
	require.NoError(c.t, err)
	require.Equal(c.t, int(n), len(data)-protocol.HeaderSize)
	m, err := protocol.DecodeMessage(data[protocol.HeaderSize:])
	require.NoError(c.t, err)
	return m
}

func TestServer_WebSocketInteroperatesWithTCP(t *testing.T) {
	rs := startServer(t, true)

	web := dialWebSocket(t, rs.wsAddr)
	tcp := rs.dial(t)

	web.send(protocol.Signup{Credentials: protocol.Credentials{Username: "web", Password: "pw"}})
	assert.Equal(t, protocol.Server{Response: protocol.UserCreated{}}, web.recv())

	web.send(protocol.Login{Credentials: protocol.Credentials{Username: "web", Password: "pw"}})
	reply := web.recv().(protocol.Server)
	token := reply.Response.(protocol.UserToken).Token

	tcp.signup("tcp", "pw")

	web.send(protocol.MsgOut{Username: "web", Data: protocol.Text("from the browser"), Token: token})
	assert.Equal(t, protocol.MsgIn{Username: "web", Data: protocol.Text("from the browser")}, tcp.recv())
}

func TestServer_WebSocketTextMessageCloses(t *testing.T) {
	rs := startServer(t, true)

	web := dialWebSocket(t, rs.wsAddr)
	require.NoError(t, web.ws.WriteMessage(websocket.TextMessage, []byte("hello")))

	require.NoError(t, web.ws.SetReadDeadline(time.Now().Add(testTimeout)))
	_, _, err := web.ws.ReadMessage()
	assert.Error(t, err)
}

func TestServer_WebSocketTrailingBytesClose(t *testing.T) {
	rs := startServer(t, true)

	web := dialWebSocket(t, rs.wsAddr)
	frame, err := protocol.EncodeMessage(protocol.Signup{Credentials: protocol.Credentials{Username: "a", Password: "b"}})
	require.NoError(t, err)
	require.NoError(t, web.ws.WriteMessage(websocket.BinaryMessage, append(frame, 0)))

	require.NoError(t, web.ws.SetReadDeadline(time.Now().Add(testTimeout)))
	_, _, err = web.ws.ReadMessage()
	assert.Error(t, err)
}

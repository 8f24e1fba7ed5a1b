package relay

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/gophchat/internal/protocol"
	"github.com/gorilla/websocket"
)

// WebSocketPath is where the WebSocket transport is mounted.
const WebSocketPath = "/ws"

type wsConn struct {
	ws      *websocket.Conn
	maxSize uint32
	addr    string
}

// NewWebSocketConn adapts a WebSocket connection. Every binary message
// carries exactly one complete frame, length prefix included.
func NewWebSocketConn(ws *websocket.Conn, maxFrameSize uint32, remoteAddr string) Conn {
	ws.SetReadLimit(int64(maxFrameSize) + protocol.HeaderSize)
	return &wsConn{ws: ws, maxSize: maxFrameSize, addr: remoteAddr}
}

func (c *wsConn) ReadFrame() ([]byte, error) {
	mt, data, err := c.ws.ReadMessage()
	if err != nil {
		if errors.Is(err, websocket.ErrReadLimit) {
			return nil, protocol.ErrFrameTooLarge
		}
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, io.EOF
		}
		return nil, err
	}
	if mt != websocket.BinaryMessage {
		return nil, fmt.Errorf("%w: websocket message type %d", protocol.ErrProtocol, mt)
	}

	r := bytes.NewReader(data)
	body, err := protocol.ReadFrame(r, c.maxSize)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty websocket message", protocol.ErrProtocol)
		}
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", protocol.ErrProtocol, r.Len())
	}
	return body, nil
}

func (c *wsConn) WriteFrame(body []byte) error {
	return c.ws.WriteMessage(websocket.BinaryMessage, protocol.EncodeFrame(body))
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}

func (c *wsConn) RemoteAddr() string {
	return c.addr
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Clients authenticate inside the protocol, not with cookies.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Package relay runs the chat connections: one actor per client connection,
// exchanging length-prefixed frames with the client and events with the hub.
package relay

import (
	"bufio"
	"net"

	"github.com/dmitrijs2005/gophchat/internal/protocol"
)

// Conn is a framed, bidirectional client connection. ReadFrame is called
// from one goroutine and WriteFrame from another; implementations must allow
// that. Close unblocks a pending ReadFrame.
type Conn interface {
	// ReadFrame returns the next frame body. A clean disconnect yields io.EOF.
	ReadFrame() ([]byte, error)
	WriteFrame(body []byte) error
	Close() error
	RemoteAddr() string
}

type tcpConn struct {
	conn    net.Conn
	r       *bufio.Reader
	maxSize uint32
}

// NewTCPConn frames a stream connection with the 4-byte length prefix.
func NewTCPConn(c net.Conn, maxFrameSize uint32) Conn {
	return &tcpConn{
		conn:    c,
		r:       bufio.NewReader(c),
		maxSize: maxFrameSize,
	}
}

func (c *tcpConn) ReadFrame() ([]byte, error) {
	return protocol.ReadFrame(c.r, c.maxSize)
}

func (c *tcpConn) WriteFrame(body []byte) error {
	_, err := c.conn.Write(protocol.EncodeFrame(body))
	return err
}

func (c *tcpConn) Close() error {
	return c.conn.Close()
}

func (c *tcpConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

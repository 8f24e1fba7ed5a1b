// Package client is a connection to the chat server speaking the framed
// wire protocol.
package client

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/dmitrijs2005/gophchat/internal/protocol"
)

// ChatClient sends and receives chat messages over one connection. Send may
// be called concurrently with Receive.
type ChatClient struct {
	conn     net.Conn
	r        *bufio.Reader
	maxFrame uint32
	wmu      sync.Mutex
}

// Dial connects to the server at addr.
func Dial(ctx context.Context, addr string, maxFrameSize uint32) (*ChatClient, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewChatClient(conn, maxFrameSize), nil
}

// NewChatClient wraps an established connection.
func NewChatClient(conn net.Conn, maxFrameSize uint32) *ChatClient {
	return &ChatClient{conn: conn, r: bufio.NewReader(conn), maxFrame: maxFrameSize}
}

func (c *ChatClient) Send(m protocol.Message) error {
	frame, err := protocol.EncodeMessage(m)
	if err != nil {
		return err
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()

	_, err = c.conn.Write(frame)
	return err
}

// Receive blocks until the next message arrives. It returns io.EOF once the
// server has closed the connection.
func (c *ChatClient) Receive() (protocol.Message, error) {
	body, err := protocol.ReadFrame(c.r, c.maxFrame)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeMessage(body)
}

func (c *ChatClient) Signup(username, password string) error {
	return c.Send(protocol.Signup{Credentials: protocol.Credentials{Username: username, Password: password}})
}

func (c *ChatClient) Login(username, password string) error {
	return c.Send(protocol.Login{Credentials: protocol.Credentials{Username: username, Password: password}})
}

// Say sends a chat message signed with token.
func (c *ChatClient) Say(username, token string, data protocol.MsgData) error {
	return c.Send(protocol.MsgOut{Username: username, Data: data, Token: token})
}

func (c *ChatClient) Close() error {
	return c.conn.Close()
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"github.com/dmitrijs2005/gophchat/internal/protocol"
)

// ErrNotLoggedIn is returned by Say before a token has been received.
var ErrNotLoggedIn = errors.New("not logged in")

// chatConn is the part of client.ChatClient the App uses.
type chatConn interface {
	Signup(username, password string) error
	Login(username, password string) error
	Say(username, token string, data protocol.MsgData) error
	Receive() (protocol.Message, error)
	Close() error
}

// readFile is a test seam for os.ReadFile.
var readFile = os.ReadFile

// App is the client session: the server connection plus the identity
// obtained by the last successful login.
type App struct {
	conn chatConn
	out  io.Writer

	outMu sync.Mutex

	mu       sync.RWMutex
	username string
	token    string
}

// NewApp returns an App writing its output to out.
func NewApp(conn chatConn, out io.Writer) *App {
	return &App{conn: conn, out: out}
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) isLoggedIn() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token != ""
}

func (a *App) status() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.token == "" {
		return "(not logged in)"
	}
	return a.username
}

func (a *App) session() (string, string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.username, a.token
}

func (a *App) setSession(username, token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.username = username
	a.token = token
}

func (a *App) Signup(ctx context.Context, username string) error {
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	return a.conn.Signup(username, password)
}

// Login sends the credentials. The session is set once the server answers
// with a token (see receiveLoop).
func (a *App) Login(ctx context.Context, username string) error {
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	return a.conn.Login(username, password)
}

func (a *App) Say(ctx context.Context, text string) error {
	return a.send(protocol.Text(text))
}

// SendImage sends the contents of the file at path as an image message.
func (a *App) SendImage(ctx context.Context, path string) error {
	data, err := readFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	return a.send(protocol.Image(data))
}

func (a *App) send(data protocol.MsgData) error {
	username, token := a.session()
	if token == "" {
		return ErrNotLoggedIn
	}
	return a.conn.Say(username, token, data)
}

// receiveLoop prints incoming messages until the connection fails. It
// returns nil when the server closes the connection.
func (a *App) receiveLoop() error {
	for {
		m, err := a.conn.Receive()
		if err != nil {
			if errors.Is(err, io.EOF) {
				a.printf("connection closed by server, press Enter to exit\n")
				return nil
			}
			return err
		}
		a.handle(m)
	}
}

func (a *App) handle(m protocol.Message) {
	switch v := m.(type) {
	case protocol.MsgIn:
		switch d := v.Data.(type) {
		case protocol.Text:
			a.printf("%s: %s\n", v.Username, string(d))
		case protocol.Image:
			a.printf("%s sent an image (%d bytes)\n", v.Username, len(d))
		}
	case protocol.Server:
		switch r := v.Response.(type) {
		case protocol.ErrorResponse:
			a.printf("server error: %s\n", r.Reason)
		case protocol.UserToken:
			a.setSession(r.Username, r.Token)
			a.printf("logged in as %s\n", r.Username)
		case protocol.UserCreated:
			a.printf("user created, use /login to sign in\n")
		}
	}
}

// Run reads commands from in until the user quits or in is exhausted, while
// a background reader prints what the server sends. Once the server closes
// the connection the REPL stops before the next command.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	recvErr := make(chan error, 1)
	go func() {
		defer cancel()
		recvErr <- a.receiveLoop()
	}()

	runREPL(ctx, a, a.status, newScanner(in))

	_ = a.conn.Close()
	if err := <-recvErr; err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// maxLineSize bounds a single REPL line.
const maxLineSize = 1 << 20

// execIface is the command surface the REPL drives. App satisfies it.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context, username string) error
	Login(ctx context.Context, username string) error
	Say(ctx context.Context, text string) error
	SendImage(ctx context.Context, path string) error
}

func newScanner(in io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(in)
	s.Buffer(make([]byte, 0, 4096), maxLineSize)
	return s
}

// runREPL reads lines from scanner and dispatches them to a. Lines starting
// with "/" are commands; anything else is a chat message. The loop exits on
// EOF, on /quit or when ctx is done.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("chat %s >", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			report(a.Say(ctx, line))
			continue
		}

		parts := strings.Fields(line)
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "/help":
			printlnFn("Available commands: /signup <user>, /login <user>, /image <path>, /help, /quit")
			if !a.isLoggedIn() {
				printlnFn("Log in to send messages.")
			}

		case "/signup", "/login":
			if len(args) != 1 {
				printlnFn("Usage:", cmd, "<user>")
				continue
			}
			if cmd == "/signup" {
				report(a.Signup(ctx, args[0]))
			} else {
				report(a.Login(ctx, args[0]))
			}

		case "/image":
			if len(args) != 1 {
				printlnFn("Usage: /image <path>")
				continue
			}
			report(a.SendImage(ctx, args[0]))

		case "/quit", "/exit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrNotLoggedIn):
		printlnFn("Not logged in: use /signup <user> or /login <user> first.")
	default:
		printlnFn("Error:", err)
	}
}

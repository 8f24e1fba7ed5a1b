// Package cli implements the interactive terminal client: a line REPL that
// sends chat commands and a reader goroutine that prints what the server
// relays.
//
// Commands
//
//	/signup <user>   create an account (password prompted without echo)
//	/login <user>    obtain a session token
//	/image <path>    send a file as an image message
//	/help            list commands
//	/quit            leave the program
//
// Any other non-empty line is sent as a text message once logged in.
package cli

package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with
// a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a
// lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Users(ctx context.Context) error
	Send(ctx context.Context, args []string) error
	WaitFor(ctx context.Context, args []string) error
	Ack(ctx context.Context) error
	Dismiss(ctx context.Context) error
	Requests(ctx context.Context) error
	Messages(ctx context.Context) error
	ClearMessages(ctx context.Context) error
}

// runREPL reads a line, parses the first token as the command and dispatches
// to methods on 'a'. Unknown commands are reported back. The loop exits on
// scanner EOF or "exit"/"quit".
//
// Errors returned by command handlers are ignored here; handlers print their
// own errors. This keeps the loop focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("nb> %s", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: users, send, waitfor, ack, dismiss, requests, messages, clear, logout, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "users":
			_ = a.Users(ctx)

		case "send":
			_ = a.Send(ctx, args)

		case "waitfor":
			_ = a.WaitFor(ctx, args)

		case "ack":
			_ = a.Ack(ctx)

		case "dismiss":
			_ = a.Dismiss(ctx)

		case "requests":
			_ = a.Requests(ctx)

		case "messages":
			_ = a.Messages(ctx)

		case "clear":
			_ = a.ClearMessages(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

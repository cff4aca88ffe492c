package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Chat(ctx context.Context, args []string) error
	End(ctx context.Context) error
	History(ctx context.Context, args []string) error
	Pending(ctx context.Context) error
	Sync(ctx context.Context) error
	Cleanup(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the Catus CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           — show available commands
//	  - login          — sign in with a Kakao authorization code
//	  - exit | quit    — leave the program
//
//	Logged in:
//	  - help           — show available commands
//	  - chat <text>    — send a message to the diary assistant
//	  - end            — finish today's conversation and create the diary
//	  - history [date] — show a day's conversation (default: today)
//	  - pending        — list days not yet confirmed by the server
//	  - sync           — re-push pending days
//	  - cleanup        — evict old synced history from local storage
//	  - whoami         — show the signed-in user
//	  - logout         — sign out
//	  - exit | quit    — leave the program
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("catus %s> ", statusFn()))
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
				printlnFn("Available commands: chat <text>, end, history [date], pending, sync, cleanup, whoami, logout, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "chat":
			_ = a.Chat(ctx, args)

		case "end":
			_ = a.End(ctx)

		case "history":
			_ = a.History(ctx, args)

		case "pending":
			_ = a.Pending(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "cleanup":
			_ = a.Cleanup(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

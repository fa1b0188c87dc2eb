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
	isLocked() bool
	touch(ctx context.Context)
	Login(ctx context.Context) error
	OfflineLogin(ctx context.Context) error
	Logout(ctx context.Context) error
	SetPin(ctx context.Context) error
	Unlock(ctx context.Context) error
	ChangePin(ctx context.Context) error
	ResetPin(ctx context.Context) error
	SetPinEnabled(ctx context.Context, enabled bool) error
	SetPinTimeout(ctx context.Context, arg string) error
	List(ctx context.Context, collection string) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the terminal admin shell.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// While the terminal is locked only "unlock", "status", "help" and
// "exit"/"quit" are accepted; everything else is refused with a hint.
// Every accepted command counts as staff activity and resets the idle
// auto-lock countdown.
//
// Any errors returned by command handlers are ignored here; handlers should
// report their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("tk> %s > ", statusFn()))
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

		if a.isLocked() && cmd != "unlock" && cmd != "status" && cmd != "help" && cmd != "exit" && cmd != "quit" {
			printlnFn("Terminal is locked. Use 'unlock' first.")
			continue
		}
		a.touch(ctx)

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: list <collection>, sync, status, set-pin, unlock, change-pin, reset-pin, pin-enable, pin-disable, pin-timeout <minutes>, logout, exit")
			} else {
				printlnFn("Available commands: login, offline-login, status, unlock, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "offline-login":
			_ = a.OfflineLogin(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "set-pin":
			_ = a.SetPin(ctx)

		case "unlock":
			_ = a.Unlock(ctx)

		case "change-pin":
			_ = a.ChangePin(ctx)

		case "reset-pin":
			_ = a.ResetPin(ctx)

		case "pin-enable":
			_ = a.SetPinEnabled(ctx, true)

		case "pin-disable":
			_ = a.SetPinEnabled(ctx, false)

		case "pin-timeout":
			if len(args) == 0 {
				printlnFn("Usage: pin-timeout <minutes>")
				continue
			}
			_ = a.SetPinTimeout(ctx, args[0])

		case "l", "list":
			if len(args) == 0 {
				printlnFn("Usage: list <collection>")
				continue
			}
			_ = a.List(ctx, args[0])

		case "sync":
			_ = a.Sync(ctx)

		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

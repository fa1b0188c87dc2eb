package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"
)

type fakeExec struct {
	loggedIn bool
	locked   bool

	calls   []string
	touches int
	arg     string
}

func (f *fakeExec) isLoggedIn() bool          { return f.loggedIn }
func (f *fakeExec) isLocked() bool            { return f.locked }
func (f *fakeExec) touch(ctx context.Context) { f.touches++ }
func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) OfflineLogin(ctx context.Context) error {
	f.calls = append(f.calls, "offline-login")
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}
func (f *fakeExec) SetPin(ctx context.Context) error {
	f.calls = append(f.calls, "set-pin")
	return nil
}
func (f *fakeExec) Unlock(ctx context.Context) error {
	f.calls = append(f.calls, "unlock")
	f.locked = false
	return nil
}
func (f *fakeExec) ChangePin(ctx context.Context) error {
	f.calls = append(f.calls, "change-pin")
	return nil
}
func (f *fakeExec) ResetPin(ctx context.Context) error {
	f.calls = append(f.calls, "reset-pin")
	return nil
}
func (f *fakeExec) SetPinEnabled(ctx context.Context, enabled bool) error {
	if enabled {
		f.calls = append(f.calls, "pin-enable")
	} else {
		f.calls = append(f.calls, "pin-disable")
	}
	return nil
}
func (f *fakeExec) SetPinTimeout(ctx context.Context, arg string) error {
	f.calls = append(f.calls, "pin-timeout")
	f.arg = arg
	return nil
}
func (f *fakeExec) List(ctx context.Context, collection string) error {
	f.calls = append(f.calls, "list")
	f.arg = collection
	return nil
}
func (f *fakeExec) Sync(ctx context.Context) error {
	f.calls = append(f.calls, "sync")
	return nil
}
func (f *fakeExec) Status(ctx context.Context) error {
	f.calls = append(f.calls, "status")
	return nil
}

func runLines(exec *fakeExec, lines ...string) {
	input := strings.NewReader(strings.Join(lines, "\n"))
	sc := bufio.NewScanner(input)
	runREPL(context.Background(), exec, func() string { return "status" }, sc)
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	exec := &fakeExec{loggedIn: false}
	runLines(exec,
		"help",
		"login",
		"help",
		"list orders",
		"sync",
		"status",
		"foobar",
		"exit",
	)

	wantOrder := []string{"login", "list", "sync", "status"}
	idx := 0
	for _, c := range exec.calls {
		if idx < len(wantOrder) && c == wantOrder[idx] {
			idx++
		}
	}
	if idx != len(wantOrder) {
		t.Fatalf("commands order mismatch: got %v, want subseq %v", exec.calls, wantOrder)
	}
	if exec.arg != "orders" {
		t.Fatalf("list argument not passed: %q", exec.arg)
	}
}

func TestRunREPL_LockedRefusesEverythingButUnlock(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	exec := &fakeExec{loggedIn: true, locked: true}
	runLines(exec,
		"list orders",
		"sync",
		"status",
		"unlock",
		"sync",
		"exit",
	)

	want := []string{"status", "unlock", "sync"}
	if len(exec.calls) != len(want) {
		t.Fatalf("got %v, want %v", exec.calls, want)
	}
	for i := range want {
		if exec.calls[i] != want[i] {
			t.Fatalf("got %v, want %v", exec.calls, want)
		}
	}
}

func TestRunREPL_ActivityResetsOnAcceptedCommands(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	exec := &fakeExec{loggedIn: true}
	runLines(exec, "status", "sync", "quit")

	// status, sync and quit are all staff activity
	if exec.touches != 3 {
		t.Fatalf("touches = %d, want 3", exec.touches)
	}
}

func TestRunREPL_UsageAndQuit(t *testing.T) {
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })

	exec := &fakeExec{loggedIn: true}
	runLines(exec, "pin-timeout", "list", "quit")

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}

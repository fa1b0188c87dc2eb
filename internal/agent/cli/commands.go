package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/dmitrijs2005/tillkeeper/internal/agent/models"
	"github.com/dmitrijs2005/tillkeeper/internal/agent/session"
	"github.com/dmitrijs2005/tillkeeper/internal/agent/store"
	"github.com/dmitrijs2005/tillkeeper/internal/common"
)

// getSimpleText and getSecret are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getSecret = GetSecret

func (a *App) isLoggedIn() bool { return a.session.Active() }
func (a *App) isLocked() bool   { return a.locker.IsLocked() }

func (a *App) touch(ctx context.Context) { a.locker.RegisterActivity(ctx) }

// Login prompts for staff credentials and authenticates against the
// backend. On a connectivity failure the user is pointed at
// offline-login instead of silently reusing the already wiped password.
func (a *App) Login(ctx context.Context) error {
	login, err := getSimpleText(a.reader, "Enter login", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getSecret("Password", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.session.OnlineLogin(ctx, login, password); err != nil {
		if store.IsConnectivity(err) {
			printlnFn("Server unavailable. Try 'offline-login'.")
		} else {
			printlnFn("Login failed:", err.Error())
		}
		return err
	}

	printlnFn("Success!")
	return nil
}

// OfflineLogin verifies credentials against the locally cached hash.
func (a *App) OfflineLogin(ctx context.Context) error {
	login, err := getSimpleText(a.reader, "Enter login", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getSecret("Password", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.session.OfflineLogin(ctx, login, password); err != nil {
		if errors.Is(err, session.ErrLocalDataNotAvailable) {
			printlnFn("No cached credentials on this terminal. Log in online at least once.")
		} else {
			printlnFn("Offline login failed:", err.Error())
		}
		return err
	}

	printlnFn("Signed in (offline). Queued changes sync when the network is back.")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.session.Logout()
	printlnFn("Logged out.")
	return nil
}

// SetPin prompts for a new PIN twice and stores its hash.
func (a *App) SetPin(ctx context.Context) error {
	pin, err := getSecret("New PIN", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pin)

	repeat, err := getSecret("Repeat PIN", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(repeat)

	if string(pin) != string(repeat) {
		printlnFn("PINs do not match.")
		return common.ErrorValidation
	}

	if err := a.locker.SetPin(ctx, string(pin)); err != nil {
		printlnFn("Could not set PIN:", err.Error())
		return err
	}

	printlnFn("PIN set. Auto-lock is now enabled.")
	return nil
}

func (a *App) Unlock(ctx context.Context) error {
	pin, err := getSecret("PIN", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pin)

	if err := a.locker.Unlock(ctx, string(pin)); err != nil {
		printlnFn("Unlock failed:", err.Error())
		return err
	}

	printlnFn("Unlocked.")
	return nil
}

func (a *App) ChangePin(ctx context.Context) error {
	current, err := getSecret("Current PIN", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(current)

	next, err := getSecret("New PIN", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(next)

	if err := a.locker.ChangePin(ctx, string(current), string(next)); err != nil {
		printlnFn("Could not change PIN:", err.Error())
		return err
	}

	printlnFn("PIN changed.")
	return nil
}

func (a *App) ResetPin(ctx context.Context) error {
	if err := a.locker.ResetPin(ctx); err != nil {
		printlnFn("Could not reset PIN:", err.Error())
		return err
	}
	printlnFn("PIN removed. Auto-lock is disabled.")
	return nil
}

func (a *App) SetPinEnabled(ctx context.Context, enabled bool) error {
	if err := a.locker.SetPinEnabled(ctx, enabled); err != nil {
		if errors.Is(err, common.ErrNoPinSet) {
			printlnFn("Set a PIN first with 'set-pin'.")
		} else {
			printlnFn("Error:", err.Error())
		}
		return err
	}
	if enabled {
		printlnFn("Auto-lock enabled.")
	} else {
		printlnFn("Auto-lock disabled.")
	}
	return nil
}

func (a *App) SetPinTimeout(ctx context.Context, arg string) error {
	minutes, err := strconv.Atoi(arg)
	if err != nil {
		printlnFn("Usage: pin-timeout <minutes>")
		return fmt.Errorf("%w: %q is not a number", common.ErrorValidation, arg)
	}

	if err := a.locker.SetTimeoutMinutes(ctx, minutes); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	printlnFn(fmt.Sprintf("Idle timeout set to %d min.", minutes))
	return nil
}

// List fetches a collection through the facade, so the output reflects
// exactly what the ordering UI would see, cache fallbacks included.
func (a *App) List(ctx context.Context, collection string) error {
	records, err := a.facade.GetCollectionOnce(ctx, collection, models.Query{})
	if err != nil {
		printlnFn("Error:", err.Error())
		return err
	}

	printlnFn(fmt.Sprintf("%s: %d record(s)", collection, len(records)))
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			continue
		}
		printlnFn(string(data))
	}
	return nil
}

// Sync flushes the offline queue immediately.
func (a *App) Sync(ctx context.Context) error {
	results := a.queue.Sync(ctx)

	applied, failed := 0, 0
	for _, r := range results {
		switch r.Outcome {
		case models.SyncApplied:
			applied++
		case models.SyncFailed:
			failed++
			printlnFn(fmt.Sprintf("operation %s dropped: %v", r.OperationID, r.Err))
		}
	}

	printlnFn(fmt.Sprintf("Sync done: %d applied, %d dropped, %d still queued.",
		applied, failed, a.queue.QueueSize(ctx)))
	return nil
}

// Status prints the terminal state in one screen.
func (a *App) Status(ctx context.Context) error {
	printlnFn("mode:", string(a.facade.Mode()))

	if a.session.Active() {
		kind := "online"
		if a.session.Offline() {
			kind = "offline"
		}
		printlnFn(fmt.Sprintf("staff: %s (%s session)", a.session.Login(), kind))
	} else {
		printlnFn("staff: not logged in")
	}

	if a.queue.IsOnline() {
		printlnFn("network: online")
	} else {
		printlnFn("network: offline")
	}
	printlnFn("queued operations:", a.queue.QueueSize(ctx))

	if a.locker.Enabled() {
		state := "unlocked"
		if a.locker.IsLocked() {
			state = "locked"
		}
		printlnFn(fmt.Sprintf("auto-lock: on, %d min idle, %s", a.locker.TimeoutMinutes(), state))
	} else {
		printlnFn("auto-lock: off")
	}
	return nil
}

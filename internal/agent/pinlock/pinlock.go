// Package pinlock enforces the terminal-wide idle lock: after a
// configurable period without user interaction the UI is locked behind a
// PIN. The state machine is Disabled → {Enabled,Unlocked} ⇄
// {Enabled,Locked}; the idle timer never runs while the lock is disabled
// or already engaged, and it is always fully cancelled before being
// rescheduled so it cannot fire twice.
//
// All state survives restarts through the persisted key-value store, so a
// terminal that was locked (or left idle past the timeout) comes back
// locked.
package pinlock

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/tillkeeper/internal/agent/storage"
	"github.com/dmitrijs2005/tillkeeper/internal/bus"
	"github.com/dmitrijs2005/tillkeeper/internal/common"
	"github.com/dmitrijs2005/tillkeeper/internal/logging"
	"github.com/dmitrijs2005/tillkeeper/internal/pinhash"
)

const (
	lockStateLocked   = "locked"
	lockStateUnlocked = "unlocked"
)

// Locker is the session auto-lock state machine.
type Locker struct {
	kv  storage.KeyValueStore
	log logging.Logger
	bus *bus.Bus

	mu             sync.Mutex
	enabled        bool
	locked         bool
	timeoutMinutes int
	lastActivity   time.Time
	cred           *pinhash.Credential
	timer          *time.Timer

	// Test seams: now replaces the wall clock, minute compresses the
	// timer scale so idle expiry is testable without real minutes.
	now    func() time.Time
	minute time.Duration
}

// New restores the lock state from storage and arms the timer if needed.
// A terminal flagged locked in its previous session, or idle past the
// timeout while the process was down, starts locked.
func New(ctx context.Context, kv storage.KeyValueStore, log logging.Logger, b *bus.Bus) *Locker {
	if log == nil {
		log = logging.NewNopLogger()
	}
	l := &Locker{
		kv:             kv,
		log:            log,
		bus:            b,
		timeoutMinutes: common.DefaultLockTimeoutMinutes,
		now:            time.Now,
		minute:         time.Minute,
	}
	l.restore(ctx)
	return l
}

func (l *Locker) restore(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if raw, err := l.kv.Get(ctx, common.StorageKeyPinHash); err == nil && len(raw) > 0 {
		cred := pinhash.Resolve(string(raw))
		l.cred = &cred
	}
	if raw, err := l.kv.Get(ctx, common.StorageKeyPinEnabled); err == nil {
		l.enabled = string(raw) == "1" && l.cred != nil
	}
	if raw, err := l.kv.Get(ctx, common.StorageKeyPinTimeout); err == nil {
		if n, err := strconv.Atoi(string(raw)); err == nil &&
			n >= common.MinLockTimeoutMinutes && n <= common.MaxLockTimeoutMinutes {
			l.timeoutMinutes = n
		}
	}
	if raw, err := l.kv.Get(ctx, common.StorageKeyLastActivity); err == nil {
		if ms, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			l.lastActivity = time.UnixMilli(ms)
		}
	}

	if !l.enabled {
		return
	}

	wasLocked := false
	if raw, err := l.kv.Get(ctx, common.StorageKeyLockState); err == nil {
		wasLocked = string(raw) == lockStateLocked
	}
	idleExpired := !l.lastActivity.IsZero() && l.now().Sub(l.lastActivity) > l.timeout()

	if wasLocked || idleExpired {
		l.locked = true
		l.persistLockStateLocked(ctx)
		return
	}
	l.restartTimerLocked(ctx)
}

func (l *Locker) timeout() time.Duration {
	return time.Duration(l.timeoutMinutes) * l.minute
}

// IsLocked reports whether the UI must be blocked behind the PIN prompt.
func (l *Locker) IsLocked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locked
}

// Enabled reports whether the auto-lock is active.
func (l *Locker) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// TimeoutMinutes returns the configured idle timeout.
func (l *Locker) TimeoutMinutes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.timeoutMinutes
}

// SetPin stores the (hashed) PIN, enables the lock, and starts the idle
// timer. The previous PIN, if any, is overwritten without verification:
// callers gate access to this operation.
func (l *Locker) SetPin(ctx context.Context, pin string) error {
	if len(pin) < common.MinPinLength {
		return fmt.Errorf("%w: PIN must be at least %d characters", common.ErrorValidation, common.MinPinLength)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	hashed := pinhash.Hash(pin)
	if err := l.kv.Set(ctx, common.StorageKeyPinHash, []byte(hashed)); err != nil {
		return fmt.Errorf("failed to set PIN: %w", err)
	}
	cred := pinhash.Resolve(hashed)
	l.cred = &cred

	l.enabled = true
	l.locked = false
	if err := l.kv.Set(ctx, common.StorageKeyPinEnabled, []byte("1")); err != nil {
		return fmt.Errorf("failed to set PIN: %w", err)
	}
	l.persistLockStateLocked(ctx)
	l.touchActivityLocked(ctx)
	l.restartTimerLocked(ctx)
	return nil
}

// Unlock verifies the PIN and, on success, releases the lock and restarts
// the idle timer. A mismatch leaves all state untouched.
func (l *Locker) Unlock(ctx context.Context, pin string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cred == nil {
		return common.ErrNoPinSet
	}
	if !l.cred.Matches(pin) {
		return common.ErrPinMismatch
	}

	wasLocked := l.locked
	l.locked = false
	l.persistLockStateLocked(ctx)
	l.touchActivityLocked(ctx)
	l.restartTimerLocked(ctx)

	if wasLocked && l.bus != nil {
		l.bus.Lock.Publish(bus.LockEvent{Locked: false})
	}
	return nil
}

// ChangePin replaces the PIN after verifying the current one. Lock state
// and timer are untouched.
func (l *Locker) ChangePin(ctx context.Context, current, next string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cred == nil {
		return common.ErrNoPinSet
	}
	if !l.cred.Matches(current) {
		return common.ErrPinMismatch
	}
	if len(next) < common.MinPinLength {
		return fmt.Errorf("%w: PIN must be at least %d characters", common.ErrorValidation, common.MinPinLength)
	}

	hashed := pinhash.Hash(next)
	if err := l.kv.Set(ctx, common.StorageKeyPinHash, []byte(hashed)); err != nil {
		return fmt.Errorf("failed to change PIN: %w", err)
	}
	cred := pinhash.Resolve(hashed)
	l.cred = &cred
	return nil
}

// ResetPin clears the stored hash and disables the lock entirely. No
// current-PIN check happens here: administrator recovery flows gate
// access before calling.
func (l *Locker) ResetPin(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.kv.MultiRemove(ctx, []string{common.StorageKeyPinHash, common.StorageKeyPinEnabled}); err != nil {
		return fmt.Errorf("failed to reset PIN: %w", err)
	}
	l.cred = nil
	l.enabled = false
	l.locked = false
	l.persistLockStateLocked(ctx)
	l.stopTimerLocked()
	return nil
}

// SetPinEnabled toggles the lock. Enabling requires a stored PIN;
// disabling releases an engaged lock and cancels the timer.
func (l *Locker) SetPinEnabled(ctx context.Context, enabled bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if enabled && l.cred == nil {
		return common.ErrNoPinSet
	}

	l.enabled = enabled
	value := "0"
	if enabled {
		value = "1"
	}
	if err := l.kv.Set(ctx, common.StorageKeyPinEnabled, []byte(value)); err != nil {
		return fmt.Errorf("failed to update PIN lock: %w", err)
	}

	if enabled {
		l.touchActivityLocked(ctx)
		l.restartTimerLocked(ctx)
	} else {
		l.locked = false
		l.persistLockStateLocked(ctx)
		l.stopTimerLocked()
	}
	return nil
}

// SetTimeoutMinutes updates the idle timeout, restarting a running timer
// with the new duration.
func (l *Locker) SetTimeoutMinutes(ctx context.Context, minutes int) error {
	if minutes < common.MinLockTimeoutMinutes || minutes > common.MaxLockTimeoutMinutes {
		return fmt.Errorf("%w: timeout must be between %d and %d minutes",
			common.ErrorValidation, common.MinLockTimeoutMinutes, common.MaxLockTimeoutMinutes)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.kv.Set(ctx, common.StorageKeyPinTimeout, []byte(strconv.Itoa(minutes))); err != nil {
		return fmt.Errorf("failed to update timeout: %w", err)
	}
	l.timeoutMinutes = minutes
	if l.enabled && !l.locked {
		l.restartTimerLocked(ctx)
	}
	return nil
}

// RegisterActivity is the single entry point every interactive UI element
// calls. It refreshes the persisted activity timestamp and restarts the
// countdown. No-op while the lock is disabled or already engaged.
func (l *Locker) RegisterActivity(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled || l.locked {
		return
	}
	l.touchActivityLocked(ctx)
	l.restartTimerLocked(ctx)
}

// Suspend handles the transition to background: the timer is cancelled
// and the moment persisted so elapsed background time counts against the
// timeout.
func (l *Locker) Suspend(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled {
		return
	}
	l.stopTimerLocked()
	l.touchActivityLocked(ctx)
}

// Resume handles the transition back to foreground: if the elapsed idle
// time exceeds the timeout the terminal locks immediately, otherwise the
// timer resumes with a full budget.
func (l *Locker) Resume(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled || l.locked {
		return
	}
	if l.now().Sub(l.lastActivity) > l.timeout() {
		l.lockLocked(ctx)
		return
	}
	l.restartTimerLocked(ctx)
}

// Close cancels the timer. The persisted state already reflects the
// latest transition.
func (l *Locker) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopTimerLocked()
}

func (l *Locker) onTimeout() {
	ctx := context.Background()
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled || l.locked {
		return
	}
	l.lockLocked(ctx)
}

func (l *Locker) lockLocked(ctx context.Context) {
	l.locked = true
	l.stopTimerLocked()
	l.persistLockStateLocked(ctx)
	l.log.Info(ctx, "session locked after idle timeout", "timeout_minutes", l.timeoutMinutes)
	if l.bus != nil {
		l.bus.Lock.Publish(bus.LockEvent{Locked: true})
	}
}

func (l *Locker) restartTimerLocked(ctx context.Context) {
	l.stopTimerLocked()
	l.timer = time.AfterFunc(l.timeout(), l.onTimeout)
}

func (l *Locker) stopTimerLocked() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

func (l *Locker) persistLockStateLocked(ctx context.Context) {
	state := lockStateUnlocked
	if l.locked {
		state = lockStateLocked
	}
	if err := l.kv.Set(ctx, common.StorageKeyLockState, []byte(state)); err != nil {
		l.log.Warn(ctx, "lock state write failed", "error", err)
	}
}

func (l *Locker) touchActivityLocked(ctx context.Context) {
	l.lastActivity = l.now()
	ms := strconv.FormatInt(l.lastActivity.UnixMilli(), 10)
	if err := l.kv.Set(ctx, common.StorageKeyLastActivity, []byte(ms)); err != nil {
		l.log.Warn(ctx, "activity timestamp write failed", "error", err)
	}
}

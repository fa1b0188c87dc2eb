// Package cli is the interactive admin shell of a POS terminal: staff
// login, PIN management, queue inspection and manual sync, running
// against the same agent stack the ordering UI uses.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrijs2005/tillkeeper/internal/agent/config"
	"github.com/dmitrijs2005/tillkeeper/internal/agent/facade"
	"github.com/dmitrijs2005/tillkeeper/internal/agent/offline"
	"github.com/dmitrijs2005/tillkeeper/internal/agent/pinlock"
	"github.com/dmitrijs2005/tillkeeper/internal/agent/scheduler"
	"github.com/dmitrijs2005/tillkeeper/internal/agent/session"
	"github.com/dmitrijs2005/tillkeeper/internal/agent/storage"
	"github.com/dmitrijs2005/tillkeeper/internal/agent/store"
	"github.com/dmitrijs2005/tillkeeper/internal/bus"
	"github.com/dmitrijs2005/tillkeeper/internal/logging"
)

type App struct {
	config    *config.Config
	log       logging.Logger
	kv        storage.KeyValueStore
	bus       *bus.Bus
	queue     *offline.Manager
	facade    *facade.Facade
	locker    *pinlock.Locker
	session   *session.Session
	scheduler *scheduler.Scheduler
	remote    store.DocumentStore
	reader    *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	log := logging.NewJSONLogger(os.Stderr, slog.LevelWarn)

	kv, err := storage.Open(ctx, c.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing local storage: %w", err)
	}

	mode, err := facade.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}

	b := bus.New()
	queue := offline.NewManager(kv, log, b)
	sess := session.New(kv, session.NewHTTPAuthClient(c.ServerAddr), log)

	var remote store.DocumentStore
	if mode == facade.ModeRemote {
		remote = store.NewHTTPStore(c.ServerAddr, store.WithTokenProvider(sess.AccessToken))
	}
	mock := store.NewMockStore(store.SampleData())

	f := facade.New(mode, remote, mock, queue, log, b)
	queue.SetApplier(f)
	locker := pinlock.New(ctx, kv, log, b)
	sched := scheduler.New(queue, log, c.SyncInterval)

	return &App{
		config:    c,
		log:       log,
		kv:        kv,
		bus:       b,
		queue:     queue,
		facade:    f,
		locker:    locker,
		session:   sess,
		scheduler: sched,
		remote:    remote,
		reader:    bufio.NewReader(os.Stdin),
	}, nil
}

// StartOnlineStatusWatcher probes the backend on the configured interval
// and feeds the result into the offline manager, which takes care of
// replaying the queue on reconnect.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if a.remote == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.remote.Ping(probeCtx)
			cancel()
			a.queue.SetNetworkStatus(err == nil)

		case <-ctx.Done():
			return
		}
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.kv.Close()
	defer a.locker.Close()

	if err := a.scheduler.Start(); err != nil {
		a.log.Warn(ctx, "scheduled sync disabled", "error", err)
	}
	defer a.scheduler.Stop()

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) status() string {
	parts := ""
	if a.session.Active() {
		parts = a.session.Login()
		if a.session.Offline() {
			parts += " (offline)"
		}
	} else {
		parts = "not logged in"
	}
	if a.locker.IsLocked() {
		parts += " [locked]"
	}
	if !a.queue.IsOnline() {
		parts += " [no network]"
	}
	return parts
}

package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/castlemilk/budgetsync/internal/budget"
	"github.com/castlemilk/budgetsync/internal/localcache"
	"github.com/castlemilk/budgetsync/internal/remote"
)

type pendingWrite struct {
	uid   string
	state budget.State
}

// Writer mirrors committed states: synchronously to the local cache, and
// asynchronously, best-effort, to the canonical remote document. Remote
// writes go out one at a time and a burst of changes collapses into a write
// of the latest state. Every write carries the whole state, so skipping an
// intermediate one loses nothing.
type Writer struct {
	local  *localcache.Manager
	remote *remote.Client
	base   context.Context
	logger *slog.Logger

	mu      sync.Mutex
	pending []pendingWrite
	// idle is non-nil while a drain runs and is closed when it finishes.
	idle    chan struct{}
}

// NewWriter wires a writer. Remote writes run under base, which should
// outlive individual requests.
func NewWriter(base context.Context, local *localcache.Manager, rc *remote.Client, logger *slog.Logger) *Writer {
	if base == nil {
		base = context.Background()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		local:  local,
		remote: rc,
		base:   base,
		logger: logger.With("component", "writer"),
	}
}

// Persist writes state for uid. It returns once the local write is done.
func (w *Writer) Persist(uid string, state budget.State) {
	w.local.Mirror(uid, state)

	w.mu.Lock()
	defer w.mu.Unlock()
	// Only the newest state per identity is worth sending.
	if n := len(w.pending); n > 0 && w.pending[n-1].uid == uid {
		w.pending[n-1].state = state
	} else {
		w.pending = append(w.pending, pendingWrite{uid: uid, state: state})
	}
	if w.idle == nil {
		w.idle = make(chan struct{})
		go w.drain(w.idle)
	}
}

func (w *Writer) drain(idle chan struct{}) {
	for {
		w.mu.Lock()
		if len(w.pending) == 0 {
			w.idle = nil
			close(idle)
			w.mu.Unlock()
			return
		}
		next := w.pending[0]
		w.pending = w.pending[1:]
		w.mu.Unlock()

		err := w.remote.Save(w.base, next.uid, next.state)
		switch {
		case err == nil:
		case remote.IsUnavailable(err):
			w.logger.Warn("remote save failed, local copy kept", "uid", next.uid, "error", err)
		default:
			w.logger.Error("remote save failed unexpectedly, local copy kept", "uid", next.uid, "error", err)
		}
	}
}

// Flush waits until every write queued before the call has been sent, or
// until ctx is done.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	idle := w.idle
	w.mu.Unlock()
	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

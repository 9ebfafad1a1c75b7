// Package session binds one budget store to the lifecycle of the signed-in
// identity: it hydrates the store when the identity changes, guards against
// stale hydration passes, and writes every later change through to the local
// cache and the remote document.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/castlemilk/budgetsync/internal/auth"
	"github.com/castlemilk/budgetsync/internal/budget"
	"github.com/castlemilk/budgetsync/internal/localcache"
	"github.com/castlemilk/budgetsync/internal/remote"
)

// LogoutPolicy decides what happens to local snapshots when the identity
// goes away.
type LogoutPolicy string

const (
	// LogoutRetain keeps every local snapshot as a cross-session backup.
	LogoutRetain LogoutPolicy = "retain"
	// LogoutPurge deletes every local snapshot, the legacy shared one included.
	LogoutPurge LogoutPolicy = "purge"
)

// Config wires a Session. Background is the context remote writes run
// under and defaults to context.Background().
type Config struct {
	Remote       *remote.Client
	Local        *localcache.Manager
	LogoutPolicy LogoutPolicy
	Logger       *slog.Logger
	Background   context.Context
	StoreOptions []budget.StoreOption
	Now          func() time.Time
}

// Session owns the in-memory budget state for whoever is signed in.
type Session struct {
	mu       sync.Mutex
	store    *budget.Store
	identity *auth.Identity
	loading  bool
	source   Source
	gen      uint64
	cancel   context.CancelFunc

	hydrator *Hydrator
	writer   *Writer
	local    *localcache.Manager
	policy   LogoutPolicy
	now      func() time.Time
	logger   *slog.Logger
}

// New creates a signed-out session holding the default state.
func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := cfg.LogoutPolicy
	if policy == "" {
		policy = LogoutRetain
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Session{
		store:    budget.NewStore(cfg.StoreOptions...),
		hydrator: NewHydrator(cfg.Remote, cfg.Local, logger),
		writer:   NewWriter(cfg.Background, cfg.Local, cfg.Remote, logger),
		local:    cfg.Local,
		policy:   policy,
		now:      now,
		logger:   logger.With("component", "session"),
	}
}

// SetIdentity switches the session to identity and hydrates it, returning
// once the pass has loaded a snapshot or been superseded. A nil identity
// signs out. Repeating the current identity does not restart hydration.
func (s *Session) SetIdentity(ctx context.Context, identity *auth.Identity) (Source, error) {
	p, ctx, started := s.begin(ctx, identity)
	if !started {
		return s.Source(), nil
	}
	return s.hydrate(ctx, p)
}

// Watch applies identity events in order until events is closed or ctx is
// done. Each hydration runs in the background so a newer event can
// supersede it.
func (s *Session) Watch(ctx context.Context, events <-chan *auth.Identity) {
	for {
		select {
		case <-ctx.Done():
			return
		case identity, ok := <-events:
			if !ok {
				return
			}
			p, hctx, started := s.begin(ctx, identity)
			if started {
				go s.hydrate(hctx, p)
			}
		}
	}
}

// begin records the new identity and starts a new generation, cancelling any
// pass in flight. started is false when there is nothing to hydrate.
func (s *Session) begin(ctx context.Context, identity *auth.Identity) (pass, context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if identity == nil {
		s.signOutLocked()
		return pass{}, ctx, false
	}
	if s.identity != nil && s.identity.ID == identity.ID {
		return pass{}, ctx, false
	}

	s.gen++
	if s.cancel != nil {
		s.cancel()
	}
	hctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	id := *identity
	s.identity = &id
	s.loading = true
	s.source = SourceNone
	s.store.ClearAll()

	gen := s.gen
	return pass{
		uid:  id.ID,
		gen:  gen,
		live: func() bool { return s.isLive(gen) },
		commit: func(state budget.State, source Source) bool {
			return s.commit(gen, id.ID, state, source)
		},
	}, hctx, true
}

func (s *Session) hydrate(ctx context.Context, p pass) (Source, error) {
	source, err := s.hydrator.run(ctx, p)
	if err != nil {
		s.logger.Debug("hydration pass discarded", "uid", p.uid, "generation", p.gen, "error", err)
	}
	return source, err
}

func (s *Session) signOutLocked() {
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.identity != nil {
		s.logger.Info("signed out", "uid", s.identity.ID, "policy", s.policy)
	}
	s.identity = nil
	s.loading = false
	s.source = SourceNone
	s.store.ClearAll()
	if s.policy == LogoutPurge {
		removed := s.local.Purge()
		s.logger.Info("purged local snapshots", "count", removed)
	}
}

func (s *Session) isLive(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.gen
}

func (s *Session) commit(gen uint64, uid string, state budget.State, source Source) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return false
	}
	loaded := s.store.LoadData(state)
	s.local.Mirror(uid, loaded)
	s.loading = false
	s.source = source
	return true
}

// mutate applies op and, once hydration has finished, writes the result
// through. Changes made while signed out or still loading stay in memory.
func (s *Session) mutate(op func(*budget.Store) budget.State) budget.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := op(s.store)
	s.persistLocked(state)
	return state
}

func (s *Session) persistLocked(state budget.State) {
	if s.identity != nil && !s.loading {
		s.writer.Persist(s.identity.ID, state)
	}
}

// SetIncome replaces the monthly income.
func (s *Session) SetIncome(amount any) budget.State {
	return s.mutate(func(st *budget.Store) budget.State { return st.SetIncome(amount) })
}

// AddExpense records an expense.
func (s *Session) AddExpense(in budget.ExpenseInput) budget.State {
	return s.mutate(func(st *budget.Store) budget.State { return st.AddExpense(in) })
}

// DeleteExpense removes an expense by id.
func (s *Session) DeleteExpense(id string) budget.State {
	return s.mutate(func(st *budget.Store) budget.State { return st.DeleteExpense(id) })
}

// AddCategory creates a category.
func (s *Session) AddCategory(in budget.CategoryInput) budget.State {
	return s.mutate(func(st *budget.Store) budget.State { return st.AddCategory(in) })
}

// RemoveCategory deletes a category after budget.CheckDeleteCategory
// approves it, holding the lock across both steps.
func (s *Session) RemoveCategory(id string) (budget.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := budget.CheckDeleteCategory(s.store.State(), id); err != nil {
		return budget.State{}, err
	}
	state := s.store.DeleteCategory(id)
	s.persistLocked(state)
	return state, nil
}

// SetBudgetLimit sets the spending limit of a category.
func (s *Session) SetBudgetLimit(categoryID string, limit any) budget.State {
	return s.mutate(func(st *budget.Store) budget.State { return st.SetBudgetLimit(categoryID, limit) })
}

// UpdateSettings merges patch into the settings.
func (s *Session) UpdateSettings(patch budget.SettingsPatch) budget.State {
	return s.mutate(func(st *budget.Store) budget.State { return st.UpdateSettings(patch) })
}

// ClearAllData resets the state to defaults and persists the reset.
func (s *Session) ClearAllData() budget.State {
	return s.mutate(func(st *budget.Store) budget.State { return st.ClearAll() })
}

// Import applies an export document as one committed change.
func (s *Session) Import(doc map[string]any) budget.State {
	return s.mutate(func(st *budget.Store) budget.State { return budget.Import(st, doc) })
}

// Export captures the current state for download.
func (s *Session) Export() budget.ExportDocument {
	return budget.Export(s.State(), s.now())
}

// State returns a copy of the current state.
func (s *Session) State() budget.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.State()
}

// Loading reports whether a hydration pass is in progress.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Identity returns the current identity, nil when signed out.
func (s *Session) Identity() *auth.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

// Owner returns the identity the session is bound to, or ErrNoIdentity when
// signed out.
func (s *Session) Owner() (*auth.Identity, error) {
	if id := s.Identity(); id != nil {
		return id, nil
	}
	return nil, ErrNoIdentity
}

// Source reports where the current state was hydrated from.
func (s *Session) Source() Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Flush waits for in-flight remote writes.
func (s *Session) Flush(ctx context.Context) error {
	return s.writer.Flush(ctx)
}

// Close cancels any hydration in flight and flushes pending remote writes.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
	return s.writer.Flush(ctx)
}

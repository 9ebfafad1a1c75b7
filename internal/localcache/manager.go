package localcache

import (
	"encoding/json"
	"log/slog"

	"github.com/castlemilk/budgetsync/internal/budget"
	"github.com/castlemilk/budgetsync/internal/schema"
)

// DefaultPrefix is both the legacy shared key and the prefix of every
// identity-scoped key.
const DefaultPrefix = "budgetTrackerData"

// Manager reads and writes the two snapshot keys of an identity: its own
// scoped key and the shared legacy key, which is last-writer-wins across
// identities.
type Manager struct {
	cache  Cache
	prefix string
	logger *slog.Logger
}

// NewManager wraps cache. An empty prefix means DefaultPrefix.
func NewManager(cache Cache, prefix string, logger *slog.Logger) *Manager {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cache:  cache,
		prefix: prefix,
		logger: logger.With("component", "localcache"),
	}
}

// IdentityKey is the cache key scoped to uid.
func (m *Manager) IdentityKey(uid string) string {
	return m.prefix + ":" + uid
}

// LegacyKey is the single key shared by every identity.
func (m *Manager) LegacyKey() string {
	return m.prefix
}

// Read returns the raw snapshot stored under key. Missing entries, storage
// failures and unparsable JSON all report ok=false; the latter two are logged
// and the entry is left in place.
func (m *Manager) Read(key string) (map[string]any, bool) {
	data, ok, err := m.cache.Get(key)
	if err != nil {
		m.logger.Warn("local cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok || data == "" {
		return nil, false
	}
	raw, ok := schema.ParseJSON([]byte(data))
	if !ok {
		m.logger.Warn("discarding malformed local snapshot", "key", key)
		return nil, false
	}
	return raw, true
}

// Write stores state under key. Failures are logged and swallowed.
func (m *Manager) Write(key string, state budget.State) {
	data, err := json.Marshal(state)
	if err != nil {
		m.logger.Warn("encode local snapshot", "key", key, "error", err)
		return
	}
	if err := m.cache.Set(key, string(data)); err != nil {
		m.logger.Warn("local cache write failed", "key", key, "error", err)
	}
}

// Mirror writes state to both the identity-scoped and the legacy key.
func (m *Manager) Mirror(uid string, state budget.State) {
	m.Write(m.IdentityKey(uid), state)
	m.Write(m.LegacyKey(), state)
}

// Purge deletes every snapshot carrying the prefix, legacy key included,
// and returns how many were removed.
func (m *Manager) Purge() int {
	keys, err := m.cache.Keys(HasPrefix(m.prefix))
	if err != nil {
		m.logger.Warn("list local snapshots for purge", "error", err)
		return 0
	}
	removed := 0
	for _, k := range keys {
		if err := m.cache.Delete(k); err != nil {
			m.logger.Warn("delete local snapshot", "key", k, "error", err)
			continue
		}
		removed++
	}
	return removed
}

// Scanner returns a backup scanner over the identity-scoped keys.
func (m *Manager) Scanner() *Scanner {
	return NewScanner(m.cache, m.prefix+":", m.logger)
}

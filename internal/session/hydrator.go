package session

import (
	"context"
	"log/slog"

	"github.com/castlemilk/budgetsync/internal/budget"
	"github.com/castlemilk/budgetsync/internal/localcache"
	"github.com/castlemilk/budgetsync/internal/remote"
	"github.com/castlemilk/budgetsync/internal/schema"
)

// Source names where a hydrated snapshot came from.
type Source string

const (
	SourceNone             Source = ""
	SourceRemote           Source = "remote"
	SourceLegacyRemote     Source = "legacy-remote"
	SourceLocal            Source = "local"
	SourceLegacyLocal      Source = "legacy-local"
	SourceBackup           Source = "backup"
	SourceDefaults         Source = "defaults"
	SourceFallbackLocal    Source = "fallback-local"
	SourceFallbackLegacy   Source = "fallback-legacy-local"
	SourceFallbackDefaults Source = "fallback-defaults"
)

// pass is one hydration attempt for one identity. live reports whether the
// pass is still current; commit loads a snapshot into the store and mirrors
// it locally, atomically, only if the pass is still current.
type pass struct {
	uid    string
	gen    uint64
	live   func() bool
	commit func(state budget.State, source Source) bool
}

// Hydrator resolves the snapshot a session starts from. Remote canonical data
// always wins over local caches; the legacy remote document is migrated into
// the canonical location; local caches and backups only seed a missing
// remote document or stand in when the remote store fails.
type Hydrator struct {
	remote *remote.Client
	local  *localcache.Manager
	logger *slog.Logger
}

// NewHydrator wires a hydrator.
func NewHydrator(rc *remote.Client, local *localcache.Manager, logger *slog.Logger) *Hydrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hydrator{
		remote: rc,
		local:  local,
		logger: logger.With("component", "hydration"),
	}
}

func (h *Hydrator) run(ctx context.Context, p pass) (Source, error) {
	log := h.logger.With("uid", p.uid, "generation", p.gen)

	doc, ok, err := h.remote.Fetch(ctx, p.uid)
	if err != nil {
		return h.fallback(p, log, err)
	}
	if !p.live() {
		return SourceNone, ErrSuperseded
	}
	if ok {
		return h.finish(p, log, schema.Normalize(doc), SourceRemote)
	}

	legacy, ok, err := h.remote.FetchLegacy(ctx, p.uid)
	if err != nil {
		return h.fallback(p, log, err)
	}
	if !p.live() {
		return SourceNone, ErrSuperseded
	}
	if ok {
		state := schema.Normalize(legacy)
		h.seedRemote(ctx, p, log, state)
		return h.finish(p, log, state, SourceLegacyRemote)
	}

	raw, source := h.resolveSeed(p.uid)
	state := schema.Normalize(raw)
	if !p.live() {
		return SourceNone, ErrSuperseded
	}
	h.seedRemote(ctx, p, log, state)
	return h.finish(p, log, state, source)
}

// resolveSeed picks the snapshot for a brand new canonical document.
func (h *Hydrator) resolveSeed(uid string) (map[string]any, Source) {
	if raw, ok := h.local.Read(h.local.IdentityKey(uid)); ok {
		return raw, SourceLocal
	}
	if raw, ok := h.local.Read(h.local.LegacyKey()); ok {
		return raw, SourceLegacyLocal
	}
	if raw, ok := h.local.Scanner().FindBest(); ok {
		return raw, SourceBackup
	}
	return nil, SourceDefaults
}

// seedRemote writes the resolved snapshot to the canonical document. The
// snapshot is already usable, so a failed write is only logged.
func (h *Hydrator) seedRemote(ctx context.Context, p pass, log *slog.Logger, state budget.State) {
	if !p.live() {
		return
	}
	if err := h.remote.Save(ctx, p.uid, state); err != nil {
		log.Warn("could not create canonical document", "error", err)
	}
}

func (h *Hydrator) finish(p pass, log *slog.Logger, state budget.State, source Source) (Source, error) {
	if !p.commit(state, source) {
		return SourceNone, ErrSuperseded
	}
	log.Info("hydrated budget state", "source", source)
	return source, nil
}

// fallback loads the best local snapshot after a remote failure. No retry is
// attempted within the pass.
func (h *Hydrator) fallback(p pass, log *slog.Logger, cause error) (Source, error) {
	if !p.live() {
		return SourceNone, ErrSuperseded
	}
	if remote.IsUnavailable(cause) {
		log.Warn("remote unavailable during hydration, using local data", "error", cause)
	} else {
		log.Error("unexpected remote failure during hydration, using local data", "error", cause)
	}

	if raw, ok := h.local.Read(h.local.IdentityKey(p.uid)); ok {
		return h.finish(p, log, schema.Normalize(raw), SourceFallbackLocal)
	}
	if raw, ok := h.local.Read(h.local.LegacyKey()); ok {
		return h.finish(p, log, schema.Normalize(raw), SourceFallbackLegacy)
	}
	return h.finish(p, log, budget.Defaults(), SourceFallbackDefaults)
}

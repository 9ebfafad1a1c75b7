package remote

import (
	"context"
	"errors"
	"time"

	"github.com/castlemilk/budgetsync/internal/budget"
)

// Default collection names.
const (
	CanonicalCollection = "budgets"
	LegacyCollection    = "budget"
)

// Client reads and writes the budget document of an identity. Writes only
// ever target the canonical collection; the legacy collection is read-only.
type Client struct {
	store     DocumentStore
	canonical string
	legacy    string
	timeout   time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCollections overrides the canonical and legacy collection names.
func WithCollections(canonical, legacy string) ClientOption {
	return func(c *Client) {
		if canonical != "" {
			c.canonical = canonical
		}
		if legacy != "" {
			c.legacy = legacy
		}
	}
}

// WithTimeout bounds every remote call. Zero disables the bound.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// NewClient wraps a document store.
func NewClient(store DocumentStore, opts ...ClientOption) *Client {
	c := &Client{
		store:     store,
		canonical: CanonicalCollection,
		legacy:    LegacyCollection,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) fetch(ctx context.Context, collection, uid string) (map[string]any, bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	doc, err := c.store.Get(ctx, collection, uid)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// Fetch returns the canonical document of uid. A missing document is not an error.
func (c *Client) Fetch(ctx context.Context, uid string) (map[string]any, bool, error) {
	return c.fetch(ctx, c.canonical, uid)
}

// FetchLegacy returns the pre-migration document of uid.
func (c *Client) FetchLegacy(ctx context.Context, uid string) (map[string]any, bool, error) {
	return c.fetch(ctx, c.legacy, uid)
}

// Save writes state into the canonical document of uid. Every state field is
// replaced; unrelated fields on the document survive.
func (c *Client) Save(ctx context.Context, uid string, state budget.State) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	return c.store.Set(ctx, c.canonical, uid, state.ToMap())
}

// package repositories provides whole-document persistence for users and playlists.
package repositories

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlists/internal/shared"
)

type storeOptions struct {
	strict bool
	logger *log.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a store.
type Option func(*storeOptions)

// WithStrictReads controls what happens when a stored document cannot be parsed. Strict stores
// fail with [shared.ErrCorruptData]; lenient stores log a warning and treat it as empty.
func WithStrictReads(strict bool) Option {
	return func(o *storeOptions) { o.strict = strict }
}

// WithLogger sets the store's logger.
func WithLogger(l *log.Logger) Option {
	return func(o *storeOptions) { o.logger = l }
}

// WithClock overrides the time source used for createdAt and addedAt.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) { o.now = now }
}

// WithIDGenerator overrides playlist id generation.
func WithIDGenerator(fn func() string) Option {
	return func(o *storeOptions) { o.newID = fn }
}

func buildOptions(opts []Option) storeOptions {
	o := storeOptions{
		strict: true,
		logger: shared.NewLogger(io.Discard),
		now:    time.Now,
		newID:  func() string { return "pl_" + shared.GenerateID() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// collection is a named JSON array of T. Reads share the lock and each update holds it for the
// whole load-mutate-persist cycle.
type collection[T any] struct {
	mu     sync.RWMutex
	docs   Documents
	name   string
	strict bool
	logger *log.Logger
}

func newCollection[T any](docs Documents, name string, o storeOptions) *collection[T] {
	return &collection[T]{
		docs:   docs,
		name:   name,
		strict: o.strict,
		logger: shared.WithLogger(o.logger, "collection", name),
	}
}

// load returns the stored items. A missing or empty document is an empty collection.
func (c *collection[T]) load() ([]T, error) {
	data, err := c.docs.Read(c.name)
	if errors.Is(err, ErrDocumentNotFound) {
		return []T{}, nil
	}
	if err != nil {
		if c.strict {
			return nil, err
		}
		c.logger.Warn("read failed, treating collection as empty", "err", err)
		return []T{}, nil
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		if c.strict {
			return nil, fmt.Errorf("%w: %s: %v", shared.ErrCorruptData, c.name, err)
		}
		c.logger.Warn("unparseable document, treating collection as empty", "err", err)
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *collection[T]) save(items []T) error {
	data, err := shared.MarshalJSON(items, true)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.name, err)
	}
	return c.docs.Write(c.name, data)
}

// view calls fn with a freshly loaded snapshot.
func (c *collection[T]) view(fn func(items []T) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items, err := c.load()
	if err != nil {
		return err
	}
	return fn(items)
}

// update loads the collection, applies fn and persists the result when fn reports a change.
func (c *collection[T]) update(fn func(items []T) ([]T, bool, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load()
	if err != nil {
		return err
	}

	next, changed, err := fn(items)
	if err != nil || !changed {
		return err
	}
	return c.save(next)
}

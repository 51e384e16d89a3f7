// Package runtime provides the item API over the registered lists. Every
// operation runs in one storage transaction; events are published after
// commit.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/contentgate/core/convention"
	"github.com/artpar/contentgate/core/events"
	"github.com/artpar/contentgate/core/registry"
	"github.com/artpar/contentgate/core/storage"
	"github.com/artpar/contentgate/core/validation"
	"github.com/artpar/contentgate/ports"
)

// Item is an item as returned by the runtime. Password fields hold a
// schema.PasswordState; to-one relationship fields stored on the item hold
// the target id or nil.
type Item = storage.Item

// ErrNotFound is returned when the item named by a unique where does not exist.
var ErrNotFound = storage.ErrNotFound

// ErrNotEmpty is returned by CreateFirst when the list already has items.
var ErrNotEmpty = errors.New("list is not empty")

// Operations.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Hook phases.
const (
	PhaseBefore = "before"
	PhaseAfter  = "after"
)

// Runtime is the item API. It is safe for concurrent use.
type Runtime struct {
	registry  *registry.Registry
	store     storage.Store
	validator *validation.Validator
	hasher    ports.Hasher
	clock     ports.Clock
	ids       ports.IDGenerator
	events    *events.Bus
	metrics   ports.Metrics
	hooks     *HookDispatcher
	logger    zerolog.Logger
}

// Config configures the runtime. Registry, Store and Hasher are required.
type Config struct {
	Registry *registry.Registry
	Store    storage.Store
	Hasher   ports.Hasher
	Clock    ports.Clock
	IDs      ports.IDGenerator
	Events   *events.Bus
	Metrics  ports.Metrics
	Logger   zerolog.Logger
}

// New creates a runtime.
func New(cfg Config) (*Runtime, error) {
	switch {
	case cfg.Registry == nil:
		return nil, errors.New("runtime: registry is required")
	case !cfg.Registry.Resolved():
		return nil, errors.New("runtime: registry edges are not resolved")
	case cfg.Store == nil:
		return nil, errors.New("runtime: store is required")
	case cfg.Hasher == nil:
		return nil, errors.New("runtime: hasher is required")
	case cfg.Clock == nil:
		return nil, errors.New("runtime: clock is required")
	case cfg.IDs == nil:
		return nil, errors.New("runtime: id generator is required")
	}
	if cfg.Events == nil {
		cfg.Events = events.NewBus(cfg.Logger)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}

	return &Runtime{
		registry:  cfg.Registry,
		store:     cfg.Store,
		validator: validation.New(cfg.Registry.List()...),
		hasher:    cfg.Hasher,
		clock:     cfg.Clock,
		ids:       cfg.IDs,
		events:    cfg.Events,
		metrics:   cfg.Metrics,
		hooks:     &HookDispatcher{handlers: make(map[string][]HookHandler)},
		logger:    cfg.Logger.With().Str("component", "runtime").Logger(),
	}, nil
}

// Registry returns the list registry.
func (r *Runtime) Registry() *registry.Registry {
	return r.registry
}

// Events returns the event bus.
func (r *Runtime) Events() *events.Bus {
	return r.events
}

// Hasher returns the password hasher.
func (r *Runtime) Hasher() ports.Hasher {
	return r.hasher
}

// OnHook registers a handler for a list operation phase.
func (r *Runtime) OnHook(list, operation, phase string, handler HookHandler) {
	r.hooks.OnHook(list, operation, phase, handler)
}

func (r *Runtime) list(key string) (convention.Derived, error) {
	d, ok := r.registry.Get(key)
	if !ok {
		return convention.Derived{}, &InputError{List: key, Message: "unknown list"}
	}
	return d, nil
}

// read runs fn in a transaction.
func (r *Runtime) read(ctx context.Context, fn func(tx storage.Tx) error) error {
	return r.store.Tx(ctx, fn)
}

// write runs fn in a transaction and publishes the recorded changes after
// commit.
func (r *Runtime) write(ctx context.Context, fn func(w *writer) error) error {
	var w *writer
	err := r.store.Tx(ctx, func(tx storage.Tx) error {
		w = &writer{r: r, tx: tx, now: r.clock.Now().UTC()}
		return fn(w)
	})
	if err != nil {
		r.logWriteError(err)
		return err
	}

	actor := ActorFrom(ctx)
	for _, c := range w.changes {
		r.metrics.ItemWrite(c.list, c.operation)
		d, _ := r.registry.Get(c.list)
		r.events.Publish(ctx, events.Event{
			Name:      events.Name(c.list, pastTense(c.operation)),
			List:      c.list,
			Operation: pastTense(c.operation),
			Item:      r.output(d, c.item),
			Actor:     actor,
		})
	}
	return nil
}

func (r *Runtime) logWriteError(err error) {
	var input *InputError
	var rel *storage.RelationshipError
	switch {
	case errors.As(err, &input), errors.As(err, &rel), errors.Is(err, ErrNotFound), errors.Is(err, ErrNotEmpty):
		r.logger.Debug().Err(err).Msg("write rejected")
	case isValidation(err), isHook(err):
		r.logger.Debug().Err(err).Msg("write rejected")
	default:
		r.logger.Error().Err(err).Msg("write failed")
	}
}

func pastTense(op string) string {
	switch op {
	case OpCreate:
		return events.Created
	case OpUpdate:
		return events.Updated
	case OpDelete:
		return events.Deleted
	}
	return op
}

// change is a committed write, published after the transaction.
type change struct {
	list      string
	operation string
	item      storage.Item
}

// writer carries the state of one write transaction.
type writer struct {
	r       *Runtime
	tx      storage.Tx
	now     time.Time
	changes []change
}

func (w *writer) record(list, operation string, item storage.Item) {
	w.changes = append(w.changes, change{list: list, operation: operation, item: item})
}

// HookHandler runs before or after a write. Returning an error aborts the
// write and rolls back the transaction.
type HookHandler func(ctx context.Context, event HookEvent) error

// HookEvent describes the write a hook runs for.
type HookEvent struct {
	List      string
	Operation string
	Phase     string

	// Input is the caller's data for create and update. Before hooks may
	// modify it.
	Input map[string]any

	// Item is the stored item: the existing item in before hooks of update
	// and delete, the written item in after hooks.
	Item Item
}

// HookDispatcher dispatches hooks by list, operation and phase.
type HookDispatcher struct {
	handlers map[string][]HookHandler
}

func hookKey(list, operation, phase string) string {
	return fmt.Sprintf("%s.%s.%s", list, operation, phase)
}

// OnHook registers a hook handler.
func (d *HookDispatcher) OnHook(list, operation, phase string, handler HookHandler) {
	key := hookKey(list, operation, phase)
	d.handlers[key] = append(d.handlers[key], handler)
}

// Dispatch runs the handlers of an event in registration order and stops at
// the first error.
func (d *HookDispatcher) Dispatch(ctx context.Context, event HookEvent) error {
	for _, h := range d.handlers[hookKey(event.List, event.Operation, event.Phase)] {
		if err := h(ctx, event); err != nil {
			return &HookError{List: event.List, Operation: event.Operation, Phase: event.Phase, Err: err}
		}
	}
	return nil
}

// HookError is returned when a hook rejects a write.
type HookError struct {
	List      string
	Operation string
	Phase     string
	Err       error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s %s hook on %s: %v", e.Phase, e.Operation, e.List, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// Extensions exposes the error to GraphQL clients.
func (e *HookError) Extensions() map[string]any {
	return map[string]any{
		"code":      "HOOK_ERROR",
		"list":      e.List,
		"operation": e.Operation,
	}
}

type actorKey struct{}

// WithActor returns a context carrying the id of the acting session item.
func WithActor(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, actorKey{}, id)
}

// ActorFrom returns the acting item id, or "".
func ActorFrom(ctx context.Context) string {
	id, _ := ctx.Value(actorKey{}).(string)
	return id
}

type nopMetrics struct{}

func (nopMetrics) ItemWrite(string, string) {}
func (nopMetrics) AuthAttempt(string)       {}
func (nopMetrics) SessionRejected(string)   {}

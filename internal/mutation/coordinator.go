// Package mutation runs optimistic writes against the query cache.
//
// A mutation is carried out in three phases. Begin cancels in-flight reads
// of the affected key, snapshots the cached value and writes the locally
// predicted value. Execute performs the remote operation once. Settle
// either keeps the patch or restores the snapshot, then invalidates the
// whole key family so the next read reconciles with the store.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"scontrini/internal/cache"
)

// State is the position of a patch in its lifecycle.
type State int

const (
	Idle State = iota
	Patched
	Reconciled
	RolledBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Patched:
		return "patched"
	case Reconciled:
		return "reconciled"
	case RolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrNotPatched      = errors.New("mutation is not in the patched state")
	ErrAlreadyExecuted = errors.New("mutation already executed")
)

// Messages are the user-facing texts of a mutation.
type Messages struct {
	Success string
	Failure string
}

// Mutation describes one optimistic write. Apply must not modify prev.
type Mutation[I, V any] interface {
	Name() string
	Key(in I) cache.Key
	Apply(prev V, in I) V
	Execute(ctx context.Context, in I) error
	Messages() Messages
}

// RemoteError wraps a failure of the remote operation.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Result is the outcome of the execute phase.
type Result struct {
	Err error
}

// OK reports whether the remote operation succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Outcome is the final state of a mutation after settle.
type Outcome struct {
	State State
	Err   error
	// Invalidated is the number of cache entries marked stale on settle.
	Invalidated int
}

// Coordinator binds mutations to a query cache and a notifier.
type Coordinator struct {
	cache    *cache.QueryClient
	notifier Notifier
	logger   *slog.Logger
}

// NewCoordinator creates a coordinator. A nil notifier discards
// notifications.
func NewCoordinator(qc *cache.QueryClient, notifier Notifier, logger *slog.Logger) *Coordinator {
	if notifier == nil {
		notifier = Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		cache:    qc,
		notifier: notifier,
		logger:   logger.With("component", "mutation"),
	}
}

// WithNotifier returns a coordinator sharing the cache of c that reports
// to n as well as to the notifier of c.
func (c *Coordinator) WithNotifier(n Notifier) *Coordinator {
	cp := *c
	cp.notifier = Tee(c.notifier, n)
	return &cp
}

// Cache returns the query cache the coordinator writes to.
func (c *Coordinator) Cache() *cache.QueryClient {
	return c.cache
}

// Patch is a mutation between Begin and Settle.
type Patch[I, V any] struct {
	c        *Coordinator
	m        Mutation[I, V]
	in       I
	key      cache.Key
	previous any
	hadPrev  bool
	state    State
	executed bool
}

// Begin cancels in-flight reads of the mutation key and, when the key is
// cached, replaces its value with the optimistic prediction. The returned
// error is only non-nil when ctx ends while waiting for those reads.
func Begin[I, V any](ctx context.Context, c *Coordinator, m Mutation[I, V], in I) (*Patch[I, V], error) {
	key := m.Key(in)
	if err := c.cache.CancelQueries(ctx, key); err != nil {
		return nil, fmt.Errorf("cancel queries %s: %w", key, err)
	}

	p := &Patch[I, V]{c: c, m: m, in: in, key: key, state: Patched}
	p.previous, p.hadPrev = c.cache.GetQueryData(key)
	if !p.hadPrev {
		return p, nil
	}

	prev, ok := p.previous.(V)
	if !ok {
		c.logger.WarnContext(ctx, "Cached value has unexpected type, skipping optimistic patch",
			"mutation", m.Name(), "key", key.String(), "type", fmt.Sprintf("%T", p.previous))
		return p, nil
	}
	c.cache.SetQueryData(key, m.Apply(prev, in))
	return p, nil
}

// State returns the current lifecycle state.
func (p *Patch[I, V]) State() State {
	return p.state
}

// Key returns the cache key the patch was written to.
func (p *Patch[I, V]) Key() cache.Key {
	return p.key
}

// Previous returns the cached value seen by Begin.
func (p *Patch[I, V]) Previous() (any, bool) {
	return p.previous, p.hadPrev
}

// Execute runs the remote operation. It is never retried; a panic in the
// operation is reported as a failure.
func (p *Patch[I, V]) Execute(ctx context.Context) (res Result) {
	if p.state != Patched {
		return Result{Err: ErrNotPatched}
	}
	if p.executed {
		return Result{Err: ErrAlreadyExecuted}
	}
	p.executed = true

	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: &RemoteError{Op: p.m.Name(), Err: fmt.Errorf("panic: %v", r)}}
		}
	}()
	if err := p.m.Execute(ctx, p.in); err != nil {
		return Result{Err: &RemoteError{Op: p.m.Name(), Err: err}}
	}
	return Result{}
}

// Settle finishes the mutation. On failure the cached value seen by Begin
// is restored as it was, or removed when nothing was cached. In both cases
// the key family is invalidated.
func (p *Patch[I, V]) Settle(ctx context.Context, res Result) Outcome {
	if p.state != Patched {
		return Outcome{State: p.state, Err: ErrNotPatched}
	}

	msgs := p.m.Messages()
	out := Outcome{Err: res.Err}
	if res.OK() {
		p.state = Reconciled
	} else {
		if p.hadPrev {
			p.c.cache.SetQueryData(p.key, p.previous)
		} else {
			p.c.cache.RemoveQueryData(p.key)
		}
		p.state = RolledBack
		p.c.logger.WarnContext(ctx, "Mutation rolled back",
			"mutation", p.m.Name(), "key", p.key.String(), "error", res.Err)
		p.c.notifier.Notify(ctx, Notification{Kind: KindError, Message: msgs.Failure, Err: res.Err})
	}

	out.Invalidated = p.c.cache.InvalidateQueries(p.key.Root())
	out.State = p.state

	if res.OK() {
		p.c.notifier.Notify(ctx, Notification{Kind: KindSuccess, Message: msgs.Success})
	}
	return out
}

// Run performs Begin, Execute and Settle in order. Remote failures end in
// Outcome.Err after the rollback; they are not returned any other way.
func Run[I, V any](ctx context.Context, c *Coordinator, m Mutation[I, V], in I) Outcome {
	p, err := Begin(ctx, c, m, in)
	if err != nil {
		return Outcome{State: Idle, Err: err}
	}
	return p.Settle(ctx, p.Execute(ctx))
}

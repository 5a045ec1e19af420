// Package hooks binds entity families to a data source and keeps a local,
// observable copy of them. Each binding fetches when it gets an owner,
// exposes loading and error state, and applies mutations to its local data
// only after the source acknowledged the write.
package hooks

import (
	"context"
	"errors"
	"sync"
)

// State is what a binding exposes to the UI.
type State[T any] struct {
	Data    T
	Loading bool
	Error   string
}

const genericMessage = "Something went wrong. Please try again."

// ErrNoOwner is returned by mutations of a binding that has no signed in user.
var ErrNoOwner = &ownerError{}

type ownerError struct{}

func (*ownerError) Error() string       { return "binding has no owner" }
func (*ownerError) UserMessage() string { return "Please sign in to continue." }

// message turns err into the text shown to the user.
func message(err error) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return genericMessage
}

// resource holds the state shared by every binding. fetch loads the data of
// one owner.
type resource[T any] struct {
	mu     sync.Mutex
	state  State[T]
	owner  string
	closed bool
	gen    uint64
	fetch  func(ctx context.Context, owner string) (T, error)

	// writes numbers acknowledged mutations. While a load is in flight
	// their results are kept in acked so the load can replay them.
	writes   uint64
	inflight int
	acked    []ackedWrite[T]
}

type ackedWrite[T any] struct {
	seq   uint64
	apply func(T) T
}

func newResource[T any](fetch func(ctx context.Context, owner string) (T, error)) *resource[T] {
	return &resource[T]{state: State[T]{Loading: true}, fetch: fetch}
}

// Snapshot returns a copy of the current state.
func (r *resource[T]) Snapshot() State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SetOwner binds the resource to a user. Moving to a new non-empty owner
// issues one fetch; an empty owner never fetches.
func (r *resource[T]) SetOwner(ctx context.Context, owner string) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	if owner == r.owner && owner != "" {
		r.mu.Unlock()
		return nil
	}
	if owner != r.owner {
		var zero T
		r.state.Data = zero
	}
	r.owner = owner
	if owner == "" {
		r.state.Loading = false
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()
	return r.load(ctx, owner)
}

// Refresh refetches the data of the current owner.
func (r *resource[T]) Refresh(ctx context.Context) error {
	r.mu.Lock()
	owner := r.owner
	r.mu.Unlock()
	if owner == "" {
		return nil
	}
	return r.load(ctx, owner)
}

// Close unmounts the resource. Results that arrive later are dropped.
func (r *resource[T]) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *resource[T]) load(ctx context.Context, owner string) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.gen++
	gen := r.gen
	since := r.writes
	r.inflight++
	r.mu.Unlock()

	data, err := r.fetch(ctx, owner)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inflight--
	if r.closed || r.gen != gen || r.owner != owner {
		r.pruneAcked()
		return err
	}
	r.state.Loading = false
	if err != nil {
		r.state.Error = message(err)
		r.pruneAcked()
		return err
	}
	// Writes acknowledged after the fetch started may be missing from data.
	kept := r.acked[:0]
	for _, w := range r.acked {
		if w.seq > since {
			data = w.apply(data)
			kept = append(kept, w)
		}
	}
	r.acked = kept
	r.pruneAcked()
	r.state.Data = data
	r.state.Error = ""
	return nil
}

// pruneAcked forgets replayable writes once no load is in flight.
func (r *resource[T]) pruneAcked() {
	if r.inflight == 0 {
		r.acked = nil
	}
}

func (r *resource[T]) currentOwner() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owner == "" {
		return "", ErrNoOwner
	}
	return r.owner, nil
}

// mutate performs write and, once it succeeded, folds its result into the
// local data with apply. A failed write only sets the error.
func mutate[T, R any](ctx context.Context, r *resource[T], write func(ctx context.Context, owner string) (R, error), apply func(data T, result R) T) (R, error) {
	owner, err := r.currentOwner()
	if err != nil {
		var zero R
		return zero, err
	}

	result, err := write(ctx, owner)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.owner != owner {
		return result, err
	}
	if err != nil {
		r.state.Error = message(err)
		return result, err
	}
	r.state.Data = apply(r.state.Data, result)
	r.state.Error = ""
	r.writes++
	if r.inflight > 0 {
		r.acked = append(r.acked, ackedWrite[T]{seq: r.writes, apply: func(data T) T { return apply(data, result) }})
	}
	return result, nil
}

// none adapts a write without a result for mutate.
func none(write func(ctx context.Context, owner string) error) func(context.Context, string) (struct{}, error) {
	return func(ctx context.Context, owner string) (struct{}, error) {
		return struct{}{}, write(ctx, owner)
	}
}

// prependBy puts a created item first. An item with the same id already in
// the list is dropped, so replaying the creation over a refetch is harmless.
func prependBy[E any](id func(*E) string) func([]E, *E) []E {
	return func(list []E, item *E) []E {
		if item == nil {
			return list
		}
		out := make([]E, 0, len(list)+1)
		out = append(out, *item)
		for i := range list {
			if id(&list[i]) != id(item) {
				out = append(out, list[i])
			}
		}
		return out
	}
}

func replace[E any](list []E, item *E, id func(*E) string) []E {
	if item == nil {
		return list
	}
	out := make([]E, len(list))
	copy(out, list)
	for i := range out {
		if id(&out[i]) == id(item) {
			out[i] = *item
		}
	}
	return out
}

func remove[E any](list []E, target string, id func(*E) string) []E {
	out := make([]E, 0, len(list))
	for i := range list {
		if id(&list[i]) != target {
			out = append(out, list[i])
		}
	}
	return out
}

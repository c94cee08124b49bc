package topics

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nfrund/topichub/internal/endpoint"
	"github.com/nfrund/topichub/internal/membership"
)

// DefaultCallTimeout bounds how long a mutating call waits for the coordinator.
const DefaultCallTimeout = 5 * time.Second

// request is one mutation waiting for the coordinator.
type request struct {
	ctx   context.Context
	op    func(ctx context.Context) error
	reply chan error
}

// Registry is the topic registry. Create one with NewRegistry and start its
// coordinator with Run before issuing mutations.
type Registry struct {
	store   *membership.Store
	dir     *endpoint.Directory
	logger  *slog.Logger
	timeout time.Duration

	requests chan request
	done     chan struct{}

	// watched maps a monitored endpoint ID to the channel that stops its
	// watcher. Owned by the coordinator goroutine.
	watched map[string]chan struct{}

	stats counters
}

// Option is a function that configures a Registry.
type Option func(*Registry)

// WithCallTimeout sets the bound on coordinator calls.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger replaces the registry's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry creates a registry over store.
func NewRegistry(store *membership.Store, opts ...Option) *Registry {
	r := &Registry{
		store:    store,
		dir:      endpoint.NewDirectory(),
		logger:   slog.Default().With("component", "topics"),
		timeout:  DefaultCallTimeout,
		requests: make(chan request),
		done:     make(chan struct{}),
		watched:  make(map[string]chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run is the coordinator loop. It executes queued mutations one at a time
// until ctx is canceled; afterwards every mutating call fails with
// ErrUnavailable. Run must be called exactly once.
func (r *Registry) Run(ctx context.Context) {
	r.logger.Info("Topic registry coordinator started")
	defer func() {
		close(r.done)
		r.logger.Info("Topic registry coordinator stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-r.requests:
			// The caller may have given up while the request sat in the queue.
			if err := req.ctx.Err(); err != nil {
				req.reply <- contextError(req.ctx)
				continue
			}
			req.reply <- req.op(req.ctx)
		}
	}
}

// call hands op to the coordinator and waits for its result.
func (r *Registry) call(ctx context.Context, op func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req := request{ctx: ctx, op: op, reply: make(chan error, 1)}

	select {
	case r.requests <- req:
	case <-r.done:
		return ErrUnavailable
	case <-ctx.Done():
		return contextError(ctx)
	}

	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return contextError(ctx)
	}
}

// Create registers name if it does not exist yet.
func (r *Registry) Create(ctx context.Context, name string) error {
	return r.call(ctx, func(ctx context.Context) error {
		return translate(r.store.CreateGroup(ctx, name))
	})
}

// Delete removes name if it has no subscribers. Activity is checked when the
// coordinator runs the request, not when Delete is called.
func (r *Registry) Delete(ctx context.Context, name string) error {
	return r.call(ctx, func(ctx context.Context) error {
		members, err := r.store.Members(ctx, name)
		if err != nil {
			return translate(err)
		}
		if len(members) > 0 {
			return ErrActive
		}
		if err := translate(r.store.DeleteGroup(ctx, name)); err != nil {
			return err
		}
		r.logger.Debug("Topic deleted", "topic", name)
		return nil
	})
}

// Subscribe adds ep to name, creating the topic first. Subscribing twice is
// a no-op.
func (r *Registry) Subscribe(ctx context.Context, ep endpoint.Endpoint, name string) error {
	return r.call(ctx, func(ctx context.Context) error {
		if err := r.store.CreateGroup(ctx, name); err != nil {
			return translate(err)
		}
		if err := r.store.AddMember(ctx, name, ep.ID()); err != nil {
			return translate(err)
		}
		r.dir.Add(ep, name)
		r.watch(ep)

		r.logger.Debug("Endpoint subscribed", "topic", name, "endpoint", ep.ID())
		return nil
	})
}

// Unsubscribe removes ep from name. Removing a non-member succeeds, and an
// emptied topic is left in place.
func (r *Registry) Unsubscribe(ctx context.Context, ep endpoint.Endpoint, name string) error {
	return r.call(ctx, func(ctx context.Context) error {
		if err := r.store.RemoveMember(ctx, name, ep.ID()); err != nil {
			return translate(err)
		}
		r.dir.Remove(ep.ID(), name)
		if _, ok := r.dir.Lookup(ep.ID()); !ok {
			r.unwatch(ep.ID())
		}

		r.logger.Debug("Endpoint unsubscribed", "topic", name, "endpoint", ep.ID())
		return nil
	})
}

// UnsubscribeAll removes the endpoint with the given ID from every topic it
// joined through this registry.
func (r *Registry) UnsubscribeAll(ctx context.Context, id string) error {
	return r.call(ctx, func(ctx context.Context) error {
		r.unwatch(id)

		var errs []error
		for _, name := range r.dir.Drop(id) {
			if err := r.store.RemoveMember(ctx, name, id); err != nil {
				errs = append(errs, translate(err))
			}
		}
		return errors.Join(errs...)
	})
}

// watch starts a monitor for endpoints with a lifetime so they leave every
// topic once they are done. Runs on the coordinator.
func (r *Registry) watch(ep endpoint.Endpoint) {
	m, ok := ep.(endpoint.Monitored)
	if !ok {
		return
	}
	id := ep.ID()
	if _, ok := r.watched[id]; ok {
		return
	}
	stop := make(chan struct{})
	r.watched[id] = stop

	go func() {
		select {
		case <-m.Done():
		case <-stop:
			return
		case <-r.done:
			return
		}
		if err := r.UnsubscribeAll(context.Background(), id); err != nil {
			r.logger.Warn("Failed to clean up closed endpoint", "endpoint", id, "error", err)
			return
		}
		r.logger.Debug("Closed endpoint removed from all topics", "endpoint", id)
	}()
}

// unwatch stops the watcher of an endpoint that left its last topic.
// Runs on the coordinator.
func (r *Registry) unwatch(id string) {
	if stop, ok := r.watched[id]; ok {
		close(stop)
		delete(r.watched, id)
	}
}

// Exists reports whether name is registered, with or without subscribers.
func (r *Registry) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := r.store.GroupExists(ctx, name)
	return ok, translate(err)
}

// Subscribers returns the IDs subscribed to name. Unknown topics have none.
func (r *Registry) Subscribers(ctx context.Context, name string) ([]string, error) {
	members, err := r.store.Members(ctx, name)
	return members, translate(err)
}

// Active reports whether name exists and has at least one subscriber.
func (r *Registry) Active(ctx context.Context, name string) (bool, error) {
	exists, err := r.Exists(ctx, name)
	if err != nil || !exists {
		return false, err
	}
	members, err := r.Subscribers(ctx, name)
	if err != nil {
		return false, err
	}
	return len(members) > 0, nil
}

// List returns every registered topic name in no particular order.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	names, err := r.store.Groups(ctx)
	return names, translate(err)
}

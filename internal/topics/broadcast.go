package topics

import (
	"context"
	"sync/atomic"

	"github.com/nfrund/topichub/internal/endpoint"
)

// Stats is a snapshot of broadcast counters.
type Stats struct {
	Broadcasts uint64 `json:"broadcasts"`
	Deliveries uint64 `json:"deliveries"`
	Dropped    uint64 `json:"dropped"`
	// Remote counts members with no endpoint on this node: joined through
	// another node sharing the backend, or already gone.
	Remote     uint64 `json:"remote"`
	Endpoints  int    `json:"endpoints"`
}

type counters struct {
	broadcasts atomic.Uint64
	deliveries atomic.Uint64
	dropped    atomic.Uint64
	remote     atomic.Uint64
}

// Stats returns the registry's broadcast counters.
func (r *Registry) Stats() Stats {
	return Stats{
		Broadcasts: r.stats.broadcasts.Load(),
		Deliveries: r.stats.deliveries.Load(),
		Dropped:    r.stats.dropped.Load(),
		Remote:     r.stats.remote.Load(),
		Endpoints:  r.dir.Len(),
	}
}

// Broadcast delivers payload to every subscriber of name.
func (r *Registry) Broadcast(ctx context.Context, name string, payload []byte) error {
	return r.BroadcastFrom(ctx, "", name, payload)
}

// BroadcastFrom delivers payload to every subscriber of name except the one
// whose ID is sender. An empty sender excludes nobody.
//
// Delivery works on a copy of the member list and does not go through the
// coordinator, so subscribers joining concurrently may or may not receive the
// message. Failed deliveries are skipped and counted as dropped; members
// without a local endpoint are counted as remote. The only errors returned
// come from reading the member list.
func (r *Registry) BroadcastFrom(ctx context.Context, sender, name string, payload []byte) error {
	members, err := r.Subscribers(ctx, name)
	if err != nil {
		return err
	}
	r.stats.broadcasts.Add(1)

	msg := endpoint.Message{
		Topic:   name,
		Sender:  sender,
		Payload: payload,
	}

	for _, id := range members {
		if sender != "" && id == sender {
			continue
		}
		ep, ok := r.dir.Lookup(id)
		if !ok {
			r.stats.remote.Add(1)
			r.logger.Debug("Skipping unreachable subscriber", "topic", name, "endpoint", id)
			continue
		}
		if err := ep.Send(msg); err != nil {
			r.stats.dropped.Add(1)
			r.logger.Debug("Dropping message for subscriber", "topic", name, "endpoint", id, "error", err)
			continue
		}
		r.stats.deliveries.Add(1)
	}
	return nil
}

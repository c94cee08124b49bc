package groups

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nfrund/topichub/internal/pubsub"
)

// EventsTopic is the bus topic membership changes are replicated on.
const EventsTopic = "topichub.groups.events"

type opKind string

const (
	opCreate opKind = "create"
	opDelete opKind = "delete"
	opJoin   opKind = "join"
	opLeave  opKind = "leave"
	opSync   opKind = "sync"
	opState  opKind = "state"
)

// change is one replicated mutation. Clock is the sender's Lamport time.
type change struct {
	Op     opKind   `json:"op"`
	Group  string   `json:"group,omitempty"`
	Member string   `json:"member,omitempty"`
	Clock  uint64   `json:"clock"`
	Node   string   `json:"node"`
	State  []change `json:"state,omitempty"`
}

var changeEvent = pubsub.NewEvent[change](EventsTopic)

// stamp records the last write seen for a group or a member.
type stamp struct {
	clock   uint64
	node    string
	present bool
}

func (s stamp) before(o stamp) bool {
	if s.clock != o.clock {
		return s.clock < o.clock
	}
	return s.node < o.node
}

// Replicated is a Groups implementation whose state is copied to every node
// attached to the same bus. Each group and each member is a last-writer-wins
// register ordered by Lamport clock and node ID, so nodes converge no matter
// what order changes arrive in.
//
// A member only counts when its stamp is newer than the group's current
// create, so joins that raced a delete never resurface in a later
// incarnation of the same group.
//
// Reads and the emptiness check in Delete only see the local replica.
type Replicated struct {
	nodeID string
	bus    pubsub.Bus
	logger *slog.Logger

	mu      sync.RWMutex
	clock   uint64
	groups  map[string]stamp
	members map[string]map[string]stamp
}

var _ Groups = (*Replicated)(nil)

// NewReplicated creates a replica identified by nodeID. Call Start to attach
// it to the bus.
func NewReplicated(nodeID string, bus pubsub.Bus) *Replicated {
	return &Replicated{
		nodeID:  nodeID,
		bus:     bus,
		logger:  slog.Default().With("component", "groups.replicated", "node", nodeID),
		groups:  make(map[string]stamp),
		members: make(map[string]map[string]stamp),
	}
}

// Start subscribes to peer changes and asks running peers for their state.
func (r *Replicated) Start(ctx context.Context) error {
	if err := r.bus.Subscribe(ctx, changeEvent.Name(), r.handle); err != nil {
		return err
	}
	r.publish(ctx, change{Op: opSync, Node: r.nodeID})
	return nil
}

// NodeID returns the replica's identity on the bus.
func (r *Replicated) NodeID() string {
	return r.nodeID
}

func (r *Replicated) handle(ctx context.Context, msg pubsub.Message) error {
	if msg.NodeID == r.nodeID {
		return nil
	}
	c, err := changeEvent.Decode(msg)
	if err != nil {
		return err
	}

	switch c.Op {
	case opSync:
		r.publish(ctx, change{Op: opState, Node: r.nodeID, State: r.snapshot()})
	case opState:
		r.mu.Lock()
		for _, s := range c.State {
			r.merge(s)
		}
		r.mu.Unlock()
	default:
		r.mu.Lock()
		r.merge(c)
		r.mu.Unlock()
	}
	return nil
}

// merge applies a change if it is newer than what the replica holds.
// Callers hold r.mu.
func (r *Replicated) merge(c change) {
	if c.Clock > r.clock {
		r.clock = c.Clock
	}
	next := stamp{clock: c.Clock, node: c.Node}

	switch c.Op {
	case opCreate, opDelete:
		next.present = c.Op == opCreate
		if r.groups[c.Group].before(next) {
			r.groups[c.Group] = next
			if !next.present {
				r.prune(c.Group, next)
			}
		}
	case opJoin, opLeave:
		next.present = c.Op == opJoin
		set, ok := r.members[c.Group]
		if !ok {
			set = make(map[string]stamp)
			r.members[c.Group] = set
		}
		if set[c.Member].before(next) {
			set[c.Member] = next
		}
	}
}

// local stamps a change with the next clock value and merges it.
// Callers hold r.mu.
func (r *Replicated) local(op opKind, group, member string) change {
	r.clock++
	c := change{Op: op, Group: group, Member: member, Clock: r.clock, Node: r.nodeID}
	r.merge(c)
	return c
}

func (r *Replicated) publish(ctx context.Context, c change) {
	if err := pubsub.Publish(ctx, r.bus, changeEvent, r.nodeID, c); err != nil {
		r.logger.Warn("Failed to replicate membership change", "op", c.Op, "group", c.Group, "error", err)
	}
}

func (r *Replicated) snapshot() []change {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var state []change
	for group, s := range r.groups {
		op := opDelete
		if s.present {
			op = opCreate
		}
		state = append(state, change{Op: op, Group: group, Clock: s.clock, Node: s.node})
	}
	for group, set := range r.members {
		for member, s := range set {
			op := opLeave
			if s.present {
				op = opJoin
			}
			state = append(state, change{Op: op, Group: group, Member: member, Clock: s.clock, Node: s.node})
		}
	}
	return state
}

// prune forgets member entries older than a delete of their group.
// Callers hold r.mu.
func (r *Replicated) prune(group string, deleted stamp) {
	set := r.members[group]
	for member, s := range set {
		if s.before(deleted) {
			delete(set, member)
		}
	}
	if len(set) == 0 {
		delete(r.members, group)
	}
}

// live reports whether member belongs to the current incarnation of group.
// Callers hold r.mu.
func (r *Replicated) live(group, member string) bool {
	s := r.members[group][member]
	return s.present && r.groups[group].before(s)
}

func (r *Replicated) hasMembers(group string) bool {
	for member := range r.members[group] {
		if r.live(group, member) {
			return true
		}
	}
	return false
}

// Create implements Groups.
func (r *Replicated) Create(ctx context.Context, key string) error {
	r.mu.Lock()
	if r.groups[key].present {
		r.mu.Unlock()
		return nil
	}
	c := r.local(opCreate, key, "")
	r.mu.Unlock()

	r.publish(ctx, c)
	return nil
}

// Exists implements Groups.
func (r *Replicated) Exists(_ context.Context, key string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.groups[key].present, nil
}

// Delete implements Groups.
func (r *Replicated) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	if !r.groups[key].present {
		r.mu.Unlock()
		return nil
	}
	if r.hasMembers(key) {
		r.mu.Unlock()
		return ErrNotEmpty
	}
	c := r.local(opDelete, key, "")
	r.mu.Unlock()

	r.publish(ctx, c)
	return nil
}

// Join implements Groups.
func (r *Replicated) Join(ctx context.Context, key, member string) error {
	r.mu.Lock()
	if !r.groups[key].present {
		r.mu.Unlock()
		return ErrNoGroup
	}
	if r.live(key, member) {
		r.mu.Unlock()
		return nil
	}
	c := r.local(opJoin, key, member)
	r.mu.Unlock()

	r.publish(ctx, c)
	return nil
}

// Leave implements Groups.
func (r *Replicated) Leave(ctx context.Context, key, member string) error {
	r.mu.Lock()
	if !r.live(key, member) {
		r.mu.Unlock()
		return nil
	}
	c := r.local(opLeave, key, member)
	r.mu.Unlock()

	r.publish(ctx, c)
	return nil
}

// Members implements Groups.
func (r *Replicated) Members(_ context.Context, key string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []string{}
	if !r.groups[key].present {
		return out, nil
	}
	for member := range r.members[key] {
		if r.live(key, member) {
			out = append(out, member)
		}
	}
	return out, nil
}

// All implements Groups.
func (r *Replicated) All(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.groups))
	for key, s := range r.groups {
		if s.present {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

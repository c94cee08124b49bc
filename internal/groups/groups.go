// Package groups provides the group-membership primitive the topic registry
// stores its subscriber sets in.
//
// A group is a named set of member identities. Groups exist independently of
// their members: an empty group is still a group until it is deleted, and it
// can only be deleted while empty.
//
// Three implementations are available:
//   - Memory: a single-node, mutex-guarded map
//   - Redis: a shared backend where every node sees the same sets
//   - Replicated: an eventually-consistent set replicated over the message bus
package groups

import (
	"context"
	"errors"
)

var (
	// ErrNotEmpty is returned by Delete when the group still has members.
	ErrNotEmpty = errors.New("group is not empty")

	// ErrNoGroup is returned by Join when the group has not been created.
	ErrNoGroup = errors.New("group does not exist")
)

// Groups is the group-membership primitive.
type Groups interface {
	// Create registers an empty group. Creating an existing group is a no-op.
	Create(ctx context.Context, key string) error

	// Exists reports whether the group is registered, empty or not.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the group if it has no members. Deleting a group that
	// does not exist succeeds.
	Delete(ctx context.Context, key string) error

	// Join adds member to the group. Joining twice leaves a single entry.
	Join(ctx context.Context, key, member string) error

	// Leave removes member from the group. Leaving a group you are not in,
	// or one that does not exist, is a no-op.
	Leave(ctx context.Context, key, member string) error

	// Members returns a copy of the group's members in no particular order.
	// An unknown group has no members.
	Members(ctx context.Context, key string) ([]string, error)

	// All returns every registered group key.
	All(ctx context.Context) ([]string, error)
}

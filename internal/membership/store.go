// Package membership maps topic names to their subscriber sets on top of a
// group-membership primitive.
//
// Every topic is stored as a group whose key is the topic name prefixed with
// the store's namespace, so several subsystems can share one primitive
// without seeing each other's groups.
package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nfrund/topichub/internal/groups"
)

var (
	// ErrNotEmpty is returned by DeleteGroup when the topic still has members.
	ErrNotEmpty = errors.New("membership: topic has subscribers")

	// ErrUnavailable wraps failures of the underlying primitive.
	ErrUnavailable = errors.New("membership: backend unavailable")
)

// DefaultNamespace is used when NewStore is given an empty namespace.
const DefaultNamespace = "topichub"

// Store is the topic → subscriber-set table.
type Store struct {
	groups groups.Groups
	prefix string
}

// NewStore creates a store that keeps its groups under namespace.
func NewStore(g groups.Groups, namespace string) *Store {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Store{
		groups: g,
		prefix: namespace + ":",
	}
}

// Key returns the group key a topic name is stored under.
func (s *Store) Key(name string) string {
	return s.prefix + name
}

func unavailable(op, name string, err error) error {
	return fmt.Errorf("%s %q: %w: %w", op, name, ErrUnavailable, err)
}

// CreateGroup registers an empty group for name. It is a no-op if the group exists.
func (s *Store) CreateGroup(ctx context.Context, name string) error {
	if err := s.groups.Create(ctx, s.Key(name)); err != nil {
		return unavailable("create", name, err)
	}
	return nil
}

// GroupExists reports whether name has a group entry, empty or not.
func (s *Store) GroupExists(ctx context.Context, name string) (bool, error) {
	ok, err := s.groups.Exists(ctx, s.Key(name))
	if err != nil {
		return false, unavailable("exists", name, err)
	}
	return ok, nil
}

// DeleteGroup removes the group for name if it has no members.
func (s *Store) DeleteGroup(ctx context.Context, name string) error {
	err := s.groups.Delete(ctx, s.Key(name))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, groups.ErrNotEmpty):
		return ErrNotEmpty
	default:
		return unavailable("delete", name, err)
	}
}

// AddMember adds id to the group for name. The group must already exist.
func (s *Store) AddMember(ctx context.Context, name, id string) error {
	if err := s.groups.Join(ctx, s.Key(name), id); err != nil {
		if errors.Is(err, groups.ErrNoGroup) {
			return fmt.Errorf("add member to %q: %w", name, err)
		}
		return unavailable("add member", name, err)
	}
	return nil
}

// RemoveMember removes id from the group for name. Non-members are ignored.
func (s *Store) RemoveMember(ctx context.Context, name, id string) error {
	if err := s.groups.Leave(ctx, s.Key(name), id); err != nil {
		return unavailable("remove member", name, err)
	}
	return nil
}

// Members returns the subscriber IDs of name. Unknown topics have none.
func (s *Store) Members(ctx context.Context, name string) ([]string, error) {
	members, err := s.groups.Members(ctx, s.Key(name))
	if err != nil {
		return nil, unavailable("members", name, err)
	}
	if members == nil {
		members = []string{}
	}
	return members, nil
}

// Groups returns the topic names registered under this store's namespace.
func (s *Store) Groups(ctx context.Context) ([]string, error) {
	keys, err := s.groups.All(ctx)
	if err != nil {
		return nil, unavailable("list", "*", err)
	}
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if name, ok := strings.CutPrefix(key, s.prefix); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

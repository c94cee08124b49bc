package endpoint

import "sync"

// Directory maps endpoint IDs to the local endpoints that can be delivered
// to, and remembers which topics each one joined. Membership sets only hold
// IDs; the directory turns them back into something Send can be called on.
type Directory struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	ep     Endpoint
	topics map[string]struct{}
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{entries: make(map[string]*entry)}
}

// Add records that ep joined topic. It reports whether ep was not known before.
func (d *Directory) Add(ep Endpoint, topic string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entries[ep.ID()]
	if !ok {
		e = &entry{ep: ep, topics: make(map[string]struct{})}
		d.entries[ep.ID()] = e
	}
	e.topics[topic] = struct{}{}
	return !ok
}

// Remove records that id left topic, forgetting the endpoint once it has no
// topics left.
func (d *Directory) Remove(id, topic string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entries[id]
	if !ok {
		return
	}
	delete(e.topics, topic)
	if len(e.topics) == 0 {
		delete(d.entries, id)
	}
}

// Drop forgets id and returns the topics it had joined.
func (d *Directory) Drop(id string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entries[id]
	if !ok {
		return nil
	}
	delete(d.entries, id)

	topics := make([]string, 0, len(e.topics))
	for topic := range e.topics {
		topics = append(topics, topic)
	}
	return topics
}

// Lookup returns the endpoint registered under id.
func (d *Directory) Lookup(id string) (Endpoint, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.entries[id]
	if !ok {
		return nil, false
	}
	return e.ep, true
}

// Len returns the number of known endpoints.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.entries)
}

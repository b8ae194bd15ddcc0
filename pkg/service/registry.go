package service

import (
	"sync"

	"golang.org/x/exp/maps"
)

// Registry maps the name of an external entity (a DRBD resource, a VM) to the one service node
// claiming it. It is only changed through Link and Unlink which keep both directions consistent.
type Registry struct {
	mu     sync.Mutex
	byKey  map[string]string
	byNode map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		byKey:  make(map[string]string),
		byNode: make(map[string]string),
	}
}

// Get returns the id of the node claiming key.
func (r *Registry) Get(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byKey[key]
	return id, ok
}

// KeyOf returns the key claimed by nodeID.
func (r *Registry) KeyOf(nodeID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.byNode[nodeID]
	return key, ok
}

// Link makes nodeID the holder of key. The key previously held by nodeID is released first, then
// the previous holder of key loses it. The id of that previous holder is returned so its back
// reference can be cleared; it is empty if key was free or already held by nodeID.
func (r *Registry) Link(key, nodeID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byNode[nodeID]; ok {
		delete(r.byKey, old)
		delete(r.byNode, nodeID)
	}

	superseded, ok := r.byKey[key]
	if ok {
		delete(r.byNode, superseded)
	}

	r.byKey[key] = nodeID
	r.byNode[nodeID] = key
	if superseded == nodeID {
		return ""
	}
	return superseded
}

// Unlink releases the key held by nodeID, if any.
func (r *Registry) Unlink(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if key, ok := r.byNode[nodeID]; ok {
		delete(r.byKey, key)
		delete(r.byNode, nodeID)
	}
}

// Len returns the number of claimed keys.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKey)
}

// Copy returns an independent copy of the registry.
func (r *Registry) Copy() *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &Registry{
		byKey:  maps.Clone(r.byKey),
		byNode: maps.Clone(r.byNode),
	}
}

// Restore replaces the claims of r with those of from.
func (r *Registry) Restore(from *Registry) {
	from.mu.Lock()
	byKey, byNode := maps.Clone(from.byKey), maps.Clone(from.byNode)
	from.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey = byKey
	r.byNode = byNode
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package registry provides an ordered, concurrency safe map from instance ID to value.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	// ErrDuplicateID is returned when registering or reserving an ID that is present or reserved.
	ErrDuplicateID = errors.New("duplicate instance id")
	// ErrNotReserved is returned when committing an ID that holds no reservation.
	ErrNotReserved = errors.New("instance id is not reserved")
)

// Registry maps IDs to values and remembers insertion order.
// All access is serialised by a single RWMutex.
//
// An ID can be reserved before its value exists. A reserved ID is invisible to
// Lookup and Snapshot but blocks Register and Reserve until it is committed or released.
type Registry[T any] struct {
	mu       sync.RWMutex
	items    map[string]T
	order    []string
	reserved map[string]struct{}
}

// New creates an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{
		items:    make(map[string]T),
		reserved: make(map[string]struct{}),
	}
}

// Register adds v under id. It fails without side effects if id is present or reserved.
func (r *Registry[T]) Register(id string, v T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.taken(id) {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	r.add(id, v)

	return nil
}

// Reserve claims id for a value that does not exist yet.
// Exactly one of concurrent reservations of the same id succeeds.
func (r *Registry[T]) Reserve(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.taken(id) {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	r.reserved[id] = struct{}{}

	return nil
}

// Commit turns the reservation of id into a registration of v.
func (r *Registry[T]) Commit(id string, v T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.reserved[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotReserved, id)
	}

	delete(r.reserved, id)
	r.add(id, v)

	return nil
}

// Release drops the reservation of id. It is a no-op once id has been committed.
func (r *Registry[T]) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.reserved, id)
}

func (r *Registry[T]) taken(id string) bool {
	if _, ok := r.items[id]; ok {
		return true
	}

	_, ok := r.reserved[id]

	return ok
}

func (r *Registry[T]) add(id string, v T) {
	r.items[id] = v
	r.order = append(r.order, id)
}

// Unregister removes id and reports whether it was present.
func (r *Registry[T]) Unregister(id string) bool {
	return r.UnregisterIf(id, nil)
}

// UnregisterIf removes id only if pred returns true for its current value.
// A nil pred always matches.
func (r *Registry[T]) UnregisterIf(id string, pred func(T) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.items[id]
	if !ok {
		return false
	}

	if pred != nil && !pred(v) {
		return false
	}

	delete(r.items, id)

	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}

	return true
}

// Lookup returns the value for id.
func (r *Registry[T]) Lookup(id string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.items[id]

	return v, ok
}

// Snapshot returns the registered values in insertion order.
func (r *Registry[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}

	return out
}

// Len returns the number of registered values.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}

// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package item

import (
	"errors"
	"slices"
	"sync"
)

// ErrEmpty is returned by [Registry.Get] when no items have been added.
var ErrEmpty = errors.New("item: registry is empty")

// Last is the index which always resolves to the most recently added Item.
const Last = -1

// Resolve maps a requested index onto a position in a list of the given length.
// Any index outside [0, length) resolves to the final position.
// Resolve returns -1 when length is zero.
func Resolve(index int64, length int) int {
	if index < 0 || index >= int64(length) {
		return length - 1
	}
	return int(index)
}

// Registry is an append only, insertion ordered collection of Items.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	items []Item
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		items: make([]Item, 0),
	}
}

// Append adds it to the end of the Registry and returns the new length.
func (r *Registry) Append(it Item) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, it)
	return len(r.items)
}

// List returns a snapshot of every Item in insertion order. The result is
// never nil so it encodes as an empty JSON array.
func (r *Registry) List() []Item {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.items) == 0 {
		return []Item{}
	}
	return slices.Clone(r.items)
}

// Len returns the number of Items in the Registry.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}

// Get returns the Item at index after applying [Resolve].
func (r *Registry) Get(index int64) (Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.items) == 0 {
		return Item{}, ErrEmpty
	}
	return r.items[Resolve(index, len(r.items))], nil
}

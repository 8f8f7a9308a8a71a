// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package endpoint implements the item registry REST operations.
package endpoint

import "github.com/z5labs/items/item"

// ItemStore is the subset of [item.Registry] the operations depend on.
type ItemStore interface {
	Append(item.Item) int
	List() []item.Item
	Get(index int64) (item.Item, error)
}

const instrumentationName = "github.com/z5labs/items/endpoint"

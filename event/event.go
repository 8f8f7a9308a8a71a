// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package event defines the notifications emitted when the item registry changes.
package event

import (
	"context"
	"time"

	"github.com/z5labs/items/item"
)

// ItemCreated is emitted after an Item has been appended to the registry.
type ItemCreated struct {
	Item      item.Item `json:"item"`
	Route     string    `json:"route"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher delivers events to downstream consumers.
//
// Delivery is best effort. Implementations must not block the caller on
// network round trips and the registry is never rolled back because an
// event could not be delivered.
type Publisher interface {
	PublishItemCreated(context.Context, ItemCreated) error
}

// PublisherFunc is a func implementation of Publisher.
type PublisherFunc func(context.Context, ItemCreated) error

// PublishItemCreated implements the [Publisher] interface.
func (f PublisherFunc) PublishItemCreated(ctx context.Context, ev ItemCreated) error {
	return f(ctx, ev)
}

// Discard is a Publisher which drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, ItemCreated) error {
	return nil
})

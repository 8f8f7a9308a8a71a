// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"errors"

	"github.com/z5labs/items/item"
)

// CreateItemRequest is the body accepted by both create routes.
type CreateItemRequest struct {
	Name        string  `json:"name" required:"true"`
	Description *string `json:"description,omitempty"`
}

// UnmarshalJSON validates the body with [item.Parse] so every invalid
// field is reported together.
func (r *CreateItemRequest) UnmarshalJSON(b []byte) error {
	it, err := item.Parse(b)
	if err == nil {
		*r = CreateItemRequest{
			Name:        it.Name,
			Description: it.Description,
		}
		return nil
	}

	var verr *item.ValidationError
	if errors.As(err, &verr) {
		return newValidationError(verr.Fields)
	}
	return err
}

func (r *CreateItemRequest) item() item.Item {
	return item.Item{
		Name:        r.Name,
		Description: r.Description,
	}
}

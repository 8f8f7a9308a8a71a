// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import "github.com/z5labs/items/item"

var _ ItemStore = (*item.Registry)(nil)

func newRecordingStore() *item.Registry {
	return item.NewRegistry()
}

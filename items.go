// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package items is an in-memory item registry served over a small REST API.
//
// The service is assembled in cmd/items from the packages in this module:
// item holds the registry, endpoint exposes it over HTTP and event
// announces newly created items.
package items

import (
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// Logger returns a logger which emits through the global OpenTelemetry
// LoggerProvider. name should be the import path of the calling package.
func Logger(name string) *slog.Logger {
	return otelslog.NewLogger(name)
}

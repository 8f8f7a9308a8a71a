// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package health reports whether parts of the service are able to do work.
package health

import (
	"context"
	"sync/atomic"
)

// Monitor reports the current health of some component.
type Monitor interface {
	Healthy(context.Context) (bool, error)
}

// MonitorFunc is a func implementation of Monitor.
type MonitorFunc func(context.Context) (bool, error)

// Healthy implements the [Monitor] interface.
func (f MonitorFunc) Healthy(ctx context.Context) (bool, error) {
	return f(ctx)
}

// Binary is a Monitor which is toggled between healthy and unhealthy.
// The zero value is unhealthy and it is safe for concurrent use.
type Binary struct {
	healthy atomic.Bool
}

// MarkHealthy flips the state to healthy.
func (b *Binary) MarkHealthy() {
	b.healthy.Store(true)
}

// MarkUnhealthy flips the state to unhealthy.
func (b *Binary) MarkUnhealthy() {
	b.healthy.Store(false)
}

// Healthy implements the [Monitor] interface.
func (b *Binary) Healthy(context.Context) (bool, error) {
	return b.healthy.Load(), nil
}

// AndMonitor is healthy only when every Monitor it holds is healthy.
// It stops at the first unhealthy Monitor or error.
type AndMonitor []Monitor

// And combines ms into an AndMonitor.
func And(ms ...Monitor) AndMonitor {
	return AndMonitor(ms)
}

// Healthy implements the [Monitor] interface.
func (am AndMonitor) Healthy(ctx context.Context) (bool, error) {
	for _, m := range am {
		healthy, err := m.Healthy(ctx)
		if err != nil {
			return false, err
		}
		if !healthy {
			return false, nil
		}
	}
	return true, nil
}

// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"errors"
	"io"
)

// HookFunc runs after the Runtime returns.
type HookFunc func(context.Context) error

// CloseHook adapts c into a HookFunc.
func CloseHook(c io.Closer) HookFunc {
	return func(context.Context) error {
		return c.Close()
	}
}

// HookRegistry collects post-run hooks while a Runtime is being built.
type HookRegistry struct {
	hooks []HookFunc
}

// OnPostRun registers hook. Hooks run in registration order.
func (r *HookRegistry) OnPostRun(hook HookFunc) {
	r.hooks = append(r.hooks, hook)
}

// HookedRuntime runs its inner Runtime followed by every registered hook.
type HookedRuntime struct {
	inner Runtime
	hooks []HookFunc
}

// Run implements the [Runtime] interface.
//
// Hooks always run, even if the inner Runtime or an earlier hook fails, and
// they receive a context which is not cancelled along with ctx so cleanup
// can still reach remote systems during shutdown.
func (rt HookedRuntime) Run(ctx context.Context) error {
	err := rt.inner.Run(ctx)

	hookCtx := context.WithoutCancel(ctx)
	for _, hook := range rt.hooks {
		err = errors.Join(err, hook(hookCtx))
	}
	return err
}

// WithHooks lets f register post-run hooks while it builds its Runtime.
//
// If f fails, hooks registered before the failure are run immediately so
// partially built resources are still released.
func WithHooks[T Runtime](f func(context.Context, *HookRegistry) (T, error)) Builder[HookedRuntime] {
	return BuilderFunc[HookedRuntime](func(ctx context.Context) (HookedRuntime, error) {
		registry := &HookRegistry{}

		inner, err := f(ctx, registry)
		if err != nil {
			hookCtx := context.WithoutCancel(ctx)
			for _, hook := range registry.hooks {
				err = errors.Join(err, hook(hookCtx))
			}
			return HookedRuntime{}, err
		}

		return HookedRuntime{
			inner: inner,
			hooks: registry.hooks,
		}, nil
	})
}

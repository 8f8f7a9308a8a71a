// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	t.Run("will return the build error", func(t *testing.T) {
		t.Run("if the builder fails", func(t *testing.T) {
			buildErr := errors.New("build")
			builder := BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
				return nil, buildErr
			})

			err := Run(context.Background(), builder)
			require.ErrorIs(t, err, buildErr)
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the runtime panics", func(t *testing.T) {
			builder := BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
				return RuntimeFunc(func(ctx context.Context) error {
					panic("boom")
				}), nil
			})

			err := Run(context.Background(), builder)
			require.Error(t, err)
		})
	})

	t.Run("will bind builders", func(t *testing.T) {
		t.Run("in order", func(t *testing.T) {
			ran := false
			builder := Bind(
				Build(func(ctx context.Context) (string, error) {
					return "items", nil
				}),
				func(name string) Builder[Runtime] {
					return Build(func(ctx context.Context) (Runtime, error) {
						return RuntimeFunc(func(ctx context.Context) error {
							ran = name == "items"
							return nil
						}), nil
					})
				},
			)

			err := Run(context.Background(), builder)
			require.Nil(t, err)
			require.True(t, ran)
		})
	})
}

func TestLogError(t *testing.T) {
	t.Run("will not log", func(t *testing.T) {
		t.Run("if the error is nil", func(t *testing.T) {
			var buf bytes.Buffer
			LogError(slog.NewJSONHandler(&buf, nil), nil)

			require.Zero(t, buf.Len())
		})
	})

	t.Run("will log the error", func(t *testing.T) {
		t.Run("if it is not nil", func(t *testing.T) {
			var buf bytes.Buffer
			LogError(slog.NewJSONHandler(&buf, nil), errors.New("boom"))

			require.Contains(t, buf.String(), "boom")
		})
	})
}

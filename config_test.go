// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package items

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/z5labs/items/config"

	"github.com/stretchr/testify/require"
)

func TestFileConfig(t *testing.T) {
	t.Run("will use the defaults", func(t *testing.T) {
		t.Run("if no path is configured", func(t *testing.T) {
			cfg, err := config.Read(context.Background(), FileConfig(config.EmptyReader[string]()))
			require.Nil(t, err)
			require.Equal(t, "Item Registry", cfg.OpenApi.Title)
			require.Equal(t, "v0.0.0", cfg.OpenApi.Version)
		})
	})

	t.Run("will substitute environment variables", func(t *testing.T) {
		t.Run("if they are set", func(t *testing.T) {
			t.Setenv("OPENAPI_VERSION", "v1.2.3")

			cfg, err := config.Read(context.Background(), FileConfig(nil))
			require.Nil(t, err)
			require.Equal(t, "v1.2.3", cfg.OpenApi.Version)
		})
	})

	t.Run("will override the defaults", func(t *testing.T) {
		t.Run("with values from the file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			err := os.WriteFile(path, []byte("openapi:\n  title: Inventory\n"), 0o600)
			require.Nil(t, err)

			cfg, err := config.Read(context.Background(), FileConfig(config.ReaderOf(path)))
			require.Nil(t, err)
			require.Equal(t, "Inventory", cfg.OpenApi.Title)
			require.Equal(t, "v0.0.0", cfg.OpenApi.Version)
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the file does not exist", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing.yaml")

			_, err := config.Read(context.Background(), FileConfig(config.ReaderOf(path)))
			require.ErrorIs(t, err, os.ErrNotExist)
		})
	})
}

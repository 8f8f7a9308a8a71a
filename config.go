// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package items

import (
	"bytes"
	"context"
	_ "embed"
	"io"
	"os"

	"github.com/z5labs/items/config"

	bedrockcfg "github.com/z5labs/bedrock/config"
	"github.com/z5labs/sdk-go/try"
)

// ConfigSource reads YAML which is first rendered as a Go template.
// Two template funcs are available:
//   - env returns the named environment variable or nil if it is unset
//   - default returns its first argument when the second is nil
func ConfigSource(r io.Reader) bedrockcfg.Source {
	return bedrockcfg.FromYaml(
		bedrockcfg.RenderTextTemplate(
			r,
			bedrockcfg.TemplateFunc("env", func(key string) any {
				if v, ok := os.LookupEnv(key); ok {
					return v
				}
				return nil
			}),
			bedrockcfg.TemplateFunc("default", func(def, v any) any {
				if v == nil {
					return def
				}
				return v
			}),
		),
	)
}

//go:embed default_config.yaml
var defaultConfig []byte

// DefaultConfig is the source for the built-in defaults of [Config].
func DefaultConfig() bedrockcfg.Source {
	return ConfigSource(bytes.NewReader(defaultConfig))
}

// Config is the service level configuration.
type Config struct {
	OpenApi struct {
		Title   string `config:"title"`
		Version string `config:"version"`
	} `config:"openapi"`
}

// ConfigPathFromEnv reads the path of an optional config file from ITEMS_CONFIG.
func ConfigPathFromEnv() config.Reader[string] {
	return config.Env("ITEMS_CONFIG")
}

// FileConfig reads [Config] by layering the file at path over [DefaultConfig].
// Only the defaults are used when path is unset.
func FileConfig(path config.Reader[string]) config.Reader[Config] {
	return config.ReaderFunc[Config](func(ctx context.Context) (config.Value[Config], error) {
		p, err := config.ReadOr(ctx, "", path)
		if err != nil {
			return config.Value[Config]{}, err
		}
		if p == "" {
			return readConfig(DefaultConfig())
		}

		f, err := os.Open(p)
		if err != nil {
			return config.Value[Config]{}, err
		}
		return readFile(f)
	})
}

func readFile(f *os.File) (v config.Value[Config], err error) {
	defer try.Close(&err, f)

	return readConfig(bedrockcfg.MultiSource(DefaultConfig(), ConfigSource(f)))
}

func readConfig(src bedrockcfg.Source) (config.Value[Config], error) {
	m, err := bedrockcfg.Read(src)
	if err != nil {
		return config.Value[Config]{}, err
	}

	var cfg Config
	if err := m.Unmarshal(&cfg); err != nil {
		return config.Value[Config]{}, err
	}
	return config.ValueOf(cfg), nil
}

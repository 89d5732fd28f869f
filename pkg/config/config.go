// Package config loads dotty's layered configuration using koanf.
//
// Precedence, lowest to highest: embedded defaults, a dotty.toml at
// the source root, DOTTY_* environment variables. CLI flags override
// all of these but are applied by the caller, not here.
package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/Dima-369/dotty/pkg/errors"
)

// RootConfigFile is the name of the per-tree configuration file looked
// up at the source root.
const RootConfigFile = "dotty.toml"

//go:embed embedded/dotty.toml
var defaultConfig []byte

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New(errors.ErrInternal, "not implemented")
}

// Config holds the user-configurable settings.
type Config struct {
	// DescriptorSuffix marks policy descriptor files.
	DescriptorSuffix string `koanf:"descriptor_suffix"`

	// Target is the destination root specification, tilde-expandable.
	Target string `koanf:"target"`

	// Ignore lists names excluded from the walk.
	Ignore []string `koanf:"ignore"`
}

// Load builds the configuration for a run rooted at sourceRoot. An
// empty sourceRoot skips the root-file layer.
func Load(sourceRoot string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrConfigLoad, "failed to load default config")
	}

	if sourceRoot != "" {
		path := filepath.Join(sourceRoot, RootConfigFile)
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return Config{}, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load %s", path)
			}
		}
	}

	// Keys are flat, so underscores stay as-is: DOTTY_DESCRIPTOR_SUFFIX
	// maps to descriptor_suffix.
	err := k.Load(env.Provider("DOTTY_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "DOTTY_"))
	}), nil)
	if err != nil {
		return Config{}, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment variables")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, errors.ErrConfigInvalid, "failed to unmarshal config")
	}

	if cfg.DescriptorSuffix == "" {
		return Config{}, errors.New(errors.ErrConfigInvalid, "descriptor_suffix cannot be empty")
	}

	return cfg, nil
}

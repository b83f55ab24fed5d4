// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Sync modes.
const (
	ModeOneWay = "one-way"
	ModeTwoWay = "two-way"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config holds every sync option a config file may set. Command-line flags
// override these field by field.
type Config struct {
	Source             string   `toml:"source"               yaml:"source"               hcl:"source,optional"`
	Dest               string   `toml:"dest"                 yaml:"dest"                 hcl:"dest,optional"`
	Mode               string   `toml:"mode"                 yaml:"mode"                 hcl:"mode,optional"`
	DryRun             bool     `toml:"dry_run"              yaml:"dry_run"              hcl:"dry_run,optional"`
	UseSourceGitignore bool     `toml:"use_source_gitignore" yaml:"use_source_gitignore" hcl:"use_source_gitignore,optional"`
	ExcludeHiddenDirs  bool     `toml:"exclude_hidden_dirs"  yaml:"exclude_hidden_dirs"  hcl:"exclude_hidden_dirs,optional"`
	OnlySyncignore     bool     `toml:"only_syncignore"      yaml:"only_syncignore"      hcl:"only_syncignore,optional"`
	IgnoreSrc          []string `toml:"ignore_src"           yaml:"ignore_src"           hcl:"ignore_src,optional"`
	IgnoreDest         []string `toml:"ignore_dest"          yaml:"ignore_dest"          hcl:"ignore_dest,optional"`
	Only               []string `toml:"only"                 yaml:"only"                 hcl:"only,optional"`
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// discoveryNames are the config file names probed in order, first in the
// source directory and then in the working directory.
var discoveryNames = []string{
	"sync.toml", ".sync.toml",
	".syncrc.yaml", ".syncrc.yml",
	".syncrc.hcl",
}

// 🔍 Discover looks for a config file next to the source tree, then in the
// working directory. A missing config is not an error: the zero Config is
// returned so flags alone can drive a run.
func Discover(ctx context.Context, srcDir string) (*Config, error) {
	logger := zerolog.Ctx(ctx)

	dirs := []string{}
	if srcDir != "" {
		dirs = append(dirs, srcDir)
	}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}

	for _, dir := range dirs {
		for _, name := range discoveryNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
			logger.Debug().Str("path", candidate).Msg("discovered config file")
			return Load(ctx, candidate)
		}
	}

	return &Config{}, nil
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if cfg.Mode != "" && cfg.Mode != ModeOneWay && cfg.Mode != ModeTwoWay {
		return errors.Errorf("config key 'mode' must be one of [%s %s], got %q", ModeOneWay, ModeTwoWay, cfg.Mode)
	}

	// Clean up paths. Remote sources (URLs, git addresses) pass through
	// untouched: Clean would collapse their double slashes.
	if cfg.Source != "" && isLocalPath(cfg.Source) {
		cfg.Source = filepath.Clean(cfg.Source)
	}
	if cfg.Dest != "" {
		cfg.Dest = filepath.Clean(cfg.Dest)
	}

	return nil
}

func isLocalPath(s string) bool {
	return !strings.Contains(s, "://") && !strings.HasPrefix(s, "git@")
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeOneWay
	}
	return fmt.Sprintf("%s -> %s (%s)", cfg.Source, cfg.Dest, mode)
}

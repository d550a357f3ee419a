// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/apollo-rsps/Vicis-sub000/cmd/vicis/cli"
	"github.com/apollo-rsps/Vicis-sub000/lib/cache"
	"github.com/apollo-rsps/Vicis-sub000/lib/config"
	"github.com/apollo-rsps/Vicis-sub000/lib/filestore"
	"github.com/apollo-rsps/Vicis-sub000/lib/keyset"
)

// commonParams are the flags every command that opens a cache takes.
type commonParams struct {
	configPath string
	root       string
	keysFile   string
	noLock     bool
}

func (p *commonParams) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&p.configPath, "config", "", "config file (default: $VICIS_CONFIG, else built-in defaults)")
	flagSet.StringVar(&p.root, "root", "", "cache directory, overriding cache.root")
	flagSet.StringVar(&p.keysFile, "keys", "", "XTEA key file (.yaml or .json), overriding keys.file")
	flagSet.BoolVar(&p.noLock, "no-lock", false, "do not lock the cache directory")
}

// environment is an opened cache with the configuration it came from.
type environment struct {
	config *config.Config
	logger *slog.Logger
	cache  *cache.Cache
}

func (p *commonParams) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case p.configPath != "":
		cfg, err = config.LoadFile(p.configPath)
	case os.Getenv("VICIS_CONFIG") != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if p.root != "" {
		cfg.Cache.Root = p.root
	}
	if p.keysFile != "" {
		cfg.Keys.File = p.keysFile
	}
	if p.noLock {
		cfg.Cache.Lock = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// open loads the configuration and opens the cache it names. The
// caller closes env.cache.
func (p *commonParams) open(command string) (*environment, error) {
	cfg, err := p.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := cli.NewCommandLogger(cfg.LogLevel()).With("command", command)

	var keys *keyset.KeySet
	if cfg.Keys.File != "" {
		keys, err = keyset.LoadFile(cfg.Keys.File)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded keys", "file", cfg.Keys.File, "count", keys.Len())
	}

	var storeOptions []filestore.Option
	if cfg.Cache.Lock {
		storeOptions = append(storeOptions, filestore.WithLock())
	}
	opened, err := cache.Open(cfg.Cache.Root,
		cache.WithLogger(logger),
		cache.WithKeys(keys),
		cache.WithStoreOptions(storeOptions...),
	)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", cfg.Cache.Root, err)
	}
	logger.Debug("opened cache", "root", cfg.Cache.Root, "types", opened.TypeCount())
	return &environment{config: cfg, logger: logger, cache: opened}, nil
}

// closeCache flushes and closes env.cache, keeping the first error.
func (env *environment) closeCache(err *error) {
	if closeErr := env.cache.Close(); closeErr != nil && *err == nil {
		*err = fmt.Errorf("closing cache: %w", closeErr)
	}
}

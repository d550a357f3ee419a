// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/apollo-rsps/Vicis-sub000/lib/checksum"
)

// Config is the master configuration for vicis.
type Config struct {
	// Cache locates the cache directory.
	Cache CacheConfig `yaml:"cache"`

	// Keys locates the XTEA key file.
	Keys KeysConfig `yaml:"keys"`

	// Checksum configures checksum table encoding and decoding.
	Checksum ChecksumConfig `yaml:"checksum"`

	// Log configures the command logger.
	Log LogConfig `yaml:"log"`
}

// CacheConfig locates the cache directory.
type CacheConfig struct {
	// Root is the directory holding main_file_cache.dat2 and its
	// index files.
	Root string `yaml:"root"`

	// Lock takes an exclusive lock on the directory while a command
	// runs. Default: true
	Lock bool `yaml:"lock"`
}

// KeysConfig locates the XTEA key file.
type KeysConfig struct {
	// File is a YAML or JSONC key file. Empty means no file is
	// enciphered.
	File string `yaml:"file"`
}

// ChecksumConfig configures checksum table encoding and decoding.
// Integers are decimal, or hex with a 0x prefix.
type ChecksumConfig struct {
	// Whirlpool selects the secured table form.
	Whirlpool bool `yaml:"whirlpool"`

	// Modulus is the RSA modulus. Empty means the trailer of a
	// secured table is not transformed.
	Modulus string `yaml:"modulus"`

	// PrivateExponent transforms the trailer when encoding.
	PrivateExponent string `yaml:"private_exponent"`

	// PublicExponent transforms the trailer when decoding.
	// Default: 65537
	PublicExponent string `yaml:"public_exponent"`
}

// LogConfig configures the command logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default: info
	Level string `yaml:"level"`
}

// Default returns the default configuration, used as the base before
// loading a file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Cache: CacheConfig{
			Root: filepath.Join(homeDir, ".cache", "vicis"),
			Lock: true,
		},
		Checksum: ChecksumConfig{
			PublicExponent: "65537",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the file named by VICIS_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv("VICIS_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("VICIS_CONFIG environment variable not set; " +
			"set it to the path of your vicis.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, on top of
// [Default].
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Cache.Root = expandVars(c.Cache.Root, vars)
	vars["VICIS_ROOT"] = c.Cache.Root

	c.Keys.File = expandVars(c.Keys.File, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns, looking in
// vars first and then the environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// LogLevel returns the configured log level. Validate rejects unknown
// names; LogLevel maps them to info.
func (c *Config) LogLevel() slog.Level {
	if level, ok := logLevels[strings.ToLower(c.Log.Level)]; ok {
		return level
	}
	return slog.LevelInfo
}

// EncodingKey returns the RSA key that transforms the trailer of
// secured tables on encode, or nil when no modulus is configured.
func (c *Config) EncodingKey() (*checksum.RSAKey, error) {
	return c.rsaKey(c.Checksum.PrivateExponent, "checksum.private_exponent")
}

// DecodingKey returns the RSA key that transforms the trailer of
// secured tables on decode, or nil when no modulus is configured.
func (c *Config) DecodingKey() (*checksum.RSAKey, error) {
	return c.rsaKey(c.Checksum.PublicExponent, "checksum.public_exponent")
}

func (c *Config) rsaKey(exponent, field string) (*checksum.RSAKey, error) {
	if c.Checksum.Modulus == "" {
		return nil, nil
	}
	modulus, err := checksum.ParseInt(c.Checksum.Modulus)
	if err != nil {
		return nil, fmt.Errorf("checksum.modulus: %w", err)
	}
	if exponent == "" {
		return nil, fmt.Errorf("%s is required when checksum.modulus is set", field)
	}
	value, err := checksum.ParseInt(exponent)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	key := &checksum.RSAKey{Modulus: modulus, Exponent: value}
	if err := key.Valid(); err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return key, nil
}

// Validate checks the configuration for errors, reporting all of
// them. The private exponent is only needed for encoding and is only
// checked when set.
func (c *Config) Validate() error {
	var errs []error

	if c.Cache.Root == "" {
		errs = append(errs, fmt.Errorf("cache.root is required"))
	}

	if _, ok := logLevels[strings.ToLower(c.Log.Level)]; !ok {
		errs = append(errs, fmt.Errorf("log.level must be one of: debug, info, warn, error"))
	}

	if c.Keys.File != "" {
		switch strings.ToLower(filepath.Ext(c.Keys.File)) {
		case ".yaml", ".yml", ".json", ".jsonc":
		default:
			errs = append(errs, fmt.Errorf("keys.file must end in .yaml, .yml, .json, or .jsonc"))
		}
	}

	if _, err := c.DecodingKey(); err != nil {
		errs = append(errs, err)
	}
	if c.Checksum.PrivateExponent != "" {
		if _, err := c.EncodingKey(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

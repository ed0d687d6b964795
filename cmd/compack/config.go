// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/creachadair/compack"
	"github.com/creachadair/compack/channel"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envPrefix is the prefix of environment variables that override settings,
// as in COMPACK_SERVER or COMPACK_TIMEOUT.
const envPrefix = "COMPACK_"

// Config is the format of a channel configuration file:
//
//	type: file
//	settings:
//	  server: /var/spool/compack
//	  username: alice
//	  async: true
type Config struct {
	Type     string            `yaml:"type" validate:"required,oneof=file comfile stream tcp comtcp chat comchat"`
	Settings map[string]string `yaml:"settings"`
}

var validate = validator.New()

// loadConfig reads the configuration file at path, if path != "", then merges
// in values from a .env file in the working directory and COMPACK_<KEY>
// environment variables. Environment values take precedence over the file.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Type: "file", Settings: make(map[string]string)}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
		settings := cfg.Settings
		cfg.Settings = make(map[string]string, len(settings))
		for k, v := range settings {
			cfg.Settings[settingKey(k)] = v
		}
	}

	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	for _, kv := range os.Environ() {
		name, value, _ := strings.Cut(kv, "=")
		key, ok := strings.CutPrefix(name, envPrefix)
		if !ok {
			continue
		}
		if key == "TYPE" {
			cfg.Type = value
		} else {
			cfg.Settings[settingKey(key)] = value
		}
	}
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// settingKey returns the canonical spelling of a setting name, so that the
// same setting from the file, the environment and flags shares one entry.
// Unknown names are kept, upper-cased, for apply to report.
func settingKey(name string) string {
	if k, err := compack.ParseKey(name); err == nil {
		return string(k)
	}
	return strings.ToUpper(strings.TrimSpace(name))
}

// set records a setting override, ignoring empty values.
func (c *Config) set(key, value string) {
	if value != "" {
		c.Settings[settingKey(key)] = value
	}
}

// newChannel constructs a channel from the configuration and applies its
// settings.
func (c *Config) newChannel() (compack.Channel, error) {
	ch, err := channel.New(c.Type)
	if err != nil {
		return nil, err
	}
	if err := c.apply(ch.Core()); err != nil {
		return nil, err
	}
	return ch, nil
}

// apply applies the settings of c to core, in sorted order of keys.
func (c *Config) apply(core *compack.Core) error {
	keys := make([]string, 0, len(c.Settings))
	for k := range c.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := core.Set(k, c.Settings[k]); err != nil {
			return fmt.Errorf("setting %s: %w", k, err)
		}
	}
	return nil
}

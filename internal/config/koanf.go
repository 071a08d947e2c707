// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in priority
// order. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/framebridge/config.yaml",
	"/etc/framebridge/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "FRAMEBRIDGE_CONFIG"

// envPrefix scopes environment overrides; FRAMEBRIDGE_TV_HOST sets tv.host.
const envPrefix = "FRAMEBRIDGE_"

// Load assembles configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. FRAMEBRIDGE_* environment variables (highest priority)
func Load() (*Config, error) {
	return loadFrom(findConfigFile())
}

func loadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or empty string.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps FRAMEBRIDGE_* environment variables onto koanf
// paths. The section name is the first underscore-delimited token; the rest
// of the key keeps its underscores:
//
//	FRAMEBRIDGE_TV_HOST            -> tv.host
//	FRAMEBRIDGE_TV_CLIENT_NAME     -> tv.client_name
//	FRAMEBRIDGE_SYNC_ON_STARTUP    -> sync.on_startup
//	FRAMEBRIDGE_SMARTTHINGS_ENABLED -> smartthings.enabled
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return ""
	}
	switch section {
	case "tv", "smartthings", "cache", "sync", "server", "state", "logging":
		return section + "." + rest
	}
	// Unknown prefixes are dropped so unrelated environment variables
	// cannot pollute the config.
	return ""
}

// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package wizard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/cortexlinux/cortex-cli/internal/detect"
	"github.com/cortexlinux/cortex-cli/internal/provider"
	"github.com/cortexlinux/cortex-cli/internal/util"
)

// Verbosity levels for runtime output.
const (
	VerbosityQuiet   = "quiet"
	VerbosityNormal  = "normal"
	VerbosityVerbose = "verbose"
)

// Preferences are the user-tunable runtime settings collected during setup.
type Preferences struct {
	AutoConfirm    bool   `json:"auto_confirm" toml:"auto_confirm"`
	Verbosity      string `json:"verbosity" toml:"verbosity"`
	CachingEnabled bool   `json:"caching_enabled" toml:"caching_enabled"`
}

// DefaultPreferences are used in non-interactive runs and as prompt defaults.
func DefaultPreferences() Preferences {
	return Preferences{
		AutoConfirm:    false,
		Verbosity:      VerbosityNormal,
		CachingEnabled: true,
	}
}

// SetupConfig is the configuration document the rest of the application
// reads at runtime. Every save is a full-document overwrite, never a
// partial update.
type SetupConfig struct {
	Provider             string          `json:"provider" toml:"provider"`
	CredentialConfigured bool            `json:"credential_configured" toml:"credential_configured"`
	Hardware             *detect.Profile `json:"hardware,omitempty" toml:"hardware,omitempty"`
	RecommendedModel     string          `json:"recommended_model,omitempty" toml:"recommended_model,omitempty"`
	Preferences          Preferences     `json:"preferences" toml:"preferences"`
}

// ProviderKind returns the configured provider as a Kind.
func (c *SetupConfig) ProviderKind() provider.Kind {
	return provider.ParseKind(c.Provider)
}

// configPaths returns the JSON document path and its TOML mirror.
func configPaths(dir string) (jsonPath, tomlPath string) {
	return filepath.Join(dir, "config.json"), filepath.Join(dir, "config.toml")
}

// LoadConfig reads the config document. A missing file returns an empty
// config, not an error. Unknown fields are ignored.
func LoadConfig(dir string) (*SetupConfig, error) {
	jsonPath, _ := configPaths(dir)
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &SetupConfig{Preferences: DefaultPreferences()}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &SetupConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Preferences.Verbosity == "" {
		cfg.Preferences.Verbosity = VerbosityNormal
	}
	return cfg, nil
}

// Save overwrites the config document atomically. A TOML mirror is
// written beside it for tooling that prefers TOML; the JSON document is
// authoritative and the mirror failing is non-fatal to the caller's
// view of the save (it is reported in the error for logging).
func (c *SetupConfig) Save(dir string) error {
	jsonPath, tomlPath := configPaths(dir)

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("config written but TOML mirror failed to encode: %w", err)
	}
	if err := util.AtomicWriteFile(tomlPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("config written but TOML mirror failed: %w", err)
	}
	return nil
}

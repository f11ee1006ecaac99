// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package shell integrates setup with the user's login shell: export
// lines appended to the profile when the credential file cannot be
// written, and command completion scripts.
package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind identifies the user's shell.
type Kind int

const (
	KindUnknown Kind = iota
	KindBash
	KindZsh
	KindFish
)

func (k Kind) String() string {
	switch k {
	case KindBash:
		return "bash"
	case KindZsh:
		return "zsh"
	case KindFish:
		return "fish"
	default:
		return "unknown"
	}
}

// Detect identifies the login shell from $SHELL.
func Detect() Kind {
	return detectFrom(os.Getenv("SHELL"))
}

func detectFrom(shellPath string) Kind {
	switch filepath.Base(shellPath) {
	case "bash":
		return KindBash
	case "zsh":
		return KindZsh
	case "fish":
		return KindFish
	default:
		return KindUnknown
	}
}

// =============================================================================
// PROFILE
// =============================================================================

// Profile writes to the shell's startup file.
type Profile struct {
	kind Kind
	path string
}

// NewProfile resolves the startup file for the detected shell. Unknown
// shells fall back to ~/.profile, which every POSIX shell sources.
func NewProfile(homeDir string) *Profile {
	kind := Detect()
	return &Profile{kind: kind, path: profilePath(kind, homeDir)}
}

// NewProfileAt targets an explicit file, for tests.
func NewProfileAt(kind Kind, path string) *Profile {
	return &Profile{kind: kind, path: path}
}

func profilePath(kind Kind, homeDir string) string {
	switch kind {
	case KindBash:
		return filepath.Join(homeDir, ".bashrc")
	case KindZsh:
		return filepath.Join(homeDir, ".zshrc")
	case KindFish:
		return filepath.Join(homeDir, ".config", "fish", "config.fish")
	default:
		return filepath.Join(homeDir, ".profile")
	}
}

// Path returns the startup file this profile writes to.
func (p *Profile) Path() string {
	return p.path
}

// AppendExport appends an environment export to the profile. An existing
// export of the same variable is left in place; the appended line wins
// because shells process the file top to bottom.
func (p *Profile) AppendExport(name, value string) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	f, err := os.OpenFile(p.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open shell profile: %w", err)
	}
	defer f.Close()

	line := exportLine(p.kind, name, value)
	if _, err := fmt.Fprintf(f, "\n# Added by cortex setup\n%s\n", line); err != nil {
		return fmt.Errorf("failed to write to shell profile: %w", err)
	}
	return nil
}

func exportLine(kind Kind, name, value string) string {
	escaped := strings.ReplaceAll(value, `"`, `\"`)
	if kind == KindFish {
		return fmt.Sprintf(`set -gx %s "%s"`, name, escaped)
	}
	return fmt.Sprintf(`export %s="%s"`, name, escaped)
}

// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package credential

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/cortexlinux/cortex-cli/internal/util"
)

// StoreOutcome reports where an upserted credential ended up.
type StoreOutcome int

const (
	// StoredCanonical means the canonical env file was updated.
	StoredCanonical StoreOutcome = iota
	// StoredProfile means the env file write failed and an export line was
	// appended to the user's shell profile instead.
	StoredProfile
	// StoredProcessOnly means both persistent tiers failed; the credential
	// is usable for the current process only.
	StoredProcessOnly
)

// String returns a human-readable description of the outcome.
func (o StoreOutcome) String() string {
	switch o {
	case StoredCanonical:
		return "saved to credential file"
	case StoredProfile:
		return "saved to shell profile"
	case StoredProcessOnly:
		return "current session only"
	default:
		return "unknown"
	}
}

// ProfileAppender appends an export statement to the user's shell profile.
// Implemented by the shell package; injected so the store stays testable.
type ProfileAppender interface {
	AppendExport(name, value string) error
}

// SecondaryStore receives a longer-term copy of persisted credentials,
// independent of the plain-text canonical file. Implemented by the vault
// package. Failures here are non-fatal.
type SecondaryStore interface {
	Put(name, value string) error
}

// Store persists credentials to the canonical env file with tiered
// fallbacks: shell profile on write failure, then process environment only.
type Store struct {
	envFilePath string
	environ     Environ
	profile     ProfileAppender
	secondary   SecondaryStore
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStorePath overrides the canonical env file location.
func WithStorePath(path string) StoreOption {
	return func(s *Store) { s.envFilePath = path }
}

// WithStoreEnviron overrides the environment credentials are mirrored into.
func WithStoreEnviron(env Environ) StoreOption {
	return func(s *Store) { s.environ = env }
}

// WithProfileFallback sets the shell profile fallback tier.
func WithProfileFallback(p ProfileAppender) StoreOption {
	return func(s *Store) { s.profile = p }
}

// WithSecondaryStore sets the optional encrypted secondary store.
func WithSecondaryStore(sec SecondaryStore) StoreOption {
	return func(s *Store) { s.secondary = sec }
}

// NewStore creates a Store writing to the locator's canonical env file
// path by default.
func NewStore(locator *Locator, opts ...StoreOption) *Store {
	s := &Store{
		envFilePath: locator.EnvFilePath(),
		environ:     locator.Environ(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert writes name=value to the canonical env file, replacing any prior
// line for name and preserving all other lines and their order. The value
// is double-quoted on write. The credential is always mirrored into the
// run's environment so the current process sees it immediately.
//
// On env file write failure the store falls back to appending an export
// statement to the shell profile; if that also fails the error is returned
// (never swallowed) and the credential stays process-only.
func (s *Store) Upsert(name, value string) (StoreOutcome, error) {
	// Mirror first: whatever happens to persistence, this run can use the key.
	s.environ.Set(name, value)

	if err := s.writeEnvFile(name, value); err != nil {
		log.Printf("credential: env file write failed: %v", err)
		if s.profile != nil {
			if perr := s.profile.AppendExport(name, value); perr == nil {
				s.copyToSecondary(name, value)
				return StoredProfile, nil
			} else {
				log.Printf("credential: shell profile fallback failed: %v", perr)
			}
		}
		return StoredProcessOnly, fmt.Errorf("failed to persist %s: %w", name, err)
	}

	s.copyToSecondary(name, value)
	return StoredCanonical, nil
}

// writeEnvFile rewrites the env file with the upserted entry.
func (s *Store) writeEnvFile(name, value string) error {
	if s.envFilePath == "" {
		return fmt.Errorf("no env file path configured")
	}

	var lines []string
	if data, err := os.ReadFile(s.envFilePath); err == nil {
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		if len(lines) == 1 && lines[0] == "" {
			lines = nil
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read env file: %w", err)
	}

	entry := name + "=" + quoteValue(value)
	replaced := false
	out := make([]string, 0, len(lines)+1)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		key, _, ok := strings.Cut(trimmed, "=")
		if ok && !strings.HasPrefix(trimmed, "#") && strings.TrimSpace(key) == name {
			if replaced {
				// Collapse accidental duplicates from hand edits.
				continue
			}
			out = append(out, entry)
			replaced = true
			continue
		}
		out = append(out, line)
	}
	if !replaced {
		out = append(out, entry)
	}

	return util.AtomicWriteFile(s.envFilePath, []byte(strings.Join(out, "\n")+"\n"), 0o600)
}

// copyToSecondary forwards the credential to the encrypted secondary store.
// Failure is logged and otherwise ignored: the primary outcome stands.
func (s *Store) copyToSecondary(name, value string) {
	if s.secondary == nil {
		return
	}
	if err := s.secondary.Put(name, value); err != nil {
		log.Printf("credential: secondary store copy failed (non-fatal): %v", err)
	}
}

// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package credential implements credential resolution and persistence for
// the cortex onboarding core.
//
// Credentials are resolved through an ordered chain of sources (canonical
// env file, process environment, provider CLI credential files, project
// .env) with the first format-valid hit winning. Persistence goes to the
// canonical env file with shell-profile and process-environment fallbacks,
// plus a non-fatal copy to the encrypted vault.
package credential

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// envEntry is one NAME=value line from a credential env file.
type envEntry struct {
	name  string
	value string // quote-stripped
}

// parseEnvFile reads a line-oriented NAME=value document. Blank lines and
// #-comments are skipped. Returns entries in file order.
func parseEnvFile(path string) ([]envEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []envEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		entries = append(entries, envEntry{
			name:  strings.TrimSpace(name),
			value: stripQuotes(strings.TrimSpace(value)),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	return entries, nil
}

// lookupEnvFile returns the value for name in the env file at path.
// found is true when an entry for name exists, even if its value is blank;
// a blank entry means "explicitly unset" and must stay distinguishable
// from a missing one.
func lookupEnvFile(path, name string) (value string, found bool, err error) {
	entries, err := parseEnvFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	for _, e := range entries {
		if e.name == name {
			return e.value, true, nil
		}
	}
	return "", false, nil
}

// stripQuotes removes exactly one layer of matching single or double quotes.
// Mismatched or unbalanced quotes are left untouched.
func stripQuotes(s string) string {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first == last && (first == '"' || first == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

// quoteValue wraps a value in double quotes for writing.
func quoteValue(s string) string {
	return `"` + s + `"`
}

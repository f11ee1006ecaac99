// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Resolution errors.
var (
	// ErrNoProvider means no backend is reachable: no valid credential and
	// no local runtime. The caller should tell the user how to configure one.
	ErrNoProvider = errors.New("no AI provider reachable: set ANTHROPIC_API_KEY or OPENAI_API_KEY, or install ollama")

	// ErrBadSelection means the user's menu input was out of range or not a
	// number. Never silently mapped to a default.
	ErrBadSelection = errors.New("invalid provider selection")
)

// KeepCurrent is the resolver outcome meaning "keep the previously saved
// provider, touch nothing". It is reported alongside the saved kind.
type Resolution struct {
	Kind        Kind
	KeptCurrent bool
}

// SelectFunc presents a numbered menu and returns the user's raw input.
// The resolver parses and range-checks the answer itself.
type SelectFunc func(title string, options []string) (string, error)

// Resolver decides the effective provider for a run.
type Resolver struct {
	selectFn SelectFunc
}

// NewResolver creates a Resolver. selectFn is only consulted in
// interactive mode with more than one available provider.
func NewResolver(selectFn SelectFunc) *Resolver {
	return &Resolver{selectFn: selectFn}
}

// Resolve maps availability and any previously saved preference to an
// effective provider kind.
//
//   - exactly one available kind: auto-selected, no menu
//   - none available: ErrNoProvider
//   - several available, non-interactive: first available in canonical order
//   - several available, interactive: a numbered menu; "keep current" is
//     listed first but only on repeat runs (previouslySaved set and not
//     KindNone); choosing it short-circuits without touching credentials
func (r *Resolver) Resolve(available []Kind, previouslySaved Kind, interactive bool) (Resolution, error) {
	switch len(available) {
	case 0:
		return Resolution{Kind: KindNone}, ErrNoProvider
	case 1:
		return Resolution{Kind: available[0]}, nil
	}

	if !interactive {
		return Resolution{Kind: available[0]}, nil
	}

	offerKeep := previouslySaved != KindNone

	availSet := make(map[Kind]bool, len(available))
	for _, k := range available {
		availSet[k] = true
	}

	var options []string
	if offerKeep {
		options = append(options, fmt.Sprintf("Keep current (%s)", previouslySaved.DisplayName()))
	}
	for _, kind := range CanonicalOrder {
		status := "not configured"
		if availSet[kind] {
			status = "available"
		}
		options = append(options, fmt.Sprintf("%s [%s]", kind.DisplayName(), status))
	}

	answer, err := r.selectFn("Select AI provider", options)
	if err != nil {
		return Resolution{Kind: KindNone}, err
	}

	idx, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || idx < 1 || idx > len(options) {
		return Resolution{Kind: KindNone}, fmt.Errorf("%w: %q", ErrBadSelection, answer)
	}

	if offerKeep {
		if idx == 1 {
			return Resolution{Kind: previouslySaved, KeptCurrent: true}, nil
		}
		idx--
	}
	return Resolution{Kind: CanonicalOrder[idx-1]}, nil
}

// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"os/exec"
)

// CredentialChecker reports whether a usable (format-valid) credential
// exists for a provider kind. Implemented by credential.Locator.
type CredentialChecker interface {
	HasValidCredential(kind Kind) bool
}

// Detector aggregates which provider kinds currently have a usable
// credential or an installed local runtime.
type Detector struct {
	creds    CredentialChecker
	lookPath func(file string) (string, error)
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithLookPath overrides the command search used to find the local runner
// executable. Tests inject a fake.
func WithLookPath(fn func(file string) (string, error)) DetectorOption {
	return func(d *Detector) { d.lookPath = fn }
}

// NewDetector creates a Detector backed by the given credential checker
// and the system command search path.
func NewDetector(creds CredentialChecker, opts ...DetectorOption) *Detector {
	d := &Detector{creds: creds, lookPath: exec.LookPath}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the set of available provider kinds in canonical order.
// Detection runs fresh on every call: credentials can be entered mid-run,
// so nothing is cached here.
func (d *Detector) Detect() []Kind {
	var available []Kind
	for _, kind := range CanonicalOrder {
		if d.Available(kind) {
			available = append(available, kind)
		}
	}
	return available
}

// Available reports whether a single provider kind is usable right now.
func (d *Detector) Available(kind Kind) bool {
	switch {
	case kind == KindOllama:
		_, err := d.lookPath("ollama")
		return err == nil
	case kind.NeedsCredential():
		return d.creds.HasValidCredential(kind)
	default:
		return false
	}
}

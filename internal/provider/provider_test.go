// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"errors"
	"testing"
)

type fakeCreds map[Kind]bool

func (f fakeCreds) HasValidCredential(kind Kind) bool { return f[kind] }

func lookPathHit(string) (string, error)  { return "/usr/bin/ollama", nil }
func lookPathMiss(string) (string, error) { return "", errors.New("not found") }

func TestDetect_Empty(t *testing.T) {
	d := NewDetector(fakeCreds{}, WithLookPath(lookPathMiss))
	if got := d.Detect(); len(got) != 0 {
		t.Errorf("Detect() = %v, want empty", got)
	}
}

func TestDetect_CredentialAndRuntime(t *testing.T) {
	d := NewDetector(fakeCreds{KindAnthropic: true}, WithLookPath(lookPathHit))
	got := d.Detect()
	want := []Kind{KindAnthropic, KindOllama}
	if len(got) != len(want) {
		t.Fatalf("Detect() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Detect()[%d] = %v, want %v (canonical order)", i, got[i], want[i])
		}
	}
}

func TestDetect_FreshEachCall(t *testing.T) {
	creds := fakeCreds{}
	d := NewDetector(creds, WithLookPath(lookPathMiss))
	if len(d.Detect()) != 0 {
		t.Fatal("expected nothing available")
	}

	// Credential entered mid-run must show up on the next detect.
	creds[KindOpenAI] = true
	got := d.Detect()
	if len(got) != 1 || got[0] != KindOpenAI {
		t.Errorf("Detect() after credential added = %v, want [openai]", got)
	}
}

func noMenu(t *testing.T) SelectFunc {
	return func(string, []string) (string, error) {
		t.Error("menu must not be shown")
		return "", nil
	}
}

func TestResolve_AutoSelectSingle(t *testing.T) {
	r := NewResolver(noMenu(t))
	res, err := r.Resolve([]Kind{KindOllama}, KindNone, true)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Kind != KindOllama || res.KeptCurrent {
		t.Errorf("Resolve() = %+v, want auto-selected ollama", res)
	}
}

func TestResolve_NoneAvailable(t *testing.T) {
	r := NewResolver(noMenu(t))
	_, err := r.Resolve(nil, KindNone, true)
	if !errors.Is(err, ErrNoProvider) {
		t.Errorf("Resolve() error = %v, want ErrNoProvider", err)
	}
}

func TestResolve_NonInteractivePicksFirstCanonical(t *testing.T) {
	r := NewResolver(noMenu(t))
	res, err := r.Resolve([]Kind{KindOpenAI, KindOllama}, KindNone, false)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Kind != KindOpenAI {
		t.Errorf("Resolve() = %v, want first available in canonical order", res.Kind)
	}
}

func TestResolve_MenuSelection(t *testing.T) {
	var sawOptions []string
	r := NewResolver(func(title string, options []string) (string, error) {
		sawOptions = options
		return "2", nil
	})

	res, err := r.Resolve([]Kind{KindAnthropic, KindOpenAI}, KindNone, true)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	// No previous preference: no keep-current entry, menu is the canonical
	// list, option 2 is OpenAI.
	if len(sawOptions) != len(CanonicalOrder) {
		t.Errorf("menu has %d options, want %d (no keep-current on first run)", len(sawOptions), len(CanonicalOrder))
	}
	if res.Kind != KindOpenAI {
		t.Errorf("Resolve() = %v, want openai", res.Kind)
	}
}

func TestResolve_KeepCurrentShownOnlyOnRepeatRuns(t *testing.T) {
	r := NewResolver(func(title string, options []string) (string, error) {
		if len(options) != len(CanonicalOrder)+1 {
			t.Errorf("menu has %d options, want keep-current plus %d kinds", len(options), len(CanonicalOrder))
		}
		return "1", nil
	})

	res, err := r.Resolve([]Kind{KindAnthropic, KindOllama}, KindAnthropic, true)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !res.KeptCurrent || res.Kind != KindAnthropic {
		t.Errorf("Resolve() = %+v, want keep-current anthropic", res)
	}
}

func TestResolve_BadSelection(t *testing.T) {
	tests := []struct {
		name   string
		answer string
	}{
		{"out of range high", "99"},
		{"zero", "0"},
		{"negative", "-1"},
		{"not a number", "anthropic"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(func(string, []string) (string, error) { return tt.answer, nil })
			_, err := r.Resolve([]Kind{KindAnthropic, KindOpenAI}, KindNone, true)
			if !errors.Is(err, ErrBadSelection) {
				t.Errorf("Resolve(%q) error = %v, want ErrBadSelection", tt.answer, err)
			}
		})
	}
}

func TestKind_RoundTrip(t *testing.T) {
	for _, kind := range []Kind{KindNone, KindAnthropic, KindOpenAI, KindOllama} {
		if got := ParseKind(kind.String()); got != kind {
			t.Errorf("ParseKind(%q) = %v, want %v", kind.String(), got, kind)
		}
	}
	if got := ParseKind("something-else"); got != KindNone {
		t.Errorf("ParseKind(unknown) = %v, want KindNone", got)
	}
}

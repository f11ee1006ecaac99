// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package credential

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/cortexlinux/cortex-cli/internal/provider"
)

// Provenance identifies which source a resolved credential came from.
type Provenance int

const (
	// ProvenanceCanonicalFile is the canonical ~/.cortex/.env document.
	ProvenanceCanonicalFile Provenance = iota
	// ProvenanceProcessEnv is the current process environment.
	ProvenanceProcessEnv
	// ProvenanceProviderCLI is a credential file written by the provider's
	// own official CLI tooling.
	ProvenanceProviderCLI
	// ProvenanceProjectFile is a .env file in the working directory.
	ProvenanceProjectFile
)

// String returns the diagnostic name of the provenance.
func (p Provenance) String() string {
	switch p {
	case ProvenanceCanonicalFile:
		return "canonical file"
	case ProvenanceProcessEnv:
		return "process environment"
	case ProvenanceProviderCLI:
		return "provider CLI"
	case ProvenanceProjectFile:
		return "project .env"
	default:
		return "unknown"
	}
}

// Credential is a resolved API key with its origin.
type Credential struct {
	Name       string
	Value      string
	Kind       provider.Kind
	Provenance Provenance
}

// ProbeState describes what a single source held during a locate.
type ProbeState int

const (
	// ProbeAbsent means the source had no entry for the name.
	ProbeAbsent ProbeState = iota
	// ProbeValid means the source held a format-valid value.
	ProbeValid
	// ProbeInvalid means the source held a value that failed format checks.
	// Lower-priority sources are still consulted, but the caller is told
	// the higher source was present-but-invalid.
	ProbeInvalid
	// ProbeBlank means the canonical file held an explicitly blank entry,
	// which terminates the search: blank means "unset", not "defer".
	ProbeBlank
	// ProbeError means the source could not be read.
	ProbeError
)

// Probe records the outcome of checking one source.
type Probe struct {
	Source Provenance
	State  ProbeState
}

// Environ abstracts the mutable environment a locator mirrors credentials
// into. The default implementation is the process environment; tests inject
// a map so the mirroring side effects stay scoped and observable.
type Environ interface {
	Get(key string) string
	Set(key, value string)
	Unset(key string)
}

type processEnviron struct{}

func (processEnviron) Get(key string) string  { return os.Getenv(key) }
func (processEnviron) Set(key, value string)  { os.Setenv(key, value) }
func (processEnviron) Unset(key string)       { os.Unsetenv(key) }

// ProcessEnviron returns an Environ backed by the real process environment.
func ProcessEnviron() Environ { return processEnviron{} }

// MapEnviron is an in-memory Environ for tests.
type MapEnviron map[string]string

func (m MapEnviron) Get(key string) string { return m[key] }
func (m MapEnviron) Set(key, value string) { m[key] = value }
func (m MapEnviron) Unset(key string)      { delete(m, key) }

// Locator resolves credentials through the ordered source chain. One
// Locator is scoped to one onboarding run; its Environ carries the
// resolved-credential mirror for that run.
type Locator struct {
	envFilePath string
	homeDir     string
	workDir     string
	environ     Environ
}

// LocatorOption configures a Locator.
type LocatorOption func(*Locator)

// WithEnvFilePath overrides the canonical env file location.
func WithEnvFilePath(path string) LocatorOption {
	return func(l *Locator) { l.envFilePath = path }
}

// WithHomeDir overrides the home directory used for provider CLI files.
func WithHomeDir(dir string) LocatorOption {
	return func(l *Locator) { l.homeDir = dir }
}

// WithWorkDir overrides the project directory searched for a local .env.
func WithWorkDir(dir string) LocatorOption {
	return func(l *Locator) { l.workDir = dir }
}

// WithEnviron overrides the environment the locator reads and mirrors into.
func WithEnviron(env Environ) LocatorOption {
	return func(l *Locator) { l.environ = env }
}

// NewLocator creates a Locator with process defaults: canonical file at
// ~/.cortex/.env, the real process environment, and the current working
// directory as the project directory.
func NewLocator(opts ...LocatorOption) *Locator {
	l := &Locator{environ: ProcessEnviron()}

	if home, err := os.UserHomeDir(); err == nil {
		l.homeDir = home
		l.envFilePath = filepath.Join(home, ".cortex", ".env")
	}
	if wd, err := os.Getwd(); err == nil {
		l.workDir = wd
	}

	for _, opt := range opts {
		opt(l)
	}
	return l
}

// EnvFilePath returns the canonical env file path this locator reads.
func (l *Locator) EnvFilePath() string { return l.envFilePath }

// Environ returns the environment the locator mirrors into.
func (l *Locator) Environ() Environ { return l.environ }

// Locate searches the source chain for a format-valid credential named
// name belonging to kind. The first valid hit wins and the search stops.
// A nil credential means no usable value exists; the probes record what
// each consulted source held so "present but invalid" is distinguishable
// from "absent" in diagnostics.
//
// Side effects: a valid hit from a non-canonical source is mirrored into
// the environment so later lookups in the same run resolve in O(1). A
// blank canonical entry clears any mirrored value for the name, because
// the canonical file is the source of truth and blank means explicitly
// unset.
func (l *Locator) Locate(name string, kind provider.Kind) (*Credential, []Probe) {
	var probes []Probe

	// 1. Canonical env file.
	if l.envFilePath != "" {
		value, found, err := lookupEnvFile(l.envFilePath, name)
		switch {
		case err != nil:
			probes = append(probes, Probe{ProvenanceCanonicalFile, ProbeError})
		case found && strings.TrimSpace(value) == "":
			l.environ.Unset(name)
			probes = append(probes, Probe{ProvenanceCanonicalFile, ProbeBlank})
			return nil, probes
		case found && IsValidFormat(value, kind):
			probes = append(probes, Probe{ProvenanceCanonicalFile, ProbeValid})
			return &Credential{Name: name, Value: strings.TrimSpace(value), Kind: kind, Provenance: ProvenanceCanonicalFile}, probes
		case found:
			probes = append(probes, Probe{ProvenanceCanonicalFile, ProbeInvalid})
		default:
			probes = append(probes, Probe{ProvenanceCanonicalFile, ProbeAbsent})
		}
	}

	// 2. Process environment.
	if value := l.environ.Get(name); value != "" {
		if IsValidFormat(value, kind) {
			probes = append(probes, Probe{ProvenanceProcessEnv, ProbeValid})
			return &Credential{Name: name, Value: strings.TrimSpace(value), Kind: kind, Provenance: ProvenanceProcessEnv}, probes
		}
		probes = append(probes, Probe{ProvenanceProcessEnv, ProbeInvalid})
	} else {
		probes = append(probes, Probe{ProvenanceProcessEnv, ProbeAbsent})
	}

	// 3. Provider CLI credential files.
	if value, found := l.providerCLIValue(kind); found {
		if IsValidFormat(value, kind) {
			l.environ.Set(name, strings.TrimSpace(value))
			probes = append(probes, Probe{ProvenanceProviderCLI, ProbeValid})
			return &Credential{Name: name, Value: strings.TrimSpace(value), Kind: kind, Provenance: ProvenanceProviderCLI}, probes
		}
		probes = append(probes, Probe{ProvenanceProviderCLI, ProbeInvalid})
	} else {
		probes = append(probes, Probe{ProvenanceProviderCLI, ProbeAbsent})
	}

	// 4. Project-local .env.
	if l.workDir != "" {
		projectEnv := filepath.Join(l.workDir, ".env")
		value, found, err := lookupEnvFile(projectEnv, name)
		switch {
		case err != nil:
			probes = append(probes, Probe{ProvenanceProjectFile, ProbeError})
		case found && IsValidFormat(value, kind):
			l.environ.Set(name, strings.TrimSpace(value))
			probes = append(probes, Probe{ProvenanceProjectFile, ProbeValid})
			return &Credential{Name: name, Value: strings.TrimSpace(value), Kind: kind, Provenance: ProvenanceProjectFile}, probes
		case found:
			probes = append(probes, Probe{ProvenanceProjectFile, ProbeInvalid})
		default:
			probes = append(probes, Probe{ProvenanceProjectFile, ProbeAbsent})
		}
	}

	return nil, probes
}

// LocateForKind resolves the credential for a provider kind using the
// kind's conventional environment variable name.
func (l *Locator) LocateForKind(kind provider.Kind) (*Credential, []Probe) {
	name := kind.EnvVar()
	if name == "" {
		return nil, nil
	}
	return l.Locate(name, kind)
}

// HasValidCredential reports whether a format-valid credential exists for
// the kind. Satisfies provider.CredentialChecker.
func (l *Locator) HasValidCredential(kind provider.Kind) bool {
	if !kind.NeedsCredential() {
		return false
	}
	cred, _ := l.LocateForKind(kind)
	return cred != nil
}

// providerCLIValue reads the credential file maintained by the provider's
// own official CLI, if one exists.
func (l *Locator) providerCLIValue(kind provider.Kind) (string, bool) {
	if l.homeDir == "" {
		return "", false
	}
	switch kind {
	case provider.KindAnthropic:
		// Plain key file written by the Anthropic CLI.
		data, err := os.ReadFile(filepath.Join(l.homeDir, ".anthropic", "api_key"))
		if err != nil {
			return "", false
		}
		return strings.TrimSpace(string(data)), true
	case provider.KindOpenAI:
		// Codex CLI auth document.
		data, err := os.ReadFile(filepath.Join(l.homeDir, ".codex", "auth.json"))
		if err != nil {
			return "", false
		}
		var auth struct {
			OpenAIAPIKey string `json:"OPENAI_API_KEY"`
		}
		if err := json.Unmarshal(data, &auth); err != nil || auth.OpenAIAPIKey == "" {
			return "", false
		}
		return auth.OpenAIAPIKey, true
	default:
		return "", false
	}
}

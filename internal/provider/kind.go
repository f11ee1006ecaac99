// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider defines the AI backend kinds cortex can route to and
// the policy for deciding which one a user session should use.
//
// Three backends are supported:
//   - Anthropic (hosted, keyed with sk-ant-* API keys)
//   - OpenAI (hosted, keyed with sk-* API keys)
//   - Ollama (local model runner, no credential required)
package provider

// Kind identifies an AI backend.
type Kind int

const (
	// KindNone indicates no provider is selected or configured.
	KindNone Kind = iota
	// KindAnthropic is the hosted Anthropic API.
	KindAnthropic
	// KindOpenAI is the hosted OpenAI API.
	KindOpenAI
	// KindOllama is the local Ollama model runner.
	KindOllama
)

// CanonicalOrder is the fixed presentation and auto-selection order for
// provider kinds. Menus and non-interactive selection both follow it.
var CanonicalOrder = []Kind{KindAnthropic, KindOpenAI, KindOllama}

// Key prefixes for hosted provider API keys. AnthropicKeyPrefix is a strict
// superset of OpenAIKeyPrefix, so format checks for OpenAI must explicitly
// exclude Anthropic-shaped values.
const (
	AnthropicKeyPrefix = "sk-ant-"
	OpenAIKeyPrefix    = "sk-"
)

// String returns the config-file identifier for the kind.
func (k Kind) String() string {
	switch k {
	case KindAnthropic:
		return "anthropic"
	case KindOpenAI:
		return "openai"
	case KindOllama:
		return "ollama"
	case KindNone:
		return "none"
	default:
		return "unknown"
	}
}

// DisplayName returns the human-readable name shown in menus and status output.
func (k Kind) DisplayName() string {
	switch k {
	case KindAnthropic:
		return "Anthropic (Claude)"
	case KindOpenAI:
		return "OpenAI (GPT)"
	case KindOllama:
		return "Ollama (local)"
	default:
		return "None"
	}
}

// EnvVar returns the environment variable name carrying the kind's API key,
// or "" for kinds that need no credential.
func (k Kind) EnvVar() string {
	switch k {
	case KindAnthropic:
		return "ANTHROPIC_API_KEY"
	case KindOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// NeedsCredential reports whether the kind requires an API key to be usable.
func (k Kind) NeedsCredential() bool {
	return k == KindAnthropic || k == KindOpenAI
}

// ParseKind maps a config-file identifier back to a Kind.
// Unrecognized values map to KindNone.
func ParseKind(s string) Kind {
	switch s {
	case "anthropic":
		return KindAnthropic
	case "openai":
		return KindOpenAI
	case "ollama":
		return KindOllama
	default:
		return KindNone
	}
}

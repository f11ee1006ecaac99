// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package credential

import (
	"strings"

	"github.com/cortexlinux/cortex-cli/internal/provider"
)

// IsValidFormat reports whether raw has the expected shape for an API key
// of the given provider kind. This is a pure format check: a true result
// does not imply the key actually works, only that it is worth trying.
//
// Anthropic keys start with "sk-ant-". OpenAI keys start with "sk-" but an
// Anthropic-shaped value is explicitly rejected, since "sk-" is a strict
// prefix of "sk-ant-" and the longer match identifies the other provider.
// Kinds with no known convention accept any non-blank value.
func IsValidFormat(raw string, kind provider.Kind) bool {
	key := strings.TrimSpace(raw)
	if key == "" {
		return false
	}

	switch kind {
	case provider.KindAnthropic:
		return strings.HasPrefix(key, provider.AnthropicKeyPrefix)
	case provider.KindOpenAI:
		return strings.HasPrefix(key, provider.OpenAIKeyPrefix) &&
			!strings.HasPrefix(key, provider.AnthropicKeyPrefix)
	default:
		return true
	}
}

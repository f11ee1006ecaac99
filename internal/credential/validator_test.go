// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package credential

import (
	"testing"

	"github.com/cortexlinux/cortex-cli/internal/provider"
)

func TestIsValidFormat(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind provider.Kind
		want bool
	}{
		{"anthropic key", "sk-ant-x", provider.KindAnthropic, true},
		{"anthropic key with whitespace", "  sk-ant-abc123  ", provider.KindAnthropic, true},
		{"openai key rejected for anthropic", "sk-x", provider.KindAnthropic, false},
		{"openai key", "sk-x", provider.KindOpenAI, true},
		{"anthropic key rejected for openai", "sk-ant-x", provider.KindOpenAI, false},
		{"random string rejected for openai", "hunter2", provider.KindOpenAI, false},
		{"empty rejected", "", provider.KindAnthropic, false},
		{"whitespace only rejected", "   \t ", provider.KindOpenAI, false},
		{"no convention accepts anything non-blank", "whatever", provider.KindOllama, true},
		{"no convention rejects blank", "  ", provider.KindOllama, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidFormat(tt.raw, tt.kind); got != tt.want {
				t.Errorf("IsValidFormat(%q, %v) = %v, want %v", tt.raw, tt.kind, got, tt.want)
			}
		})
	}
}

// The "sk-" prefix is a strict prefix of "sk-ant-": a key must never be
// classified as belonging to both providers.
func TestIsValidFormat_PrefixExclusion(t *testing.T) {
	key := "sk-ant-x"
	if !IsValidFormat(key, provider.KindAnthropic) {
		t.Error("anthropic-shaped key should be valid for Anthropic")
	}
	if IsValidFormat(key, provider.KindOpenAI) {
		t.Error("anthropic-shaped key must not be valid for OpenAI")
	}
	if !IsValidFormat("sk-x", provider.KindOpenAI) {
		t.Error("plain sk- key should be valid for OpenAI")
	}
}

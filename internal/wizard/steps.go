// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package wizard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/cortexlinux/cortex-cli/internal/credential"
	"github.com/cortexlinux/cortex-cli/internal/detect"
	"github.com/cortexlinux/cortex-cli/internal/ollama"
	"github.com/cortexlinux/cortex-cli/internal/provider"
	"github.com/cortexlinux/cortex-cli/internal/shell"
)

// maxCredentialAttempts bounds the re-prompt loop for a malformed key.
const maxCredentialAttempts = 3

// =============================================================================
// WELCOME
// =============================================================================

func (m *Machine) stepWelcome() StepResult {
	m.ui.Say("Welcome to Cortex! This one-time setup configures your AI backend.")
	if m.interactive && !m.ui.Confirm("Set up Cortex now?", true) {
		return fail("setup cancelled")
	}
	return succeed("", nil)
}

// =============================================================================
// PROVIDER SETUP
// =============================================================================

func (m *Machine) stepProviderSetup(ctx context.Context) StepResult {
	available := m.detector.Detect()

	resolution, err := m.resolver.Resolve(available, m.run.provider, m.interactive)
	if err != nil {
		if errors.Is(err, provider.ErrNoProvider) {
			return fail(err.Error())
		}
		return fail(fmt.Sprintf("provider selection failed: %v", err))
	}

	if resolution.KeptCurrent {
		// Existing configuration stands; skip straight to the final
		// step so the config document and marker are still refreshed.
		return StepResult{
			Success:  true,
			Message:  fmt.Sprintf("Keeping current provider: %s", resolution.Kind.DisplayName()),
			Data:     map[string]any{"provider": resolution.Kind.String(), "kept_current": true},
			NextStep: stepPtr(StepComplete),
		}
	}

	kind := resolution.Kind
	m.run.provider = kind
	m.run.credConfigured = false

	if kind.NeedsCredential() {
		result := m.ensureCredential(ctx, kind)
		if !result.Success {
			return result
		}
		m.run.credConfigured = true
	} else if m.runner != nil {
		if err := m.runner.EnsureRunning(ctx); err != nil {
			m.ui.Say("Warning: could not reach the Ollama server: %v", err)
		}
	}

	return succeed(
		fmt.Sprintf("Provider configured: %s", kind.DisplayName()),
		map[string]any{
			"provider":              kind.String(),
			"credential_configured": m.run.credConfigured,
		},
	)
}

// ensureCredential finds or collects a credential for kind, persists a
// newly entered one, and verifies it against the live API. Verification
// failure fails the step; the persisted credential is kept so the user
// does not have to re-type it on the next run.
func (m *Machine) ensureCredential(ctx context.Context, kind provider.Kind) StepResult {
	var value string

	cred, _ := m.locator.LocateForKind(kind)
	if cred != nil {
		value = cred.Value
		m.ui.Say("Found %s credential (%s).", kind.DisplayName(), cred.Provenance)
	} else {
		if !m.interactive {
			return fail(fmt.Sprintf("no %s credential found; set %s and re-run setup",
				kind.DisplayName(), kind.EnvVar()))
		}
		entered, ok := m.promptForCredential(kind)
		if !ok {
			return fail("no valid credential entered")
		}
		value = entered

		outcome, err := m.store.Upsert(kind.EnvVar(), value)
		if err != nil {
			// Still usable for this process; the failed write must not
			// pass silently.
			m.ui.Say("Warning: could not persist credential (%s): %v", outcome, err)
			log.Printf("setup: credential persistence failed: %v", err)
		}
	}

	result, err := m.verifier.Verify(ctx, kind, value)
	if err != nil {
		detail := err.Error()
		if result != nil && result.Detail != "" {
			detail = result.Detail
		}
		return fail(fmt.Sprintf("%s credential verification failed: %s", kind.DisplayName(), detail))
	}
	if !result.Valid {
		return fail(fmt.Sprintf("%s rejected the credential: %s", kind.DisplayName(), result.Detail))
	}
	return succeed("", nil)
}

// promptForCredential collects a key interactively, re-prompting on
// format errors up to maxCredentialAttempts times.
func (m *Machine) promptForCredential(kind provider.Kind) (string, bool) {
	for attempt := 0; attempt < maxCredentialAttempts; attempt++ {
		raw, err := m.ui.PromptSecret(fmt.Sprintf("Enter your %s API key", kind.DisplayName()))
		if err != nil {
			return "", false
		}
		raw = strings.TrimSpace(raw)
		if credential.IsValidFormat(raw, kind) {
			return raw, true
		}
		m.ui.Say("That does not look like a %s key (expected prefix %q).",
			kind.DisplayName(), expectedPrefix(kind))
	}
	return "", false
}

func expectedPrefix(kind provider.Kind) string {
	switch kind {
	case provider.KindAnthropic:
		return provider.AnthropicKeyPrefix
	case provider.KindOpenAI:
		return provider.OpenAIKeyPrefix
	default:
		return ""
	}
}

// =============================================================================
// HARDWARE DETECTION
// =============================================================================

func (m *Machine) stepHardwareDetection(ctx context.Context) StepResult {
	profile := m.prober.Probe(ctx)
	recommendation := detect.Recommend(profile)

	m.run.hardware = profile
	m.run.recommendation = recommendation

	m.ui.Say("Hardware: %s", profile)
	if recommendation.LocalCapable {
		m.ui.Say("Local model recommendation: %s (%s)", recommendation.Model, recommendation.Reason)
	} else {
		m.ui.Say("Local models not recommended: %s", recommendation.Reason)
	}

	if m.run.provider == provider.KindOllama && recommendation.LocalCapable {
		m.maybePullModel(ctx, recommendation.Model)
	}

	return succeed("", map[string]any{
		"hardware":       profile,
		"recommendation": recommendation,
	})
}

// maybePullModel offers to download the recommended model. Pull failures
// are reported but never fail the step.
func (m *Machine) maybePullModel(ctx context.Context, model string) {
	if m.runner == nil || !m.interactive {
		return
	}
	if has, err := m.runner.HasModel(ctx, model); err != nil || has {
		return
	}
	if !m.ui.Confirm(fmt.Sprintf("Download recommended model %s now?", model), true) {
		return
	}

	m.ui.Say("Pulling %s...", model)
	var lastStatus string
	err := m.runner.Pull(ctx, model, func(p ollama.PullProgress) {
		if p.Status != lastStatus {
			lastStatus = p.Status
			m.ui.Say("  %s", p.Status)
		}
	})
	if err != nil {
		m.ui.Say("Warning: model download failed: %v", err)
		log.Printf("setup: model pull failed: %v", err)
	}
}

// =============================================================================
// PREFERENCES
// =============================================================================

func (m *Machine) stepPreferences() StepResult {
	prefs := m.run.prefs
	if prefs.Verbosity == "" {
		prefs = DefaultPreferences()
	}

	if m.interactive {
		prefs.AutoConfirm = m.ui.Confirm("Auto-confirm suggested commands?", prefs.AutoConfirm)
		prefs.Verbosity = m.selectVerbosity(prefs.Verbosity)
		prefs.CachingEnabled = m.ui.Confirm("Enable response caching?", prefs.CachingEnabled)
	}

	m.run.prefs = prefs
	return succeed("", map[string]any{"preferences": prefs})
}

// selectVerbosity shows a numbered menu; anything unparseable keeps the
// current setting.
func (m *Machine) selectVerbosity(current string) string {
	levels := []string{VerbosityQuiet, VerbosityNormal, VerbosityVerbose}
	answer, err := m.ui.Select("Output verbosity", levels)
	if err != nil {
		return current
	}
	idx, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || idx < 1 || idx > len(levels) {
		return current
	}
	return levels[idx-1]
}

// =============================================================================
// SHELL INTEGRATION
// =============================================================================

func (m *Machine) stepShellIntegration() StepResult {
	kind := shell.Detect()
	if kind == shell.KindUnknown {
		return skip("Could not determine your shell; skipping completion install.")
	}
	if m.interactive && !m.ui.Confirm(fmt.Sprintf("Install %s command completion?", kind), true) {
		return skip("Shell completion skipped.")
	}

	if m.homeDir == "" {
		return skip("Shell completion skipped: home directory unavailable.")
	}
	path, err := shell.InstallCompletion(kind, m.homeDir)
	if err != nil {
		log.Printf("setup: completion install failed: %v", err)
		return skip(fmt.Sprintf("Shell completion not installed: %v", err))
	}

	return succeed(
		fmt.Sprintf("Shell completion installed: %s", path),
		map[string]any{"shell": kind.String(), "completion_path": path},
	)
}

// =============================================================================
// TEST COMMAND
// =============================================================================

// stepTestCommand runs quick non-destructive checks of what setup just
// configured. Individual check failures are reported as warnings; the
// backend itself was already verified in the provider step.
func (m *Machine) stepTestCommand(ctx context.Context) StepResult {
	if m.run.provider == provider.KindOllama && m.runner != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := m.runner.Ping(pingCtx)
		cancel()
		if err != nil {
			m.ui.Say("Warning: Ollama server is not responding: %v", err)
		} else {
			m.ui.Say("Ollama server is up.")
		}
	}

	if m.daemon != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := m.daemon.Ping(pingCtx); err == nil {
			if err := m.daemon.ReloadConfig(pingCtx); err != nil {
				log.Printf("setup: daemon config reload failed: %v", err)
			} else {
				m.ui.Say("Notified running daemon of the new configuration.")
			}
		}
	}

	return succeed("Self-test finished.", nil)
}

// =============================================================================
// COMPLETE
// =============================================================================

// stepComplete writes the final configuration, creates the marker, then
// stamps the completion time. The order matters: anyone who observes the
// marker can rely on the config already being durably written.
func (m *Machine) stepComplete(state *State) StepResult {
	cfg := &SetupConfig{
		Provider:             m.run.provider.String(),
		CredentialConfigured: m.run.credConfigured,
		Hardware:             m.run.hardware,
		RecommendedModel:     m.run.recommendation.Model,
		Preferences:          m.run.prefs,
	}
	if err := cfg.Save(m.configDir); err != nil {
		return fail(fmt.Sprintf("failed to write configuration: %v", err))
	}

	if err := m.writeMarker(); err != nil {
		return fail(fmt.Sprintf("failed to write setup marker: %v", err))
	}

	if state.CompletedAt == nil {
		now := m.now()
		state.CompletedAt = &now
	}

	return succeed("Setup complete! Run `cortex help` to get started.", nil)
}

// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package wizard

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/cortexlinux/cortex-cli/internal/credential"
	"github.com/cortexlinux/cortex-cli/internal/daemon"
	"github.com/cortexlinux/cortex-cli/internal/detect"
	"github.com/cortexlinux/cortex-cli/internal/ollama"
	"github.com/cortexlinux/cortex-cli/internal/provider"
	"github.com/cortexlinux/cortex-cli/internal/shell"
	"github.com/cortexlinux/cortex-cli/internal/util"
	"github.com/cortexlinux/cortex-cli/internal/vault"
	"github.com/cortexlinux/cortex-cli/internal/verify"
)

// State and marker file names under the config directory.
const (
	stateFileName  = "wizard_state.json"
	markerFileName = ".setup_complete"
)

// UI is the terminal surface the machine talks through. Implementations
// must return the supplied default from Confirm when the user interrupts
// a prompt, so a cancelled prompt still leaves the step in a defined state.
type UI interface {
	Say(format string, args ...any)
	Confirm(prompt string, def bool) bool
	Select(title string, options []string) (string, error)
	PromptSecret(prompt string) (string, error)
}

// Verifier performs a live check of a credential against its provider.
type Verifier interface {
	Verify(ctx context.Context, kind provider.Kind, key string) (*verify.Result, error)
}

// HardwareProber collects the host hardware profile. Best-effort; never
// fails.
type HardwareProber interface {
	Probe(ctx context.Context) *detect.Profile
}

// runData is the typed view of what the steps collected this run. It
// mirrors what goes into State.CollectedData but keeps the final config
// write free of type assertions.
type runData struct {
	provider       provider.Kind
	credConfigured bool
	hardware       *detect.Profile
	recommendation detect.Recommendation
	prefs          Preferences
}

// Machine drives the setup sequence.
type Machine struct {
	configDir   string
	homeDir     string
	interactive bool

	locator  *credential.Locator
	store    *credential.Store
	detector *provider.Detector
	resolver *provider.Resolver
	verifier Verifier
	prober   HardwareProber
	runner   *ollama.Client
	daemon   *daemon.Client
	ui       UI
	now      func() time.Time

	run runData
}

// Option configures a Machine.
type Option func(*Machine)

func WithInteractive(interactive bool) Option {
	return func(m *Machine) { m.interactive = interactive }
}

// WithHomeDir overrides the user home directory used for shell
// integration and credential fallbacks.
func WithHomeDir(dir string) Option {
	return func(m *Machine) { m.homeDir = dir }
}

func WithLocator(l *credential.Locator) Option {
	return func(m *Machine) { m.locator = l }
}

func WithStore(s *credential.Store) Option {
	return func(m *Machine) { m.store = s }
}

func WithDetector(d *provider.Detector) Option {
	return func(m *Machine) { m.detector = d }
}

func WithResolver(r *provider.Resolver) Option {
	return func(m *Machine) { m.resolver = r }
}

func WithVerifier(v Verifier) Option {
	return func(m *Machine) { m.verifier = v }
}

func WithProber(p HardwareProber) Option {
	return func(m *Machine) { m.prober = p }
}

// WithLocalRunner sets the Ollama client. Nil disables local-runner
// integration (model pulls, server checks).
func WithLocalRunner(c *ollama.Client) Option {
	return func(m *Machine) { m.runner = c }
}

// WithDaemonClient sets the daemon control client. Nil disables the
// config-reload notification.
func WithDaemonClient(c *daemon.Client) Option {
	return func(m *Machine) { m.daemon = c }
}

func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// NewMachine wires a Machine for the given config directory. Collaborators
// not overridden by options get production defaults rooted in that
// directory.
func NewMachine(configDir string, ui UI, opts ...Option) *Machine {
	m := &Machine{
		configDir:   configDir,
		interactive: true,
		ui:          ui,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.homeDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			m.homeDir = home
		}
	}
	if m.locator == nil {
		m.locator = credential.NewLocator(
			credential.WithEnvFilePath(filepath.Join(configDir, ".env")),
		)
	}
	if m.store == nil {
		storeOpts := []credential.StoreOption{}
		if m.homeDir != "" {
			storeOpts = append(storeOpts, credential.WithProfileFallback(shell.NewProfile(m.homeDir)))
		}
		// The encrypted copy is strictly best-effort.
		if v, err := vault.Open(configDir); err == nil {
			storeOpts = append(storeOpts, credential.WithSecondaryStore(v))
		} else {
			log.Printf("setup: encrypted credential store unavailable: %v", err)
		}
		m.store = credential.NewStore(m.locator, storeOpts...)
	}
	if m.detector == nil {
		m.detector = provider.NewDetector(m.locator)
	}
	if m.resolver == nil {
		m.resolver = provider.NewResolver(ui.Select)
	}
	if m.verifier == nil {
		m.verifier = verify.New()
	}
	if m.prober == nil {
		m.prober = detect.NewProber()
	}
	return m
}

func (m *Machine) statePath() string {
	return filepath.Join(m.configDir, stateFileName)
}

func (m *Machine) markerPath() string {
	return filepath.Join(m.configDir, markerFileName)
}

// NeedsSetup reports whether setup should run: the marker's absence is
// the entire protocol, independent of any in-memory state.
func (m *Machine) NeedsSetup() bool {
	_, err := os.Stat(m.markerPath())
	return os.IsNotExist(err)
}

// Run executes the setup sequence. force bypasses the marker check.
// Returns nil on completion or when setup was already complete.
func (m *Machine) Run(ctx context.Context, force bool) error {
	if !force && !m.NeedsSetup() {
		m.ui.Say("Setup already complete. Run `cortex setup --force` to run again.")
		return nil
	}

	if err := os.MkdirAll(m.configDir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Prior config seeds the run so a "keep current" shortcut ends with
	// a full overwrite that preserves what was already configured.
	if cfg, err := LoadConfig(m.configDir); err == nil {
		m.run = runData{
			provider:       cfg.ProviderKind(),
			credConfigured: cfg.CredentialConfigured,
			hardware:       cfg.Hardware,
			recommendation: detect.Recommendation{Model: cfg.RecommendedModel},
			prefs:          cfg.Preferences,
		}
	} else {
		log.Printf("setup: ignoring unreadable config: %v", err)
		m.run = runData{prefs: DefaultPreferences()}
	}

	// Interrupted runs restart from the beginning; prior state is only
	// kept for inspection, never for mid-sequence resume.
	state := m.loadState()
	state.CurrentStep = StepWelcome

	for i := 0; i < len(StepOrder); {
		step := StepOrder[i]
		state.CurrentStep = step

		result := m.runStep(ctx, step, state)

		state.Merge(result.Data)
		switch {
		case result.Skipped:
			state.MarkSkipped(step)
		case result.Success:
			state.MarkCompleted(step)
		}
		if err := state.Save(m.statePath()); err != nil {
			log.Printf("setup: failed to persist progress: %v", err)
		}

		if result.Message != "" {
			m.ui.Say("%s", result.Message)
		}
		if !result.Success {
			return fmt.Errorf("setup halted at %s: %s", step, result.Message)
		}

		if result.NextStep != nil {
			i = stepIndex(*result.NextStep)
		} else {
			i++
		}
	}
	return nil
}

func (m *Machine) runStep(ctx context.Context, step Step, state *State) StepResult {
	switch step {
	case StepWelcome:
		return m.stepWelcome()
	case StepProviderSetup:
		return m.stepProviderSetup(ctx)
	case StepHardwareDetection:
		return m.stepHardwareDetection(ctx)
	case StepPreferences:
		return m.stepPreferences()
	case StepShellIntegration:
		return m.stepShellIntegration()
	case StepTestCommand:
		return m.stepTestCommand(ctx)
	case StepComplete:
		return m.stepComplete(state)
	default:
		return fail(fmt.Sprintf("unknown step %v", step))
	}
}

// loadState reads prior state, falling back to fresh state rather than
// refusing to run over a corrupt file.
func (m *Machine) loadState() *State {
	state, err := LoadState(m.statePath())
	if err != nil {
		log.Printf("setup: ignoring unreadable state file: %v", err)
		return NewState()
	}
	return state
}

// writeMarker creates the zero-byte setup-complete sentinel.
func (m *Machine) writeMarker() error {
	return util.AtomicWriteFile(m.markerPath(), []byte{}, 0o644)
}

func stepIndex(step Step) int {
	for i, s := range StepOrder {
		if s == step {
			return i
		}
	}
	return len(StepOrder)
}

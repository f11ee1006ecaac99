// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package wizard drives the first-run setup sequence: a fixed, linear
// series of steps with progress persisted after every step so an
// interrupted run leaves inspectable state behind. Resumption is always
// a full re-run from the beginning; the setup-complete marker is the
// only thing that stops setup from running again.
package wizard

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/cortexlinux/cortex-cli/internal/util"
)

// =============================================================================
// STEPS
// =============================================================================

// Step is one stage of the setup sequence.
type Step int

const (
	StepWelcome Step = iota
	StepProviderSetup
	StepHardwareDetection
	StepPreferences
	StepShellIntegration
	StepTestCommand
	StepComplete
)

// StepOrder is the fixed sequence setup walks through. Linear, no
// branching except a step's explicit next-step override.
var StepOrder = []Step{
	StepWelcome,
	StepProviderSetup,
	StepHardwareDetection,
	StepPreferences,
	StepShellIntegration,
	StepTestCommand,
	StepComplete,
}

func (s Step) String() string {
	switch s {
	case StepWelcome:
		return "welcome"
	case StepProviderSetup:
		return "provider_setup"
	case StepHardwareDetection:
		return "hardware_detection"
	case StepPreferences:
		return "preferences"
	case StepShellIntegration:
		return "shell_integration"
	case StepTestCommand:
		return "test_command"
	case StepComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// ParseStep maps a serialized step name back to its Step.
func ParseStep(s string) (Step, error) {
	for _, step := range StepOrder {
		if step.String() == s {
			return step, nil
		}
	}
	return StepWelcome, fmt.Errorf("unknown setup step %q", s)
}

// MarshalJSON serializes steps by name so the state file stays readable
// and stable across releases.
func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Step) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	step, err := ParseStep(name)
	if err != nil {
		return err
	}
	*s = step
	return nil
}

// =============================================================================
// STATE
// =============================================================================

// State is the persisted progress of one setup run.
type State struct {
	RunID          string         `json:"run_id"`
	CurrentStep    Step           `json:"current_step"`
	CompletedSteps []Step         `json:"completed_steps"`
	SkippedSteps   []Step         `json:"skipped_steps"`
	CollectedData  map[string]any `json:"collected_data"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}

// NewState creates fresh state for a run starting now.
func NewState() *State {
	return &State{
		RunID:         uuid.NewString(),
		CurrentStep:   StepWelcome,
		CollectedData: make(map[string]any),
		StartedAt:     time.Now(),
	}
}

// MarkCompleted records a step as completed, keeping both sets
// duplicate-free and mutually exclusive.
func (s *State) MarkCompleted(step Step) {
	s.SkippedSteps = removeStep(s.SkippedSteps, step)
	if !containsStep(s.CompletedSteps, step) {
		s.CompletedSteps = append(s.CompletedSteps, step)
	}
}

// MarkSkipped records a step as skipped. A step already completed stays
// completed.
func (s *State) MarkSkipped(step Step) {
	if containsStep(s.CompletedSteps, step) {
		return
	}
	if !containsStep(s.SkippedSteps, step) {
		s.SkippedSteps = append(s.SkippedSteps, step)
	}
}

// Merge folds a step's data payload into the collected data.
func (s *State) Merge(data map[string]any) {
	for k, v := range data {
		s.CollectedData[k] = v
	}
}

func containsStep(steps []Step, step Step) bool {
	for _, s := range steps {
		if s == step {
			return true
		}
	}
	return false
}

func removeStep(steps []Step, step Step) []Step {
	out := steps[:0]
	for _, s := range steps {
		if s != step {
			out = append(out, s)
		}
	}
	return out
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// LoadState reads persisted state. Unknown fields are ignored; a missing
// start timestamp defaults to now. A missing file returns fresh state.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("failed to read setup state: %w", err)
	}

	state := &State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to parse setup state: %w", err)
	}
	if state.CollectedData == nil {
		state.CollectedData = make(map[string]any)
	}
	if state.RunID == "" {
		state.RunID = uuid.NewString()
	}
	if state.StartedAt.IsZero() {
		state.StartedAt = time.Now()
	}
	return state, nil
}

// Save persists the state atomically.
func (s *State) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode setup state: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write setup state: %w", err)
	}
	return nil
}

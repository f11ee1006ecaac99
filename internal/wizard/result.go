// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package wizard

// StepResult is what a step hands back to the machine.
type StepResult struct {
	// Success false halts the run; state written so far is kept for
	// inspection on the next invocation.
	Success bool

	// Skipped marks the step as deliberately passed over. A skipped
	// step does not halt the run.
	Skipped bool

	// Message is shown to the user, success or not.
	Message string

	// Data is merged into the run's collected data.
	Data map[string]any

	// NextStep overrides the linear sequence when set. Used sparingly:
	// keeping an existing configuration jumps straight to the final step.
	NextStep *Step
}

func succeed(message string, data map[string]any) StepResult {
	return StepResult{Success: true, Message: message, Data: data}
}

func skip(message string) StepResult {
	return StepResult{Success: true, Skipped: true, Message: message}
}

func fail(message string) StepResult {
	return StepResult{Success: false, Message: message}
}

func stepPtr(s Step) *Step { return &s }

// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// prompt.go - Interactive prompt helpers for setup and other commands.

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Terminal is the interactive console surface. It satisfies the setup
// flow's UI contract: prompts that are interrupted or hit end-of-input
// resolve to their default answer instead of propagating an error, so a
// cancelled prompt leaves the caller in a defined state.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal returns a Terminal on stdin/stdout.
func NewTerminal() *Terminal {
	return &Terminal{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
	}
}

// NewTerminalWith returns a Terminal on explicit streams, for tests.
func NewTerminalWith(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

// Say prints a line to the user.
func (t *Terminal) Say(format string, args ...any) {
	fmt.Fprintf(t.out, format+"\n", args...)
}

// Confirm asks a yes/no question. Empty input, end-of-input, or an
// unrecognized answer all resolve to the default.
func (t *Terminal) Confirm(prompt string, def bool) bool {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(t.out, "%s [%s] ", prompt, hint)

	line, err := t.in.ReadString('\n')
	if err != nil {
		fmt.Fprintln(t.out)
		return def
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}

// Select prints a numbered menu and returns the user's raw answer. The
// caller parses and range-checks it.
func (t *Terminal) Select(title string, options []string) (string, error) {
	fmt.Fprintln(t.out, RenderConditional(TitleStyle, title))
	for i, option := range options {
		fmt.Fprintf(t.out, "  %d) %s\n", i+1, option)
	}
	fmt.Fprintf(t.out, "Choice: ")

	line, err := t.in.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read selection: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// PromptSecret reads a value without echoing it when stdin is a
// terminal. Falls back to a plain read when it is not (tests, pipes).
func (t *Terminal) PromptSecret(prompt string) (string, error) {
	fmt.Fprintf(t.out, "%s: ", prompt)

	if IsTTY() {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(t.out)
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}

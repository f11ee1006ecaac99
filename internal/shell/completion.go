// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"fmt"
	"os"
	"path/filepath"
)

// subcommands completed by the generated scripts. Kept in one place so
// the three scripts stay in sync with the argument parser.
const subcommandList = "setup status config daemon completion help version"

const bashCompletion = `# bash completion for cortex
_cortex() {
    local cur="${COMP_WORDS[COMP_CWORD]}"
    if [ "$COMP_CWORD" -eq 1 ]; then
        COMPREPLY=( $(compgen -W "` + subcommandList + `" -- "$cur") )
    fi
}
complete -F _cortex cortex
`

const zshCompletion = `#compdef cortex
_cortex() {
    local -a subcmds
    subcmds=(` + subcommandList + `)
    _describe 'command' subcmds
}
_cortex "$@"
`

const fishCompletion = `# fish completion for cortex
complete -c cortex -f
for cmd in ` + subcommandList + `
    complete -c cortex -n "__fish_use_subcommand" -a $cmd
end
`

// CompletionScript returns the completion script for the shell.
func CompletionScript(kind Kind) (string, error) {
	switch kind {
	case KindBash:
		return bashCompletion, nil
	case KindZsh:
		return zshCompletion, nil
	case KindFish:
		return fishCompletion, nil
	default:
		return "", fmt.Errorf("no completion script for shell %q", kind)
	}
}

// completionPath returns where the script is installed for the shell.
func completionPath(kind Kind, homeDir string) (string, error) {
	switch kind {
	case KindBash:
		return filepath.Join(homeDir, ".local", "share", "bash-completion", "completions", "cortex"), nil
	case KindZsh:
		return filepath.Join(homeDir, ".zsh", "completions", "_cortex"), nil
	case KindFish:
		return filepath.Join(homeDir, ".config", "fish", "completions", "cortex.fish"), nil
	default:
		return "", fmt.Errorf("no completion path for shell %q", kind)
	}
}

// InstallCompletion writes the completion script to the shell's user
// completion directory and returns the installed path.
func InstallCompletion(kind Kind, homeDir string) (string, error) {
	script, err := CompletionScript(kind)
	if err != nil {
		return "", err
	}
	path, err := completionPath(kind, homeDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create completion directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		return "", fmt.Errorf("failed to write completion script: %w", err)
	}
	return path, nil
}

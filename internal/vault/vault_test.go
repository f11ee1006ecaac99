// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVault_PutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	v, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, v.Put("ANTHROPIC_API_KEY", "sk-ant-test123"))

	got, err := v.Get("ANTHROPIC_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-test123", got)
}

func TestVault_FileIsNotPlaintext(t *testing.T) {
	dir := t.TempDir()
	v, err := Open(dir)
	require.NoError(t, err)

	secret := "sk-ant-very-secret-value"
	require.NoError(t, v.Put("ANTHROPIC_API_KEY", secret))

	raw, err := os.ReadFile(filepath.Join(dir, "vault.enc"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), secret)
	assert.NotContains(t, string(raw), "ANTHROPIC_API_KEY")
}

func TestVault_PersistsAcrossOpens(t *testing.T) {
	dir := t.TempDir()

	v1, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, v1.Put("OPENAI_API_KEY", "sk-persisted"))

	v2, err := Open(dir)
	require.NoError(t, err)
	got, err := v2.Get("OPENAI_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk-persisted", got)
}

func TestVault_PutReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	v, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, v.Put("ANTHROPIC_API_KEY", "sk-ant-old"))
	require.NoError(t, v.Put("ANTHROPIC_API_KEY", "sk-ant-new"))

	got, err := v.Get("ANTHROPIC_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-new", got)
}

func TestVault_GetMissing(t *testing.T) {
	dir := t.TempDir()
	v, err := Open(dir)
	require.NoError(t, err)

	_, err = v.Get("NO_SUCH_KEY")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVault_Delete(t *testing.T) {
	dir := t.TempDir()
	v, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, v.Put("ANTHROPIC_API_KEY", "sk-ant-x"))
	require.NoError(t, v.Delete("ANTHROPIC_API_KEY"))

	_, err = v.Get("ANTHROPIC_API_KEY")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again is not an error.
	require.NoError(t, v.Delete("ANTHROPIC_API_KEY"))
}

func TestVault_KeyFilePermissions(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(dir)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, ".vault_key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestVault_PasswordDerivedKey(t *testing.T) {
	dir := t.TempDir()

	v1, err := OpenWithPassword(dir, "correct horse battery")
	require.NoError(t, err)
	require.NoError(t, v1.Put("ANTHROPIC_API_KEY", "sk-ant-pw"))

	// Same password reads it back.
	v2, err := OpenWithPassword(dir, "correct horse battery")
	require.NoError(t, err)
	got, err := v2.Get("ANTHROPIC_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-pw", got)

	// Wrong password fails authentication.
	v3, err := OpenWithPassword(dir, "wrong password")
	require.NoError(t, err)
	_, err = v3.Get("ANTHROPIC_API_KEY")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestVault_TamperedFileFailsAuthentication(t *testing.T) {
	dir := t.TempDir()
	v, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, v.Put("ANTHROPIC_API_KEY", "sk-ant-x"))

	path := filepath.Join(dir, "vault.enc")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	_, err = v.Get("ANTHROPIC_API_KEY")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package credential

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexlinux/cortex-cli/internal/provider"
)

type fakeProfile struct {
	exports []string
	fail    bool
}

func (f *fakeProfile) AppendExport(name, value string) error {
	if f.fail {
		return errors.New("profile not writable")
	}
	f.exports = append(f.exports, name+"="+value)
	return nil
}

type fakeSecondary struct {
	entries map[string]string
	fail    bool
}

func (f *fakeSecondary) Put(name, value string) error {
	if f.fail {
		return errors.New("vault unavailable")
	}
	if f.entries == nil {
		f.entries = make(map[string]string)
	}
	f.entries[name] = value
	return nil
}

func testStore(t *testing.T, env MapEnviron, opts ...StoreOption) (*Store, string) {
	t.Helper()
	envFile := filepath.Join(t.TempDir(), ".env")
	loc := NewLocator(WithEnvFilePath(envFile), WithEnviron(env))
	return NewStore(loc, opts...), envFile
}

func TestUpsert_AppendsNewEntry(t *testing.T) {
	env := MapEnviron{}
	store, envFile := testStore(t, env)

	outcome, err := store.Upsert("ANTHROPIC_API_KEY", "sk-ant-abc")
	require.NoError(t, err)
	assert.Equal(t, StoredCanonical, outcome)

	data, _ := os.ReadFile(envFile)
	assert.Equal(t, "ANTHROPIC_API_KEY=\"sk-ant-abc\"\n", string(data))
	assert.Equal(t, "sk-ant-abc", env.Get("ANTHROPIC_API_KEY"),
		"upsert must mirror into the run's environment")
}

func TestUpsert_ReplacesExistingLine(t *testing.T) {
	store, envFile := testStore(t, MapEnviron{})

	_, err := store.Upsert("OPENAI_API_KEY", "sk-v1")
	require.NoError(t, err)
	_, err = store.Upsert("OPENAI_API_KEY", "sk-v2")
	require.NoError(t, err)

	data, _ := os.ReadFile(envFile)
	assert.Equal(t, 1, strings.Count(string(data), "OPENAI_API_KEY="),
		"exactly one line per name")
	assert.Contains(t, string(data), `OPENAI_API_KEY="sk-v2"`)
	assert.NotContains(t, string(data), "sk-v1")
}

func TestUpsert_PreservesUnrelatedLines(t *testing.T) {
	store, envFile := testStore(t, MapEnviron{})
	writeFile(t, envFile, "# cortex credentials\nOTHER=keep\n\nOPENAI_API_KEY=\"old\"\nTRAILING=also-keep\n")

	_, err := store.Upsert("OPENAI_API_KEY", "sk-new")
	require.NoError(t, err)

	data, _ := os.ReadFile(envFile)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 5, "comments, blanks and unrelated entries survive in order")
	assert.Equal(t, "# cortex credentials", lines[0])
	assert.Equal(t, "OTHER=keep", lines[1])
	assert.Equal(t, "", lines[2])
	assert.Equal(t, `OPENAI_API_KEY="sk-new"`, lines[3])
	assert.Equal(t, "TRAILING=also-keep", lines[4])
}

func TestUpsert_CollapsesDuplicates(t *testing.T) {
	store, envFile := testStore(t, MapEnviron{})
	writeFile(t, envFile, "KEY=a\nKEY=b\n")

	_, err := store.Upsert("KEY", "c")
	require.NoError(t, err)

	data, _ := os.ReadFile(envFile)
	assert.Equal(t, "KEY=\"c\"\n", string(data))
}

func TestUpsert_ProfileFallback(t *testing.T) {
	env := MapEnviron{}
	profile := &fakeProfile{}
	// Point the env file at a path whose parent is a file, forcing the write
	// to fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	loc := NewLocator(WithEnvFilePath(filepath.Join(blocker, ".env")), WithEnviron(env))
	store := NewStore(loc, WithProfileFallback(profile))

	outcome, err := store.Upsert("OPENAI_API_KEY", "sk-abc")
	require.NoError(t, err)
	assert.Equal(t, StoredProfile, outcome)
	require.Len(t, profile.exports, 1)
	assert.Equal(t, "OPENAI_API_KEY=sk-abc", profile.exports[0])
	assert.Equal(t, "sk-abc", env.Get("OPENAI_API_KEY"))
}

func TestUpsert_ProcessOnlyReportsError(t *testing.T) {
	env := MapEnviron{}
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	loc := NewLocator(WithEnvFilePath(filepath.Join(blocker, ".env")), WithEnviron(env))
	store := NewStore(loc, WithProfileFallback(&fakeProfile{fail: true}))

	outcome, err := store.Upsert("OPENAI_API_KEY", "sk-abc")
	assert.Equal(t, StoredProcessOnly, outcome)
	assert.Error(t, err, "total persistence failure must be reported")
	assert.Equal(t, "sk-abc", env.Get("OPENAI_API_KEY"),
		"credential stays usable for the current process")
}

func TestUpsert_SecondaryStoreFailureNonFatal(t *testing.T) {
	store, _ := testStore(t, MapEnviron{}, WithSecondaryStore(&fakeSecondary{fail: true}))

	outcome, err := store.Upsert("ANTHROPIC_API_KEY", "sk-ant-abc")
	require.NoError(t, err, "secondary store failure must not affect the primary outcome")
	assert.Equal(t, StoredCanonical, outcome)
}

func TestUpsert_SecondaryStoreReceivesCopy(t *testing.T) {
	sec := &fakeSecondary{}
	store, _ := testStore(t, MapEnviron{}, WithSecondaryStore(sec))

	_, err := store.Upsert("ANTHROPIC_API_KEY", "sk-ant-abc")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-abc", sec.entries["ANTHROPIC_API_KEY"])
}

// Upsert then Locate round-trip: the stored value becomes the effective
// credential with canonical-file provenance.
func TestUpsertLocate_RoundTrip(t *testing.T) {
	env := MapEnviron{}
	envFile := filepath.Join(t.TempDir(), ".env")
	loc := NewLocator(WithEnvFilePath(envFile), WithHomeDir(t.TempDir()), WithWorkDir(t.TempDir()), WithEnviron(env))
	store := NewStore(loc)

	_, err := store.Upsert("ANTHROPIC_API_KEY", "sk-ant-round")
	require.NoError(t, err)

	cred, _ := loc.Locate("ANTHROPIC_API_KEY", provider.KindAnthropic)
	require.NotNil(t, cred)
	assert.Equal(t, "sk-ant-round", cred.Value)
	assert.Equal(t, ProvenanceCanonicalFile, cred.Provenance)
}

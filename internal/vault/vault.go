// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package vault is the secondary credential store: an encrypted JSON
// document under ~/.cortex that receives a copy of every persisted
// credential, independent of the plain-text canonical env file. The
// canonical file remains the source of truth; this store exists for
// longer-term persistence and survives env file edits. All failures here
// are reported to callers but treated as non-fatal by the onboarding core.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pbkdf2"

	"github.com/cortexlinux/cortex-cli/internal/util"
)

const (
	// nonceSize is the AES-GCM nonce size (96 bits).
	nonceSize = 12
	// keySize is the AES-256 key size.
	keySize = 32
	// saltSize is the key-derivation salt size.
	saltSize = 32
	// pbkdf2Iterations follows OWASP guidance for PBKDF2-SHA-256.
	pbkdf2Iterations = 600000
)

var (
	// ErrDecryptionFailed indicates a wrong key or tampered vault file.
	ErrDecryptionFailed = errors.New("vault decryption failed: authentication tag mismatch")
	// ErrNotFound indicates the named credential is not in the vault.
	ErrNotFound = errors.New("credential not found in vault")
)

// Vault is an encrypted name→value credential document.
type Vault struct {
	path     string
	keyPath  string
	saltPath string
	aead     cipher.AEAD
}

// Open opens (or initializes) the vault under dir. A random master key is
// generated on first use and stored beside the vault with 0600 permissions;
// platforms with OS key services can replace the file keystore later.
func Open(dir string) (*Vault, error) {
	v := &Vault{
		path:     filepath.Join(dir, "vault.enc"),
		keyPath:  filepath.Join(dir, ".vault_key"),
		saltPath: filepath.Join(dir, ".vault_salt"),
	}

	key, err := v.loadOrCreateKey()
	if err != nil {
		return nil, err
	}
	defer zeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}
	v.aead = aead
	return v, nil
}

// OpenWithPassword opens the vault with a key derived from a password
// instead of the stored master key file.
func OpenWithPassword(dir, password string) (*Vault, error) {
	v := &Vault{
		path:     filepath.Join(dir, "vault.enc"),
		saltPath: filepath.Join(dir, ".vault_salt"),
	}

	salt, err := v.loadOrCreateSalt()
	if err != nil {
		return nil, err
	}

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keySize, sha256.New)
	defer zeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}
	v.aead = aead
	return v, nil
}

// Put stores or replaces a credential in the vault.
func (v *Vault) Put(name, value string) error {
	entries, err := v.readAll()
	if err != nil {
		return err
	}
	entries[name] = value
	return v.writeAll(entries)
}

// Get retrieves a credential from the vault.
func (v *Vault) Get(name string) (string, error) {
	entries, err := v.readAll()
	if err != nil {
		return "", err
	}
	value, ok := entries[name]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Delete removes a credential from the vault. Deleting a missing name is
// not an error.
func (v *Vault) Delete(name string) error {
	entries, err := v.readAll()
	if err != nil {
		return err
	}
	delete(entries, name)
	return v.writeAll(entries)
}

func (v *Vault) readAll() (map[string]string, error) {
	data, err := os.ReadFile(v.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to read vault: %w", err)
	}

	plaintext, err := v.decrypt(data)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]string)
	if err := json.Unmarshal(plaintext, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode vault contents: %w", err)
	}
	return entries, nil
}

func (v *Vault) writeAll(entries map[string]string) error {
	plaintext, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode vault contents: %w", err)
	}

	ciphertext, err := v.encrypt(plaintext)
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(v.path, ciphertext, 0o600)
}

// encrypt seals plaintext as nonce || ciphertext || tag.
func (v *Vault) encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return v.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (v *Vault) decrypt(data []byte) ([]byte, error) {
	if len(data) < nonceSize {
		return nil, ErrDecryptionFailed
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := v.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// loadOrCreateKey loads the master key, generating fresh random bytes on
// first use. Password-derived keys go through OpenWithPassword instead.
func (v *Vault) loadOrCreateKey() ([]byte, error) {
	if key, err := os.ReadFile(v.keyPath); err == nil {
		if len(key) != keySize {
			return nil, fmt.Errorf("vault key file is corrupt (got %d bytes)", len(key))
		}
		return key, nil
	}

	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(v.keyPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}
	if err := util.AtomicWriteFile(v.keyPath, key, 0o600); err != nil {
		return nil, fmt.Errorf("failed to store master key: %w", err)
	}
	return key, nil
}

func (v *Vault) loadOrCreateSalt() ([]byte, error) {
	if salt, err := os.ReadFile(v.saltPath); err == nil {
		if len(salt) != saltSize {
			return nil, fmt.Errorf("vault salt file is corrupt (got %d bytes)", len(salt))
		}
		return salt, nil
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(v.saltPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}
	if err := util.AtomicWriteFile(v.saltPath, salt, 0o600); err != nil {
		return nil, fmt.Errorf("failed to store salt: %w", err)
	}
	return salt, nil
}

// zeroBytes wipes key material after use.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// SPDX-License-Identifier: Apache-2.0
package gpg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

const (
	// DefaultKeyLength is the RSA modulus size for new key pairs
	DefaultKeyLength = 4096

	// KeysFileName is the store file holding armored public and secret material
	KeysFileName = ".keys"
)

const keyGenTemplate = `Key-Type: RSA
Key-Length: %[1]d
Subkey-Type: RSA
Subkey-Length: %[1]d
Name-Comment: Auto-generated by Strongbox
Passphrase: %[2]s
Name-Real: Strongbox
Name-Email: strongbox@local
Expire-Date: 0
%%commit
`

// BuildKeyGenScript renders the batch script for --gen-key. It is the only
// channel carrying the passphrase into key generation and is always piped.
func BuildKeyGenScript(passphrase string, keyLength int) string {
	return fmt.Sprintf(keyGenTemplate, keyLength, passphrase)
}

// validatePassphrase rejects passphrases that would change the meaning of a
// batch script
func validatePassphrase(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("%w: empty passphrase", ErrInvalidPassphrase)
	}
	if strings.ContainsAny(passphrase, "\r\n") {
		return fmt.Errorf("%w: passphrase must be a single line", ErrInvalidPassphrase)
	}
	// gpg trims batch script values
	if strings.TrimSpace(passphrase) != passphrase {
		return fmt.Errorf("%w: passphrase must not start or end with whitespace", ErrInvalidPassphrase)
	}
	return nil
}

// KeyManager generates, exports and imports key material
type KeyManager struct {
	invoker
}

// NewKeyManager creates a KeyManager. Only Tool, Runner and Logger are used.
func NewKeyManager(opts Options) *KeyManager {
	return &KeyManager{invoker: newInvoker(opts)}
}

// Generate creates a key pair inside a throwaway keyring.
//
// With a destination, the public and secret material is exported to a single
// file which is moved to destination/.keys, and no output is returned.
// Without one, the tool's diagnostic output is returned and the keyring is
// discarded. A failed generation is returned as *SubprocessError.
func (m *KeyManager) Generate(ctx context.Context, passphrase string, keyLength int, destination string) ([]byte, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	if err := validatePassphrase(passphrase); err != nil {
		return nil, err
	}
	if keyLength <= 0 {
		keyLength = DefaultKeyLength
	}

	var output []byte
	err := m.withTempHomedir(ctx, "keygen", func(homedir string) error {
		script := BuildKeyGenScript(passphrase, keyLength)
		res, err := m.call(ctx, "gen-key", genKeyArgs(m.tool, homedir), []byte(script))
		if err != nil {
			return err
		}
		if res.Failed() {
			return &SubprocessError{Op: "gen-key", ExitCode: res.ExitCode, Stderr: string(res.Stderr)}
		}

		if destination == "" {
			output = append(append(output, res.Stdout...), res.Stderr...)
			return nil
		}
		return m.relocate(ctx, homedir, passphrase, destination)
	})
	if err != nil {
		return nil, err
	}
	return output, nil
}

// relocate exports the generated pair and moves it to destination/.keys
func (m *KeyManager) relocate(ctx context.Context, homedir, passphrase, destination string) error {
	public, err := m.Export(ctx, homedir, false)
	if err != nil {
		return err
	}
	secret, err := m.ExportSecret(ctx, homedir, passphrase)
	if err != nil {
		return err
	}
	if len(public) == 0 || len(secret) == 0 {
		return &SubprocessError{Op: "export", Stderr: "no key material exported"}
	}

	staged := filepath.Join(homedir, "keys")
	if err := os.WriteFile(staged, append(public, secret...), 0600); err != nil {
		return fmt.Errorf("failed to write key material: %w", err)
	}

	if err := os.MkdirAll(destination, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", destination, err)
	}
	target := filepath.Join(destination, KeysFileName)
	if err := moveFile(staged, target); err != nil {
		return fmt.Errorf("failed to move key material to %s: %w", target, err)
	}

	m.logger.Debug("Stored key material", "path", target)
	return nil
}

// Export returns the armored key material of homedir. Secret material on a
// 2.1+ tool usually needs its passphrase; use ExportSecret for that.
func (m *KeyManager) Export(ctx context.Context, homedir string, secret bool) ([]byte, error) {
	return m.export(ctx, homedir, secret, "")
}

// ExportSecret exports secret material, piping passphrase to tools that
// need it to unlock the keys
func (m *KeyManager) ExportSecret(ctx context.Context, homedir, passphrase string) ([]byte, error) {
	return m.export(ctx, homedir, true, passphrase)
}

func (m *KeyManager) export(ctx context.Context, homedir string, secret bool, passphrase string) ([]byte, error) {
	if err := m.check(); err != nil {
		return nil, err
	}

	var input []byte
	piped := secret && passphrase != "" && m.tool.NeedsLoopback()
	if piped {
		input = []byte(passphrase + "\n")
	}

	res, err := m.call(ctx, "export", exportArgs(m.tool, homedir, secret, piped), input)
	if err != nil {
		return nil, err
	}
	return res.Stdout, nil
}

// Import loads the key material at keysPath into homedir. Tool failures are
// logged, not returned.
func (m *KeyManager) Import(ctx context.Context, homedir, keysPath string) ([]byte, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	return m.importKeys(ctx, homedir, keysPath)
}

func (iv invoker) importKeys(ctx context.Context, homedir, keysPath string) ([]byte, error) {
	res, err := iv.call(ctx, "import", importArgs(iv.tool, homedir, keysPath), nil)
	if err != nil {
		return nil, err
	}
	return res.Stdout, nil
}

// moveFile renames src to dst, copying through a sibling of dst when the two
// are on different filesystems so that dst still appears atomically
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return err
	}
	return os.Remove(src)
}

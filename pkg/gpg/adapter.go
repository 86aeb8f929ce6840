// SPDX-License-Identifier: Apache-2.0
package gpg

import (
	"context"
	"fmt"
	"os"
)

// Adapter encrypts and decrypts credential records through gpg.
//
// Encrypt and Decrypt run against the persistent keyring. Concurrent use of
// one persistent keyring, from one Adapter or several, is unsupported: it is
// only as safe as gpg's own file locking.
type Adapter struct {
	invoker
	resolver       *Resolver
	homedir        string
	storePath      string
	passphraseFile bool
}

// NewAdapter creates an Adapter
func NewAdapter(opts Options) *Adapter {
	return &Adapter{
		invoker:        newInvoker(opts),
		resolver:       NewResolver(opts),
		homedir:        opts.Homedir,
		storePath:      opts.StorePath,
		passphraseFile: opts.PassphraseFile,
	}
}

// Resolver returns the recipient resolver the adapter uses
func (a *Adapter) Resolver() *Resolver {
	return a.resolver
}

// Encrypt returns plaintext encrypted and armored for the public-key
// recipient. Tool failures are logged; whatever the tool wrote to stdout is
// returned, so empty output must be treated as failure by the caller.
func (a *Adapter) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	if err := a.check(); err != nil {
		return nil, err
	}
	recipient, err := a.resolver.Resolve(ctx, false)
	if err != nil {
		return nil, err
	}

	res, err := a.call(ctx, "encrypt", encryptArgs(a.tool, recipient, a.homedir), plaintext)
	if err != nil {
		return nil, err
	}
	return res.Stdout, nil
}

// Decrypt returns the plaintext of ciphertext. The passphrase is passed as a
// process argument unless the adapter was configured with PassphraseFile.
// A wrong passphrase is logged and yields empty output, not an error.
func (a *Adapter) Decrypt(ctx context.Context, ciphertext []byte, passphrase string) ([]byte, error) {
	if err := a.check(); err != nil {
		return nil, err
	}
	recipient, err := a.resolver.Resolve(ctx, true)
	if err != nil {
		return nil, err
	}

	pass := passphraseArg{flag: "--passphrase", value: passphrase}
	if a.passphraseFile {
		path, cleanup, err := writePassphraseFile(passphrase)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		pass = passphraseArg{flag: "--passphrase-file", value: path}
	}

	res, err := a.call(ctx, "decrypt", decryptArgs(a.tool, recipient, a.homedir, pass), ciphertext)
	if err != nil {
		return nil, err
	}
	return res.Stdout, nil
}

func (a *Adapter) String() string {
	return fmt.Sprintf("GPG(path=%s, homedir=%s)", a.storePath, a.homedir)
}

// writePassphraseFile stores passphrase in a 0600 temporary file
func writePassphraseFile(passphrase string) (string, func(), error) {
	f, err := os.CreateTemp("", TempHomedirPrefix+"passphrase-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create passphrase file: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }

	if _, err := f.WriteString(passphrase); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write passphrase: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to write passphrase: %w", err)
	}
	return f.Name(), cleanup, nil
}

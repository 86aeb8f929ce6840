// SPDX-License-Identifier: Apache-2.0
package gpg

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Ten groups of four hex digits, whitespace allowed between groups
var fingerprintPattern = regexp.MustCompile(`(?:[0-9A-F]{4}\s*?){10}`)

// ParseFingerprint returns the first fingerprint found in a key listing with
// whitespace removed, or "" when there is none
func ParseFingerprint(listing []byte) string {
	for _, line := range bytes.Split(listing, []byte("\n")) {
		if match := fingerprintPattern.Find(line); match != nil {
			return strings.Join(strings.Fields(string(match)), "")
		}
	}
	return ""
}

// Resolver decides which recipient an operation addresses. Tiers, first
// match wins:
//  1. the explicit recipient
//  2. the default key of the store's .keys file, listed in a throwaway keyring
//  3. the default key of the persistent keyring
type Resolver struct {
	invoker
	recipient string
	keysPath  string
	homedir   string
}

// NewResolver creates a Resolver from Recipient, StorePath and Homedir
func NewResolver(opts Options) *Resolver {
	r := &Resolver{
		invoker:   newInvoker(opts),
		recipient: opts.Recipient,
		homedir:   opts.Homedir,
	}
	if opts.StorePath != "" {
		r.keysPath = filepath.Join(opts.StorePath, KeysFileName)
	}
	return r
}

// Resolve returns the recipient fingerprint for public (secret=false) or
// secret key operations. An empty string means no usable recipient; the
// caller's gpg invocation will then fail with the tool's own diagnostic.
func (r *Resolver) Resolve(ctx context.Context, secret bool) (string, error) {
	if r.recipient != "" {
		return r.recipient, nil
	}
	if err := r.check(); err != nil {
		return "", err
	}

	if r.keysPath != "" {
		if _, err := os.Stat(r.keysPath); err == nil {
			var fingerprint string
			err := r.withTempHomedir(ctx, "recipient", func(homedir string) error {
				if _, err := r.importKeys(ctx, homedir, r.keysPath); err != nil {
					return err
				}
				var err error
				fingerprint, err = r.DefaultRecipient(ctx, homedir, secret)
				return err
			})
			return fingerprint, err
		}
	}

	return r.DefaultRecipient(ctx, r.homedir, secret)
}

// DefaultRecipient lists the keys of homedir and returns the first
// fingerprint, or "" when the listing fails or holds none
func (r *Resolver) DefaultRecipient(ctx context.Context, homedir string, secret bool) (string, error) {
	if err := r.check(); err != nil {
		return "", err
	}
	res, err := r.call(ctx, "list-keys", listArgs(r.tool, homedir, secret), nil)
	if err != nil {
		return "", err
	}
	if res.Failed() {
		return "", nil
	}
	return ParseFingerprint(res.Stdout), nil
}

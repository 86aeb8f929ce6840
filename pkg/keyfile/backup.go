// SPDX-License-Identifier: Apache-2.0
package keyfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Work-Fort/Strongbox/pkg/util"
)

// ArchiveName is the compressed key file inside a backup directory
const ArchiveName = "keys.xz"

// ErrKeysExist is returned by Restore when the store already has key material
var ErrKeysExist = errors.New("store already has a key file")

// Backup validates keysPath and writes it xz-compressed, with a SHA256SUMS
// manifest, to a new timestamped directory under backupRoot. It returns the
// backup directory.
func Backup(keysPath, backupRoot string, now time.Time) (string, error) {
	summary, err := Load(keysPath)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(backupRoot, now.UTC().Format("2006-01-02-150405"))
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	archive := filepath.Join(dir, ArchiveName)
	if err := util.CompressXZ(keysPath, archive, 0600); err != nil {
		return "", err
	}
	if _, err := util.WriteSHA256SUMS(dir, archive); err != nil {
		return "", err
	}

	log.Debugf("Backed up key %s to %s", summary.Fingerprint(), dir)
	return dir, nil
}

// Restore verifies the archive against the SHA256SUMS next to it,
// decompresses it, validates the result and installs it as keysPath.
// An existing key file is only replaced when force is set.
func Restore(archive, keysPath string, force bool) (*Summary, error) {
	if _, err := os.Stat(keysPath); err == nil && !force {
		return nil, fmt.Errorf("%w: %s", ErrKeysExist, keysPath)
	}

	manifest := filepath.Join(filepath.Dir(archive), util.ChecksumsFileName)
	if err := util.VerifySHA256File(archive, manifest); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(keysPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	staged := keysPath + ".restore"
	if err := util.DecompressXZ(archive, staged, 0600); err != nil {
		return nil, err
	}
	defer os.Remove(staged)

	summary, err := Load(staged)
	if err != nil {
		return nil, err
	}
	if err := os.Rename(staged, keysPath); err != nil {
		return nil, fmt.Errorf("failed to install key file: %w", err)
	}

	log.Debugf("Restored key %s to %s", summary.Fingerprint(), keysPath)
	return summary, nil
}

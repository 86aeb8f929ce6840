// SPDX-License-Identifier: Apache-2.0
package util

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// ChecksumsFileName is the manifest written next to backup archives
const ChecksumsFileName = "SHA256SUMS"

// VerifySHA256File verifies a file against the SHA256SUMS manifest at
// checksumsPath
func VerifySHA256File(filePath, checksumsPath string) error {
	log.Debugf("Verifying SHA256 checksum for %s", filePath)

	fileHash, err := CalculateSHA256(filePath)
	if err != nil {
		return fmt.Errorf("failed to calculate file hash: %w", err)
	}

	checksums, err := ParseSHA256SUMSFile(checksumsPath)
	if err != nil {
		return fmt.Errorf("failed to read checksums file: %w", err)
	}

	filename := filepath.Base(filePath)
	expectedHash, found := checksums[filename]
	if !found {
		return fmt.Errorf("file %s not found in checksums", filename)
	}

	if !strings.EqualFold(fileHash, expectedHash) {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", filename, expectedHash, fileHash)
	}

	log.Debugf("Checksum verified for %s", filename)
	return nil
}

// CalculateSHA256 returns the hex SHA256 of a file
func CalculateSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to calculate hash: %w", err)
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// WriteSHA256SUMS hashes files and writes a manifest to dir/SHA256SUMS in
// sha256sum's "hash  name" format
func WriteSHA256SUMS(dir string, files ...string) (string, error) {
	names := make([]string, len(files))
	copy(names, files)
	sort.Strings(names)

	var b strings.Builder
	for _, path := range names {
		sum, err := CalculateSHA256(path)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s  %s\n", sum, filepath.Base(path))
	}

	manifest := filepath.Join(dir, ChecksumsFileName)
	if err := os.WriteFile(manifest, []byte(b.String()), 0600); err != nil {
		return "", fmt.Errorf("failed to write checksums file: %w", err)
	}
	return manifest, nil
}

// ParseSHA256SUMSFile parses a SHA256SUMS file into filename -> hash
func ParseSHA256SUMSFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checksums file: %w", err)
	}
	defer file.Close()

	checksums := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// "hash  filename" or "hash *filename" (binary mode)
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		checksums[strings.TrimPrefix(parts[1], "*")] = parts[0]
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checksums file: %w", err)
	}

	return checksums, nil
}

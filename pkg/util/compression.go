// SPDX-License-Identifier: Apache-2.0
package util

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/ulikunitz/xz"
)

// CompressXZ compresses src into dst. dst is created with mode perm.
func CompressXZ(src, dst string, perm os.FileMode) error {
	log.Debugf("Compressing %s to %s", src, dst)

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dstFile.Close()

	xzWriter, err := xz.NewWriter(dstFile)
	if err != nil {
		return fmt.Errorf("failed to create xz writer: %w", err)
	}

	if _, err := io.Copy(xzWriter, srcFile); err != nil {
		xzWriter.Close()
		return fmt.Errorf("failed to compress file: %w", err)
	}

	// Close writes the stream footer
	if err := xzWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush compressed data: %w", err)
	}
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("failed to close destination file: %w", err)
	}

	log.Debugf("Compressed %s to %s", src, dst)
	return nil
}

// DecompressXZ decompresses src into dst, created with mode perm. A partial
// dst is removed when decompression fails.
func DecompressXZ(src, dst string, perm os.FileMode) (err error) {
	log.Debugf("Decompressing %s to %s", src, dst)

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	xzReader, err := xz.NewReader(srcFile)
	if err != nil {
		return fmt.Errorf("failed to create xz reader: %w", err)
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(dst)
		}
	}()
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, xzReader); err != nil {
		return fmt.Errorf("failed to decompress: %w", err)
	}
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("failed to close destination file: %w", err)
	}

	log.Debugf("Decompressed to %s", dst)
	return nil
}

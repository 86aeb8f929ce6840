// SPDX-License-Identifier: Apache-2.0
package clean

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func TestFindStale(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	old := now.Add(-2 * time.Hour)

	entries := []struct {
		name  string
		dir   bool
		mtime time.Time
	}{
		{"strongbox-keygen-123", true, old},
		{"strongbox-passphrase-456", false, old},
		{"strongbox-recipient-789", true, now},
		{"other-tool-1", true, old},
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.name)
		if e.dir {
			if err := os.Mkdir(path, 0700); err != nil {
				t.Fatal(err)
			}
		} else if err := os.WriteFile(path, nil, 0600); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(path, e.mtime, e.mtime); err != nil {
			t.Fatal(err)
		}
	}

	stale, err := findStale(dir, time.Hour, now)
	if err != nil {
		t.Fatalf("findStale() error = %v", err)
	}
	sort.Strings(stale)

	want := []string{
		filepath.Join(dir, "strongbox-keygen-123"),
		filepath.Join(dir, "strongbox-passphrase-456"),
	}
	if len(stale) != len(want) {
		t.Fatalf("findStale() = %v, want %v", stale, want)
	}
	for i := range want {
		if stale[i] != want[i] {
			t.Errorf("stale[%d] = %q, want %q", i, stale[i], want[i])
		}
	}

	removed, err := removeAll(stale)
	if err != nil {
		t.Fatalf("removeAll() error = %v", err)
	}
	if len(removed) != 2 {
		t.Errorf("removed %v", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "strongbox-recipient-789")); err != nil {
		t.Error("fresh entry should be kept")
	}
	if _, err := os.Stat(filepath.Join(dir, "other-tool-1")); err != nil {
		t.Error("foreign entry should be kept")
	}
}

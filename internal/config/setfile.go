package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"
)

// Set files are the simplest persistent collections grit keeps: ascii text,
// one entry per line, sorted, no duplicates. Reads and writes take an
// advisory lock on a sibling .lock file so concurrent grit processes don't
// interleave partial writes.

func setFileLock(path string) *flock.Flock {
	return flock.New(path + ".lock")
}

// ReadSetFile returns the entries of a set file, sorted. A missing file is
// an empty set.
func ReadSetFile(path string) ([]string, error) {
	lock := setFileLock(path)
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	defer lock.Unlock() //nolint:errcheck

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	seen := map[string]bool{}
	var entries []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		entries = append(entries, line)
	}
	sort.Strings(entries)
	return entries, nil
}

// WriteSetFile replaces a set file's contents with the given entries,
// deduplicated and sorted. The parent directory is created if needed.
func WriteSetFile(path string, entries []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	lock := setFileLock(path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking %s: %w", path, err)
	}
	defer lock.Unlock() //nolint:errcheck

	seen := map[string]bool{}
	var lines []string
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		lines = append(lines, e)
	}
	sort.Strings(lines)

	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}

// AddToSetFile inserts entries into a set file. Reports whether the file
// changed.
func AddToSetFile(path string, entries ...string) (bool, error) {
	existing, err := ReadSetFile(path)
	if err != nil {
		return false, err
	}
	seen := map[string]bool{}
	for _, e := range existing {
		seen[e] = true
	}
	changed := false
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		existing = append(existing, e)
		changed = true
	}
	if !changed {
		return false, nil
	}
	return true, WriteSetFile(path, existing)
}

// RemoveFromSetFile deletes entries from a set file. Reports whether the
// file changed.
func RemoveFromSetFile(path string, entries ...string) (bool, error) {
	existing, err := ReadSetFile(path)
	if err != nil {
		return false, err
	}
	drop := map[string]bool{}
	for _, e := range entries {
		drop[strings.TrimSpace(e)] = true
	}
	var kept []string
	for _, e := range existing {
		if !drop[e] {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(existing) {
		return false, nil
	}
	return true, WriteSetFile(path, kept)
}

package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// loadWhitelist reads the persisted whitelist, one user ID per line.
// A missing file yields an empty set.
func loadWhitelist(path string) (map[string]struct{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]struct{}), nil
		}
		return nil, fmt.Errorf("failed to read whitelist: %w", err)
	}

	whitelist := make(map[string]struct{})
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			whitelist[line] = struct{}{}
		}
	}
	return whitelist, nil
}

// saveWhitelist writes the whitelist atomically: temp file, then rename.
// Lines are sorted so identical sets produce identical files.
func saveWhitelist(path string, whitelist map[string]struct{}) error {
	users := make([]string, 0, len(whitelist))
	for user := range whitelist {
		users = append(users, user)
	}
	sort.Strings(users)

	var sb strings.Builder
	for _, user := range users {
		sb.WriteString(user)
		sb.WriteByte('\n')
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp whitelist: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(sb.String()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write whitelist: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp whitelist: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename whitelist into place: %w", err)
	}
	return nil
}

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// LocalStorage keeps objects as plain files under a root directory.
type LocalStorage struct {
	rootAbs string
}

func NewLocal(root string) (*LocalStorage, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("storage root cannot be empty")
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}

	if err := os.MkdirAll(rootAbs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	return &LocalStorage{rootAbs: rootAbs}, nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	resolved, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(resolved); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

func (s *LocalStorage) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	resolved, err := s.resolve(prefix)
	if err != nil {
		return 0, err
	}

	var removed int64
	walkErr := filepath.WalkDir(resolved, func(current string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			removed++
		}
		return nil
	})
	if walkErr != nil {
		if os.IsNotExist(walkErr) {
			return 0, nil
		}
		return 0, fmt.Errorf("walk %q: %w", prefix, walkErr)
	}

	if err := os.RemoveAll(resolved); err != nil {
		return 0, fmt.Errorf("remove prefix %q: %w", prefix, err)
	}
	return removed, nil
}

// resolve maps a storage key to an absolute path under the root, rejecting
// traversal attempts and control characters.
func (s *LocalStorage) resolve(key string) (string, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(key), `\`, "/")
	if normalized == "" || normalized == "/" {
		return "", fmt.Errorf("storage key cannot be empty")
	}

	if strings.Contains(normalized, "\x00") || hasControlCharacters(normalized) {
		return "", fmt.Errorf("storage key %q contains invalid characters", key)
	}

	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return "", fmt.Errorf("storage key %q attempts traversal", key)
		}
	}

	cleanRel := filepath.Clean(strings.TrimPrefix(normalized, "/"))
	if cleanRel == "." {
		return "", fmt.Errorf("storage key %q resolves to the root", key)
	}

	resolved := filepath.Join(s.rootAbs, cleanRel)
	if resolved != s.rootAbs && !strings.HasPrefix(resolved, s.rootAbs+string(filepath.Separator)) {
		return "", fmt.Errorf("storage key %q resolves outside the root", key)
	}

	return resolved, nil
}

func hasControlCharacters(value string) bool {
	for _, char := range value {
		if unicode.IsControl(char) {
			return true
		}
	}

	return false
}

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// EnsureUserConfig materializes an editable config.yml in the data dir
// on first run by copying the shipped defaults. An existing user file
// is left alone, so local edits survive upgrades.
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, "config.yml")

	switch _, err := os.Stat(userPath); {
	case err == nil:
		return userPath, nil
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("stat user config: %w", err)
	}

	src, err := os.Open(defaultPath)
	if err != nil {
		return "", fmt.Errorf("open default config: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(userPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create user config: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("copy default config: %w", err)
	}
	return userPath, nil
}

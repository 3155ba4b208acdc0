package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"faircamp/internal/fileutil"
)

const saltFileName = "salt"

// LoadOrCreateSalt returns the deployment salt stored under cacheDir,
// minting and persisting a fresh one on first use.
func LoadOrCreateSalt(cacheDir string) (string, error) {
	path := filepath.Join(cacheDir, saltFileName)
	data, err := os.ReadFile(path)
	if err == nil {
		salt := strings.TrimSpace(string(data))
		if salt != "" {
			return salt, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("read deployment salt: %w", err)
	}
	return RotateSalt(cacheDir)
}

// RotateSalt mints a new deployment salt and persists it, replacing any
// existing one. Keys of salted kinds computed with the old salt stop
// matching, so their cached artifacts go stale on the next build.
func RotateSalt(cacheDir string) (string, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}
	salt := uuid.NewString()
	path := filepath.Join(cacheDir, saltFileName)
	if err := fileutil.WriteFileAtomic(path, []byte(salt+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("persist deployment salt: %w", err)
	}
	return salt, nil
}

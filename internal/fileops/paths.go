package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// FallbackBaseName is used when a sanitized title has no permitted characters
// left.
const FallbackBaseName = "ytdl"

// SanitizeTitle reduces a media title to a filesystem-safe base name: letters,
// digits, spaces, underscores and hyphens survive, everything else is dropped
// and trailing whitespace is trimmed. An empty result falls back to
// FallbackBaseName.
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	name := strings.TrimRight(b.String(), " ")
	if name == "" {
		return FallbackBaseName
	}
	return name
}

// EnsureDir creates dir (and parents) if absent.
func EnsureDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("directory path is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// NewScratchDir creates a uniquely named job-private directory under root
// (the OS temp dir when root is empty). The caller owns it for the lifetime
// of one job and removes it when the job ends.
func NewScratchDir(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, "ytbr-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch directory %s: %w", dir, err)
	}
	return dir, nil
}

// Package logo copies team logos into the overlay directory under
// content-addressed names so the browser source never shows a cached image.
package logo

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// OverlayDir is the overlay docroot inside a resources directory.
const OverlayDir = "overlay"

const (
	shortHashLen = 8
	maxExtLen    = 5
	sniffLen     = 512
)

var (
	// ErrEmptySource is returned when no source file was chosen.
	ErrEmptySource = errors.New("empty logo source")
	// ErrInvalidPath is returned for relative paths that leave the overlay directory.
	ErrInvalidPath = errors.New("logo path outside overlay directory")
)

// Stager manages logo files in <resources>/overlay.
type Stager struct {
	dir string
}

// NewStager creates a stager for the resources directory dataDir.
func NewStager(dataDir string) *Stager {
	return &Stager{dir: filepath.Join(dataDir, OverlayDir)}
}

// Dir returns the overlay directory.
func (s *Stager) Dir() string {
	return s.dir
}

// Stage copies srcPath into the overlay directory as <base>-<hash>.<ext>
// after removing earlier files staged under base, and returns the name
// relative to the overlay directory.
func (s *Stager) Stage(srcPath, base string) (string, error) {
	if strings.TrimSpace(srcPath) == "" {
		return "", ErrEmptySource
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create overlay directory: %w", err)
	}
	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to open logo: %w", err)
	}
	defer src.Close()

	h := sha256.New()
	if _, err := io.Copy(h, src); err != nil {
		return "", fmt.Errorf("failed to hash logo: %w", err)
	}
	sum := hex.EncodeToString(h.Sum(nil))[:shortHashLen]

	ext, err := normalizedExt(src, srcPath)
	if err != nil {
		return "", err
	}
	rel := fmt.Sprintf("%s-%s.%s", base, sum, ext)

	if err := s.CleanPrefix(base); err != nil {
		return "", err
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind logo: %w", err)
	}
	if err := copyFile(src, filepath.Join(s.dir, rel)); err != nil {
		log.Warn().Err(err).Str("src", srcPath).Str("dst", rel).Msg("failed to copy logo to overlay")
		return "", err
	}

	log.Info().Str("src", srcPath).Str("logo", rel).Msg("staged logo")
	return rel, nil
}

// Delete removes a staged logo. A missing file is not an error.
func (s *Stager) Delete(relPath string) error {
	relPath = strings.TrimSpace(relPath)
	if relPath == "" {
		return nil
	}
	if !filepath.IsLocal(relPath) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, relPath)
	}
	err := os.Remove(filepath.Join(s.dir, relPath))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove logo: %w", err)
	}
	return nil
}

// CleanPrefix removes every file named <base>*.* in the overlay directory.
func (s *Stager) CleanPrefix(base string) error {
	if base == "" || strings.ContainsAny(base, `/\*?[`) {
		return fmt.Errorf("%w: prefix %q", ErrInvalidPath, base)
	}
	matches, err := filepath.Glob(filepath.Join(s.dir, base+"*.*"))
	if err != nil {
		return fmt.Errorf("failed to list logos: %w", err)
	}
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if err := os.Remove(m); err != nil {
			log.Warn().Err(err).Str("file", m).Msg("failed to remove staged logo")
		}
	}
	return nil
}

// normalizedExt keeps a short file extension and otherwise sniffs the
// content. jpeg is spelled jpg and unknown content becomes png.
func normalizedExt(src io.ReadSeeker, path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" || len(ext) > maxExtLen {
		if _, err := src.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("failed to rewind logo: %w", err)
		}
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(src, head)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read logo: %w", err)
		}
		ext = extForContent(head[:n])
	}
	if ext == "jpeg" {
		ext = "jpg"
	}
	if ext == "" {
		ext = "png"
	}
	return ext, nil
}

func extForContent(head []byte) string {
	mime := http.DetectContentType(head)
	switch {
	case strings.Contains(mime, "png"):
		return "png"
	case strings.Contains(mime, "jpeg"):
		return "jpg"
	case strings.Contains(mime, "webp"):
		return "webp"
	case strings.Contains(mime, "xml"), strings.Contains(mime, "text/plain"):
		if strings.Contains(string(head), "<svg") {
			return "svg"
		}
	}
	return ""
}

func copyFile(src io.Reader, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(dst), err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy logo: %w", err)
	}
	return out.Close()
}

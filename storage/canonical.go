package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Location says where the file of a publication was found when it was
// canonicalized.
type Location string

const (
	// LocationCanonical: the canonical file already exists.
	LocationCanonical Location = "canonical"
	// LocationAbsolute: the recorded path is an absolute path outside the
	// uploads root; the file is copied in.
	LocationAbsolute Location = "absolute"
	// LocationUploads: the recorded file sits in the uploads root under
	// another name; it is renamed.
	LocationUploads Location = "uploads"
	// LocationMissing: no source file exists.
	LocationMissing Location = "missing"
)

// Canonicalization is the outcome of Canonicalize. Path is the name the
// publication record should carry afterwards.
type Canonicalization struct {
	Location Location
	Path     string
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lower-cases title and collapses every run of characters outside
// [a-z0-9] into one hyphen. An empty result becomes "paper".
func Slug(title string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "paper"
	}
	return slug
}

// CanonicalName is the public file name of an approved publication. It only
// depends on title and id, so links into /uploads stay stable.
func CanonicalName(title string, id uint) string {
	return fmt.Sprintf("%s-%d.pdf", Slug(title), id)
}

// Locate inspects the filesystem and reports which case applies to a
// publication whose file is currently recorded as current.
func (m *Manager) Locate(title string, id uint, current string) Location {
	if m.exists(filepath.Join(m.root, CanonicalName(title, id))) {
		return LocationCanonical
	}
	if current != "" && filepath.IsAbs(current) && m.exists(current) {
		if filepath.Dir(filepath.Clean(current)) == m.root {
			return LocationUploads
		}
		return LocationAbsolute
	}
	if base := safeName(current); base != "" && m.exists(filepath.Join(m.root, base)) {
		return LocationUploads
	}
	return LocationMissing
}

// Canonicalize moves the file of publication (title, id) to its canonical
// name. It is idempotent: once the canonical file exists, later calls only
// report it. On LocationMissing the current path is returned unchanged.
func (m *Manager) Canonicalize(ctx context.Context, title string, id uint, current string) (Canonicalization, error) {
	target := CanonicalName(title, id)
	targetPath := filepath.Join(m.root, target)

	var loc Location
	err := m.run(ctx, "canonicalize", func(commit func() bool) error {
		loc = m.Locate(title, id, current)
		switch loc {
		case LocationAbsolute:
			if err := copyFile(current, targetPath); err != nil {
				return err
			}
			if !commit() {
				os.Remove(targetPath)
			}
		case LocationUploads:
			source := filepath.Join(m.root, safeName(current))
			if err := os.Rename(source, targetPath); err != nil {
				return err
			}
			if !commit() {
				os.Rename(targetPath, source)
			}
		}
		return nil
	})
	if err != nil {
		return Canonicalization{Path: current}, err
	}

	if loc == LocationMissing {
		m.logger.Warn("publication file not found, keeping recorded path",
			"publication_id", id,
			"pdf_path", current,
		)
		return Canonicalization{Location: loc, Path: current}, nil
	}

	m.mirrorPut(ctx, target, targetPath)
	return Canonicalization{Location: loc, Path: target}, nil
}

// Revert undoes a Canonicalize whose result was never recorded, so no
// unrecorded canonical file is left behind. previous is the path the record
// still carries.
func (m *Manager) Revert(ctx context.Context, result Canonicalization, previous string) error {
	target := filepath.Join(m.root, safeName(result.Path))
	var undone bool
	err := m.run(ctx, "revert", func(func() bool) error {
		switch result.Location {
		case LocationAbsolute:
			if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			undone = true
		case LocationUploads:
			source := filepath.Join(m.root, safeName(previous))
			if m.exists(source) {
				return fmt.Errorf("revert target %s already exists", safeName(previous))
			}
			if err := os.Rename(target, source); err != nil {
				return err
			}
			undone = true
		}
		return nil
	})
	if err != nil {
		return err
	}
	if undone {
		m.unmirror(ctx, safeName(result.Path))
	}
	return nil
}

// copyFile writes to a temporary sibling and renames it into place so a
// partial copy is never mistaken for the canonical file.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	tmp := dst + ".tmp-" + uuid.NewString()
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create target: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("copy: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close target: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename target: %w", err)
	}
	return nil
}

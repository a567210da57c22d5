package cachebuster

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Map is an immutable mapping from a static file's path (relative to the
// static root, forward slashes) to its fingerprint.
type Map struct {
	entries map[string]string
}

// Entry is one row of a Map.
type Entry struct {
	Path        string `json:"path"`
	Fingerprint string `json:"fingerprint"`
}

// Lookup returns the fingerprint for path, or "" when the file was not
// fingerprinted. A leading slash or OS-specific separators are tolerated.
func (m *Map) Lookup(path string) string {
	if m == nil || path == "" {
		return ""
	}
	if fp, ok := m.entries[path]; ok {
		return fp
	}
	return m.entries[strings.TrimPrefix(filepath.ToSlash(path), "/")]
}

// Len returns the number of fingerprinted files.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns a copy of the map sorted by path.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, 0, len(m.entries))
	for p, fp := range m.entries {
		out = append(out, Entry{Path: p, Fingerprint: fp})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// BuildMap walks root and fingerprints every eligible regular file.
//
// It either returns a complete map or an error; a file that cannot be read
// fails the whole build.
func BuildMap(root string, cfg Config) (*Map, error) {
	return buildMap(root, cfg, nil)
}

// buildMap is BuildMap with an optional per-file callback used for debug
// logging.
func buildMap(root string, cfg Config, onFile func(rel, fp string)) (*Map, error) {
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := checkRoot(root); err != nil {
		return nil, err
	}
	// WalkDir does not descend into a symlinked root.
	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("cachebuster: resolve static root: %w", err)
	}

	exts := cfg.extensionSet()
	entries := make(map[string]string)

	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		regular, err := isRegular(path, d)
		if err != nil {
			return err
		}
		if !regular {
			return nil
		}
		if exts != nil {
			if _, ok := exts[suffix(d.Name())]; !ok {
				return nil
			}
		}

		fp, err := fingerprintFile(path, cfg)
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		entries[rel] = fp
		if onFile != nil {
			onFile(rel, fp)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cachebuster: fingerprint %s: %w", root, err)
	}

	return &Map{entries: entries}, nil
}

func checkRoot(root string) error {
	if strings.TrimSpace(root) == "" {
		return ErrNoStaticFolder
	}
	fi, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrStaticRootMissing, root)
		}
		return fmt.Errorf("cachebuster: stat static root: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrStaticRootNotDir, root)
	}
	return nil
}

// isRegular reports whether the entry is a regular file, following symlinks
// to files. A symlink to a directory is skipped (not descended into); one
// whose target cannot be resolved is an error, as reading it would be.
func isRegular(path string, d fs.DirEntry) (bool, error) {
	if d.Type().IsRegular() {
		return true, nil
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false, nil
	}
	fi, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return fi.Mode().IsRegular(), nil
}

func fingerprintFile(path string, cfg Config) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := cfg.newHash()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil))[:cfg.HashSize], nil
}

// suffix returns the final dot-suffix of a file name, including the dot.
// Dotfiles without a further dot (".env") and names ending in a dot have no
// suffix.
func suffix(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i:]
}

package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// versionLayout orders migrations lexically by creation time.
const versionLayout = "20060102150405"

// Pair is a freshly scaffolded up/down migration.
type Pair struct {
	Version  string
	Name     string
	UpPath   string
	DownPath string
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slug lowercases name and collapses any run of separators to one
// underscore. Characters outside [a-z0-9 _-] are dropped.
func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('_')
		}
	}
	return strings.Trim(nonSlug.ReplaceAllString(b.String(), "_"), "_")
}

// Scaffold writes an empty up/down pair into dir, named after now.
func Scaffold(dir, name string, now time.Time) (*Pair, error) {
	s := slug(name)
	if s == "" {
		return nil, errors.New("migration name must contain letters or digits")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations dir: %w", err)
	}

	version := now.UTC().Format(versionLayout)
	base := filepath.Join(dir, version+"_"+s)
	p := &Pair{Version: version, Name: s, UpPath: base + ".up.sql", DownPath: base + ".down.sql"}

	header := fmt.Sprintf("-- %s (%s)\n", s, now.UTC().Format(time.RFC3339))
	if err := writeNew(p.UpPath, header+"\n"); err != nil {
		return nil, err
	}
	if err := writeNew(p.DownPath, header+"-- revert\n"); err != nil {
		_ = os.Remove(p.UpPath)
		return nil, err
	}
	return p, nil
}

func writeNew(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// List returns the base names of the up migrations in fsys, oldest first.
func List(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var names []string
	for _, e := range entries {
		if base, ok := strings.CutSuffix(e.Name(), ".up.sql"); ok && !e.IsDir() {
			names = append(names, base)
		}
	}
	sort.Strings(names)
	return names, nil
}

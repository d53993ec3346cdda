// Package migrations holds the SQL schema shared by the SQLite and PostgreSQL
// attempt stores. Files are applied in order of their numeric prefix.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// FS embeds all SQL migration files.
//
//go:embed *.sql
var FS embed.FS

// Migration is one versioned schema change
type Migration struct {
	Name    string
	Version int
	SQL     string
}

// Load returns the embedded migrations sorted by file name. Files without a
// numeric prefix are skipped.
func Load() ([]Migration, error) {
	entries, err := fs.ReadDir(FS, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		version, err := ParseVersion(name)
		if err != nil {
			continue
		}
		data, err := fs.ReadFile(FS, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, Migration{Name: name, Version: version, SQL: string(data)})
	}
	return out, nil
}

// Latest returns the highest embedded version
func Latest() int {
	all, err := Load()
	if err != nil || len(all) == 0 {
		return 0
	}
	return all[len(all)-1].Version
}

// ParseVersion extracts the version number from a migration filename like "001_attempts.sql".
func ParseVersion(name string) (int, error) {
	parts := strings.SplitN(name, "_", 2)
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid migration filename: %s", name)
	}
	var version int
	_, err := fmt.Sscanf(parts[0], "%d", &version)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return version, nil
}

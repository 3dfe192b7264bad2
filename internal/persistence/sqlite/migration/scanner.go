package migration

import (
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

var migrationFilePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

type fileScanner struct{}

// NewScanner returns a Scanner reading the root of an fs.FS.
func NewScanner() Scanner {
	return fileScanner{}
}

// ScanMigrations reads every *.sql file at the root of fsys.
func (s fileScanner) ScanMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, NewMigrationError("", ".", "read directory", err)
	}

	var migrations []Migration
	seen := make(map[int]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		if err := s.ValidateFileName(entry.Name()); err != nil {
			return nil, NewMigrationError("", entry.Name(), "validate filename", err)
		}

		migration, err := parseMigrationFile(fsys, entry.Name())
		if err != nil {
			return nil, err
		}

		number, _ := strconv.Atoi(migration.Version)
		if existing, ok := seen[number]; ok {
			return nil, NewMigrationError(migration.Version, entry.Name(), "check duplicates",
				fmt.Errorf("%w: version %s found in both %s and %s", ErrDuplicateVersion, migration.Version, existing, entry.Name()))
		}
		seen[number] = entry.Name()
		migrations = append(migrations, migration)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return versionNumber(migrations[i].Version) < versionNumber(migrations[j].Version)
	})
	return migrations, nil
}

// ValidateFileName checks the {version}_{description}.sql convention.
func (fileScanner) ValidateFileName(filename string) error {
	matches := migrationFilePattern.FindStringSubmatch(filename)
	if matches == nil {
		return fmt.Errorf("%w: filename '%s' does not match pattern '{version}_{description}.sql'", ErrInvalidMigrationFile, filename)
	}
	if _, err := strconv.Atoi(matches[1]); err != nil {
		return fmt.Errorf("%w: version '%s' in filename '%s' is not a valid number", ErrInvalidVersion, matches[1], filename)
	}
	return nil
}

func parseMigrationFile(fsys fs.FS, name string) (Migration, error) {
	matches := migrationFilePattern.FindStringSubmatch(path.Base(name))
	version := matches[1]

	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Migration{}, NewMigrationError(version, name, "read file", err)
	}

	sqlContent := string(content)
	if len(splitStatements(sqlContent)) == 0 {
		return Migration{}, NewMigrationError(version, name, "validate content",
			fmt.Errorf("%w: no SQL statements found", ErrInvalidMigrationFile))
	}

	description := descriptionFromContent(sqlContent)
	if description == "" {
		description = strings.ReplaceAll(matches[2], "_", " ")
	}

	return Migration{
		Version:     version,
		Description: description,
		SQL:         sqlContent,
		FilePath:    name,
		Checksum:    Checksum(sqlContent),
	}, nil
}

// Checksum returns the hex BLAKE2b-256 digest of content.
func Checksum(content string) string {
	sum := blake2b.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// descriptionFromContent reads a leading "-- Description: ..." comment.
func descriptionFromContent(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "--") {
			break
		}
		if rest, ok := strings.CutPrefix(line, "-- Description:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

// splitStatements splits a script on semicolons and drops comment-only lines.
func splitStatements(sql string) []string {
	var statements []string
	for _, stmt := range strings.Split(sql, ";") {
		var lines []string
		for _, line := range strings.Split(stmt, "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "--") {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			statements = append(statements, strings.Join(lines, "\n"))
		}
	}
	return statements
}

func versionNumber(version string) int {
	n, _ := strconv.Atoi(version)
	return n
}

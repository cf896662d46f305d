package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tsqlspec/tsqlspec/internal/model"
)

// reObjectHeader recognizes the same CREATE [OR ALTER] PROCEDURE|FUNCTION|
// TRIGGER|VIEW header the References analyzer keys self-reference exclusion
// on, reused here so the CLI can derive an object's name and type without a
// separate parse pass.
var reObjectHeader = regexp.MustCompile(`(?is)\bCREATE\s+(?:OR\s+ALTER\s+)?(PROCEDURE|PROC|FUNCTION|TRIGGER|VIEW)\s+([a-zA-Z0-9_.\[\]"]+)`)

// readSQLInput reads SQL text from a file path argument, or from stdin when
// path is "-". Mirrors the teacher's getSQLInput, minus the MySQL-only
// "SQL as a bare CLI argument" mode this engine doesn't offer since T-SQL
// object bodies are multi-statement and too large to pass as argv.
func readSQLInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	if err := validateSQLFilePath(path); err != nil {
		return "", fmt.Errorf("file validation failed: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("could not read file %s: %w", path, err)
	}
	return string(data), nil
}

// validateSQLFilePath checks if the file path is safe to read, adapted
// unchanged from the teacher's plan.go (path traversal / oversized-file
// guard applies just as much to .sql source files as to the teacher's raw
// SQL statement input).
func validateSQLFilePath(filePath string) error {
	cleanPath := filepath.Clean(filePath)

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("invalid file path: %w", err)
	}

	fileInfo, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", absPath)
	}

	const maxFileSize = 10 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return fmt.Errorf("file too large (>10MB): %s - this may not be a SQL file", absPath)
	}

	sensitivePaths := []string{"/etc/", "/sys/", "/proc/", "/dev/"}
	for _, sensitive := range sensitivePaths {
		if strings.HasPrefix(absPath, sensitive) {
			fmt.Fprintf(os.Stderr, "warning: reading from system path %s\n", absPath)
			break
		}
	}

	return nil
}

// objectFromSQL builds a model.SqlObject by detecting the CREATE header's
// object type and name from the SQL text itself, so a CLI user only has to
// point at a .sql file rather than repeat the name/type on the command
// line.
func objectFromSQL(sql string) model.SqlObject {
	obj := model.SqlObject{Type: model.Procedure, SQL: sql}

	m := reObjectHeader.FindStringSubmatch(sql)
	if m == nil {
		obj.Name = "unknown_object"
		return obj
	}

	switch strings.ToUpper(m[1]) {
	case "FUNCTION":
		obj.Type = model.Function
	case "TRIGGER":
		obj.Type = model.Trigger
	case "VIEW":
		obj.Type = model.View
	default:
		obj.Type = model.Procedure
	}
	obj.Name = strings.Trim(m[2], `[]"`)
	return obj
}

// loadCorpus reads every path into a model.SqlObject via objectFromSQL, for
// subcommands (callers, call-graph) that operate over multiple definitions
// at once.
func loadCorpus(paths []string) ([]model.SqlObject, error) {
	corpus := make([]model.SqlObject, 0, len(paths))
	for _, p := range paths {
		sql, err := readSQLInput(p)
		if err != nil {
			return nil, err
		}
		corpus = append(corpus, objectFromSQL(sql))
	}
	return corpus, nil
}

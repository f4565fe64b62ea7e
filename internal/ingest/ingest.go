// Package ingest reads whitespace-separated integers from streams and files.
package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrDirectoryPath indicates a file operation was attempted on a directory.
	ErrDirectoryPath = errors.New("path points to a directory")
	// ErrEmptyPath indicates a path argument was empty.
	ErrEmptyPath = errors.New("path is empty")
	// ErrPathContainsNUL indicates the path contains a NUL byte.
	ErrPathContainsNUL = errors.New("path contains NUL byte")
)

// maxTokenSize bounds a single whitespace-separated token.
const maxTokenSize = 1 << 20

// Result is the outcome of parsing one input.
type Result struct {
	// Path is the resolved file path; empty for streams.
	Path string
	// Ints holds the integer tokens in input order, duplicates included.
	Ints []int
	// Skipped holds the tokens that are not integers.
	Skipped []string
}

// ParseInts reads r to EOF and splits it into integer and non-integer tokens.
func ParseInts(r io.Reader) (Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxTokenSize)
	scanner.Split(bufio.ScanWords)

	var result Result

	for scanner.Scan() {
		token := scanner.Text()

		value, err := strconv.Atoi(token)
		if err != nil {
			result.Skipped = append(result.Skipped, token)

			continue
		}

		result.Ints = append(result.Ints, value)
	}

	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("scan integers: %w", err)
	}

	return result, nil
}

// ParseString is ParseInts over a string.
func ParseString(input string) Result {
	// Reading from a strings.Reader never fails and tokens are bounded by the input.
	result, _ := ParseInts(strings.NewReader(input)) //nolint:errcheck // see above.

	return result
}

// ReadFile parses the integers stored in the file at path. Surrounding
// whitespace and one pair of double quotes, as left by pasting a path from a
// file manager, are removed first.
func ReadFile(path string) (Result, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return Result{}, err
	}

	//nolint:gosec // resolved is normalized and type checked in ResolvePath.
	file, err := os.Open(resolved)
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", resolved, err)
	}
	defer file.Close()

	result, err := ParseInts(file)
	result.Path = resolved

	if err != nil {
		return result, fmt.Errorf("read %s: %w", resolved, err)
	}

	return result, nil
}

// ResolvePath cleans a user-supplied path and checks that it names an
// existing regular file.
func ResolvePath(path string) (string, error) {
	cleaned := unquote(strings.TrimSpace(path))
	if cleaned == "" {
		return "", ErrEmptyPath
	}

	if strings.ContainsRune(cleaned, '\x00') {
		return "", fmt.Errorf("%w: %q", ErrPathContainsNUL, cleaned)
	}

	absPath, err := filepath.Abs(filepath.Clean(cleaned))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", absPath, err)
	}

	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrDirectoryPath, absPath)
	}

	return absPath, nil
}

func unquote(path string) string {
	if len(path) >= 2 && path[0] == '"' && path[len(path)-1] == '"' {
		return strings.TrimSpace(path[1 : len(path)-1])
	}

	return path
}

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadBlacklist reads glob patterns from the file at path. At most max
// patterns are accepted.
func LoadBlacklist(path string, max int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open blacklist file: %w", err)
	}
	defer f.Close()

	patterns, err := ParseBlacklist(f, max)
	if err != nil {
		return nil, fmt.Errorf("read patterns from %s: %w", path, err)
	}
	return patterns, nil
}

// ParseBlacklist reads one pattern per line. '#' starts a comment that runs
// to the end of the line, surrounding whitespace is trimmed and blank lines
// are skipped. Order is preserved.
func ParseBlacklist(r io.Reader, max int) ([]string, error) {
	var patterns []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(patterns) >= max {
			return nil, fmt.Errorf("%w (max %d)", ErrTooManyPatterns, MaxPatterns)
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}

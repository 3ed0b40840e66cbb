package scanner

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// loadIgnorePatterns reads the ignore file of dir. domain is the slash
// separated path of dir below the scan root; the patterns only match inside
// it. A missing file yields no patterns.
func (s *Scanner) loadIgnorePatterns(dir string, domain []string) ([]gitignore.Pattern, error) {
	f, err := os.Open(filepath.Join(dir, s.opts.IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return ParseIgnore(bufio.NewScanner(f), domain)
}

// ParseIgnore parses gitignore style lines. Blank lines and comments are
// skipped.
func ParseIgnore(lines *bufio.Scanner, domain []string) ([]gitignore.Pattern, error) {
	var patterns []gitignore.Pattern
	for lines.Scan() {
		line := strings.TrimRight(lines.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, domain))
	}
	if err := lines.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}

// Ignored reports whether path, relative to the scan root, is excluded by
// patterns. Later patterns take precedence, so negations re-include.
func Ignored(patterns []gitignore.Pattern, path string, isDir bool) bool {
	return gitignore.NewMatcher(patterns).Match(strings.Split(filepath.ToSlash(path), "/"), isDir)
}

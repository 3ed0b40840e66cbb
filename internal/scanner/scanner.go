// Package scanner finds the Java compilation units under a directory. It
// honors .jflowignore files with gitignore semantics at every level of the
// tree.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileInfo represents information about a discovered file.
type FileInfo struct {
	Path     string // Relative path from root, slash separated
	FullPath string // Absolute path
	Language string // Detected language from extension
	Size     int64  // File size in bytes
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden      bool     // Skip hidden files and directories (starting with .)
	FollowSymlinks  bool     // Follow file symlinks that stay inside root
	DefaultExcludes []string // Directory names never descended into
	IgnoreFileName  string   // Name of the ignore file (default: .jflowignore)
	// Extensions limits the result to these extensions. Empty means all files.
	Extensions []string
}

// DefaultOptions returns options that find .java sources and skip build
// output and tool directories.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		IgnoreFileName: ".jflowignore",
		Extensions:     []string{".java"},
		DefaultExcludes: []string{
			".git",
			".hg",
			".svn",
			".idea",
			".vscode",
			".gradle",
			".settings",
			"target",
			"build",
			"out",
			"bin",
			"node_modules",
		},
	}
}

// Scanner provides file tree scanning capabilities.
type Scanner struct {
	opts Options
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	if opts.IgnoreFileName == "" {
		opts.IgnoreFileName = ".jflowignore"
	}
	return &Scanner{opts: opts}
}

// Scan walks root and returns the matching files sorted by path. Only a
// cancelled context or an unreadable root stop the walk; unreadable entries
// below it are skipped.
func (s *Scanner) Scan(ctx context.Context, root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}
	if _, err := os.Stat(absRoot); err != nil {
		return nil, fmt.Errorf("reading root: %w", err)
	}

	var patterns []gitignore.Pattern
	var files []FileInfo

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		var segments []string
		if rel != "." {
			segments = strings.Split(filepath.ToSlash(rel), "/")
		}

		if d.IsDir() {
			if rel != "." {
				if (s.opts.SkipHidden && isHidden(d.Name())) || s.isDefaultExcluded(d.Name()) {
					return filepath.SkipDir
				}
				if Ignored(patterns, rel, true) {
					return filepath.SkipDir
				}
			}
			// patterns of a directory apply below it, after those of its parents
			nested, err := s.loadIgnorePatterns(path, segments)
			if err != nil {
				return fmt.Errorf("loading ignore patterns: %w", err)
			}
			patterns = append(patterns, nested...)
			return nil
		}

		if s.opts.SkipHidden && isHidden(d.Name()) {
			return nil
		}
		if Ignored(patterns, rel, false) {
			return nil
		}
		info, ok := s.fileInfo(absRoot, path, d)
		if !ok || !s.wanted(path) {
			return nil
		}
		files = append(files, FileInfo{
			Path:     filepath.ToSlash(rel),
			FullPath: path,
			Language: DetectLanguage(filepath.Ext(path)),
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	slices.SortFunc(files, func(a, b FileInfo) int {
		return strings.Compare(a.Path, b.Path)
	})
	return files, nil
}

// fileInfo stats a regular file or a symlink to one inside root.
func (s *Scanner) fileInfo(absRoot, path string, d fs.DirEntry) (fs.FileInfo, bool) {
	if d.Type()&fs.ModeSymlink == 0 {
		info, err := d.Info()
		return info, err == nil && info.Mode().IsRegular()
	}
	if !s.opts.FollowSymlinks {
		return nil, false
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, false
	}
	if !strings.HasPrefix(target, absRoot+string(filepath.Separator)) {
		return nil, false
	}
	info, err := os.Stat(target)
	if err != nil || !info.Mode().IsRegular() {
		return nil, false
	}
	return info, true
}

func (s *Scanner) wanted(path string) bool {
	if len(s.opts.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(s.opts.Extensions, ext)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func (s *Scanner) isDefaultExcluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

// Scan scans root with default options.
func Scan(ctx context.Context, root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(ctx, root)
}

// Sources resolves command line arguments to Java files. Directories are
// scanned, files are taken as given.
func Sources(ctx context.Context, args []string, opts Options) ([]string, error) {
	var out []string
	sc := New(opts)
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		files, err := sc.Scan(ctx, arg)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			out = append(out, f.FullPath)
		}
	}
	return out, nil
}

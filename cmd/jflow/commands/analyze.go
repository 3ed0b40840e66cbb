package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/l3aro/go-java-flow/internal/scanner"
	"github.com/l3aro/go-java-flow/pkg/cache"
	"github.com/l3aro/go-java-flow/pkg/jast"
	"github.com/l3aro/go-java-flow/pkg/report"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var includeAll, noCache bool
	cmd := &cobra.Command{
		Use:   "analyze [PATH...]",
		Short: "Summarize every Java file under the given paths",
		Long: `Walks and models every Java file found under PATH (default: the current
directory). Directories are scanned honoring .jflowignore files. Files are
analyzed in parallel, up to max_parallel_files at a time. A file that fails
is reported and does not stop the others. Summaries of unchanged files are
reused from cache_dir unless --no-cache is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			opts := scanner.DefaultOptions()
			if includeAll {
				opts.SkipHidden = false
				opts.DefaultExcludes = nil
			}
			files, err := scanner.Sources(cmd.Context(), args, opts)
			if err != nil {
				return fmt.Errorf("scanning sources: %w", err)
			}
			var summaries *cache.LRU[report.FileSummary]
			if !noCache && a.cfg.CacheDir != "" {
				summaries = cache.New[report.FileSummary](cache.Options{MaxSize: maxCachedSummaries})
				if err := cache.LoadFromFile(summaries, a.cachePath()); err != nil {
					a.logger.Warn("ignoring summary cache", "error", err)
					summaries = cache.New[report.FileSummary](cache.Options{MaxSize: maxCachedSummaries})
				}
			}
			r, err := a.analyze(cmd.Context(), files, summaries)
			if err != nil {
				return err
			}
			if summaries != nil {
				if err := cache.PersistToFile(summaries, a.cachePath()); err != nil {
					a.logger.Warn("summary cache not saved", "error", err)
				}
				st := summaries.Stats()
				a.logger.Debug("summary cache", "hits", st.Hits, "misses", st.Misses, "entries", st.Length)
			}
			if err := a.output(cmd, r); err != nil {
				return err
			}
			if n := r.Failed(); n > 0 {
				return fmt.Errorf("%d of %d files could not be analyzed", n, len(r.Files))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&includeAll, "all", false, "Include hidden and build output directories")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Analyze every file again")
	return cmd
}

const maxCachedSummaries = 10000

func (a *app) cachePath() string {
	return filepath.Join(a.cfg.CacheDir, cache.DefaultFile)
}

// cacheSalt makes summaries computed under other settings miss.
func (a *app) cacheSalt() []byte {
	salt := a.cfg.Fingerprint()
	return fmt.Appendf(salt, "|%q|%q", a.typeName, a.entries)
}

// analyze summarizes files in parallel. A nil cache analyzes every file.
func (a *app) analyze(ctx context.Context, files []string, summaries *cache.LRU[report.FileSummary]) (*report.SummaryReport, error) {
	r := &report.SummaryReport{Files: make([]report.FileSummary, len(files))}
	salt := a.cacheSalt()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.MaxParallelFiles)
	for i, path := range files {
		g.Go(func() error {
			if summaries == nil {
				r.Files[i] = a.summarize(ctx, path)
				return ctx.Err()
			}
			key, err := cache.FileKey(path, salt)
			if err != nil {
				r.Files[i] = report.FileSummary{Path: path, Error: err.Error()}
				return nil
			}
			if fs, ok := summaries.Get(key); ok {
				fs.Path = path
				r.Files[i] = fs
				return nil
			}
			fs := a.summarize(ctx, path)
			if fs.Error == "" {
				summaries.Set(key, fs)
			}
			r.Files[i] = fs
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return r, nil
}

// summarize analyzes one file. Its errors end up in the summary.
func (a *app) summarize(ctx context.Context, path string) report.FileSummary {
	fs := report.FileSummary{Path: path}
	s, err := a.openSession(ctx, path)
	if err != nil {
		fs.Error = err.Error()
		return fs
	}
	fs.Type = jast.TypeName(s.TypeDeclaration())
	fs.Statements = len(report.Flow(s).Statements)

	m, err := a.newBuilder(s).Build(ctx)
	if err != nil {
		fs.Error = err.Error()
		return fs
	}
	fs.Components = len(m.Components)
	fs.Warnings = len(m.Warnings)
	a.logger.Debug("file analyzed", "path", path, "components", fs.Components)
	return fs
}

package report

import (
	"io"
)

// SummaryReport sums up the analysis of several files.
type SummaryReport struct {
	Files []FileSummary `json:"files" yaml:"files"`
}

// FileSummary is the outcome of analyzing one file. Error is set when the
// file could not be analyzed at all.
type FileSummary struct {
	Path       string `json:"path" yaml:"path"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
	Statements int    `json:"statements" yaml:"statements"`
	Components int    `json:"components" yaml:"components"`
	Warnings   int    `json:"warnings" yaml:"warnings"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed counts the files that could not be analyzed.
func (r *SummaryReport) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Error != "" {
			n++
		}
	}
	return n
}

func (r *SummaryReport) WriteText(w io.Writer) error {
	ew := &errWriter{w: w}
	for _, f := range r.Files {
		if f.Error != "" {
			ew.printf("%s: error: %s\n", f.Path, f.Error)
			continue
		}
		ew.printf("%s: %s, %d statements, %d components, %d warnings\n",
			f.Path, f.Type, f.Statements, f.Components, f.Warnings)
	}
	ew.printf("%d files, %d failed\n", len(r.Files), r.Failed())
	return ew.err
}

// Package report turns the results of an analysis session into plain data
// that can be printed as text or encoded as JSON, YAML or msgpack.
package report

import (
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-java-flow/pkg/jast"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Format selects the encoding of a report.
type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// ParseFormat returns the format named s. The empty string means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML, FormatMsgpack:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (use text, json, yaml or msgpack)", s)
}

// Report is implemented by every report of this package.
type Report interface {
	// WriteText prints the report for humans.
	WriteText(w io.Writer) error
}

// Encode writes r to w in the given format.
func Encode(w io.Writer, format Format, r Report) error {
	switch format {
	case FormatText, "":
		return r.WriteText(w)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		return enc.Encode(r)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// Location points at a piece of source.
type Location struct {
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
	Source string `json:"source" yaml:"source"`
}

// At returns the location of n, or nil for a nil node.
func At(n *jast.Node) *Location {
	if n == nil {
		return nil
	}
	return &Location{Line: n.Start.Line, Column: n.Start.Column, Source: firstLine(n.Text)}
}

func (l *Location) String() string {
	if l == nil {
		return "-"
	}
	return fmt.Sprintf("%d:%d %s", l.Line, l.Column, l.Source)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i]) + " ..."
	}
	return s
}

// errWriter remembers the first write error so text output can be written
// without checking every line.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/l3aro/go-java-flow/pkg/model"
)

// ModelReport is the component tree of a built model.
type ModelReport struct {
	Session  string         `json:"session,omitempty" yaml:"session,omitempty"`
	Path     string         `json:"path" yaml:"path"`
	Root     *ComponentNode `json:"root" yaml:"root"`
	Warnings []Warning      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ComponentNode is one component and its children.
type ComponentNode struct {
	Name       string            `json:"name" yaml:"name"`
	Class      string            `json:"class" yaml:"class"`
	Creation   *Location         `json:"creation,omitempty" yaml:"creation,omitempty"`
	Attached   *Location         `json:"attached,omitempty" yaml:"attached,omitempty"`
	Properties map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
	Children   []*ComponentNode  `json:"children,omitempty" yaml:"children,omitempty"`
}

// Warning is a problem met while building the model.
type Warning struct {
	At      Location `json:"at" yaml:"at"`
	Code    string   `json:"code" yaml:"code"`
	Message string   `json:"message" yaml:"message"`
}

// Model converts m. Components never attached to the tree are listed as
// extra children of the root so nothing created is lost.
func Model(session string, m *model.Model) *ModelReport {
	r := &ModelReport{Session: session, Path: m.Unit.Path}
	r.Root = node(m.Root)
	for _, c := range m.Components {
		if c != m.Root && c.Parent == nil {
			r.Root.Children = append(r.Root.Children, node(c))
		}
	}
	for _, w := range m.Warnings {
		r.Warnings = append(r.Warnings, Warning{
			At:      Location{Line: w.Pos.Line, Column: w.Pos.Column, Source: firstLine(w.Source)},
			Code:    w.Code,
			Message: w.Message,
		})
	}
	return r
}

func node(c *model.Component) *ComponentNode {
	n := &ComponentNode{Name: c.Name(), Class: c.Class}
	if !c.IsRoot() {
		n.Creation = At(c.Creation)
	}
	n.Attached = At(c.Association)
	if b := model.BeanOf(c.Object); b != nil {
		n.Properties = properties(b)
	}
	for _, child := range c.Children {
		n.Children = append(n.Children, node(child))
	}
	return n
}

func properties(b *model.Bean) map[string]string {
	names := b.PropertyNames()
	if len(names) == 0 {
		return nil
	}
	out := make(map[string]string, len(names))
	for _, name := range names {
		v, _ := b.Get(name)
		out[name] = describe(v)
	}
	return out
}

func (r *ModelReport) WriteText(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("%s\n", r.Path)
	r.Root.write(ew, 1)
	if len(r.Warnings) > 0 {
		ew.printf("warnings:\n")
		for _, wr := range r.Warnings {
			ew.printf("  %d:%d %s: %s\n", wr.At.Line, wr.At.Column, wr.Code, wr.Message)
		}
	}
	return ew.err
}

func (n *ComponentNode) write(ew *errWriter, depth int) {
	indent := strings.Repeat("  ", depth)
	ew.printf("%s%s %s%s\n", indent, n.Name, n.Class, formatProperties(n.Properties))
	for _, c := range n.Children {
		c.write(ew, depth+1)
	}
}

func formatProperties(props map[string]string) string {
	if len(props) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(props))
	for _, k := range slices.Sorted(maps.Keys(props)) {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, props[k]))
	}
	return " {" + strings.Join(pairs, ", ") + "}"
}

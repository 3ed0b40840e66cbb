package report

import (
	"io"

	"github.com/l3aro/go-java-flow/pkg/analysis"
	"github.com/l3aro/go-java-flow/pkg/flow"
	"github.com/l3aro/go-java-flow/pkg/jast"
)

// FlowReport lists what one walk of the execution flow reached.
type FlowReport struct {
	Session     string      `json:"session" yaml:"session"`
	Path        string      `json:"path" yaml:"path"`
	Type        string      `json:"type" yaml:"type"`
	EntryPoints []string    `json:"entry_points" yaml:"entry_points"`
	Methods     []string    `json:"methods" yaml:"methods"`
	Statements  []Statement `json:"statements" yaml:"statements"`
}

// Statement is one statement reached by the walk.
type Statement struct {
	Location `json:",inline" yaml:",inline"`
	Kind     string `json:"kind" yaml:"kind"`
	// Method is the signature of the enclosing method, empty for field initializers.
	Method string `json:"method,omitempty" yaml:"method,omitempty"`
}

// Flow walks s and records the methods and statements it reaches, in
// visiting order.
func Flow(s *analysis.Session) *FlowReport {
	r := &FlowReport{
		Session: s.ID,
		Path:    s.Unit.Path,
		Type:    jast.TypeName(s.TypeDeclaration()),
	}
	for _, m := range s.EntryPoints() {
		r.EntryPoints = append(r.EntryPoints, jast.MethodSignature(m))
	}
	v := &flowVisitor{r: r, entered: make(map[*jast.Node]bool)}
	s.Walk(v)
	return r
}

type flowVisitor struct {
	flow.BaseVisitor
	r       *FlowReport
	entered map[*jast.Node]bool
}

func (v *flowVisitor) EnterFrame(n *jast.Node) bool {
	if !jast.IsMethod(n) || v.entered[n] {
		return true
	}
	v.entered[n] = true
	v.r.Methods = append(v.r.Methods, jast.MethodSignature(n))
	return true
}

func (v *flowVisitor) Visit(n *jast.Node) bool {
	switch n.Kind {
	case jast.KindExpressionStatement, jast.KindLocalVariableDeclaration,
		jast.KindExplicitConstructorCall, jast.KindReturnStatement, jast.KindFieldDeclaration:
		st := Statement{Location: *At(n), Kind: string(n.Kind)}
		if m := jast.EnclosingMethod(n); m != nil {
			st.Method = jast.MethodSignature(m)
		}
		v.r.Statements = append(v.r.Statements, st)
	}
	return true
}

func (r *FlowReport) WriteText(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("%s (%s)\n", r.Path, r.Type)
	ew.printf("entry points:\n")
	for _, e := range r.EntryPoints {
		ew.printf("  %s\n", e)
	}
	ew.printf("methods:\n")
	for _, m := range r.Methods {
		ew.printf("  %s\n", m)
	}
	ew.printf("statements:\n")
	for _, st := range r.Statements {
		ew.printf("  %4d  %-24s %s\n", st.Line, st.Method, st.Source)
	}
	return ew.err
}

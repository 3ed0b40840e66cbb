package report

import (
	"errors"
	"io"

	"github.com/l3aro/go-java-flow/pkg/eval"
	"github.com/l3aro/go-java-flow/pkg/jast"
)

// EvalReport is the result of evaluating one expression.
type EvalReport struct {
	Expression string    `json:"expression" yaml:"expression"`
	At         *Location `json:"at,omitempty" yaml:"at,omitempty"`
	Value      string    `json:"value,omitempty" yaml:"value,omitempty"`
	Type       string    `json:"type,omitempty" yaml:"type,omitempty"`
	Code       string    `json:"code,omitempty" yaml:"code,omitempty"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Eval describes the outcome of evaluating expr. Expressions parsed outside
// the unit carry no location.
func Eval(expr *jast.Node, classes *eval.ClassRegistry, obj any, err error) *EvalReport {
	r := &EvalReport{Expression: expr.Text}
	if expr.Unit() != nil {
		r.At = At(expr)
	}
	if err != nil {
		r.Error = err.Error()
		var ee *eval.EvaluationError
		if errors.As(err, &ee) {
			r.Code = ee.Code
		}
		return r
	}
	r.Value = describe(obj)
	if obj != nil {
		if cls := classes.ClassOf(obj); cls != nil {
			r.Type = cls.Name
		}
	}
	return r
}

func (r *EvalReport) WriteText(w io.Writer) error {
	ew := &errWriter{w: w}
	if r.Error != "" {
		ew.printf("%s: %s\n", r.Expression, r.Error)
		return ew.err
	}
	ew.printf("%s", r.Value)
	if r.Type != "" {
		ew.printf(" (%s)", r.Type)
	}
	ew.printf("\n")
	return ew.err
}

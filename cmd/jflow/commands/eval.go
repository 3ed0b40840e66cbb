package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-java-flow/pkg/jast"
	"github.com/l3aro/go-java-flow/pkg/report"
)

func newEvalCmd(a *app) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "eval FILE [EXPRESSION]",
		Short: "Evaluate one expression in the context of a file",
		Long: `Evaluates an expression of FILE the way a designer would at design time.
The expression is looked up by its source text, or by position with
--at LINE[:COL]. Text that does not occur in FILE is parsed on its own and
evaluated against the file's classes and values.`,
		Example: `  jflow eval Panel.java "10 * 2"
  jflow eval Panel.java --at 12:19`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 2) == (at != "") {
				return fmt.Errorf("give either an EXPRESSION or --at")
			}
			s, err := a.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var expr *jast.Node
			if at != "" {
				p, err := parsePoint(at)
				if err != nil {
					return err
				}
				if p.Column < 1 {
					p.Column = firstColumn(s.Unit.Source, p.Line)
				}
				expr = s.Unit.NodeAt(p)
				if expr == nil {
					return fmt.Errorf("no node starts at %s in %s", p, args[0])
				}
			} else {
				expr = findExpression(s.Unit, args[1])
				if expr == nil {
					expr, err = jast.ParseExpression(cmd.Context(), args[1])
					if err != nil {
						return err
					}
				}
			}

			obj, err := s.Evaluate(expr)
			a.logger.Debug("evaluated", "expression", expr.Text, "error", err)
			return a.output(cmd, report.Eval(expr, s.Classes, obj, err))
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Position LINE[:COL] of the expression, 1-based")
	return cmd
}

// findExpression returns the outermost node of u whose source is text.
func findExpression(u *jast.Unit, text string) *jast.Node {
	text = strings.TrimSpace(text)
	var found *jast.Node
	u.Root.Inspect(func(n *jast.Node) bool {
		if found != nil {
			return false
		}
		if n.Text == text && !isStatement(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

func isStatement(n *jast.Node) bool {
	return n.Is(jast.KindExpressionStatement, jast.KindLocalVariableDeclaration,
		jast.KindReturnStatement, jast.KindFieldDeclaration)
}

// parsePoint reads LINE or LINE:COL. The column defaults to the first
// non-blank one on the line.
func parsePoint(s string) (jast.Point, error) {
	line, col, hasCol := strings.Cut(s, ":")
	var p jast.Point
	var err error
	if p.Line, err = strconv.Atoi(line); err != nil || p.Line < 1 {
		return p, fmt.Errorf("invalid line in %q", s)
	}
	if !hasCol {
		return p, nil
	}
	if p.Column, err = strconv.Atoi(col); err != nil || p.Column < 1 {
		return p, fmt.Errorf("invalid column in %q", s)
	}
	return p, nil
}

// firstColumn returns the 1-based column of the first non-blank character of
// the given line.
func firstColumn(src []byte, line int) int {
	lines := strings.Split(string(src), "\n")
	if line > len(lines) {
		return 1
	}
	l := lines[line-1]
	return len(l) - len(strings.TrimLeft(l, " \t")) + 1
}

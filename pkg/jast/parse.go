package jast

import (
	"context"
	"fmt"
	"os"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// javaParserPool is a pool of reusable tree-sitter parsers for Java.
var javaParserPool = sync.Pool{
	New: func() interface{} {
		parser := sitter.NewParser()
		parser.SetLanguage(java.GetLanguage())
		return parser
	},
}

// fieldNames lists the grammar fields preserved on converted nodes.
var fieldNames = []string{
	"name", "body", "type", "parameters", "condition", "consequence", "alternative",
	"left", "right", "operator", "object", "arguments", "value", "declarator",
	"field", "constructor", "operand", "resources", "superclass", "interfaces",
	"type_arguments", "type_parameters", "dimensions", "array", "index", "init", "update",
}

// ParseFile reads and parses a Java source file.
func ParseFile(ctx context.Context, path string) (*Unit, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return Parse(ctx, path, content)
}

// Parse parses Java source into a Unit.
func Parse(ctx context.Context, path string, content []byte) (*Unit, error) {
	parser := javaParserPool.Get().(*sitter.Parser)
	defer javaParserPool.Put(parser)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing file %s: %w", path, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("parsing file %s failed", path)
	}
	defer tree.Close()

	u := &Unit{Path: path, Source: content}
	root := tree.RootNode()
	u.HasErrors = root.HasError()
	u.Root = convert(root, content, "", nil, u)
	return u, nil
}

// ParseExpression parses a standalone Java expression. The returned node is
// detached and can be spliced into a Unit with Unit.Replace.
func ParseExpression(ctx context.Context, src string) (*Node, error) {
	wrapped := "class __Expr { Object __e = " + src + "; }"
	u, err := Parse(ctx, "<expression>", []byte(wrapped))
	if err != nil {
		return nil, err
	}
	if u.HasErrors {
		return nil, fmt.Errorf("invalid expression %q", src)
	}
	var expr *Node
	u.Root.Inspect(func(n *Node) bool {
		if expr != nil {
			return false
		}
		if n.Kind == KindVariableDeclarator {
			expr = n.ChildByField("value")
			return false
		}
		return true
	})
	if expr == nil {
		return nil, fmt.Errorf("invalid expression %q", src)
	}
	expr.Parent = nil
	expr.Field = ""
	expr.unit = nil
	return expr, nil
}

type span struct {
	start, end uint32
	kind       string
}

func spanOf(n *sitter.Node) span {
	return span{start: n.StartByte(), end: n.EndByte(), kind: n.Type()}
}

// fieldIndex maps the children of ts to their grammar field names.
func fieldIndex(ts *sitter.Node) map[span]string {
	var idx map[span]string
	for _, name := range fieldNames {
		c := ts.ChildByFieldName(name)
		if c == nil {
			continue
		}
		if idx == nil {
			idx = make(map[span]string, 4)
		}
		idx[spanOf(c)] = name
	}
	return idx
}

func convert(ts *sitter.Node, src []byte, field string, parent *Node, u *Unit) *Node {
	start, end := ts.StartPoint(), ts.EndPoint()
	n := &Node{
		Kind:   Kind(ts.Type()),
		Field:  field,
		Text:   ts.Content(src),
		Start:  Point{Line: int(start.Row) + 1, Column: int(start.Column) + 1},
		End:    Point{Line: int(end.Row) + 1, Column: int(end.Column) + 1},
		Parent: parent,
		unit:   u,
	}

	fields := fieldIndex(ts)
	count := int(ts.ChildCount())
	for i := 0; i < count; i++ {
		c := ts.Child(i)
		if c == nil {
			continue
		}
		name := fields[spanOf(c)]
		if !c.IsNamed() {
			switch {
			case name == "operator":
				n.Op = c.Type()
			case n.Kind == KindUpdate && (c.Type() == "++" || c.Type() == "--"):
				n.Op = c.Type()
				n.Postfix = i > 0
			}
			continue
		}
		n.Children = append(n.Children, convert(c, src, name, n, u))
	}
	return n
}

// Package jast provides an owned, mutable Java syntax tree built on top of the
// tree-sitter Java grammar. Nodes have stable pointer identity for the lifetime
// of a Unit, so analysis caches can be keyed by *Node.
package jast

import (
	"fmt"
	"strings"
)

// Kind is the tree-sitter node type of a Node.
type Kind string

// Node kinds used by the analysis packages.
const (
	KindProgram                  Kind = "program"
	KindPackageDeclaration       Kind = "package_declaration"
	KindImportDeclaration        Kind = "import_declaration"
	KindClassDeclaration         Kind = "class_declaration"
	KindInterfaceDeclaration     Kind = "interface_declaration"
	KindEnumDeclaration          Kind = "enum_declaration"
	KindClassBody                Kind = "class_body"
	KindFieldDeclaration         Kind = "field_declaration"
	KindMethodDeclaration        Kind = "method_declaration"
	KindConstructorDeclaration   Kind = "constructor_declaration"
	KindConstructorBody          Kind = "constructor_body"
	KindStaticInitializer        Kind = "static_initializer"
	KindFormalParameters         Kind = "formal_parameters"
	KindFormalParameter          Kind = "formal_parameter"
	KindCatchFormalParameter     Kind = "catch_formal_parameter"
	KindModifiers                Kind = "modifiers"
	KindBlock                    Kind = "block"
	KindLocalVariableDeclaration Kind = "local_variable_declaration"
	KindVariableDeclarator       Kind = "variable_declarator"
	KindExpressionStatement      Kind = "expression_statement"
	KindIfStatement              Kind = "if_statement"
	KindTryStatement             Kind = "try_statement"
	KindTryWithResources         Kind = "try_with_resources_statement"
	KindReturnStatement          Kind = "return_statement"
	KindExplicitConstructorCall  Kind = "explicit_constructor_invocation"
	KindAssignment               Kind = "assignment_expression"
	KindBinary                   Kind = "binary_expression"
	KindUnary                    Kind = "unary_expression"
	KindUpdate                   Kind = "update_expression"
	KindParenthesized            Kind = "parenthesized_expression"
	KindCast                     Kind = "cast_expression"
	KindTernary                  Kind = "ternary_expression"
	KindLambda                   Kind = "lambda_expression"
	KindMethodInvocation         Kind = "method_invocation"
	KindObjectCreation           Kind = "object_creation_expression"
	KindFieldAccess              Kind = "field_access"
	KindArgumentList             Kind = "argument_list"
	KindIdentifier               Kind = "identifier"
	KindScopedIdentifier         Kind = "scoped_identifier"
	KindThis                     Kind = "this"
	KindSuper                    Kind = "super"
	KindTrue                     Kind = "true"
	KindFalse                    Kind = "false"
	KindNull                     Kind = "null_literal"
	KindDecimalInteger           Kind = "decimal_integer_literal"
	KindHexInteger               Kind = "hex_integer_literal"
	KindOctalInteger             Kind = "octal_integer_literal"
	KindBinaryInteger            Kind = "binary_integer_literal"
	KindDecimalFloat             Kind = "decimal_floating_point_literal"
	KindHexFloat                 Kind = "hex_floating_point_literal"
	KindCharacterLiteral         Kind = "character_literal"
	KindStringLiteral            Kind = "string_literal"
	KindTypeIdentifier           Kind = "type_identifier"
	KindScopedTypeIdentifier     Kind = "scoped_type_identifier"
	KindGenericType              Kind = "generic_type"
	KindArrayType                Kind = "array_type"
	KindIntegralType             Kind = "integral_type"
	KindFloatingPointType        Kind = "floating_point_type"
	KindBooleanType              Kind = "boolean_type"
	KindVoidType                 Kind = "void_type"
	KindBlockComment             Kind = "block_comment"
	KindLineComment              Kind = "line_comment"
	KindError                    Kind = "ERROR"
)

// Point is a 1-based source position.
type Point struct {
	Line   int `json:"line" yaml:"line" msgpack:"line"`
	Column int `json:"column" yaml:"column" msgpack:"column"`
}

func (p Point) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is a named syntax node. Anonymous tokens are folded into Op and Postfix.
type Node struct {
	Kind Kind
	// Field is the grammar field name under which the node hangs off its parent.
	Field string
	// Op is the operator token of assignment, binary, unary and update expressions.
	Op string
	// Postfix is set on update expressions whose operator follows the operand.
	Postfix bool
	Text    string
	Start   Point
	End     Point

	Parent   *Node
	Children []*Node

	unit *Unit
}

// Unit is one parsed Java compilation unit.
type Unit struct {
	Path   string
	Source []byte
	Root   *Node
	// HasErrors is set when tree-sitter produced ERROR or MISSING nodes.
	HasErrors bool

	modCount int64

	types      []*Node
	typesStamp int64
}

// ModificationCount changes whenever the tree is edited through the Unit.
func (u *Unit) ModificationCount() int64 {
	return u.modCount
}

// MarkModified records an edit that happened outside Replace and Detach.
func (u *Unit) MarkModified() {
	u.modCount++
}

// Replace puts repl where old was. old becomes dangling.
func (u *Unit) Replace(old, repl *Node) error {
	if old.Parent == nil {
		return fmt.Errorf("cannot replace root or detached node %s", old.Kind)
	}
	parent := old.Parent
	for i, c := range parent.Children {
		if c == old {
			repl.Parent = parent
			repl.Field = old.Field
			repl.setUnit(u)
			parent.Children[i] = repl
			old.Parent = nil
			u.modCount++
			return nil
		}
	}
	return fmt.Errorf("node %s not found under its parent", old.Kind)
}

// Detach removes n from its parent. n becomes dangling.
func (u *Unit) Detach(n *Node) {
	if n.Parent == nil {
		return
	}
	parent := n.Parent
	for i, c := range parent.Children {
		if c == n {
			parent.Children = append(parent.Children[:i:i], parent.Children[i+1:]...)
			break
		}
	}
	n.Parent = nil
	u.modCount++
}

func (n *Node) setUnit(u *Unit) {
	n.unit = u
	for _, c := range n.Children {
		c.setUnit(u)
	}
}

// Unit returns the compilation unit the node belongs to.
func (n *Node) Unit() *Unit {
	return n.unit
}

// Root returns the topmost ancestor of n.
func (n *Node) Root() *Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// IsDangling reports whether n was removed from its compilation unit.
func (n *Node) IsDangling() bool {
	if n == nil || n.unit == nil {
		return true
	}
	return n.Root() != n.unit.Root
}

// Is reports whether n is one of the given kinds.
func (n *Node) Is(kinds ...Kind) bool {
	if n == nil {
		return false
	}
	for _, k := range kinds {
		if n.Kind == k {
			return true
		}
	}
	return false
}

// ChildByField returns the first child attached under field.
func (n *Node) ChildByField(field string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Field == field {
			return c
		}
	}
	return nil
}

// ChildrenOfKind returns the direct children of the given kind.
func (n *Node) ChildrenOfKind(kind Kind) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// FirstChildOfKind returns the first direct child of the given kind.
func (n *Node) FirstChildOfKind(kind Kind) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// Code returns the direct children that are not comments.
func (n *Node) Code() []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if !c.IsComment() {
			out = append(out, c)
		}
	}
	return out
}

// FirstCode returns the first non-comment child.
func (n *Node) FirstCode() *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if !c.IsComment() {
			return c
		}
	}
	return nil
}

// IsComment reports whether n is a line or block comment.
func (n *Node) IsComment() bool {
	return n.Kind == KindBlockComment || n.Kind == KindLineComment
}

// PrevSibling returns the previous sibling of n, or nil.
func (n *Node) PrevSibling() *Node {
	if n.Parent == nil {
		return nil
	}
	for i, c := range n.Parent.Children {
		if c == n {
			if i == 0 {
				return nil
			}
			return n.Parent.Children[i-1]
		}
	}
	return nil
}

// Inspect calls fn for n and its descendants in pre-order. Returning false skips children.
func (n *Node) Inspect(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Inspect(fn)
	}
}

// Contains reports whether n is an ancestor of (or equal to) other.
func (n *Node) Contains(other *Node) bool {
	for p := other; p != nil; p = p.Parent {
		if p == n {
			return true
		}
	}
	return false
}

// Find returns the first descendant (pre-order, n included) of the given kind
// whose text equals text. An empty text matches any node of that kind.
func (n *Node) Find(kind Kind, text string) *Node {
	var found *Node
	n.Inspect(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Kind == kind && (text == "" || c.Text == text) {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindAll returns every descendant of the given kind whose text equals text.
func (n *Node) FindAll(kind Kind, text string) []*Node {
	var out []*Node
	n.Inspect(func(c *Node) bool {
		if c.Kind == kind && (text == "" || c.Text == text) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// NodeAt returns the innermost node starting at p, optionally restricted to kinds.
func (u *Unit) NodeAt(p Point, kinds ...Kind) *Node {
	var found *Node
	u.Root.Inspect(func(c *Node) bool {
		if !covers(c, p) {
			return false
		}
		if c.Start == p && (len(kinds) == 0 || c.Is(kinds...)) {
			found = c
		}
		return true
	})
	return found
}

func covers(n *Node, p Point) bool {
	if p.Line < n.Start.Line || p.Line > n.End.Line {
		return false
	}
	if p.Line == n.Start.Line && p.Column < n.Start.Column {
		return false
	}
	if p.Line == n.End.Line && p.Column > n.End.Column {
		return false
	}
	return true
}

// Describe renders a short human readable locator, e.g. "method_invocation@12:5 foo()".
func (n *Node) Describe() string {
	text := n.Text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i] + "..."
	}
	if len(text) > 60 {
		text = text[:57] + "..."
	}
	return fmt.Sprintf("%s@%s %s", n.Kind, n.Start, text)
}

func (n *Node) String() string {
	return n.Describe()
}

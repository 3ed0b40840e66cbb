package jast

import "strings"

// TopType returns the first top-level type declaration of the unit.
func (u *Unit) TopType() *Node {
	for _, c := range u.Root.Children {
		if c.Is(KindClassDeclaration, KindEnumDeclaration, KindInterfaceDeclaration) {
			return c
		}
	}
	return nil
}

// Types returns all class declarations in the unit, nested ones included.
func (u *Unit) Types() []*Node {
	if u.types != nil && u.typesStamp == u.modCount {
		return u.types
	}
	out := []*Node{}
	u.Root.Inspect(func(n *Node) bool {
		if n.Kind == KindClassDeclaration {
			out = append(out, n)
		}
		return true
	})
	u.types, u.typesStamp = out, u.modCount
	return out
}

// TypeByName returns the class declaration with the given simple name.
func (u *Unit) TypeByName(name string) *Node {
	for _, t := range u.Types() {
		if TypeName(t) == name {
			return t
		}
	}
	return nil
}

// PackageName returns the declared package, or "".
func (u *Unit) PackageName() string {
	pkg := u.Root.FirstChildOfKind(KindPackageDeclaration)
	if pkg == nil {
		return ""
	}
	for _, c := range pkg.Children {
		if c.Is(KindScopedIdentifier, KindIdentifier) {
			return c.Text
		}
	}
	return ""
}

// Imports returns single-type imports keyed by simple name.
func (u *Unit) Imports() map[string]string {
	out := make(map[string]string)
	for _, imp := range u.Root.ChildrenOfKind(KindImportDeclaration) {
		text := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(imp.Text, "import"), ";"))
		if strings.HasPrefix(text, "static ") || strings.HasSuffix(text, "*") {
			continue
		}
		simple := text
		if i := strings.LastIndexByte(text, '.'); i >= 0 {
			simple = text[i+1:]
		}
		out[simple] = text
	}
	return out
}

// TypeName returns the simple name of a type declaration.
func TypeName(typeDecl *Node) string {
	if name := typeDecl.ChildByField("name"); name != nil {
		return name.Text
	}
	return ""
}

// Superclass returns the type a class declaration extends, or nil.
func Superclass(typeDecl *Node) *TypeBinding {
	if typeDecl == nil {
		return nil
	}
	if ext := typeDecl.ChildByField("superclass"); ext != nil {
		return TypeOf(ext.FirstCode())
	}
	return nil
}

// ClassBody returns the body of a class declaration or anonymous creation.
func ClassBody(n *Node) *Node {
	if n == nil {
		return nil
	}
	if body := n.ChildByField("body"); body != nil && body.Kind == KindClassBody {
		return body
	}
	return n.FirstChildOfKind(KindClassBody)
}

// Methods returns the method and constructor declarations of a type, in source order.
func Methods(typeDecl *Node) []*Node {
	var out []*Node
	for _, c := range ClassBody(typeDecl).childrenOrNil() {
		if c.Is(KindMethodDeclaration, KindConstructorDeclaration) {
			out = append(out, c)
		}
	}
	return out
}

// Constructors returns the constructor declarations of a type.
func Constructors(typeDecl *Node) []*Node {
	var out []*Node
	for _, m := range Methods(typeDecl) {
		if m.Kind == KindConstructorDeclaration {
			out = append(out, m)
		}
	}
	return out
}

// Fields returns the field declarations of a type.
func Fields(typeDecl *Node) []*Node {
	return ClassBody(typeDecl).childrenOfKindOrNil(KindFieldDeclaration)
}

// Initializers returns the static or instance initializer blocks of a type.
func Initializers(typeDecl *Node, static bool) []*Node {
	var out []*Node
	for _, c := range ClassBody(typeDecl).childrenOrNil() {
		switch {
		case static && c.Kind == KindStaticInitializer:
			if b := c.FirstChildOfKind(KindBlock); b != nil {
				out = append(out, b)
			}
		case !static && c.Kind == KindBlock:
			out = append(out, c)
		}
	}
	return out
}

// Declarators returns the variable declarators of a field or local declaration.
func Declarators(decl *Node) []*Node {
	return decl.ChildrenOfKind(KindVariableDeclarator)
}

// Parameters returns the formal parameters of a method or constructor.
func Parameters(method *Node) []*Node {
	params := method.ChildByField("parameters")
	if params == nil {
		return nil
	}
	var out []*Node
	for _, c := range params.Children {
		if c.Is(KindFormalParameter, "spread_parameter") {
			out = append(out, c)
		}
	}
	return out
}

// Body returns the body block of a method or constructor.
func Body(method *Node) *Node {
	return method.ChildByField("body")
}

// Statements returns the statements of a block, comments excluded.
func Statements(block *Node) []*Node {
	if block == nil {
		return nil
	}
	return block.Code()
}

// Arguments returns the argument expressions of an invocation or creation.
func Arguments(n *Node) []*Node {
	args := n.ChildByField("arguments")
	if args == nil {
		return nil
	}
	return args.Code()
}

// MethodName returns the declared or invoked method name.
func MethodName(n *Node) string {
	if name := n.ChildByField("name"); name != nil {
		return name.Text
	}
	return ""
}

// DeclaredName returns the name identifier of a declarator or parameter.
func DeclaredName(decl *Node) *Node {
	if decl == nil {
		return nil
	}
	return decl.ChildByField("name")
}

// IsDeclaration reports whether n declares a variable.
func IsDeclaration(n *Node) bool {
	return n.Is(KindVariableDeclarator, KindFormalParameter, KindCatchFormalParameter, "spread_parameter")
}

// IsFieldDeclarator reports whether a declarator belongs to a field declaration.
func IsFieldDeclarator(n *Node) bool {
	return n.Kind == KindVariableDeclarator && n.Parent != nil && n.Parent.Kind == KindFieldDeclaration
}

// HasModifier reports whether a declaration carries the given keyword modifier.
func HasModifier(decl *Node, modifier string) bool {
	if decl == nil {
		return false
	}
	if decl.Kind == KindStaticInitializer && modifier == "static" {
		return true
	}
	mods := decl.FirstChildOfKind(KindModifiers)
	if mods == nil {
		return false
	}
	for _, word := range strings.Fields(mods.Text) {
		if word == modifier {
			return true
		}
	}
	return false
}

// IsStatic reports whether a member is static.
func IsStatic(decl *Node) bool {
	if decl != nil && decl.Kind == KindBlock && decl.Parent != nil && decl.Parent.Kind == KindStaticInitializer {
		return true
	}
	return HasModifier(decl, "static")
}

// IsMethod reports whether n is a method or constructor declaration.
func IsMethod(n *Node) bool {
	return n.Is(KindMethodDeclaration, KindConstructorDeclaration)
}

// Javadoc returns the "/** ... */" comment directly preceding a member.
func Javadoc(decl *Node) string {
	prev := decl.PrevSibling()
	if prev == nil || prev.Kind != KindBlockComment || !strings.HasPrefix(prev.Text, "/**") {
		return ""
	}
	return prev.Text
}

// HasJavadocTag reports whether the member's javadoc contains tag.
func HasJavadocTag(decl *Node, tag string) bool {
	_, ok := JavadocTag(decl, tag)
	return ok
}

// JavadocTag returns the text following tag on its line.
func JavadocTag(decl *Node, tag string) (string, bool) {
	doc := Javadoc(decl)
	if doc == "" {
		return "", false
	}
	for _, line := range strings.Split(doc, "\n") {
		i := strings.Index(line, tag)
		if i < 0 {
			continue
		}
		rest := line[i+len(tag):]
		if rest != "" && !strings.ContainsAny(rest[:1], " \t*") {
			continue
		}
		rest = strings.TrimSuffix(strings.TrimSpace(rest), "*/")
		return strings.TrimSpace(rest), true
	}
	return "", false
}

// MethodSignature renders a declaration as name(paramType,...).
func MethodSignature(method *Node) string {
	var sb strings.Builder
	if method.Kind == KindConstructorDeclaration {
		sb.WriteString("<init>")
	} else {
		sb.WriteString(MethodName(method))
	}
	sb.WriteByte('(')
	for i, p := range Parameters(method) {
		if i > 0 {
			sb.WriteByte(',')
		}
		if t := p.ChildByField("type"); t != nil {
			sb.WriteString(t.Text)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

// EnclosingType returns the closest enclosing class declaration.
func EnclosingType(n *Node) *Node {
	return Enclosing(n, KindClassDeclaration, KindEnumDeclaration, KindInterfaceDeclaration)
}

// EnclosingMethod returns the closest enclosing method or constructor declaration.
func EnclosingMethod(n *Node) *Node {
	return Enclosing(n, KindMethodDeclaration, KindConstructorDeclaration)
}

// Enclosing returns the closest strict ancestor of one of the kinds.
func Enclosing(n *Node, kinds ...Kind) *Node {
	if n == nil {
		return nil
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Is(kinds...) {
			return p
		}
	}
	return nil
}

// Unparen strips parentheses around an expression.
func Unparen(n *Node) *Node {
	for n != nil && n.Kind == KindParenthesized {
		n = n.FirstCode()
	}
	return n
}

// IsThis reports whether n is the "this" expression.
func IsThis(n *Node) bool {
	return n != nil && n.Kind == KindThis
}

// IsThisFieldAccess reports whether n is "this.name".
func IsThisFieldAccess(n *Node) bool {
	return n != nil && n.Kind == KindFieldAccess && IsThis(n.ChildByField("object"))
}

func (n *Node) childrenOrNil() []*Node {
	if n == nil {
		return nil
	}
	return n.Children
}

func (n *Node) childrenOfKindOrNil(kind Kind) []*Node {
	if n == nil {
		return nil
	}
	return n.ChildrenOfKind(kind)
}

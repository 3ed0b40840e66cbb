package jast

import "strings"

// TypeBinding is the statically known type of an expression or declaration.
type TypeBinding struct {
	// Name is the type as written, without type arguments.
	Name      string
	Qualified string
	Primitive bool
	Array     bool
}

var primitiveTypes = map[string]bool{
	"int": true, "long": true, "short": true, "byte": true, "char": true,
	"float": true, "double": true, "boolean": true, "void": true,
}

var javaLangTypes = map[string]bool{
	"Object": true, "String": true, "StringBuilder": true, "StringBuffer": true,
	"Integer": true, "Long": true, "Short": true, "Byte": true, "Character": true,
	"Float": true, "Double": true, "Boolean": true, "Number": true, "Math": true,
	"System": true, "Runnable": true, "Thread": true, "Class": true, "Enum": true,
	"Exception": true, "RuntimeException": true, "Iterable": true, "CharSequence": true,
}

// Qualify resolves a simple type name in the context of u.
func Qualify(u *Unit, name string) string {
	if primitiveTypes[name] || strings.Contains(name, ".") {
		return name
	}
	if u != nil {
		if q, ok := u.Imports()[name]; ok {
			return q
		}
		if u.TypeByName(name) != nil {
			if pkg := u.PackageName(); pkg != "" {
				return pkg + "." + name
			}
			return name
		}
	}
	if javaLangTypes[name] {
		return "java.lang." + name
	}
	return name
}

// TypeOf converts a type node into a binding.
func TypeOf(t *Node) *TypeBinding {
	if t == nil {
		return nil
	}
	name := t.Text
	if i := strings.IndexByte(name, '<'); i >= 0 {
		name = name[:i]
	}
	array := t.Kind == KindArrayType || strings.HasSuffix(name, "]")
	if array {
		name = strings.TrimSpace(strings.SplitN(name, "[", 2)[0])
	}
	name = strings.TrimSpace(name)
	return &TypeBinding{
		Name:      name,
		Qualified: Qualify(t.unit, name),
		Primitive: !array && primitiveTypes[name],
		Array:     array,
	}
}

func primitive(name string) *TypeBinding {
	return &TypeBinding{Name: name, Qualified: name, Primitive: true}
}

func simpleName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// DeclaredType returns the declared type of a declarator or parameter.
func DeclaredType(decl *Node) *TypeBinding {
	switch {
	case decl == nil:
		return nil
	case decl.Kind == KindVariableDeclarator:
		if decl.Parent == nil {
			return nil
		}
		return TypeOf(decl.Parent.ChildByField("type"))
	default:
		return TypeOf(decl.ChildByField("type"))
	}
}

// ResolveType returns the static type of an expression, or nil when unknown.
func ResolveType(expr *Node) *TypeBinding {
	if expr == nil {
		return nil
	}
	switch expr.Kind {
	case KindDecimalInteger, KindHexInteger, KindOctalInteger, KindBinaryInteger:
		if strings.HasSuffix(expr.Text, "l") || strings.HasSuffix(expr.Text, "L") {
			return primitive("long")
		}
		return primitive("int")
	case KindDecimalFloat, KindHexFloat:
		if strings.HasSuffix(expr.Text, "f") || strings.HasSuffix(expr.Text, "F") {
			return primitive("float")
		}
		return primitive("double")
	case KindTrue, KindFalse:
		return primitive("boolean")
	case KindCharacterLiteral:
		return primitive("char")
	case KindStringLiteral:
		return &TypeBinding{Name: "String", Qualified: "java.lang.String"}
	case KindObjectCreation, KindCast:
		return TypeOf(expr.ChildByField("type"))
	case KindParenthesized:
		return ResolveType(expr.FirstCode())
	case KindThis:
		if t := EnclosingType(expr); t != nil {
			name := TypeName(t)
			return &TypeBinding{Name: name, Qualified: Qualify(expr.unit, name)}
		}
	case KindIdentifier, KindFieldAccess:
		if decl := ResolveVariable(expr); decl != nil {
			return DeclaredType(decl)
		}
		if expr.Kind == KindIdentifier && expr.unit != nil && expr.unit.TypeByName(expr.Text) != nil {
			return &TypeBinding{Name: expr.Text, Qualified: Qualify(expr.unit, expr.Text)}
		}
	case KindMethodInvocation:
		if m := LocalMethod(expr); m != nil {
			return TypeOf(m.ChildByField("type"))
		}
	case KindAssignment:
		return ResolveType(expr.ChildByField("left"))
	case KindUnary:
		if expr.Op == "!" {
			return primitive("boolean")
		}
		return ResolveType(expr.ChildByField("operand"))
	case KindUpdate:
		return ResolveType(expr.FirstCode())
	case KindBinary:
		switch expr.Op {
		case "==", "!=", "<", ">", "<=", ">=", "&&", "||", "instanceof":
			return primitive("boolean")
		}
		left, right := ResolveType(expr.ChildByField("left")), ResolveType(expr.ChildByField("right"))
		if expr.Op == "+" && (isString(left) || isString(right)) {
			return &TypeBinding{Name: "String", Qualified: "java.lang.String"}
		}
		return left
	}
	return nil
}

func isString(b *TypeBinding) bool {
	return b != nil && b.Qualified == "java.lang.String"
}

// VariableName returns the variable name referenced by an identifier or "this.x".
func VariableName(n *Node) string {
	switch n.Kind {
	case KindIdentifier:
		return n.Text
	case KindFieldAccess:
		if f := n.ChildByField("field"); f != nil {
			return f.Text
		}
	case KindVariableDeclarator, KindFormalParameter, KindCatchFormalParameter:
		if name := DeclaredName(n); name != nil {
			return name.Text
		}
	}
	return ""
}

// IsVariableReference reports whether n names a variable: a plain identifier in
// expression or declaration position, or a "this.x" field access.
func IsVariableReference(n *Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case KindFieldAccess:
		return IsThisFieldAccess(n)
	case KindIdentifier:
		p := n.Parent
		if p == nil {
			return false
		}
		switch p.Kind {
		case KindMethodInvocation:
			return n.Field != "name"
		case KindFieldAccess:
			return n.Field != "field"
		case KindClassDeclaration, KindInterfaceDeclaration, KindEnumDeclaration,
			KindMethodDeclaration, KindConstructorDeclaration:
			return n.Field != "name"
		case KindScopedIdentifier, KindPackageDeclaration, KindImportDeclaration,
			"labeled_statement", "break_statement", "continue_statement",
			"annotation", "marker_annotation", "element_value_pair":
			return false
		}
		return true
	}
	return false
}

// ResolveVariable finds the declaration (declarator or parameter) a variable
// reference points to, using lexical scoping. It returns nil for unknown names.
func ResolveVariable(ref *Node) *Node {
	if ref == nil {
		return nil
	}
	if ref.Parent != nil && IsDeclaration(ref.Parent) && ref.Field == "name" {
		return ref.Parent
	}
	if IsDeclaration(ref) {
		return ref
	}
	name := VariableName(ref)
	if name == "" {
		return nil
	}
	fieldsOnly := ref.Kind == KindFieldAccess
	if fieldsOnly && !IsThisFieldAccess(ref) {
		return nil
	}

	child := ref
	for p := ref.Parent; p != nil; child, p = p, p.Parent {
		switch p.Kind {
		case KindBlock, KindConstructorBody:
			if fieldsOnly {
				continue
			}
			var found *Node
			for _, stmt := range p.Children {
				if stmt == child {
					break
				}
				if stmt.Kind != KindLocalVariableDeclaration {
					continue
				}
				for _, d := range Declarators(stmt) {
					if VariableName(d) == name {
						found = d
					}
				}
			}
			if found != nil {
				return found
			}
		case KindLocalVariableDeclaration:
			if fieldsOnly {
				continue
			}
			for _, d := range Declarators(p) {
				if d == child {
					break
				}
				if VariableName(d) == name {
					return d
				}
			}
		case KindMethodDeclaration, KindConstructorDeclaration:
			if fieldsOnly {
				continue
			}
			for _, param := range Parameters(p) {
				if VariableName(param) == name {
					return param
				}
			}
		case "catch_clause":
			if fieldsOnly {
				continue
			}
			if param := p.FirstChildOfKind(KindCatchFormalParameter); param != nil && VariableName(param) == name {
				return param
			}
		case KindClassBody:
			for _, field := range p.ChildrenOfKind(KindFieldDeclaration) {
				for _, d := range Declarators(field) {
					if VariableName(d) == name {
						return d
					}
				}
			}
			if fieldsOnly {
				return nil
			}
		}
	}
	return nil
}

// LocalMethod resolves an invocation to a method declared in the same
// compilation unit, or returns nil.
func LocalMethod(inv *Node) *Node {
	if inv == nil || inv.Kind != KindMethodInvocation {
		return nil
	}
	name := MethodName(inv)
	args := Arguments(inv)
	obj := inv.ChildByField("object")
	switch {
	case obj == nil || IsThis(obj):
		for t := EnclosingType(inv); t != nil; t = EnclosingType(t) {
			if m := findMethod(t, name, args); m != nil {
				return m
			}
		}
	case obj.Kind == KindSuper:
		return nil
	default:
		b := ResolveType(obj)
		if b == nil || inv.unit == nil {
			return nil
		}
		if t := inv.unit.TypeByName(simpleName(b.Name)); t != nil {
			return findMethod(t, name, args)
		}
	}
	return nil
}

func findMethod(typeDecl *Node, name string, args []*Node) *Node {
	var candidates []*Node
	for _, m := range Methods(typeDecl) {
		if m.Kind == KindMethodDeclaration && MethodName(m) == name && len(Parameters(m)) == len(args) {
			candidates = append(candidates, m)
		}
	}
	return pickOverload(candidates, args)
}

func pickOverload(candidates []*Node, args []*Node) *Node {
	if len(candidates) <= 1 {
		if len(candidates) == 1 {
			return candidates[0]
		}
		return nil
	}
	for _, m := range candidates {
		matches := true
		for i, p := range Parameters(m) {
			want, got := DeclaredType(p), ResolveType(args[i])
			if want != nil && got != nil && want.Name != got.Name {
				matches = false
				break
			}
		}
		if matches {
			return m
		}
	}
	return candidates[0]
}

// LocalConstructor resolves "new T(...)" to a constructor of a type declared in
// the same compilation unit. Anonymous creations never resolve.
func LocalConstructor(creation *Node) *Node {
	if creation == nil || creation.Kind != KindObjectCreation || creation.FirstChildOfKind(KindClassBody) != nil {
		return nil
	}
	b := TypeOf(creation.ChildByField("type"))
	if b == nil || creation.unit == nil {
		return nil
	}
	t := creation.unit.TypeByName(simpleName(b.Name))
	if t == nil {
		return nil
	}
	args := Arguments(creation)
	var candidates []*Node
	for _, c := range Constructors(t) {
		if len(Parameters(c)) == len(args) {
			candidates = append(candidates, c)
		}
	}
	return pickOverload(candidates, args)
}

// ConstructorFor resolves "this(...)" to the targeted constructor.
// "super(...)" is not resolved.
func ConstructorFor(call *Node) *Node {
	if call == nil || call.Kind != KindExplicitConstructorCall {
		return nil
	}
	target := call.ChildByField("constructor")
	if target == nil {
		target = call.FirstCode()
	}
	if !IsThis(target) {
		return nil
	}
	self := EnclosingMethod(call)
	t := EnclosingType(call)
	if t == nil {
		return nil
	}
	args := Arguments(call)
	var candidates []*Node
	for _, c := range Constructors(t) {
		if c != self && len(Parameters(c)) == len(args) {
			candidates = append(candidates, c)
		}
	}
	return pickOverload(candidates, args)
}

package jast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSource = `package demo;

import java.awt.Dimension;

public class Test {
	private int count = 1;
	private Dimension size;

	/**
	 * @wbp.parser.constructor
	 */
	public Test() {
		this(5);
	}

	public Test(int value) {
		count = value;
		int local = count;
		local++;
		size = new Dimension(1, 2);
		helper(local);
	}

	private void helper(int v) {
		String s = "x";
	}
}
`

func parseSample(t *testing.T, src string) *Unit {
	t.Helper()
	u, err := Parse(context.Background(), "Test.java", []byte(src))
	require.NoError(t, err)
	require.False(t, u.HasErrors, "source should parse cleanly")
	return u
}

func TestParseBuildsFields(t *testing.T) {
	u := parseSample(t, sampleSource)

	top := u.TopType()
	require.NotNil(t, top)
	assert.Equal(t, "Test", TypeName(top))
	assert.Equal(t, "demo", u.PackageName())
	assert.Equal(t, "java.awt.Dimension", u.Imports()["Dimension"])

	assign := u.Root.Find(KindAssignment, "count = value")
	require.NotNil(t, assign)
	assert.Equal(t, "=", assign.Op)
	assert.Equal(t, "count", assign.ChildByField("left").Text)
	assert.Equal(t, "value", assign.ChildByField("right").Text)
	assert.Same(t, assign, assign.ChildByField("left").Parent)

	update := u.Root.Find(KindUpdate, "local++")
	require.NotNil(t, update)
	assert.Equal(t, "++", update.Op)
	assert.True(t, update.Postfix)
}

func TestMembers(t *testing.T) {
	u := parseSample(t, sampleSource)
	top := u.TopType()

	assert.Len(t, Methods(top), 3)
	ctors := Constructors(top)
	require.Len(t, ctors, 2)
	assert.True(t, HasJavadocTag(ctors[0], "@wbp.parser.constructor"))
	assert.False(t, HasJavadocTag(ctors[1], "@wbp.parser.constructor"))
	assert.Equal(t, "<init>(int)", MethodSignature(ctors[1]))

	fields := Fields(top)
	require.Len(t, fields, 2)
	assert.True(t, HasModifier(fields[0], "private"))
	assert.False(t, IsStatic(fields[0]))
}

func TestLocalResolution(t *testing.T) {
	u := parseSample(t, sampleSource)
	top := u.TopType()
	ctors := Constructors(top)

	call := u.Root.Find(KindExplicitConstructorCall, "")
	require.NotNil(t, call)
	assert.Same(t, ctors[1], ConstructorFor(call))

	inv := u.Root.Find(KindMethodInvocation, "helper(local)")
	require.NotNil(t, inv)
	helper := LocalMethod(inv)
	require.NotNil(t, helper)
	assert.Equal(t, "helper", MethodName(helper))

	creation := u.Root.Find(KindObjectCreation, "new Dimension(1, 2)")
	require.NotNil(t, creation)
	assert.Nil(t, LocalConstructor(creation))
	b := ResolveType(creation)
	require.NotNil(t, b)
	assert.Equal(t, "java.awt.Dimension", b.Qualified)
}

func TestResolveVariable(t *testing.T) {
	u := parseSample(t, `class A {
	int x = 1;
	void m(int y) {
		int x = y;
		x = 2;
		this.x = 3;
	}
}`)
	assignments := u.Root.FindAll(KindAssignment, "")
	require.Len(t, assignments, 2)

	local := ResolveVariable(assignments[0].ChildByField("left"))
	require.NotNil(t, local)
	assert.Equal(t, KindLocalVariableDeclaration, local.Parent.Kind)

	field := ResolveVariable(assignments[1].ChildByField("left"))
	require.NotNil(t, field)
	assert.True(t, IsFieldDeclarator(field))

	y := u.Root.Find(KindIdentifier, "y")
	param := ResolveVariable(y)
	require.NotNil(t, param)
	assert.Equal(t, KindFormalParameter, param.Kind)
	assert.Equal(t, "int", DeclaredType(param).Name)
}

func TestIsVariableReference(t *testing.T) {
	u := parseSample(t, `class A { void m() { foo.bar(baz); this.q = 1; } }`)

	tests := []struct {
		text string
		want bool
	}{
		{"foo", true},
		{"bar", false},
		{"baz", true},
		{"m", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			n := u.Root.Find(KindIdentifier, tt.text)
			require.NotNil(t, n)
			assert.Equal(t, tt.want, IsVariableReference(n))
		})
	}
	assert.True(t, IsVariableReference(u.Root.Find(KindFieldAccess, "this.q")))
}

func TestReplaceMakesNodeDangling(t *testing.T) {
	u := parseSample(t, `class A { void m() { int a = 1; } }`)
	lit := u.Root.Find(KindDecimalInteger, "1")
	require.NotNil(t, lit)
	before := u.ModificationCount()

	repl, err := ParseExpression(context.Background(), "2 + 3")
	require.NoError(t, err)
	require.NoError(t, u.Replace(lit, repl))

	assert.True(t, lit.IsDangling())
	assert.False(t, repl.IsDangling())
	assert.Greater(t, u.ModificationCount(), before)
	assert.Equal(t, "value", repl.Field)
	assert.Same(t, u, repl.Unit())
}

func TestNodeAt(t *testing.T) {
	u := parseSample(t, "class A {\n  int a = 42;\n}")
	n := u.NodeAt(Point{Line: 2, Column: 11})
	require.NotNil(t, n)
	assert.Equal(t, KindDecimalInteger, n.Kind)
	assert.Equal(t, "42", n.Text)
}

func TestSuperclass(t *testing.T) {
	u := parseSample(t, `import javax.swing.JFrame;

class Window extends JFrame {}

class Plain {}
`)
	b := Superclass(u.TypeByName("Window"))
	require.NotNil(t, b)
	assert.Equal(t, "JFrame", b.Name)
	assert.Equal(t, "javax.swing.JFrame", b.Qualified)
	assert.Nil(t, Superclass(u.TypeByName("Plain")))
}

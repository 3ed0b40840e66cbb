package track

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-java-flow/pkg/flow"
	"github.com/l3aro/go-java-flow/pkg/jast"
)

func setup(t *testing.T, src string) (*jast.Unit, *flow.Walker, *flow.Description) {
	t.Helper()
	u, err := jast.Parse(context.Background(), "Test.java", []byte(src))
	require.NoError(t, err)
	require.False(t, u.HasErrors)
	w := flow.NewWalker()
	methods, err := w.EntryMethods(u.TopType())
	require.NoError(t, err)
	return u, w, flow.NewDescription(u, methods...)
}

// lastIdent returns the last identifier named name in source order.
func lastIdent(t *testing.T, u *jast.Unit, name string) *jast.Node {
	t.Helper()
	all := u.Root.FindAll(jast.KindIdentifier, name)
	require.NotEmpty(t, all, "identifier %s", name)
	return all[len(all)-1]
}

func texts(nodes []*jast.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Text
	}
	return out
}

func TestLastAssignmentFollowsFlow(t *testing.T) {
	u, w, desc := setup(t, `class Test {
	Test() {
		int x;
		x = 1;
		x = 2;
		use(x);
	}
	void use(int v) {}
}`)
	vars := NewVariables(w, desc)
	ref := lastIdent(t, u, "x")

	last := vars.LastAssignment(ref)
	require.NotNil(t, last)
	assert.Equal(t, "x = 2", last.Text)
	assert.Equal(t, []string{"x = 1", "x = 2"}, texts(vars.Assignments(ref)))
	assert.Equal(t, "x", vars.Declaration(ref).Text)
	assert.True(t, vars.HasVariableStamp(ref))

	refs := vars.References(ref)
	assert.Len(t, refs, 4)
	assert.Contains(t, refs, ref)
}

func TestAssignmentsAreSnapshots(t *testing.T) {
	u, w, desc := setup(t, `class Test {
	Test() {
		int x = 0;
		use(x);
		x = 1;
		use(x);
	}
	void use(int v) {}
}`)
	vars := NewVariables(w, desc)
	all := u.Root.FindAll(jast.KindIdentifier, "x")
	first, second := all[1], all[3]
	require.Equal(t, "use(x)", first.Parent.Parent.Text)

	assert.Equal(t, []string{"x = 0"}, texts(vars.Assignments(first)))
	assert.Equal(t, []string{"x = 0", "x = 1"}, texts(vars.Assignments(second)))

	got := vars.Assignments(first)
	got[0] = nil
	assert.NotNil(t, vars.Assignments(first)[0], "callers get a copy")
}

func TestFieldAndLocalScopes(t *testing.T) {
	u, w, desc := setup(t, `class Test {
	int count = 0;
	Test() {
		count = 5;
		int count = 7;
		use(count);
		use(this.count);
	}
	void use(int v) {}
}`)
	vars := NewVariables(w, desc)

	local := lastIdent(t, u, "count")
	require.Equal(t, jast.KindFieldAccess, local.Parent.Kind, "last identifier is the field of this.count")
	thisRef := local.Parent

	idents := u.Root.FindAll(jast.KindIdentifier, "count")
	localRef := idents[len(idents)-2]

	assert.Equal(t, "count = 7", vars.Declaration(localRef).Text)
	assert.Equal(t, "count = 7", vars.LastAssignment(localRef).Text)

	assert.Equal(t, "count = 0", vars.Declaration(thisRef).Text)
	assert.True(t, jast.IsFieldDeclarator(vars.Declaration(thisRef)))
	assert.Equal(t, "count = 5", vars.LastAssignment(thisRef).Text)
}

func TestFieldWritesOutliveReenteredTypeFrame(t *testing.T) {
	u, w, _ := setup(t, `class Test {
	int count;
	public static void main(String[] args) {
		Test t = new Test();
		{
			t.show();
		}
		t.print();
	}
	void show() {
		count = 5;
	}
	void print() {
		use(count);
	}
	static void use(int v) {}
}`)
	var main *jast.Node
	for _, m := range jast.Methods(u.TopType()) {
		if jast.MethodName(m) == "main" {
			main = m
		}
	}
	require.NotNil(t, main)
	vars := NewVariables(w, flow.NewDescription(u, main))

	ref := lastIdent(t, u, "count")
	require.Equal(t, "use(count)", ref.Parent.Parent.Text)
	assert.True(t, vars.HasVariableStamp(ref))
	assert.True(t, jast.IsFieldDeclarator(vars.Declaration(ref)))
	assert.Equal(t, "count = 5", vars.LastAssignment(ref).Text)
}

func TestFieldsQualifiedByTopInstance(t *testing.T) {
	u, w, desc := setup(t, `class Test {
	int count;
	public static void main(String[] args) {
		Test t = new Test();
		t.count = 2;
		use(t.count);
	}
	static void use(int v) {}
}`)
	vars := NewVariables(w, desc)

	field := lastIdent(t, u, "count")
	require.Equal(t, jast.KindFieldAccess, field.Parent.Kind)
	decl := vars.Declaration(field)
	require.NotNil(t, decl)
	assert.True(t, jast.IsFieldDeclarator(decl))
	assert.Equal(t, "count", decl.Text)

	refs := vars.References(field)
	assert.Len(t, refs, 3)
	assert.Contains(t, refs, field)
	assert.ElementsMatch(t, refs, vars.References(u.Root.FindAll(jast.KindIdentifier, "count")[1]))
}

func TestQualifiedLocalInvocationWritesField(t *testing.T) {
	u, w, desc := setup(t, `class Test {
	StringBuilder b;
	public static void main(String[] args) {
		Test app = new Test();
		app.open();
	}
	void open() {
		b = new StringBuilder("q");
		use(b);
	}
	void use(Object v) {}
}`)
	vars := NewVariables(w, desc)
	ref := lastIdent(t, u, "b")
	assert.True(t, vars.HasVariableStamp(ref))
	assert.Equal(t, `b = new StringBuilder("q")`, vars.LastAssignment(ref).Text)
	assert.Equal(t, `new StringBuilder("q")`, vars.FinalExpression(ref).Text)
}

func TestBinaryFlowInvalidatesVariables(t *testing.T) {
	u, w, desc := setup(t, `class Test {
	int x = 1;
	Test() { init(); use(x); }
	void init() {}
	void handler() { x = 3; }
	void use(int v) {}
}`)
	vars := NewVariables(w, desc)
	ref := lastIdent(t, u, "x")
	assert.Equal(t, "x = 1", vars.LastAssignment(ref).Text)

	stmt := u.Root.Find(jast.KindExpressionStatement, "init();")
	var handler *jast.Node
	for _, m := range jast.Methods(u.TopType()) {
		if jast.MethodName(m) == "handler" {
			handler = m
		}
	}
	desc.EnterStatement(stmt)
	desc.AddBinaryFlowMethodAfter(handler)
	desc.LeaveStatement(stmt)

	assert.Equal(t, "x = 3", vars.LastAssignment(ref).Text)
}

func TestUnreachedReferences(t *testing.T) {
	u, w, desc := setup(t, `class Test {
	Test() {}
	void unused() {
		int q = 1;
		q = 2;
		use(q);
	}
	void use(int v) {}
}`)
	vars := NewVariables(w, desc)
	ref := lastIdent(t, u, "q")

	assert.False(t, vars.HasVariableStamp(ref))
	assert.Equal(t, "q = 1", vars.Declaration(ref).Text)
	assert.Equal(t, "q = 1", vars.LastAssignment(ref).Text)
	assert.Len(t, vars.References(ref), 3)
}

func TestDanglingNodesAreForgotten(t *testing.T) {
	u, w, desc := setup(t, `class Test {
	Test() { int x = 1; use(x); }
	void use(int v) {}
}`)
	vars := NewVariables(w, desc)
	ref := lastIdent(t, u, "x")
	require.NotNil(t, vars.Declaration(ref))

	u.Detach(ref.Parent.Parent)
	assert.Nil(t, vars.Declaration(ref))
	assert.Nil(t, vars.LastAssignment(ref))
	assert.Empty(t, vars.References(ref))
}

func TestFinalExpression(t *testing.T) {
	u, w, desc := setup(t, `class Test {
	Test() {
		Object a = new Object();
		Object b = (a);
		use(b);
	}
	void use(Object v) {}
}`)
	vars := NewVariables(w, desc)
	final := vars.FinalExpression(lastIdent(t, u, "b"))
	require.NotNil(t, final)
	assert.Equal(t, jast.KindObjectCreation, final.Kind)
	assert.Equal(t, "new Object()", final.Text)
}

func TestVariablesDeterministic(t *testing.T) {
	src := `class Test {
	int a = 1;
	Test() {
		int b = a;
		a = b + 1;
		if (true) { b = 3; }
		use(a, b);
	}
	void use(int x, int y) { int z = x; z = y; }
}`
	project := func() map[string][]string {
		u, w, desc := setup(t, src)
		vars := NewVariables(w, desc)
		out := make(map[string][]string)
		u.Root.Inspect(func(n *jast.Node) bool {
			if jast.IsVariableReference(n) {
				key := n.Start.String() + " " + n.Text
				if last := vars.LastAssignment(n); last != nil {
					out[key] = append(out[key], last.Start.String(), last.Text)
				}
				out[key] = append(out[key], texts(vars.Assignments(n))...)
			}
			return true
		})
		return out
	}
	first, second := project(), project()
	require.NotEmpty(t, first)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("variable tracking is not deterministic (-first +second):\n%s", diff)
	}
}

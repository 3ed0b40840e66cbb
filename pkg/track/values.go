package track

import (
	"github.com/l3aro/go-java-flow/internal/log"
	"github.com/l3aro/go-java-flow/pkg/flow"
	"github.com/l3aro/go-java-flow/pkg/jast"
	"github.com/l3aro/go-java-flow/pkg/value"
)

// Values propagates symbolic values through assignments along the flow.
// Expressions that evaluate to the same value share one *value.Expression.
//
// A permanent value is bound by a model builder and survives recomputation;
// it takes priority over the value computed from the flow.
type Values struct {
	walker *flow.Walker
	desc   *flow.Description
	logger log.Logger

	stamp     stamp
	values    map[*jast.Node]*value.Expression
	prev      map[*jast.Node]*value.Expression
	permanent map[*jast.Node]*value.Expression
}

// NewValues creates a value tracker for desc.
func NewValues(walker *flow.Walker, desc *flow.Description, opts ...Option) *Values {
	o := buildOptions(opts)
	return &Values{
		walker:    walker,
		desc:      desc,
		logger:    o.logger.With("component", "values"),
		values:    make(map[*jast.Node]*value.Expression),
		prev:      make(map[*jast.Node]*value.Expression),
		permanent: make(map[*jast.Node]*value.Expression),
	}
}

// Value returns the value of expr, recomputing the flow if needed.
func (t *Values) Value(expr *jast.Node) *value.Expression {
	if expr == nil {
		return nil
	}
	if !isReadable(expr) {
		delete(t.values, expr)
		delete(t.prev, expr)
		return t.permanent[expr]
	}
	t.ensure()
	if v := t.permanent[expr]; v != nil {
		return v
	}
	return t.values[expr]
}

// ValuePrev returns the value a postfix-updated variable had before the update.
func (t *Values) ValuePrev(expr *jast.Node) *value.Expression {
	if !isReadable(expr) {
		return nil
	}
	t.ensure()
	return t.prev[expr]
}

// Value0 returns the cached flow value without recomputing, or the
// permanent value when the flow has none.
func (t *Values) Value0(expr *jast.Node) *value.Expression {
	if v := t.values[expr]; v != nil {
		return v
	}
	return t.permanent[expr]
}

// SetValue0 overrides the cached flow value. A nil value removes it.
func (t *Values) SetValue0(expr *jast.Node, v *value.Expression) {
	if v == nil {
		delete(t.values, expr)
		return
	}
	t.values[expr] = v
}

// PermanentValue0 returns the permanent value bound to expr, or nil.
func (t *Values) PermanentValue0(expr *jast.Node) *value.Expression {
	return t.permanent[expr]
}

// SetPermanentValue0 binds v permanently to expr. A nil value removes it.
func (t *Values) SetPermanentValue0(expr *jast.Node, v *value.Expression) {
	if v == nil {
		delete(t.permanent, expr)
		return
	}
	t.permanent[expr] = v
}

// EnsurePermanentValue returns the permanent value of expr, promoting the
// current flow value (or a fresh one) when there is none yet.
func (t *Values) EnsurePermanentValue(expr *jast.Node) *value.Expression {
	if v := t.permanent[expr]; v != nil {
		return v
	}
	v := t.Value(expr)
	if v == nil {
		v = value.NewExpression(expr)
		t.values[expr] = v
	}
	t.permanent[expr] = v
	return v
}

// ClearPermanentValue unbinds the permanent value of expr and its model.
func (t *Values) ClearPermanentValue(expr *jast.Node) {
	if v := t.permanent[expr]; v != nil {
		v.SetModel(nil)
		delete(t.permanent, expr)
	}
}

func (t *Values) ensure() {
	if t.stamp.matches(t.desc) {
		return
	}
	old := t.values
	t.values = make(map[*jast.Node]*value.Expression, len(old))
	t.prev = make(map[*jast.Node]*value.Expression)

	vv := &valuesVisitor{
		t:       t,
		old:     old,
		ctx:     flow.NewVisitingContext(true),
		visited: make(map[*jast.Node]bool),
	}
	t.walker.Visit(vv.ctx, t.desc, vv)
	vv.visitRestMethods()
	t.stamp = currentStamp(t.desc)
	t.logger.Debug("values computed", "expressions", len(t.values))
}

// valueFrame is one scope of the value visitor.
type valueFrame struct {
	node   *jast.Node
	parent *valueFrame
	vars   map[string]*value.Expression
}

func (f *valueFrame) lookup(name string) (*valueFrame, *value.Expression) {
	for fr := f; fr != nil; fr = fr.parent {
		if v, ok := fr.vars[name]; ok {
			return fr, v
		}
	}
	return nil, nil
}

func (f *valueFrame) get(name string) *value.Expression {
	_, v := f.lookup(name)
	return v
}

func (f *valueFrame) define(name string, v *value.Expression) {
	if f != nil {
		f.vars[name] = v
	}
}

// set updates the frame that defines name, or f itself when none does.
func (f *valueFrame) set(name string, v *value.Expression) {
	if owner, _ := f.lookup(name); owner != nil {
		owner.vars[name] = v
		return
	}
	f.define(name, v)
}

type valuesVisitor struct {
	t   *Values
	old map[*jast.Node]*value.Expression
	ctx *flow.VisitingContext

	frame             *valueFrame
	typeFrame         *valueFrame
	ignoreAssignments bool
	visited           map[*jast.Node]bool
}

// visitRestMethods walks methods the flow never reached so that their
// expressions see field values, without letting them change those values.
func (vv *valuesVisitor) visitRestMethods() {
	if vv.typeFrame == nil {
		return
	}
	typeDecl := vv.t.desc.TypeDeclaration()
	if typeDecl == nil {
		return
	}
	vv.frame = vv.typeFrame
	vv.ignoreAssignments = true
	for _, m := range jast.Methods(typeDecl) {
		if vv.visited[m] || vv.ctx.Visited(m) {
			continue
		}
		flow.Walk(m, vv)
	}
}

func (vv *valuesVisitor) EnterFrame(n *jast.Node) bool {
	vv.frame = &valueFrame{node: n, parent: vv.frame, vars: make(map[string]*value.Expression)}
	if n.Kind == jast.KindClassDeclaration {
		vv.typeFrame = vv.frame
	}
	if jast.IsMethod(n) {
		vv.defineParameters(n)
	}
	return true
}

func (vv *valuesVisitor) LeaveFrame(n *jast.Node) {
	for f := vv.frame; f != nil; f = f.parent {
		if f.node == n {
			vv.frame = f.parent
			break
		}
	}
	if jast.IsMethod(n) {
		vv.visited[n] = true
	}
}

func (vv *valuesVisitor) Visit(*jast.Node) bool { return true }

func (vv *valuesVisitor) defineParameters(m *jast.Node) {
	var args []*jast.Node
	if inv := vv.ctx.FrameInvocation(m); inv != nil {
		args = jast.Arguments(inv)
	}
	for i, p := range jast.Parameters(m) {
		if i < len(args) {
			vv.define(p, args[i])
		} else {
			vv.define(p, nil)
		}
	}
}

func (vv *valuesVisitor) define(decl, init *jast.Node) {
	name := jast.DeclaredName(decl)
	if name == nil {
		return
	}
	var v *value.Expression
	if init != nil {
		v = vv.createValue(init)
	} else {
		v = vv.createValue(name)
	}
	vv.t.values[name] = v
	vv.frame.define(name.Text, v)
}

// createValue returns the value already attached to expr, or attaches a new one.
func (vv *valuesVisitor) createValue(expr *jast.Node) *value.Expression {
	t := vv.t
	if v := t.permanent[expr]; v != nil {
		t.values[expr] = v
		return v
	}
	if v := t.values[expr]; v != nil {
		return v
	}
	if v := vv.old[expr]; v != nil {
		t.values[expr] = v
		return v
	}
	v := value.NewExpression(expr)
	t.values[expr] = v
	return v
}

func (vv *valuesVisitor) EndVisit(n *jast.Node) {
	t := vv.t
	switch n.Kind {
	case jast.KindIdentifier:
		if !jast.IsVariableReference(n) || (n.Field == "name" && n.Parent != nil && jast.IsDeclaration(n.Parent)) {
			return
		}
		if v := vv.frame.get(n.Text); v != nil {
			t.values[n] = v
		}
	case jast.KindFieldAccess:
		if jast.IsThisFieldAccess(n) && vv.typeFrame != nil {
			if v := vv.typeFrame.get(jast.VariableName(n)); v != nil {
				t.values[n] = v
			}
		}
	case jast.KindParenthesized:
		if inner := n.FirstCode(); inner != nil {
			t.values[n] = vv.createValue(inner)
		}
	case jast.KindCast:
		if inner := n.ChildByField("value"); inner != nil {
			t.values[n] = vv.createValue(inner)
		}
	case jast.KindMethodInvocation:
		vv.endInvocation(n)
	case jast.KindVariableDeclarator:
		vv.define(n, n.ChildByField("value"))
	case jast.KindUpdate:
		vv.endUpdate(n)
	case jast.KindAssignment:
		vv.endAssignment(n)
	}
}

func (vv *valuesVisitor) endInvocation(n *jast.Node) {
	m := jast.LocalMethod(n)
	if m == nil {
		return
	}
	if lazy := flow.Lazy(m); lazy != nil {
		vv.t.values[n] = vv.createValue(lazy.Creation)
		return
	}
	if jast.IsStatic(m) {
		return
	}
	stmts := jast.Statements(jast.Body(m))
	if len(stmts) == 0 {
		return
	}
	last := stmts[len(stmts)-1]
	if last.Kind != jast.KindReturnStatement {
		return
	}
	if expr := last.FirstCode(); expr != nil {
		vv.t.values[n] = vv.createValue(expr)
	}
}

func (vv *valuesVisitor) endUpdate(n *jast.Node) {
	operand := jast.Unparen(n.FirstCode())
	if operand == nil || operand.Kind != jast.KindIdentifier {
		return
	}
	if old := vv.frame.get(operand.Text); old != nil && n.Postfix {
		vv.t.prev[operand] = old
	}
	v := vv.createValue(n)
	vv.frame.set(operand.Text, v)
	vv.t.values[operand] = v
}

func (vv *valuesVisitor) endAssignment(n *jast.Node) {
	if vv.ignoreAssignments {
		return
	}
	left, right := n.ChildByField("left"), n.ChildByField("right")
	if left == nil || right == nil {
		return
	}
	var v *value.Expression
	if n.Op == "=" {
		v = vv.createValue(right)
	} else {
		v = vv.createValue(n)
	}
	switch {
	case left.Kind == jast.KindIdentifier:
		vv.frame.set(left.Text, v)
		vv.t.values[left] = v
	case jast.IsThisFieldAccess(left) && vv.typeFrame != nil:
		vv.typeFrame.set(jast.VariableName(left), v)
		vv.t.values[left] = v
	}
}

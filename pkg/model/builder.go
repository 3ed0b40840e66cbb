package model

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/l3aro/go-java-flow/internal/log"
	"github.com/l3aro/go-java-flow/pkg/analysis"
	"github.com/l3aro/go-java-flow/pkg/eval"
	"github.com/l3aro/go-java-flow/pkg/flow"
	"github.com/l3aro/go-java-flow/pkg/jast"
	"github.com/l3aro/go-java-flow/pkg/registry"
	"github.com/l3aro/go-java-flow/pkg/value"
)

// Builder builds the component model of a session.
type Builder struct {
	session      *analysis.Session
	factories    *registry.Registry[Factory]
	associations map[string]bool
	beans        []BeanSpec
	logger       log.Logger

	bound []*jast.Node
}

// Option configures a Builder.
type Option func(*Builder)

// WithFactories replaces the component factories.
func WithFactories(r *registry.Registry[Factory]) Option {
	return func(b *Builder) {
		b.factories = r
	}
}

// WithAssociationMethods replaces the methods that attach their first
// argument as a child of the receiver.
func WithAssociationMethods(names ...string) Option {
	return func(b *Builder) {
		b.associations = make(map[string]bool, len(names))
		for _, n := range names {
			b.associations[n] = true
		}
	}
}

// WithBeans registers additional bean classes.
func WithBeans(specs ...BeanSpec) Option {
	return func(b *Builder) {
		b.beans = append(b.beans, specs...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder creates a builder over s.
func NewBuilder(s *analysis.Session, opts ...Option) *Builder {
	b := &Builder{
		session:      s,
		factories:    DefaultFactories(),
		associations: map[string]bool{"add": true},
		logger:       s.Logger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "model")
	return b
}

// Build walks the execution flow once and returns the model. Components
// bound by a previous build are released first.
func (b *Builder) Build(ctx context.Context) (*Model, error) {
	s := b.session
	if err := b.install(); err != nil {
		return nil, err
	}
	for _, expr := range b.bound {
		if pv := s.Values.PermanentValue0(expr); pv != nil {
			pv.SetObject(value.Unknown)
		}
		s.Values.ClearPermanentValue(expr)
	}
	b.bound = nil

	m := &Model{Unit: s.Unit, byObject: make(map[any]*Component)}
	v := &buildVisitor{b: b, m: m, ctx: ctx, walk: s.NewVisitingContext()}
	root := b.root(m, v)
	var opts []eval.ContextOption
	if root.Object != nil {
		opts = append(opts, eval.WithThis(root.Object))
	}
	v.eval = s.NewContext(opts...)
	s.Walker.Visit(v.walk, s.Desc, v)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.LockBinaryFlow()

	b.logger.Info("model built", "components", len(m.Components), "warnings", len(m.Warnings))
	return m, nil
}

// install registers the bean classes and evaluator with the session.
func (b *Builder) install() error {
	s := b.session
	if err := RegisterBeans(s.Classes, append(append([]BeanSpec(nil), DefaultBeans...), b.beans...)...); err != nil {
		return fmt.Errorf("failed to register beans: %w", err)
	}
	if _, ok := s.Engine.Evaluators().Get(BeanEvaluatorID); !ok {
		if err := RegisterBeanEvaluator(s.Engine.Evaluators()); err != nil {
			return fmt.Errorf("failed to register bean evaluator: %w", err)
		}
	}
	return nil
}

// root creates the component standing for the analyzed type. Its object is
// an instance of the superclass when that class is registered, wrapped in a
// proxy when superclass templates call methods the type overrides.
func (b *Builder) root(m *Model, v *buildVisitor) *Component {
	s := b.session
	typeDecl := s.TypeDeclaration()
	root := &Component{
		Class:    jast.Qualify(s.Unit, jast.TypeName(typeDecl)),
		Creation: typeDecl,
		Variable: "this",
	}
	if sup := jast.Superclass(typeDecl); sup != nil {
		if cls, ok := s.Classes.Lookup(sup.Qualified); ok {
			obj, err := s.Classes.New(cls.Name, nil)
			if err != nil {
				b.warn(m, typeDecl, err)
			} else {
				root.Object = obj
				if overrides := callbackOverrides(s.Classes, cls, typeDecl); len(overrides) > 0 {
					root.Object = s.Classes.NewProxy(cls, obj, overrides, v)
				}
			}
		}
	}
	m.Root = root
	m.add(root)
	return root
}

func (b *Builder) warn(m *Model, n *jast.Node, err error) {
	w := Warning{Pos: n.Start, Source: n.Text, Code: eval.CodeFailed, Message: err.Error()}
	var ee *eval.EvaluationError
	if errors.As(err, &ee) {
		w.Pos, w.Source, w.Code = ee.Pos, ee.Source, ee.Code
		w.Message = ee.Err.Error()
	}
	for _, seen := range m.Warnings {
		if seen.Pos == w.Pos && seen.Code == w.Code && seen.Source == w.Source {
			return
		}
	}
	b.logger.Debug("model warning", "code", w.Code, "line", w.Pos.Line, "source", w.Source)
	m.Warnings = append(m.Warnings, w)
}

// callbackOverrides returns the instance methods of typeDecl that a template
// of cls calls back.
func callbackOverrides(classes *eval.ClassRegistry, cls *eval.Class, typeDecl *jast.Node) []string {
	var out []string
	for _, m := range jast.Methods(typeDecl) {
		if m.Kind != jast.KindMethodDeclaration || jast.IsStatic(m) {
			continue
		}
		if name := jast.MethodName(m); classes.CallsBack(cls, name) && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

type buildVisitor struct {
	flow.BaseVisitor
	b    *Builder
	m    *Model
	eval *eval.BaseContext
	ctx  context.Context
	walk *flow.VisitingContext
}

// Intercept handles calls on the root proxy. A source override called back
// by a superclass template is recorded after the current statement, unless
// the binary flow is locked, and walked in place.
func (v *buildVisitor) Intercept(_ *eval.Proxy, method string, args []any) (any, error) {
	s := v.b.session
	m := overrideOf(s.TypeDeclaration(), method, len(args))
	if m == nil {
		return value.Unknown, nil
	}
	if v.ctx.Err() != nil {
		return nil, nil
	}
	if !s.Desc.IsBinaryFlowLocked() && s.Desc.CurrentStatement() != nil {
		s.Desc.AddBinaryFlowMethodAfter(m)
	}
	v.b.logger.Debug("walking callback", "method", jast.MethodSignature(m))
	s.Walker.VisitMethods(v.walk, s.Desc, v, []*jast.Node{m})
	return nil, nil
}

func overrideOf(typeDecl *jast.Node, name string, arity int) *jast.Node {
	for _, m := range jast.Methods(typeDecl) {
		if m.Kind == jast.KindMethodDeclaration && !jast.IsStatic(m) &&
			jast.MethodName(m) == name && len(jast.Parameters(m)) == arity {
			return m
		}
	}
	return nil
}

func (v *buildVisitor) Visit(*jast.Node) bool {
	return v.ctx.Err() == nil
}

func (v *buildVisitor) EndVisit(n *jast.Node) {
	if v.ctx.Err() != nil {
		return
	}
	switch n.Kind {
	case jast.KindObjectCreation:
		v.endCreation(n)
	case jast.KindMethodInvocation:
		v.endInvocation(n)
	}
}

func (v *buildVisitor) evaluate(n *jast.Node) (any, bool) {
	obj, err := v.b.session.Engine.Evaluate(v.eval, n)
	if err != nil {
		v.b.warn(v.m, n, err)
		return nil, false
	}
	return obj, true
}

func (v *buildVisitor) endCreation(n *jast.Node) {
	if jast.LocalConstructor(n) != nil {
		return
	}
	if obj, ok := v.evaluate(n); ok {
		v.offer(n, obj)
	}
}

// offer hands an evaluated object to the factories and binds the first
// component produced.
func (v *buildVisitor) offer(n *jast.Node, obj any) {
	s := v.b.session
	if obj == nil {
		return
	}
	cls := s.Classes.ClassOf(obj)
	if bean, ok := obj.(*Bean); ok {
		if c, found := s.Classes.Lookup(bean.Class); found {
			cls = c
		}
	}
	creation := Creation{Expr: n, Class: cls, Object: obj}
	for _, f := range v.b.factories.All() {
		c := f.Create(creation)
		if c == nil {
			continue
		}
		c.Object = obj
		c.Creation = n
		c.Variable = assignedVariable(n)
		v.m.add(c)

		pv := s.Values.EnsurePermanentValue(n)
		pv.SetModel(c)
		pv.SetObject(obj)
		v.b.bound = append(v.b.bound, n)
		return
	}
}

func (v *buildVisitor) endInvocation(n *jast.Node) {
	if jast.LocalMethod(n) != nil {
		return
	}
	s := v.b.session
	obj := n.ChildByField("object")
	if obj != nil && !jast.IsThis(obj) && obj.Kind != jast.KindSuper &&
		eval.TypeReference(s.Classes, obj) != nil {
		// static factory methods may create components
		if result, ok := v.evaluate(n); ok {
			v.offer(n, result)
		}
		return
	}

	target := v.componentOf(obj)
	if target == nil {
		return
	}
	if _, ok := v.evaluate(n); !ok {
		return
	}
	if !v.b.associations[jast.MethodName(n)] {
		return
	}
	args := jast.Arguments(n)
	if len(args) == 0 {
		return
	}
	child := v.componentOf(args[0])
	switch {
	case child == nil || child.IsRoot() || child.isAncestorOf(target):
	case child.Parent == nil:
		target.addChild(child, n)
	case child.Parent != target:
		v.m.Warnings = append(v.m.Warnings, Warning{
			Pos:     n.Start,
			Source:  n.Text,
			Code:    CodeDoubleAssociation,
			Message: fmt.Sprintf("%s is already a child of %s", child.Name(), child.Parent.Name()),
		})
	}
}

// componentOf returns the component an expression refers to. A nil
// expression stands for "this".
func (v *buildVisitor) componentOf(expr *jast.Node) *Component {
	if expr == nil || jast.IsThis(expr) || expr.Kind == jast.KindSuper {
		if v.m.Root.Object == nil {
			return nil
		}
		return v.m.Root
	}
	expr = jast.Unparen(expr)
	if val := v.b.session.Values.Value(expr); val != nil {
		if c, ok := val.Model().(*Component); ok {
			c.addRelated(expr)
			return c
		}
	}
	if !isSideEffectFree(expr) {
		return nil
	}
	obj, err := v.b.session.Engine.Evaluate(v.eval, expr)
	if err != nil {
		return nil
	}
	c := v.m.ComponentOf(obj)
	if c != nil && !c.IsRoot() {
		c.addRelated(expr)
	}
	return c
}

// isSideEffectFree matches the receivers that may be evaluated again:
// variables, field accesses and argument-less getters.
func isSideEffectFree(expr *jast.Node) bool {
	switch expr.Kind {
	case jast.KindIdentifier, jast.KindFieldAccess:
		return true
	case jast.KindMethodInvocation:
		return len(jast.Arguments(expr)) == 0
	}
	return false
}

// assignedVariable returns the variable a creation initializes or is
// assigned to, or "".
func assignedVariable(n *jast.Node) string {
	p := n.Parent
	for p != nil && p.Kind == jast.KindParenthesized {
		n, p = p, p.Parent
	}
	if p == nil {
		return ""
	}
	switch {
	case p.Kind == jast.KindVariableDeclarator && p.ChildByField("value") == n:
		return jast.VariableName(p)
	case p.Kind == jast.KindAssignment && p.Op == "=" && p.ChildByField("right") == n:
		return jast.VariableName(p.ChildByField("left"))
	}
	return ""
}

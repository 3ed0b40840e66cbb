package flow

import (
	"github.com/l3aro/go-java-flow/internal/log"
	"github.com/l3aro/go-java-flow/pkg/jast"
	"github.com/l3aro/go-java-flow/pkg/registry"
)

// Default javadoc tags recognised on members.
const (
	ConstructorTag = "@wbp.parser.constructor"
	EntryPointTag  = "@wbp.parser.entryPoint"
)

// Walker walks a Description, entering local methods as they are invoked.
// A Walker is stateless between walks and may be shared by trackers.
type Walker struct {
	providers      []Provider
	designTime     map[string]bool
	foldConditions bool
	constructorTag string
	entryPointTag  string
	logger         log.Logger
}

// Option configures a Walker.
type Option func(*Walker)

// WithProviders registers flow providers, consulted in order.
func WithProviders(providers ...Provider) Option {
	return func(w *Walker) {
		w.providers = append(w.providers, providers...)
	}
}

// WithProviderRegistry registers every provider of r, in consultation order.
func WithProviderRegistry(r *registry.Registry[Provider]) Option {
	return func(w *Walker) {
		w.providers = append(w.providers, r.All()...)
	}
}

// WithDesignTimePredicates replaces the method names treated as "is design time" checks.
func WithDesignTimePredicates(names ...string) Option {
	return func(w *Walker) {
		w.designTime = make(map[string]bool, len(names))
		for _, n := range names {
			w.designTime[n] = true
		}
	}
}

// WithConditionFolding enables folding of !, && and || over statically known conditions.
func WithConditionFolding(enabled bool) Option {
	return func(w *Walker) {
		w.foldConditions = enabled
	}
}

// WithConstructorTag overrides the javadoc tag selecting the flow constructor.
func WithConstructorTag(tag string) Option {
	return func(w *Walker) {
		w.constructorTag = tag
	}
}

// WithEntryPointTag overrides the javadoc tag marking an entry point method.
func WithEntryPointTag(tag string) Option {
	return func(w *Walker) {
		w.entryPointTag = tag
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(w *Walker) {
		w.logger = logger
	}
}

// NewWalker creates a Walker.
func NewWalker(opts ...Option) *Walker {
	w := &Walker{
		designTime:     map[string]bool{"isDesignTime": true},
		foldConditions: true,
		constructorTag: ConstructorTag,
		entryPointTag:  EntryPointTag,
		logger:         log.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Providers returns the registered providers.
func (w *Walker) Providers() []Provider {
	return w.providers
}

// Visit walks the flow from all start methods of desc.
func (w *Walker) Visit(ctx *VisitingContext, desc *Description, v Visitor) {
	methods := desc.StartMethods()
	if len(methods) == 0 {
		return
	}
	w.VisitMethods(ctx, desc, v, methods)
}

// VisitMethods walks the given methods as if entered from outside their type.
func (w *Walker) VisitMethods(ctx *VisitingContext, desc *Description, v Visitor, methods []*jast.Node) {
	wk := &walk{w: w, ctx: ctx, desc: desc, v: v}
	wk.visitMethods(methods)
}

// walk is the state of a single traversal.
type walk struct {
	w    *Walker
	ctx  *VisitingContext
	desc *Description
	v    Visitor
}

func (wk *walk) visitMethods(methods []*jast.Node) {
	if len(methods) == 0 {
		return
	}
	typeDecl := jast.EnclosingType(methods[0])
	// a declined type frame skips the initializers, its methods still ask for their own frames
	initialize := false
	if !wk.ctx.instanceInitialized && typeDecl != nil {
		initialize = wk.v.EnterFrame(typeDecl)
		if initialize && !wk.ctx.classInitialized {
			wk.ctx.classInitialized = true
			wk.visitFields(typeDecl, true)
			wk.visitInitializers(typeDecl, true)
		}
	}
	for _, m := range methods {
		if initialize && !wk.ctx.instanceInitialized && !jast.IsStatic(m) {
			wk.ctx.instanceInitialized = true
			wk.visitFields(typeDecl, false)
			wk.visitInitializers(typeDecl, false)
		}
		wk.visitMethod(m)
	}
}

func (wk *walk) visitFields(typeDecl *jast.Node, static bool) {
	for _, f := range jast.Fields(typeDecl) {
		if jast.IsStatic(f) == static {
			wk.visitNode(f)
		}
	}
}

func (wk *walk) visitInitializers(typeDecl *jast.Node, static bool) {
	for _, b := range jast.Initializers(typeDecl, static) {
		wk.visitStatement(b)
	}
}

func (wk *walk) visitMethod(m *jast.Node) {
	wk.w.logger.Debug("entering method", "method", jast.MethodSignature(m), "line", m.Start.Line)
	if !wk.v.EnterFrame(m) {
		return
	}
	for _, p := range jast.Parameters(m) {
		wk.visitNode(p)
	}
	if body := jast.Body(m); body != nil {
		wk.visitStatement(body)
	}
	wk.v.LeaveFrame(m)
}

func (wk *walk) visitStatement(s *jast.Node) {
	if p := s.Parent; p != nil && jast.IsMethod(p) && jast.Body(p) == s {
		if !wk.ctx.markVisited(p) {
			return
		}
	}
	if wk.ctx.UseBinaryFlow {
		wk.visitBinaryFlowMethods(wk.desc.BinaryFlowMethodsBefore(s))
	}
	wk.desc.EnterStatement(s)
	func() {
		defer wk.desc.LeaveStatement(s)
		wk.visitStatement0(s)
	}()
	if wk.ctx.UseBinaryFlow {
		wk.visitBinaryFlowMethods(wk.desc.BinaryFlowMethodsAfter(s))
	}
}

// visitBinaryFlowMethods enters each method on its own; binary code calls
// them on an already initialized instance.
func (wk *walk) visitBinaryFlowMethods(methods []*jast.Node) {
	for _, m := range methods {
		wk.visitMethod(m)
	}
}

func (wk *walk) visitStatement0(s *jast.Node) {
	switch s.Kind {
	case jast.KindBlock, jast.KindConstructorBody:
		if !wk.v.EnterFrame(s) {
			return
		}
		for _, stmt := range jast.Statements(s) {
			wk.visitStatement(stmt)
		}
		wk.v.LeaveFrame(s)
	case jast.KindTryStatement, jast.KindTryWithResources:
		if body := s.ChildByField("body"); body != nil {
			wk.visitStatement(body)
		}
	case jast.KindIfStatement:
		wk.visitIf(s)
	case jast.KindExpressionStatement, jast.KindLocalVariableDeclaration,
		jast.KindExplicitConstructorCall, jast.KindReturnStatement:
		wk.visitNode(s)
	}
}

func (wk *walk) visitIf(s *jast.Node) {
	cond := wk.w.staticCondition(s.ChildByField("condition"))
	if cond == condTrue || wk.w.isLazyCheck(s) {
		if then := s.ChildByField("consequence"); then != nil {
			wk.visitStatement(then)
		}
		return
	}
	if cond == condFalse {
		if alt := s.ChildByField("alternative"); alt != nil {
			wk.visitStatement(alt)
		}
	}
}

// visitNode dispatches n and its subtree to the visitor, re-entering local
// methods and constructors invoked inside it.
func (wk *walk) visitNode(n *jast.Node) {
	if n.IsComment() {
		return
	}
	if wk.v.Visit(n) {
		for _, c := range n.Children {
			if c.Kind == jast.KindClassBody && n.Kind == jast.KindObjectCreation && !wk.shouldVisitAnonymous(n) {
				continue
			}
			wk.visitNode(c)
		}
	}
	wk.intercept(n)
	wk.v.EndVisit(n)
}

func (wk *walk) intercept(n *jast.Node) {
	switch n.Kind {
	case jast.KindObjectCreation:
		if ctor := jast.LocalConstructor(n); ctor != nil {
			wk.visitMethods([]*jast.Node{ctor})
		}
	case jast.KindMethodInvocation:
		m := jast.LocalMethod(n)
		if m == nil {
			return
		}
		wk.ctx.invocations[m] = n
		if obj := n.ChildByField("object"); obj != nil && !jast.IsThis(obj) {
			wk.visitMethods([]*jast.Node{m})
		} else {
			wk.visitMethod(m)
		}
	case jast.KindExplicitConstructorCall:
		if ctor := jast.ConstructorFor(n); ctor != nil {
			wk.ctx.invocations[ctor] = n
			wk.visitMethods([]*jast.Node{ctor})
		}
	}
}

func (wk *walk) shouldVisitAnonymous(creation *jast.Node) bool {
	for _, p := range wk.w.providers {
		if p.ShouldVisitAnonymous(creation) {
			return true
		}
	}
	return false
}

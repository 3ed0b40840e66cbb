package flow

import "github.com/l3aro/go-java-flow/pkg/jast"

// Visitor receives the nodes of a walk. EnterFrame and LeaveFrame bracket
// scopes (types, methods, blocks); when EnterFrame returns false the scope is
// skipped and LeaveFrame is not called for it. Visit is called before the
// children of a node and may return false to skip them. EndVisit is always
// called after.
type Visitor interface {
	EnterFrame(n *jast.Node) bool
	LeaveFrame(n *jast.Node)
	Visit(n *jast.Node) bool
	EndVisit(n *jast.Node)
}

// BaseVisitor implements Visitor with no-ops. Embed it and override what you need.
type BaseVisitor struct{}

func (BaseVisitor) EnterFrame(*jast.Node) bool { return true }

func (BaseVisitor) LeaveFrame(*jast.Node) {}

func (BaseVisitor) Visit(*jast.Node) bool { return true }

func (BaseVisitor) EndVisit(*jast.Node) {}

// IsFrame reports whether n opens a variable scope.
func IsFrame(n *jast.Node) bool {
	return n.Is(jast.KindClassDeclaration, jast.KindMethodDeclaration, jast.KindConstructorDeclaration,
		jast.KindBlock, jast.KindConstructorBody)
}

// Walk visits n and all of its descendants regardless of execution flow.
// Frames are entered for every scope node.
func Walk(n *jast.Node, v Visitor) {
	if n == nil || n.IsComment() {
		return
	}
	frame := IsFrame(n)
	if frame && !v.EnterFrame(n) {
		return
	}
	if v.Visit(n) {
		for _, c := range n.Children {
			Walk(c, v)
		}
	}
	v.EndVisit(n)
	if frame {
		v.LeaveFrame(n)
	}
}

// VisitingContext is the mutable state of one flow walk.
type VisitingContext struct {
	// UseBinaryFlow makes the walker honor binary-flow edges of the description.
	UseBinaryFlow bool

	classInitialized    bool
	instanceInitialized bool
	visited             map[*jast.Node]bool
	invocations         map[*jast.Node]*jast.Node
}

// NewVisitingContext creates a fresh context.
func NewVisitingContext(useBinaryFlow bool) *VisitingContext {
	return &VisitingContext{
		UseBinaryFlow: useBinaryFlow,
		visited:       make(map[*jast.Node]bool),
		invocations:   make(map[*jast.Node]*jast.Node),
	}
}

// ClassInitialized reports whether static fields and initializers were visited.
func (c *VisitingContext) ClassInitialized() bool {
	return c.classInitialized
}

// InstanceInitialized reports whether instance fields and initializers were visited.
func (c *VisitingContext) InstanceInitialized() bool {
	return c.instanceInitialized
}

// Visited reports whether the body of method was already walked.
func (c *VisitingContext) Visited(method *jast.Node) bool {
	return c.visited[method]
}

// FrameInvocation returns the invocation that last entered method, or nil
// when the method was entered as a start method.
func (c *VisitingContext) FrameInvocation(method *jast.Node) *jast.Node {
	return c.invocations[method]
}

func (c *VisitingContext) markVisited(method *jast.Node) bool {
	if c.visited[method] {
		return false
	}
	c.visited[method] = true
	return true
}

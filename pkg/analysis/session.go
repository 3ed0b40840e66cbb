// Package analysis ties one parsed compilation unit to the flow walker, the
// trackers and the evaluation engine that interpret it.
package analysis

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/l3aro/go-java-flow/internal/config"
	"github.com/l3aro/go-java-flow/internal/log"
	"github.com/l3aro/go-java-flow/pkg/eval"
	"github.com/l3aro/go-java-flow/pkg/flow"
	"github.com/l3aro/go-java-flow/pkg/jast"
	"github.com/l3aro/go-java-flow/pkg/registry"
	"github.com/l3aro/go-java-flow/pkg/track"
)

// Session is the analysis of one compilation unit. It owns the execution
// flow description and every cache derived from it. A Session is not safe
// for concurrent use.
type Session struct {
	ID        string
	Unit      *jast.Unit
	Walker    *flow.Walker
	Desc      *flow.Description
	Variables *track.Variables
	Values    *track.Values
	Classes   *eval.ClassRegistry
	Engine    *eval.Engine

	logger        log.Logger
	typeDecl      *jast.Node
	entries       []*jast.Node
	useBinaryFlow bool
}

type options struct {
	walkerOpts    []flow.Option
	providers     *registry.Registry[flow.Provider]
	classes       *eval.ClassRegistry
	engineOpts    []eval.EngineOption
	logger        log.Logger
	entries       []*jast.Node
	entryNames    []string
	typeName      string
	useBinaryFlow bool
}

// Option configures a Session.
type Option func(*options)

// WithWalkerOptions adds options for the flow walker.
func WithWalkerOptions(opts ...flow.Option) Option {
	return func(o *options) {
		o.walkerOpts = append(o.walkerOpts, opts...)
	}
}

// WithProviders replaces the default flow providers. An empty registry
// disables them.
func WithProviders(r *registry.Registry[flow.Provider]) Option {
	return func(o *options) {
		o.providers = r
	}
}

// WithClasses sets the class registry. The default is eval.NewStandardClasses.
func WithClasses(classes *eval.ClassRegistry) Option {
	return func(o *options) {
		o.classes = classes
	}
}

// WithEngineOptions adds options for the evaluation engine.
func WithEngineOptions(opts ...eval.EngineOption) Option {
	return func(o *options) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEntryPoints starts the flow at the given methods instead of choosing
// them from the type declaration.
func WithEntryPoints(methods ...*jast.Node) Option {
	return func(o *options) {
		o.entries = append(o.entries, methods...)
	}
}

// WithEntryPointNames starts the flow at the methods of the analyzed type
// with the given names. "<init>" names its constructors.
func WithEntryPointNames(names ...string) Option {
	return func(o *options) {
		o.entryNames = append(o.entryNames, names...)
	}
}

// WithType analyzes the named type of the unit instead of the top one.
func WithType(name string) Option {
	return func(o *options) {
		o.typeName = name
	}
}

// WithBinaryFlow controls whether walks honor binary-flow edges.
func WithBinaryFlow(enabled bool) Option {
	return func(o *options) {
		o.useBinaryFlow = enabled
	}
}

// FromConfig translates configuration into session options.
func FromConfig(cfg *config.Config) []Option {
	walkerOpts := []flow.Option{
		flow.WithDesignTimePredicates(cfg.DesignTimePredicates...),
		flow.WithConditionFolding(cfg.FoldConditions),
	}
	if cfg.ConstructorTag != "" {
		walkerOpts = append(walkerOpts, flow.WithConstructorTag(cfg.ConstructorTag))
	}
	if cfg.EntryPointTag != "" {
		walkerOpts = append(walkerOpts, flow.WithEntryPointTag(cfg.EntryPointTag))
	}
	opts := []Option{
		WithWalkerOptions(walkerOpts...),
		WithBinaryFlow(cfg.UseBinaryFlow),
	}
	providers := registry.New[flow.Provider]()
	if cfg.VisitAnonymousRunnables {
		providers.MustRegister(flow.InvokeLaterProviderID, flow.NewInvokeLaterProvider())
	}
	if cfg.NoArgConstructorFallback {
		providers.MustRegister(flow.NoArgConstructorProviderID, flow.NoArgConstructorProvider{})
	}
	return append(opts, WithProviders(providers))
}

// NewSession prepares the analysis of u. Entry points are chosen from the
// top type unless given explicitly.
func NewSession(u *jast.Unit, opts ...Option) (*Session, error) {
	o := options{useBinaryFlow: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Nop()
	}
	if o.providers == nil {
		o.providers = flow.DefaultProviders()
	}
	if o.classes == nil {
		o.classes = eval.NewStandardClasses()
	}

	id := uuid.NewString()
	logger := o.logger.With("session", id, "path", u.Path)

	walkerOpts := append([]flow.Option{
		flow.WithProviderRegistry(o.providers),
		flow.WithLogger(logger.With("component", "flow")),
	}, o.walkerOpts...)
	walker := flow.NewWalker(walkerOpts...)

	typeDecl := u.TopType()
	if o.typeName != "" {
		typeDecl = u.TypeByName(o.typeName)
		if typeDecl == nil {
			return nil, fmt.Errorf("type %s not found in %s: %w", o.typeName, u.Path, flow.ErrNoEntryPoint)
		}
	}
	if typeDecl == nil {
		return nil, fmt.Errorf("no type declaration in %s: %w", u.Path, flow.ErrNoEntryPoint)
	}

	entries := o.entries
	if len(entries) == 0 && len(o.entryNames) > 0 {
		entries = methodsNamed(typeDecl, o.entryNames)
		if len(entries) == 0 {
			return nil, fmt.Errorf("no method of %s named %v: %w", jast.TypeName(typeDecl), o.entryNames, flow.ErrNoEntryPoint)
		}
	}
	if len(entries) == 0 {
		var err error
		entries, err = walker.EntryMethods(typeDecl)
		if err != nil {
			return nil, fmt.Errorf("failed to choose entry points of %s: %w", jast.TypeName(typeDecl), err)
		}
	}

	desc := flow.NewDescription(u, entries...)
	trackLogger := track.WithLogger(logger.With("component", "track"))
	engineOpts := append([]eval.EngineOption{eval.WithLogger(logger.With("component", "eval"))}, o.engineOpts...)

	s := &Session{
		ID:            id,
		Unit:          u,
		Walker:        walker,
		Desc:          desc,
		Variables:     track.NewVariables(walker, desc, trackLogger),
		Values:        track.NewValues(walker, desc, trackLogger),
		Classes:       o.classes,
		Engine:        eval.NewEngine(engineOpts...),
		logger:        logger,
		typeDecl:      typeDecl,
		entries:       entries,
		useBinaryFlow: o.useBinaryFlow,
	}
	logger.Debug("session created", "type", jast.TypeName(typeDecl), "entries", len(entries))
	return s, nil
}

func methodsNamed(typeDecl *jast.Node, names []string) []*jast.Node {
	var out []*jast.Node
	for _, name := range names {
		if name == "<init>" {
			out = append(out, jast.Constructors(typeDecl)...)
			continue
		}
		for _, m := range jast.Methods(typeDecl) {
			if jast.MethodName(m) == name {
				out = append(out, m)
			}
		}
	}
	return out
}

// Load parses the Java file at path and creates a session for it.
func Load(ctx context.Context, path string, opts ...Option) (*Session, error) {
	u, err := jast.ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewSession(u, opts...)
}

// NewContext returns an evaluation context backed by the session's trackers
// and classes.
func (s *Session) NewContext(opts ...eval.ContextOption) *eval.BaseContext {
	opts = append([]eval.ContextOption{
		eval.WithVariables(s.Variables),
		eval.WithValues(s.Values),
		eval.WithContextLogger(s.logger.With("component", "eval")),
	}, opts...)
	return eval.NewContext(s.Classes, opts...)
}

// Evaluate evaluates expr in a fresh session context.
func (s *Session) Evaluate(expr *jast.Node, opts ...eval.ContextOption) (any, error) {
	return s.Engine.Evaluate(s.NewContext(opts...), expr)
}

// Walk runs v over the execution flow.
func (s *Session) Walk(v flow.Visitor) {
	s.Walker.Visit(s.NewVisitingContext(), s.Desc, v)
}

// NewVisitingContext returns the state of a fresh walk.
func (s *Session) NewVisitingContext() *flow.VisitingContext {
	return flow.NewVisitingContext(s.useBinaryFlow)
}

// EntryPoints returns the methods the flow starts from.
func (s *Session) EntryPoints() []*jast.Node {
	return s.Desc.StartMethods()
}

// TypeDeclaration returns the analyzed type.
func (s *Session) TypeDeclaration() *jast.Node {
	return s.typeDecl
}

// Logger returns the session logger.
func (s *Session) Logger() log.Logger {
	return s.logger
}

// LockBinaryFlow freezes the binary-flow edges once the model is built.
func (s *Session) LockBinaryFlow() {
	s.Desc.LockBinaryFlow()
	s.logger.Debug("binary flow locked")
}

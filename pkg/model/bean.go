package model

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/l3aro/go-java-flow/pkg/eval"
	"github.com/l3aro/go-java-flow/pkg/jast"
	"github.com/l3aro/go-java-flow/pkg/registry"
	"github.com/l3aro/go-java-flow/pkg/value"
)

// Bean is the design-time stand-in for a toolkit component. Setters store
// properties, getters read them back and add collects children.
type Bean struct {
	Class      string
	Properties map[string]any
	Children   []*Bean
}

// NewBean creates an empty bean of the given Java class.
func NewBean(class string) *Bean {
	return &Bean{Class: class, Properties: make(map[string]any)}
}

// Set stores a property.
func (b *Bean) Set(name string, v any) {
	b.Properties[name] = v
}

// Get returns a property.
func (b *Bean) Get(name string) (any, bool) {
	v, ok := b.Properties[name]
	return v, ok
}

// Add appends child when it is a bean, or a proxy around one.
func (b *Bean) Add(child any) {
	if c := asBean(child); c != nil {
		b.Children = append(b.Children, c)
	}
}

// Remove detaches child.
func (b *Bean) Remove(child any) {
	c := asBean(child)
	for i, existing := range b.Children {
		if existing == c {
			b.Children = append(b.Children[:i], b.Children[i+1:]...)
			return
		}
	}
}

// PropertyNames returns the names of the set properties, sorted.
func (b *Bean) PropertyNames() []string {
	out := make([]string, 0, len(b.Properties))
	for name := range b.Properties {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (b *Bean) String() string {
	return fmt.Sprintf("%s%v", b.Class, b.Properties)
}

// call performs a bean method. ok is false for methods beans do not know.
func (b *Bean) call(name string, args []any) (v any, ok bool) {
	switch {
	case name == "add" && len(args) >= 1:
		b.Add(args[0])
		return args[0], true
	case name == "remove" && len(args) == 1:
		b.Remove(args[0])
		return nil, true
	case name == "getContentPane" && len(args) == 0:
		// frames act as their own content pane
		return b, true
	case name == "getComponentCount" && len(args) == 0:
		return int32(len(b.Children)), true
	}
	if prop, ok := property(name, "set"); ok && len(args) > 0 {
		if len(args) == 1 {
			b.Set(prop, args[0])
		} else {
			b.Set(prop, append([]any(nil), args...))
		}
		return nil, true
	}
	for _, prefix := range []string{"get", "is"} {
		if prop, ok := property(name, prefix); ok && len(args) == 0 {
			if v, found := b.Get(prop); found {
				return v, true
			}
		}
	}
	return nil, false
}

// property maps "setTitle" to "title" for the given accessor prefix.
func property(method, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(method, prefix)
	if !ok || rest == "" {
		return "", false
	}
	r, size := utf8.DecodeRuneInString(rest)
	if !unicode.IsUpper(r) {
		return "", false
	}
	return string(unicode.ToLower(r)) + rest[size:], true
}

// BeanOf returns the bean behind obj, or nil.
func BeanOf(obj any) *Bean {
	return asBean(obj)
}

func asBean(v any) *Bean {
	switch x := v.(type) {
	case *Bean:
		return x
	case *eval.Proxy:
		if b, ok := x.Target.(*Bean); ok {
			return b
		}
	}
	return nil
}

// BeanSpec describes a bean class to register.
type BeanSpec struct {
	Name  string
	Super string
	// TextProperty receives the single String constructor argument, if any.
	TextProperty string
	// Templates maps argument-less methods of the class to the overridable
	// methods they call on their receiver.
	Templates map[string][]string
}

// Root classes of the bean hierarchy.
const (
	ComponentClass = "java.awt.Component"
	ContainerClass = "java.awt.Container"
)

// DefaultBeans are the Swing classes known without configuration.
var DefaultBeans = []BeanSpec{
	{Name: ContainerClass, Super: ComponentClass},
	{Name: "javax.swing.JComponent", Super: ContainerClass},
	{Name: "javax.swing.JFrame", Super: ContainerClass, TextProperty: "title"},
	{Name: "javax.swing.JPanel", Super: "javax.swing.JComponent"},
	{Name: "javax.swing.JButton", Super: "javax.swing.JComponent", TextProperty: "text"},
	{Name: "javax.swing.JLabel", Super: "javax.swing.JComponent", TextProperty: "text"},
	{Name: "javax.swing.JTextField", Super: "javax.swing.JComponent", TextProperty: "text"},
}

// BeanClass builds the class description of spec.
func BeanClass(spec BeanSpec) *eval.Class {
	name := spec.Name
	c := &eval.Class{
		Name:  name,
		Super: spec.Super,
		Constructors: []any{
			func() *Bean { return NewBean(name) },
		},
	}
	if prop := spec.TextProperty; prop != "" {
		c.Constructors = append(c.Constructors, func(text string) *Bean {
			b := NewBean(name)
			b.Set(prop, text)
			return b
		})
	}
	for method, callbacks := range spec.Templates {
		c.Template(method, func(*Bean) {}, callbacks...)
	}
	return c
}

// RegisterBeans adds the bean hierarchy rooted at java.awt.Component and
// the given specs to r. With no specs DefaultBeans are registered.
func RegisterBeans(r *eval.ClassRegistry, specs ...BeanSpec) error {
	if len(specs) == 0 {
		specs = DefaultBeans
	}
	if _, ok := r.Lookup(ComponentClass); !ok {
		root := &eval.Class{
			Name:     ComponentClass,
			Super:    "java.lang.Object",
			Abstract: true,
			Type:     reflect.TypeOf(&Bean{}),
		}
		if err := r.Register(root); err != nil {
			return err
		}
	}
	for _, spec := range specs {
		if _, ok := r.Lookup(spec.Name); ok {
			continue
		}
		if err := r.Register(BeanClass(spec)); err != nil {
			return err
		}
	}
	return nil
}

// BeanEvaluatorID identifies the bean evaluator in an evaluator registry.
const BeanEvaluatorID = "model.bean"

// RegisterBeanEvaluator installs the bean evaluator ahead of the built-in
// invocation evaluator.
func RegisterBeanEvaluator(r *registry.Registry[eval.Evaluator]) error {
	return r.RegisterWithPriority(BeanEvaluatorID, -10, eval.EvaluatorFunc(evaluateBean))
}

// evaluateBean performs property and child calls on beans.
func evaluateBean(req *eval.Request) (any, error) {
	n := req.Expr
	if n.Kind != jast.KindMethodInvocation || jast.LocalMethod(n) != nil {
		return value.Unknown, nil
	}
	receiver, err := beanReceiver(req, n.ChildByField("object"))
	if err != nil {
		return nil, err
	}
	target := asBean(receiver)
	if target == nil {
		return value.Unknown, nil
	}
	args, err := req.EvalAll(jast.Arguments(n))
	if err != nil {
		return nil, err
	}
	name := jast.MethodName(n)
	classes := req.Context.Classes()
	if cls, ok := classes.Lookup(target.Class); ok && len(classes.Callbacks(cls, name)) > 0 {
		// templates run through the class so a proxy receiver sees its callbacks
		if p, ok := receiver.(*eval.Proxy); ok {
			return p.Invoke(name, args...)
		}
		return classes.InvokeAs(cls, target, name, args)
	}
	if v, ok := target.call(name, args); ok {
		return v, nil
	}
	return value.Unknown, nil
}

func beanReceiver(req *eval.Request, obj *jast.Node) (any, error) {
	if obj == nil || jast.IsThis(obj) || obj.Kind == jast.KindSuper {
		return req.Context.This(), nil
	}
	if eval.TypeReference(req.Context.Classes(), obj) != nil {
		return nil, nil
	}
	return req.Eval(obj)
}

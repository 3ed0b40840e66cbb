package eval

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"
)

// Method describes a Java method backed by a Go function. Instance methods
// take the receiver as their first argument.
type Method struct {
	Name     string
	Static   bool
	Abstract bool
	// Returns is the Java return type, used for defaults of abstract methods.
	Returns string
	Func    any
	// Callbacks names the overridable methods Func calls on its receiver.
	Callbacks []string
}

// Class describes a Java class the engine can instantiate and invoke.
type Class struct {
	// Name is the fully qualified Java name.
	Name      string
	Super     string
	Interface bool
	Abstract  bool
	// Type is the Go type of instances, used to dispatch instance methods.
	Type reflect.Type
	// Constructors are Go functions returning the new instance.
	Constructors []any
	Methods      map[string][]*Method
	// Fields holds static field values.
	Fields map[string]any
}

// SimpleName returns the class name without its package.
func (c *Class) SimpleName() string {
	if i := strings.LastIndexByte(c.Name, '.'); i >= 0 {
		return c.Name[i+1:]
	}
	return c.Name
}

// Static adds a static method.
func (c *Class) Static(name string, fn any) *Class {
	return c.add(&Method{Name: name, Static: true, Func: fn})
}

// Instance adds an instance method whose first parameter is the receiver.
func (c *Class) Instance(name string, fn any) *Class {
	return c.add(&Method{Name: name, Func: fn})
}

// Template adds an instance method that calls the overridable callbacks on
// its receiver once fn returns.
func (c *Class) Template(name string, fn any, callbacks ...string) *Class {
	return c.add(&Method{Name: name, Func: fn, Callbacks: callbacks})
}

// AbstractMethod adds an abstract instance method returning javaType.
func (c *Class) AbstractMethod(name, javaType string) *Class {
	return c.add(&Method{Name: name, Abstract: true, Returns: javaType})
}

func (c *Class) add(m *Method) *Class {
	if c.Methods == nil {
		c.Methods = make(map[string][]*Method)
	}
	c.Methods[m.Name] = append(c.Methods[m.Name], m)
	return c
}

// ClassRegistry maps Java class names to their descriptions.
type ClassRegistry struct {
	classes map[string]*Class
	byType  map[reflect.Type]*Class
}

// NewClassRegistry creates an empty registry.
func NewClassRegistry() *ClassRegistry {
	return &ClassRegistry{
		classes: make(map[string]*Class),
		byType:  make(map[reflect.Type]*Class),
	}
}

// Register adds c. Class names must be unique.
func (r *ClassRegistry) Register(c *Class) error {
	if _, ok := r.classes[c.Name]; ok {
		return fmt.Errorf("class %s already registered", c.Name)
	}
	r.classes[c.Name] = c
	if c.Type != nil {
		if _, taken := r.byType[c.Type]; !taken {
			r.byType[c.Type] = c
		}
	}
	return nil
}

// MustRegister is Register that panics on duplicates.
func (r *ClassRegistry) MustRegister(classes ...*Class) {
	for _, c := range classes {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
}

// Lookup finds a class by qualified name, or by simple name when exactly one
// registered class has it.
func (r *ClassRegistry) Lookup(name string) (*Class, bool) {
	if c, ok := r.classes[name]; ok {
		return c, true
	}
	if strings.Contains(name, ".") {
		return nil, false
	}
	var found *Class
	for _, c := range r.classes {
		if c.SimpleName() == name {
			if found != nil {
				return nil, false
			}
			found = c
		}
	}
	return found, found != nil
}

// Names returns the registered class names, sorted.
func (r *ClassRegistry) Names() []string {
	out := make([]string, 0, len(r.classes))
	for name := range r.classes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ClassOf returns the class describing a runtime object, or nil.
func (r *ClassRegistry) ClassOf(obj any) *Class {
	if obj == nil {
		return nil
	}
	if p, ok := obj.(*Proxy); ok {
		return p.Class
	}
	return r.byType[reflect.TypeOf(obj)]
}

// New invokes a constructor of className matching args.
func (r *ClassRegistry) New(className string, args []any) (any, error) {
	c, ok := r.Lookup(className)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, className)
	}
	fn, in, ok := selectFunc(c.Constructors, args)
	if !ok {
		return nil, fmt.Errorf("%w: %s%s", ErrNoConstructor, c.Name, argTypes(args))
	}
	v, err := call(fn, in)
	if err != nil {
		return nil, &InvocationError{Class: c.Name, Member: "<init>", Args: args, Err: err}
	}
	return v, nil
}

// InvokeStatic invokes a static method of className.
func (r *ClassRegistry) InvokeStatic(className, name string, args []any) (any, error) {
	c, ok := r.Lookup(className)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, className)
	}
	for cls := c; cls != nil; cls = r.super(cls) {
		if v, found, err := r.invokeMethod(cls, name, nil, args, true); found {
			return v, err
		}
	}
	return nil, fmt.Errorf("%w: %s.%s%s", ErrNoMethod, c.Name, name, argTypes(args))
}

// Invoke invokes an instance method on target. Proxies dispatch through
// their interceptor; other objects use their registered class chain, then
// an exported Go method of the same name.
func (r *ClassRegistry) Invoke(target any, name string, args []any) (any, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: %s", ErrNullReceiver, name)
	}
	if p, ok := target.(*Proxy); ok {
		return p.Invoke(name, args...)
	}
	return r.invokeFrom(r.ClassOf(target), target, name, args)
}

// InvokeAs invokes an instance method on target, looking it up from class
// start instead of the class of target.
func (r *ClassRegistry) InvokeAs(start *Class, target any, name string, args []any) (any, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: %s", ErrNullReceiver, name)
	}
	return r.invokeFrom(start, target, name, args)
}

// invokeFrom dispatches name on target starting at class start.
func (r *ClassRegistry) invokeFrom(start *Class, target any, name string, args []any) (any, error) {
	if start == nil {
		start, _ = r.Lookup("java.lang.Object")
	}
	for cls := start; cls != nil; cls = r.super(cls) {
		if v, found, err := r.invokeMethod(cls, name, target, args, false); found {
			return v, err
		}
	}
	if m := reflect.ValueOf(target).MethodByName(exportedName(name)); m.IsValid() {
		if in, ok := bind(m.Type(), args, false); ok {
			v, err := call(m, in)
			if err != nil {
				return nil, &InvocationError{Class: typeName(target), Member: name, Args: args, Err: err}
			}
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s%s", ErrNoMethod, typeName(target), name, argTypes(args))
}

// invokeMethod looks name up in cls alone. found is false when no overload
// of cls accepts the arguments.
func (r *ClassRegistry) invokeMethod(cls *Class, name string, target any, args []any, static bool) (any, bool, error) {
	var funcs []any
	for _, m := range cls.Methods[name] {
		if m.Static == static && m.Func != nil {
			funcs = append(funcs, m.Func)
		}
	}
	if len(funcs) == 0 {
		return nil, false, nil
	}
	all := args
	if !static {
		all = append([]any{target}, args...)
	}
	fn, in, ok := selectFunc(funcs, all)
	if !ok {
		return nil, false, nil
	}
	v, err := call(fn, in)
	if err != nil {
		return nil, true, &InvocationError{Class: cls.Name, Member: name, Args: args, Err: err}
	}
	return v, true, nil
}

// Callbacks returns the callbacks of the methods named name in the class
// chain of c.
func (r *ClassRegistry) Callbacks(c *Class, name string) []string {
	var out []string
	for cls := c; cls != nil; cls = r.super(cls) {
		for _, m := range cls.Methods[name] {
			out = append(out, m.Callbacks...)
		}
	}
	return out
}

// CallsBack reports whether a method in the class chain of c calls method
// on its receiver.
func (r *ClassRegistry) CallsBack(c *Class, method string) bool {
	for cls := c; cls != nil; cls = r.super(cls) {
		for _, ms := range cls.Methods {
			for _, m := range ms {
				if slices.Contains(m.Callbacks, method) {
					return true
				}
			}
		}
	}
	return false
}

// AbstractMethod returns the abstract method named name declared in the
// class chain of c, or nil.
func (r *ClassRegistry) AbstractMethod(c *Class, name string) *Method {
	for cls := c; cls != nil; cls = r.super(cls) {
		for _, m := range cls.Methods[name] {
			if m.Abstract {
				return m
			}
		}
	}
	return nil
}

// StaticField returns the value of a static field in the class chain.
func (r *ClassRegistry) StaticField(className, name string) (any, bool) {
	c, ok := r.Lookup(className)
	if !ok {
		return nil, false
	}
	for cls := c; cls != nil; cls = r.super(cls) {
		if v, ok := cls.Fields[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (r *ClassRegistry) super(c *Class) *Class {
	if c.Super == "" {
		return nil
	}
	s, _ := r.Lookup(c.Super)
	return s
}

func argTypes(args []any) string {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = typeName(a)
	}
	return "(" + strings.Join(names, ", ") + ")"
}

func typeName(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case int8:
		return "byte"
	case int16:
		return "short"
	case uint16:
		return "char"
	case int32:
		return "int"
	case int64:
		return "long"
	case float32:
		return "float"
	case float64:
		return "double"
	case string:
		return "String"
	case *Proxy:
		return x.Class.Name
	}
	return reflect.TypeOf(v).String()
}

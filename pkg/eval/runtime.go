package eval

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Java primitives map onto Go types as follows:
//
//	boolean bool      char   uint16
//	byte    int8      short  int16
//	int     int32     long   int64
//	float   float32   double float64
//
// String is string, null is nil. Other objects are whatever the registered
// constructors return.

// DefaultValue returns the Java default for a type name: zero for numbers,
// false for boolean, nil for references and void.
func DefaultValue(javaType string) any {
	switch javaType {
	case "boolean":
		return false
	case "byte":
		return int8(0)
	case "short":
		return int16(0)
	case "char":
		return uint16(0)
	case "int":
		return int32(0)
	case "long":
		return int64(0)
	case "float":
		return float32(0)
	case "double":
		return float64(0)
	}
	return nil
}

// javaString renders v the way String.valueOf would.
func javaString(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case uint16:
		return string(rune(x))
	case int8, int16, int32, int64:
		return fmt.Sprint(x)
	case float32:
		return javaFloat(float64(x), 32)
	case float64:
		return javaFloat(x, 64)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func javaFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(f, 'f', -1, bits)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// numKind is the result type of binary numeric promotion.
type numKind int

const (
	kindInt numKind = iota
	kindLong
	kindFloat
	kindDouble
)

// number holds a promoted numeric operand.
type number struct {
	kind numKind
	i    int64
	f    float64
}

func toNumber(v any) (number, bool) {
	switch x := v.(type) {
	case int8:
		return number{kind: kindInt, i: int64(x)}, true
	case int16:
		return number{kind: kindInt, i: int64(x)}, true
	case uint16:
		return number{kind: kindInt, i: int64(x)}, true
	case int32:
		return number{kind: kindInt, i: int64(x)}, true
	case int64:
		return number{kind: kindLong, i: x}, true
	case float32:
		return number{kind: kindFloat, f: float64(x)}, true
	case float64:
		return number{kind: kindDouble, f: x}, true
	}
	return number{}, false
}

func (n number) float() float64 {
	if n.kind >= kindFloat {
		return n.f
	}
	return float64(n.i)
}

func (n number) promote(k numKind) number {
	if k >= kindFloat && n.kind < kindFloat {
		return number{kind: k, f: float64(n.i)}
	}
	n.kind = k
	return n
}

// value converts n back to the Go type of its kind, truncating like Java.
func (n number) value() any {
	switch n.kind {
	case kindInt:
		return int32(n.i)
	case kindLong:
		return n.i
	case kindFloat:
		return float32(n.f)
	}
	return n.f
}

// castPrimitive converts v to the named primitive type.
func castPrimitive(v any, javaType string) (any, error) {
	if b, ok := v.(bool); ok {
		if javaType == "boolean" {
			return b, nil
		}
		return nil, fmt.Errorf("cannot cast boolean to %s", javaType)
	}
	n, ok := toNumber(v)
	if !ok {
		return nil, fmt.Errorf("cannot cast %s to %s", javaString(v), javaType)
	}
	var i int64
	if n.kind >= kindFloat {
		i = floatToLong(n.f)
	} else {
		i = n.i
	}
	switch javaType {
	case "byte":
		return int8(i), nil
	case "short":
		return int16(i), nil
	case "char":
		return uint16(i), nil
	case "int":
		if n.kind >= kindFloat {
			return floatToInt(n.f), nil
		}
		return int32(i), nil
	case "long":
		return i, nil
	case "float":
		return float32(n.float()), nil
	case "double":
		return n.float(), nil
	}
	return nil, fmt.Errorf("cannot cast %s to %s", javaString(v), javaType)
}

func floatToLong(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

func floatToInt(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}

// widening ranks of numeric Go kinds, following Java primitive widening.
var numericRank = map[reflect.Kind]int{
	reflect.Int8:    1,
	reflect.Int16:   2,
	reflect.Uint16:  2,
	reflect.Int32:   3,
	reflect.Int64:   4,
	reflect.Float32: 5,
	reflect.Float64: 6,
}

// coerce adapts an argument to a parameter type. Exact mode only accepts
// assignable values; otherwise numeric widening is allowed as well.
func coerce(arg any, t reflect.Type, exact bool) (reflect.Value, bool) {
	if arg == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func:
			return reflect.Zero(t), true
		}
		return reflect.Value{}, false
	}
	v := reflect.ValueOf(arg)
	if exact {
		if v.Type() == t || (t.Kind() == reflect.Interface && v.Type().AssignableTo(t)) {
			return v, true
		}
		return reflect.Value{}, false
	}
	if v.Type().AssignableTo(t) {
		return v, true
	}
	from, ok1 := numericRank[v.Kind()]
	to, ok2 := numericRank[t.Kind()]
	if !ok1 || !ok2 || from > to {
		return reflect.Value{}, false
	}
	// char and short do not widen into each other
	if from == to && v.Kind() != t.Kind() {
		return reflect.Value{}, false
	}
	if v.Kind() != reflect.Uint16 && t.Kind() == reflect.Uint16 {
		return reflect.Value{}, false
	}
	return v.Convert(t), true
}

// bind coerces args to the parameters of ft.
func bind(ft reflect.Type, args []any, exact bool) ([]reflect.Value, bool) {
	if ft.IsVariadic() || ft.NumIn() != len(args) {
		return nil, false
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		v, ok := coerce(a, ft.In(i), exact)
		if !ok {
			return nil, false
		}
		in[i] = v
	}
	return in, true
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// call invokes fn, turning a returned error or a panic into err.
func call(fn reflect.Value, in []reflect.Value) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	out := fn.Call(in)
	ft := fn.Type()
	if n := ft.NumOut(); n > 0 && ft.Out(n-1) == errorType {
		if e := out[n-1]; !e.IsNil() {
			return nil, e.Interface().(error)
		}
		out = out[:n-1]
	}
	if len(out) == 0 {
		return nil, nil
	}
	return unwrapValue(out[0]), nil
}

func unwrapValue(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface()
}

// selectFunc picks the first function accepting args, preferring exact
// matches over widened ones.
func selectFunc(funcs []any, args []any) (reflect.Value, []reflect.Value, bool) {
	for _, exact := range []bool{true, false} {
		for _, f := range funcs {
			fv := reflect.ValueOf(f)
			if in, ok := bind(fv.Type(), args, exact); ok {
				return fv, in, true
			}
		}
	}
	return reflect.Value{}, nil, false
}

// exportedName maps a Java member name onto a Go exported identifier.
func exportedName(name string) string {
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

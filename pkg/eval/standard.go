package eval

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode"
)

// Object is an instance of java.lang.Object.
type Object struct{}

func (o *Object) String() string {
	return fmt.Sprintf("java.lang.Object@%p", o)
}

// StringBuilder is an instance of java.lang.StringBuilder.
type StringBuilder struct {
	b strings.Builder
}

func (s *StringBuilder) String() string {
	return s.b.String()
}

// ArrayList is an instance of java.util.ArrayList.
type ArrayList struct {
	Items []any
}

func (l *ArrayList) String() string {
	parts := make([]string, len(l.Items))
	for i, it := range l.Items {
		parts[i] = javaString(it)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Dimension is an instance of java.awt.Dimension.
type Dimension struct {
	Width  int32
	Height int32
}

func (d *Dimension) String() string {
	return fmt.Sprintf("java.awt.Dimension[width=%d,height=%d]", d.Width, d.Height)
}

// Point is an instance of java.awt.Point.
type Point struct {
	X int32
	Y int32
}

func (p *Point) String() string {
	return fmt.Sprintf("java.awt.Point[x=%d,y=%d]", p.X, p.Y)
}

// NewStandardClasses returns a registry with a small subset of the JDK:
// java.lang boxes, String, StringBuilder, Math, Object, Runnable, plus
// java.beans.Beans, java.util.ArrayList, java.awt.Dimension and java.awt.Point.
func NewStandardClasses() *ClassRegistry {
	r := NewClassRegistry()
	r.MustRegister(
		objectClass(),
		runnableClass(),
		numberBox("java.lang.Integer", "parseInt", func(s string) (int32, error) {
			v, err := strconv.ParseInt(s, 10, 32)
			return int32(v), err
		}, map[string]any{"MAX_VALUE": int32(math.MaxInt32), "MIN_VALUE": int32(math.MinInt32)}),
		numberBox("java.lang.Long", "parseLong", func(s string) (int64, error) {
			return strconv.ParseInt(s, 10, 64)
		}, map[string]any{"MAX_VALUE": int64(math.MaxInt64), "MIN_VALUE": int64(math.MinInt64)}),
		numberBox("java.lang.Short", "parseShort", func(s string) (int16, error) {
			v, err := strconv.ParseInt(s, 10, 16)
			return int16(v), err
		}, map[string]any{"MAX_VALUE": int16(math.MaxInt16), "MIN_VALUE": int16(math.MinInt16)}),
		numberBox("java.lang.Byte", "parseByte", func(s string) (int8, error) {
			v, err := strconv.ParseInt(s, 10, 8)
			return int8(v), err
		}, map[string]any{"MAX_VALUE": int8(math.MaxInt8), "MIN_VALUE": int8(math.MinInt8)}),
		numberBox("java.lang.Double", "parseDouble", func(s string) (float64, error) {
			return strconv.ParseFloat(s, 64)
		}, map[string]any{"MAX_VALUE": math.MaxFloat64, "MIN_VALUE": math.SmallestNonzeroFloat64}),
		numberBox("java.lang.Float", "parseFloat", func(s string) (float32, error) {
			v, err := strconv.ParseFloat(s, 32)
			return float32(v), err
		}, map[string]any{"MAX_VALUE": float32(math.MaxFloat32), "MIN_VALUE": float32(math.SmallestNonzeroFloat32)}),
		booleanClass(),
		characterClass(),
		stringClass(),
		stringBuilderClass(),
		mathClass(),
		beansClass(),
		arrayListClass(),
		dimensionClass(),
		pointClass(),
	)
	return r
}

func objectClass() *Class {
	c := &Class{
		Name:         "java.lang.Object",
		Type:         reflect.TypeOf(&Object{}),
		Constructors: []any{func() *Object { return &Object{} }},
	}
	c.Instance("toString", func(o any) string { return javaString(o) })
	c.Instance("equals", func(o, other any) bool { return equalValues(o, other) })
	c.Instance("hashCode", func(o any) int32 {
		h := int32(0)
		for _, r := range javaString(o) {
			h = 31*h + int32(r)
		}
		return h
	})
	return c
}

func runnableClass() *Class {
	c := &Class{Name: "java.lang.Runnable", Interface: true, Abstract: true}
	c.AbstractMethod("run", "void")
	return c
}

type boxed interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

func numberBox[T boxed](name, parseName string, parse func(string) (T, error), fields map[string]any) *Class {
	var zero T
	c := &Class{
		Name:  name,
		Super: "java.lang.Object",
		Type:  reflect.TypeOf(zero),
		Constructors: []any{
			func(v T) T { return v },
			func(s string) (T, error) { return parse(strings.TrimSpace(s)) },
		},
		Fields: fields,
	}
	c.Static("valueOf", func(v T) T { return v })
	c.Static("valueOf", func(s string) (T, error) { return parse(strings.TrimSpace(s)) })
	c.Static(parseName, func(s string) (T, error) { return parse(strings.TrimSpace(s)) })
	c.Static("toString", func(v T) string { return javaString(v) })
	c.Instance("byteValue", func(v T) int8 { return int8(v) })
	c.Instance("shortValue", func(v T) int16 { return int16(v) })
	c.Instance("intValue", func(v T) int32 { return int32(v) })
	c.Instance("longValue", func(v T) int64 { return int64(v) })
	c.Instance("floatValue", func(v T) float32 { return float32(v) })
	c.Instance("doubleValue", func(v T) float64 { return float64(v) })
	c.Instance("compareTo", func(v, other T) int32 {
		switch {
		case v < other:
			return -1
		case v > other:
			return 1
		}
		return 0
	})
	return c
}

func booleanClass() *Class {
	c := &Class{
		Name:  "java.lang.Boolean",
		Super: "java.lang.Object",
		Type:  reflect.TypeOf(false),
		Constructors: []any{
			func(v bool) bool { return v },
			func(s string) bool { return strings.EqualFold(s, "true") },
		},
		Fields: map[string]any{"TRUE": true, "FALSE": false},
	}
	c.Static("valueOf", func(v bool) bool { return v })
	c.Static("valueOf", func(s string) bool { return strings.EqualFold(s, "true") })
	c.Static("parseBoolean", func(s string) bool { return strings.EqualFold(s, "true") })
	c.Instance("booleanValue", func(v bool) bool { return v })
	return c
}

func characterClass() *Class {
	c := &Class{
		Name:         "java.lang.Character",
		Super:        "java.lang.Object",
		Type:         reflect.TypeOf(uint16(0)),
		Constructors: []any{func(v uint16) uint16 { return v }},
	}
	c.Static("valueOf", func(v uint16) uint16 { return v })
	c.Static("isDigit", func(v uint16) bool { return v >= '0' && v <= '9' })
	c.Static("toUpperCase", func(v uint16) uint16 { return uint16(unicode.ToUpper(rune(v))) })
	c.Instance("charValue", func(v uint16) uint16 { return v })
	return c
}

func stringClass() *Class {
	c := &Class{
		Name:  "java.lang.String",
		Super: "java.lang.Object",
		Type:  reflect.TypeOf(""),
		Constructors: []any{
			func() string { return "" },
			func(s string) string { return s },
			func(sb *StringBuilder) string { return sb.String() },
		},
	}
	c.Static("valueOf", func(v any) string { return javaString(v) })
	c.Instance("length", func(s string) int32 { return int32(len(utf16Units(s))) })
	c.Instance("isEmpty", func(s string) bool { return s == "" })
	c.Instance("charAt", func(s string, i int32) (uint16, error) {
		units := utf16Units(s)
		if i < 0 || int(i) >= len(units) {
			return 0, fmt.Errorf("string index out of range: %d", i)
		}
		return units[i], nil
	})
	c.Instance("substring", func(s string, begin int32) (string, error) {
		return substring(s, begin, int32(len([]rune(s))))
	})
	c.Instance("substring", func(s string, begin, end int32) (string, error) {
		return substring(s, begin, end)
	})
	c.Instance("indexOf", func(s, sub string) int32 { return int32(strings.Index(s, sub)) })
	c.Instance("contains", func(s, sub string) bool { return strings.Contains(s, sub) })
	c.Instance("startsWith", func(s, prefix string) bool { return strings.HasPrefix(s, prefix) })
	c.Instance("endsWith", func(s, suffix string) bool { return strings.HasSuffix(s, suffix) })
	c.Instance("concat", func(s, other string) string { return s + other })
	c.Instance("trim", func(s string) string { return strings.TrimSpace(s) })
	c.Instance("toUpperCase", func(s string) string { return strings.ToUpper(s) })
	c.Instance("toLowerCase", func(s string) string { return strings.ToLower(s) })
	c.Instance("equals", func(s string, other any) bool {
		o, ok := other.(string)
		return ok && o == s
	})
	c.Instance("equalsIgnoreCase", func(s, other string) bool { return strings.EqualFold(s, other) })
	c.Instance("toString", func(s string) string { return s })
	return c
}

func utf16Units(s string) []uint16 {
	var out []uint16
	for _, r := range s {
		if r >= 0x10000 {
			r -= 0x10000
			out = append(out, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
			continue
		}
		out = append(out, uint16(r))
	}
	return out
}

func substring(s string, begin, end int32) (string, error) {
	runes := []rune(s)
	if begin < 0 || end > int32(len(runes)) || begin > end {
		return "", fmt.Errorf("begin %d, end %d, length %d", begin, end, len(runes))
	}
	return string(runes[begin:end]), nil
}

func stringBuilderClass() *Class {
	c := &Class{
		Name:  "java.lang.StringBuilder",
		Super: "java.lang.Object",
		Type:  reflect.TypeOf(&StringBuilder{}),
		Constructors: []any{
			func() *StringBuilder { return &StringBuilder{} },
			func(capacity int32) *StringBuilder { return &StringBuilder{} },
			func(s string) *StringBuilder {
				sb := &StringBuilder{}
				sb.b.WriteString(s)
				return sb
			},
		},
	}
	c.Instance("append", func(sb *StringBuilder, v any) *StringBuilder {
		sb.b.WriteString(javaString(v))
		return sb
	})
	c.Instance("length", func(sb *StringBuilder) int32 { return int32(len(utf16Units(sb.b.String()))) })
	c.Instance("toString", func(sb *StringBuilder) string { return sb.b.String() })
	return c
}

func mathClass() *Class {
	c := &Class{
		Name:   "java.lang.Math",
		Super:  "java.lang.Object",
		Fields: map[string]any{"PI": math.Pi, "E": math.E},
	}
	c.Static("max", func(a, b int32) int32 { return max(a, b) })
	c.Static("max", func(a, b int64) int64 { return max(a, b) })
	c.Static("max", func(a, b float64) float64 { return math.Max(a, b) })
	c.Static("min", func(a, b int32) int32 { return min(a, b) })
	c.Static("min", func(a, b int64) int64 { return min(a, b) })
	c.Static("min", func(a, b float64) float64 { return math.Min(a, b) })
	c.Static("abs", func(a int32) int32 {
		if a < 0 {
			return -a
		}
		return a
	})
	c.Static("abs", func(a float64) float64 { return math.Abs(a) })
	c.Static("sqrt", math.Sqrt)
	c.Static("pow", math.Pow)
	c.Static("round", func(a float64) int64 { return int64(math.Floor(a + 0.5)) })
	return c
}

func beansClass() *Class {
	c := &Class{Name: "java.beans.Beans", Super: "java.lang.Object"}
	c.Static("isDesignTime", func() bool { return true })
	return c
}

func arrayListClass() *Class {
	c := &Class{
		Name:  "java.util.ArrayList",
		Super: "java.lang.Object",
		Type:  reflect.TypeOf(&ArrayList{}),
		Constructors: []any{
			func() *ArrayList { return &ArrayList{} },
			func(capacity int32) *ArrayList { return &ArrayList{Items: make([]any, 0, max(capacity, 0))} },
		},
	}
	c.Instance("add", func(l *ArrayList, v any) bool {
		l.Items = append(l.Items, v)
		return true
	})
	c.Instance("get", func(l *ArrayList, i int32) (any, error) {
		if i < 0 || int(i) >= len(l.Items) {
			return nil, fmt.Errorf("index %d out of bounds for length %d", i, len(l.Items))
		}
		return l.Items[i], nil
	})
	c.Instance("size", func(l *ArrayList) int32 { return int32(len(l.Items)) })
	c.Instance("isEmpty", func(l *ArrayList) bool { return len(l.Items) == 0 })
	c.Instance("contains", func(l *ArrayList, v any) bool {
		for _, it := range l.Items {
			if equalValues(it, v) {
				return true
			}
		}
		return false
	})
	return c
}

func dimensionClass() *Class {
	c := &Class{
		Name:  "java.awt.Dimension",
		Super: "java.lang.Object",
		Type:  reflect.TypeOf(&Dimension{}),
		Constructors: []any{
			func() *Dimension { return &Dimension{} },
			func(w, h int32) *Dimension { return &Dimension{Width: w, Height: h} },
		},
	}
	c.Instance("getWidth", func(d *Dimension) float64 { return float64(d.Width) })
	c.Instance("getHeight", func(d *Dimension) float64 { return float64(d.Height) })
	c.Instance("setSize", func(d *Dimension, w, h int32) {
		d.Width, d.Height = w, h
	})
	return c
}

func pointClass() *Class {
	c := &Class{
		Name:  "java.awt.Point",
		Super: "java.lang.Object",
		Type:  reflect.TypeOf(&Point{}),
		Constructors: []any{
			func() *Point { return &Point{} },
			func(x, y int32) *Point { return &Point{X: x, Y: y} },
		},
	}
	c.Instance("getX", func(p *Point) float64 { return float64(p.X) })
	c.Instance("getY", func(p *Point) float64 { return float64(p.Y) })
	c.Instance("setLocation", func(p *Point, x, y int32) {
		p.X, p.Y = x, y
	})
	c.Instance("translate", func(p *Point, dx, dy int32) {
		p.X += dx
		p.Y += dy
	})
	return c
}

// equalValues compares like Java ==, with numeric promotion for primitives.
func equalValues(a, b any) (eq bool) {
	if na, ok := toNumber(a); ok {
		nb, ok := toNumber(b)
		if !ok {
			return false
		}
		if na.kind >= kindFloat || nb.kind >= kindFloat {
			return na.float() == nb.float()
		}
		return na.i == nb.i
	}
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-java-flow/pkg/analysis"
	"github.com/l3aro/go-java-flow/pkg/eval"
	"github.com/l3aro/go-java-flow/pkg/jast"
	"github.com/l3aro/go-java-flow/pkg/registry"
)

func newSession(t *testing.T, src string) *analysis.Session {
	t.Helper()
	u, err := jast.Parse(context.Background(), "Test.java", []byte(src))
	require.NoError(t, err)
	require.False(t, u.HasErrors)
	s, err := analysis.NewSession(u)
	require.NoError(t, err)
	return s
}

func build(t *testing.T, src string, opts ...Option) *Model {
	t.Helper()
	m, err := NewBuilder(newSession(t, src), opts...).Build(context.Background())
	require.NoError(t, err)
	return m
}

func names(cs []*Component) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name()
	}
	return out
}

const wiringSource = `import javax.swing.*;

class Test extends JFrame {
	Test() {
		setTitle("Demo");
		JPanel a = new JPanel();
		JPanel b = new JPanel();
		JButton ok = new JButton("OK");
		a.add(ok);
		b.add(ok);
		add(a);
		getContentPane().add(b);
	}
}`

func TestBuildWiresChildren(t *testing.T) {
	m := build(t, wiringSource)

	require.NotNil(t, m.Root)
	assert.True(t, m.Root.IsRoot())
	assert.Equal(t, "Test", m.Root.Class)
	assert.Equal(t, []string{"this", "a", "b", "ok"}, names(m.Components))
	assert.Equal(t, []string{"a", "b"}, names(m.Root.Children))

	a, b, ok := m.Find("a"), m.Find("b"), m.Find("ok")
	require.NotNil(t, a)
	assert.Equal(t, "javax.swing.JPanel", a.Class)
	assert.Equal(t, []*Component{ok}, a.Children)
	assert.Empty(t, b.Children)
	assert.Same(t, a, ok.Parent)
	assert.Equal(t, "a.add(ok)", ok.Association.Text)

	root := m.Root.Object.(*Bean)
	assert.Equal(t, "javax.swing.JFrame", root.Class)
	assert.Equal(t, map[string]any{"title": "Demo"}, root.Properties)
	assert.Equal(t, "OK", ok.Object.(*Bean).Properties["text"])

	require.Len(t, m.Warnings, 1)
	w := m.Warnings[0]
	assert.Equal(t, CodeDoubleAssociation, w.Code)
	assert.Equal(t, "b.add(ok)", w.Source)
	assert.Equal(t, 10, w.Pos.Line)
	assert.Contains(t, w.Message, "ok is already a child of a")
}

const lazySource = `import javax.swing.*;

class Test extends JFrame {
	private JPanel panel;
	private JLabel label;
	Test() {
		getPanel().add(getLabel());
		getPanel().setName("main");
		add(getPanel());
	}
	private JPanel getPanel() {
		if (panel == null) {
			panel = new JPanel();
		}
		return panel;
	}
	private JLabel getLabel() {
		if (label == null) {
			label = new JLabel("Hello");
			label.setText("Hello " + 1);
		}
		return label;
	}
}`

func TestBuildLazyGetters(t *testing.T) {
	m := build(t, lazySource)

	assert.Equal(t, []string{"this", "panel", "label"}, names(m.Components))
	panel, label := m.Find("panel"), m.Find("label")
	assert.Equal(t, []*Component{panel}, m.Root.Children)
	assert.Equal(t, []*Component{label}, panel.Children)

	assert.Equal(t, "main", panel.Object.(*Bean).Properties["name"])
	assert.Equal(t, "Hello 1", label.Object.(*Bean).Properties["text"])
	assert.Equal(t, []*Bean{label.Object.(*Bean)}, panel.Object.(*Bean).Children)

	var related []string
	for _, r := range panel.Related {
		related = append(related, r.Text)
	}
	assert.Contains(t, related, "getPanel()")
	assert.Empty(t, m.Warnings)
}

func TestBuildAnonymousSubclass(t *testing.T) {
	m := build(t, `import javax.swing.*;

class Test extends JFrame {
	Test() {
		JPanel custom = new JPanel() {
			public String toString() { return "custom"; }
		};
		custom.setName("c");
		add(custom);
	}
}`)
	custom := m.Find("custom")
	require.NotNil(t, custom)
	assert.Equal(t, "javax.swing.JPanel", custom.Class)
	p, ok := custom.Object.(*eval.Proxy)
	require.True(t, ok)
	assert.Equal(t, "c", p.Target.(*Bean).Properties["name"])
	assert.Equal(t, []*Component{custom}, m.Root.Children)
}

func TestBuildEvaluationFailuresBecomeWarnings(t *testing.T) {
	m := build(t, `import javax.swing.*;

class Test extends JFrame {
	Test() {
		Object gadget = new com.example.Gadget();
		JButton b = new JButton("x");
		b.setText(missing);
		add(b);
	}
}`)
	require.Len(t, m.Warnings, 2)
	assert.Equal(t, eval.CodeUnknownClass, m.Warnings[0].Code)
	assert.Equal(t, 5, m.Warnings[0].Pos.Line)
	assert.Equal(t, "missing", m.Warnings[1].Source)

	b := m.Find("b")
	require.NotNil(t, b)
	assert.Equal(t, "x", b.Object.(*Bean).Properties["text"])
	assert.Equal(t, []*Component{b}, m.Root.Children, "a failed setter does not stop the build")
}

func TestBuildWithoutRegisteredSuperclass(t *testing.T) {
	m := build(t, `import javax.swing.*;

class Test {
	Test() {
		JPanel p = new JPanel();
		add(p);
	}
	void add(JPanel p) {}
}`)
	assert.Nil(t, m.Root.Object)
	assert.Equal(t, []string{"this", "p"}, names(m.Components))
	assert.Empty(t, m.Root.Children)
}

func TestBuildIsRepeatable(t *testing.T) {
	s := newSession(t, wiringSource)
	b := NewBuilder(s)

	first, err := b.Build(context.Background())
	require.NoError(t, err)
	second, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, names(first.Components), names(second.Components))
	assert.NotSame(t, first.Find("a").Object, second.Find("a").Object)
	assert.Len(t, second.Find("a").Object.(*Bean).Children, 1)
	assert.True(t, s.Desc.IsBinaryFlowLocked())
}

const templateSource = `import javax.swing.*;

class Test extends Wizard {
	Test() {
		setTitle("Setup");
		open();
	}
	void createContents() {
		JButton next = new JButton("Next");
		add(next);
	}
}`

var wizardBean = BeanSpec{
	Name:      "demo.Wizard",
	Super:     "javax.swing.JPanel",
	Templates: map[string][]string{"open": {"createContents"}},
}

func TestBuildWalksTemplateCallbacks(t *testing.T) {
	s := newSession(t, templateSource)
	b := NewBuilder(s, WithBeans(wizardBean))

	first, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"this", "next"}, names(first.Components))
	assert.Equal(t, []string{"next"}, names(first.Root.Children))
	root := BeanOf(first.Root.Object)
	require.NotNil(t, root)
	assert.Equal(t, "demo.Wizard", root.Class)
	assert.Equal(t, "Setup", root.Properties["title"])
	assert.Len(t, root.Children, 1)

	open := s.Unit.Root.Find(jast.KindExpressionStatement, "open();")
	require.NotNil(t, open)
	after := s.Desc.BinaryFlowMethodsAfter(open)
	require.Len(t, after, 1)
	assert.Equal(t, "createContents", jast.MethodName(after[0]))
	assert.True(t, s.Desc.IsBinaryFlowLocked())

	edges := s.Desc.ModificationCount()
	second, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, edges, s.Desc.ModificationCount())
	assert.Equal(t, []string{"this", "next"}, names(second.Components))
	assert.Equal(t, []string{"next"}, names(second.Root.Children))
}

func TestBuildWithoutOverridesKeepsPlainRoot(t *testing.T) {
	m := build(t, `class Test extends Wizard {
	Test() { open(); }
}`, WithBeans(wizardBean))
	_, ok := m.Root.Object.(*Bean)
	assert.True(t, ok)
	assert.Empty(t, m.Warnings)
}

func TestBuildHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuilder(newSession(t, wiringSource)).Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCustomFactoriesAndAssociations(t *testing.T) {
	factories := registry.New[Factory]()
	require.NoError(t, factories.Register("test.list", FactoryFunc(func(c Creation) *Component {
		if _, ok := c.Object.(*eval.ArrayList); !ok {
			return nil
		}
		return &Component{Class: c.Class.Name}
	})))

	m := build(t, `import java.util.ArrayList;

class Test {
	Test() {
		ArrayList outer = new ArrayList();
		ArrayList inner = new ArrayList(4);
		outer.add(inner);
		outer.add("text");
		inner.add(outer);
	}
}`, WithFactories(factories), WithAssociationMethods("add"))

	outer, inner := m.Find("outer"), m.Find("inner")
	require.NotNil(t, outer)
	assert.Equal(t, "java.util.ArrayList", outer.Class)
	assert.Equal(t, []*Component{inner}, outer.Children)
	assert.Empty(t, inner.Children, "a parent can not become its child's child")
	assert.Empty(t, m.Warnings)
	assert.Len(t, outer.Object.(*eval.ArrayList).Items, 2)
}

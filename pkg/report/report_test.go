package report

import (
	"bytes"
	"context"
	stdjson "encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-java-flow/pkg/analysis"
	"github.com/l3aro/go-java-flow/pkg/jast"
	"github.com/l3aro/go-java-flow/pkg/model"
)

func newSession(t *testing.T, src string) *analysis.Session {
	t.Helper()
	u, err := jast.Parse(context.Background(), "Test.java", []byte(src))
	require.NoError(t, err)
	s, err := analysis.NewSession(u)
	require.NoError(t, err)
	return s
}

const flowSource = `class Test {
	int width = 10 * 2;
	Test() {
		int inner = width + 1;
		init();
		String s = name();
	}
	void init() {
		width = 5;
	}
	void unused() {
		width = 0;
	}
	String name() { return "n"; }
}`

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"msgpack", FormatMsgpack, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestFlow(t *testing.T) {
	r := Flow(newSession(t, flowSource))

	assert.Equal(t, "Test", r.Type)
	assert.Equal(t, []string{"<init>()"}, r.EntryPoints)
	assert.Equal(t, []string{"<init>()", "init()", "name()"}, r.Methods)

	var sources []string
	for _, st := range r.Statements {
		sources = append(sources, st.Source)
	}
	assert.Equal(t, []string{
		"int width = 10 * 2;",
		"int inner = width + 1;",
		"init();",
		"width = 5;",
		`String s = name();`,
		`return "n";`,
	}, sources)
	assert.Equal(t, "", r.Statements[0].Method)
	assert.Equal(t, "init()", r.Statements[3].Method)
	assert.NotContains(t, sources, "width = 0;")
}

func TestVariables(t *testing.T) {
	r := Variables(newSession(t, `class Test {
	Test() {
		int a = 1;
		a = a + 2;
		int b = a;
	}
}`))
	var ref *Reference
	for i := range r.References {
		if r.References[i].Name == "a" && r.References[i].At.Line == 5 {
			ref = &r.References[i]
		}
	}
	require.NotNil(t, ref)
	assert.Equal(t, 3, ref.Declaration.Line)
	require.NotNil(t, ref.Last)
	assert.Equal(t, "a = a + 2", ref.Last.Source)
	require.NotNil(t, ref.Final)
	assert.Equal(t, "a + 2", ref.Final.Source)
	require.NotEmpty(t, ref.Assignments)
	assert.Equal(t, 4, ref.Assignments[len(ref.Assignments)-1].Line)
}

func TestValues(t *testing.T) {
	r := Values(newSession(t, `class Test {
	int width = 10 * 2;
	Object thing = new com.example.Missing();
	Test() {
		int inner = width + 1;
		Object t = thing;
		String s = name();
	}
	String name() { return "n"; }
}`), WithObjects())

	bySource := make(map[string]ValueEntry)
	for _, e := range r.Values {
		bySource[e.At.Source] = e
	}

	width := bySource["width"]
	require.NotNil(t, width.Origin)
	assert.Equal(t, "10 * 2", width.Origin.Source)
	assert.Equal(t, "20", width.Object)

	assert.NotEmpty(t, bySource["thing"].Error)

	name := bySource["name()"]
	require.NotNil(t, name.Origin)
	assert.Equal(t, `"n"`, name.Origin.Source)
	assert.Empty(t, name.Object, "invocations are not evaluated")
}

func TestModel(t *testing.T) {
	s := newSession(t, `import javax.swing.*;

class Test extends JFrame {
	Test() {
		setTitle("Demo");
		JPanel a = new JPanel();
		JButton ok = new JButton("OK");
		JLabel stray = new JLabel("x");
		a.add(ok);
		a.add(ok);
		add(a);
	}
}`)
	m, err := model.NewBuilder(s).Build(context.Background())
	require.NoError(t, err)
	r := Model(s.ID, m)

	require.NotNil(t, r.Root)
	assert.Equal(t, "this", r.Root.Name)
	assert.Equal(t, map[string]string{"title": `"Demo"`}, r.Root.Properties)
	require.Len(t, r.Root.Children, 2)
	a, stray := r.Root.Children[0], r.Root.Children[1]
	assert.Equal(t, "a", a.Name)
	assert.Equal(t, "add(a)", a.Attached.Source)
	assert.Equal(t, "stray", stray.Name)
	assert.Nil(t, stray.Attached, "never attached")
	require.Len(t, a.Children, 1)
	assert.Equal(t, map[string]string{"text": `"OK"`}, a.Children[0].Properties)
	assert.Empty(t, r.Warnings, "adding twice to the same parent is not a warning")

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatText, r))
	assert.Contains(t, buf.String(), "    ok javax.swing.JButton {text=\"OK\"}")
}

func TestEncode(t *testing.T) {
	r := Flow(newSession(t, flowSource))

	var js bytes.Buffer
	require.NoError(t, Encode(&js, FormatJSON, r))
	var fromJSON FlowReport
	require.NoError(t, stdjson.Unmarshal(js.Bytes(), &fromJSON))
	if diff := cmp.Diff(r, &fromJSON); diff != "" {
		t.Errorf("json mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, js.String(), `"entry_points"`)
	assert.Contains(t, js.String(), `"line": 2`, "locations are flattened into statements")

	var ym bytes.Buffer
	require.NoError(t, Encode(&ym, FormatYAML, r))
	var fromYAML FlowReport
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &fromYAML))
	if diff := cmp.Diff(r, &fromYAML); diff != "" {
		t.Errorf("yaml mismatch (-want +got):\n%s", diff)
	}

	var mp bytes.Buffer
	require.NoError(t, Encode(&mp, FormatMsgpack, r))
	dec := msgpack.NewDecoder(&mp)
	dec.SetCustomStructTag("json")
	var fromMsgpack FlowReport
	require.NoError(t, dec.Decode(&fromMsgpack))
	if diff := cmp.Diff(r, &fromMsgpack); diff != "" {
		t.Errorf("msgpack mismatch (-want +got):\n%s", diff)
	}

	assert.Error(t, Encode(&bytes.Buffer{}, Format("xml"), r))
}

func TestReportsAreDeterministic(t *testing.T) {
	first := Flow(newSession(t, flowSource))
	second := Flow(newSession(t, flowSource))
	if diff := cmp.Diff(first, second, cmpopts.IgnoreFields(FlowReport{}, "Session")); diff != "" {
		t.Errorf("flow differs between runs (-first +second):\n%s", diff)
	}
	assert.NotEqual(t, first.Session, second.Session)
}

func TestEval(t *testing.T) {
	s := newSession(t, flowSource)

	expr := s.Unit.Root.Find(jast.KindBinary, "10 * 2")
	require.NotNil(t, expr)
	obj, err := s.Evaluate(expr)
	r := Eval(expr, s.Classes, obj, err)
	assert.Equal(t, "20", r.Value)
	assert.Equal(t, 2, r.At.Line)
	assert.Empty(t, r.Error)

	standalone, err := jast.ParseExpression(context.Background(), `"a" + "b"`)
	require.NoError(t, err)
	obj, err = s.Evaluate(standalone)
	r = Eval(standalone, s.Classes, obj, err)
	assert.Equal(t, `"ab"`, r.Value)
	assert.Nil(t, r.At)

	missing, err := jast.ParseExpression(context.Background(), "new com.example.Missing()")
	require.NoError(t, err)
	obj, err = s.Evaluate(missing)
	r = Eval(missing, s.Classes, obj, err)
	assert.NotEmpty(t, r.Error)
	assert.Empty(t, r.Value)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatText, r))
	assert.Contains(t, buf.String(), "new com.example.Missing(): ")
}

func TestSummary(t *testing.T) {
	r := &SummaryReport{Files: []FileSummary{
		{Path: "A.java", Type: "A", Statements: 3, Components: 2, Warnings: 1},
		{Path: "B.java", Error: "no type declaration"},
	}}
	assert.Equal(t, 1, r.Failed())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatText, r))
	assert.Equal(t, "A.java: A, 3 statements, 2 components, 1 warnings\n"+
		"B.java: error: no type declaration\n"+
		"2 files, 1 failed\n", buf.String())
}

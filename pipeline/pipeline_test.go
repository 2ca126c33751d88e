package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"twc/css"
	"twc/pipeline"
	"twc/plugins"
)

func TestSubstituteApply(t *testing.T) {
	cfg := configFrom(t, "")
	gen := &plugins.Result{Utilities: []css.Node{
		css.NewAtRule("variants", "hover",
			css.NewRule(".font-bold", css.NewDeclaration("font-weight", "700")),
			css.NewRule(".py-2", css.NewDeclaration("padding-top", "0.5rem"), css.NewDeclaration("padding-bottom", "0.5rem"))),
	}}
	sheet := parse(t, `.foo { color: red }
.btn { @apply .font-bold .py-2 !important; color: blue }
.link { @apply .foo; }`)

	out, err := pipeline.SubstituteApply(sheet.Nodes, cfg, gen)
	if err != nil {
		t.Fatal(err)
	}
	btn := out[1].(*css.Rule).Declarations()
	want := []struct {
		property  string
		important bool
	}{
		{"font-weight", true},
		{"padding-top", true},
		{"padding-bottom", true},
		{"color", false},
	}
	if len(btn) != len(want) {
		t.Fatalf("expected %d declarations, got %d", len(want), len(btn))
	}
	for i, w := range want {
		if btn[i].Property != w.property || btn[i].Important != w.important {
			t.Errorf("declaration %d: %s (important %v)", i, btn[i].Property, btn[i].Important)
		}
	}
	if btn[0].Source() != sheet.Nodes[1].(*css.Rule).Nodes[0].Source() {
		t.Error("inlined declarations should carry @apply position")
	}
	link := out[2].(*css.Rule).Declarations()
	if len(link) != 1 || link[0].Value != "red" {
		t.Errorf("unexpected link declarations %v", link)
	}
}

func TestSubstituteApply_Errors(t *testing.T) {
	cfg := configFrom(t, "")
	tests := []struct {
		name  string
		input string
		word  string
	}{
		{"missing", ".a { @apply .nope; }", "nope"},
		{"pseudo only", ".b:hover { color: red } .a { @apply .b; }", "b"},
		{"multiple", ".b { color: red } .b { color: blue } .a { @apply .b; }", "b"},
		{"outside rule", "@apply .b;", "apply"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pipeline.SubstituteApply(parse(t, tt.input).Nodes, cfg, nil)
			var de *pipeline.DirectiveError
			if !errors.As(err, &de) || de.Word != tt.word {
				t.Errorf("expected DirectiveError for %q, got %v", tt.word, err)
			}
		})
	}
}

const document = `@tailwind base;

@tailwind components;

.btn {
  @apply .font-bold;
  color: theme('colors.blue.500');
}

@tailwind utilities;

@screen md {
  .btn { padding: 0 }
}

@tailwind screens;
`

func TestProcess(t *testing.T) {
	cfg := configFrom(t, twoScreens+"corePlugins: [display, fontWeight]\n")
	sheet := parse(t, document)

	var messages []string
	res, err := pipeline.Process(context.Background(), sheet, cfg, pipeline.Options{
		Log:             zap.NewNop(),
		OnSelectorError: func(m string) { messages = append(messages, m) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 0 {
		t.Errorf("unexpected warnings %v", messages)
	}

	out := res.Sheet.String()
	for _, want := range []string{
		"font-weight: 700;\n  color: #4299e1;",
		`.hover\:font-bold:hover`,
		"@media (min-width: 768px) {\n  .btn {",
		`.sm\:flex`,
		`.md\:hidden`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q", want)
		}
	}
	for _, unwanted := range []string{"@tailwind", "@variants", "@responsive", "@screen", "@apply", "theme("} {
		if strings.Contains(out, unwanted) {
			t.Errorf("output still has %q", unwanted)
		}
	}

	// breakpoints in configuration order at the screens directive
	sm := strings.Index(out, "@media (min-width: 640px)")
	md := strings.LastIndex(out, "@media (min-width: 768px)")
	if sm < 0 || md < sm {
		t.Errorf("unexpected breakpoint order")
	}
	if strings.Index(out, `.sm\:flex`) < strings.Index(out, ".btn {") {
		t.Error("responsive utilities must follow document rules")
	}
}

func TestProcess_PluginOrder(t *testing.T) {
	cfg := configFrom(t, "corePlugins: false")
	block := func(name, value string) plugins.Plugin {
		return plugins.NewExternal(name, func(api *plugins.API) error {
			api.AddUtilities([]css.Node{css.NewRule(".block", css.NewDeclaration("display", value))})
			return nil
		})
	}
	sheet := parse(t, ".a { color: red }\n@tailwind utilities;\n.b { color: blue }")
	res, err := pipeline.Process(context.Background(), sheet, cfg, pipeline.Options{
		Plugins: []plugins.Plugin{block("first", "block"), block("second", "flex")},
	})
	if err != nil {
		t.Fatal(err)
	}
	nodes := res.Sheet.Nodes
	if len(nodes) != 4 {
		t.Fatalf("expected 4 rules, got\n%s", res.Sheet)
	}
	for i, want := range []string{".a", ".block", ".block", ".b"} {
		if got := nodes[i].(*css.Rule).Selector(); got != want {
			t.Errorf("rule %d: %q, want %q", i, got, want)
		}
	}
	if nodes[1].(*css.Rule).Declarations()[0].Value != "block" || nodes[2].(*css.Rule).Declarations()[0].Value != "flex" {
		t.Error("plugin registration order not kept")
	}
}

func TestProcess_Failures(t *testing.T) {
	cfg := configFrom(t, "corePlugins: false")
	tests := []struct {
		name   string
		input  string
		plugin plugins.Plugin
		pass   string
	}{
		{"preflight", ".a { color: theme('nope') }\n@tailwind preflight;", nil, "tailwind"},
		{"lookup", ".a { color: theme('nope') }", nil, "functions"},
		{"variant", "@variants wobble { .a { color: red } }", nil, "variants"},
		{"plugin", ".a { color: red }", plugins.NewExternal("bad", func(*plugins.API) error { return errors.New("boom") }), "plugins"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := pipeline.Options{}
			if tt.plugin != nil {
				opts.Plugins = []plugins.Plugin{tt.plugin}
			}
			res, err := pipeline.Process(context.Background(), parse(t, tt.input), cfg, opts)
			if res != nil {
				t.Error("no partial result expected")
			}
			var pe *pipeline.ProcessError
			if !errors.As(err, &pe) || pe.Pass != tt.pass {
				t.Errorf("expected failure in %s, got %v", tt.pass, err)
			}
		})
	}
}

func TestProcess_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pipeline.Process(ctx, parse(t, ".a { color: red }"), configFrom(t, "corePlugins: false"), pipeline.Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

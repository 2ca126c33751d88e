package pipeline_test

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"twc/css"
	"twc/design"
	"twc/pipeline"
	"twc/plugins"
)

func selectors(nodes []css.Node) []string {
	var out []string
	_ = css.Walk(nodes, func(n css.Node) error {
		if r, ok := n.(*css.Rule); ok {
			out = append(out, r.Selector())
		}
		return nil
	})
	return out
}

func TestSubstituteVariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			"pseudo classes",
			"@variants hover, focus { .btn { color: red } }",
			[]string{".btn", `.hover\:btn:hover`, `.focus\:btn:focus`},
		},
		{
			"explicit default",
			"@variants hover, default { .btn { color: red } }",
			[]string{`.hover\:btn:hover`, ".btn"},
		},
		{
			"structural",
			"@variants first, last, odd, even { .x { color: red } }",
			[]string{".x", `.first\:x:first-child`, `.last\:x:last-child`, `.odd\:x:nth-child(odd)`, `.even\:x:nth-child(even)`},
		},
		{
			"group hover",
			"@variants group-hover { .text-red { color: red } }",
			[]string{".text-red", `.group:hover .group-hover\:text-red`},
		},
		{
			"first class only",
			"@variants hover { .a .b > .c { color: red } }",
			[]string{".a .b > .c", `.hover\:a:hover .b > .c`},
		},
		{
			"empty list",
			"@variants { .a { color: red } }",
			[]string{".a"},
		},
		{
			"nested at-rule",
			"@variants focus { @media print { .a { color: red } } }",
			[]string{".a", `.focus\:a:focus`},
		},
	}
	cfg := configFrom(t, "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := parse(t, tt.input)
			out, err := pipeline.SubstituteVariants(sheet.Nodes, cfg, nil, zap.NewNop(), nil)
			if err != nil {
				t.Fatal(err)
			}
			if got := selectors(out); strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %q\nwant %q", got, tt.want)
			}
			if strings.Contains(css.Format(out), "@variants") {
				t.Error("variants marker left in output")
			}
		})
	}
}

func TestSubstituteVariants_Responsive(t *testing.T) {
	cfg := configFrom(t, "")
	sheet := parse(t, "@variants responsive, hover { .a { color: red } }")
	out, err := pipeline.SubstituteVariants(sheet.Nodes, cfg, nil, zap.NewNop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("expected single wrapper, got %d nodes", len(out))
	}
	at, ok := out[0].(*css.AtRule)
	if !ok || at.Name != "responsive" || len(at.Nodes) != 2 {
		t.Fatalf("expected @responsive wrapper, got\n%s", css.Format(out))
	}
	if at.Source() != sheet.Nodes[0].Source() {
		t.Error("wrapper should keep position of variants block")
	}
}

func TestSubstituteVariants_Prefix(t *testing.T) {
	cfg := configFrom(t, "prefix: tw-")
	sheet := parse(t, "@variants group-hover { .tw-a { color: red } }")
	out, err := pipeline.SubstituteVariants(sheet.Nodes, cfg, nil, zap.NewNop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := selectors(out)[1]; got != `.tw-group:hover .group-hover\:tw-a` {
		t.Errorf("unexpected selector %q", got)
	}
}

func TestSubstituteVariants_Unknown(t *testing.T) {
	cfg := configFrom(t, "")
	sheet := parse(t, ".x { color: red }\n@variants hover, wobble { .a { color: red } }")
	_, err := pipeline.SubstituteVariants(sheet.Nodes, cfg, nil, zap.NewNop(), nil)
	var ue *pipeline.UnknownVariantError
	if !errors.As(err, &ue) || ue.Variant != "wobble" || ue.Source.Start.Line != 2 {
		t.Errorf("expected UnknownVariantError, got %v", err)
	}
}

func TestSubstituteVariants_PluginVariant(t *testing.T) {
	cfg := configFrom(t, "corePlugins: false")
	gen, err := plugins.Compose(cfg, zap.NewNop(), plugins.NewExternal("print", func(api *plugins.API) error {
		api.AddVariant("print", func(selector, className, separator string) (string, error) {
			return "@print " + selector, nil
		})
		api.AddVariant("hover", func(selector, className, separator string) (string, error) {
			return ".custom-" + className, nil
		})
		return nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	sheet := parse(t, "@variants print, hover { .a { color: red } }")
	out, err := pipeline.SubstituteVariants(sheet.Nodes, cfg, gen, zap.NewNop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{".a", "@print .a", ".custom-a"}
	if got := selectors(out); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSubstituteVariants_NoClass(t *testing.T) {
	cfg := configFrom(t, "")
	sheet := parse(t, "@variants hover, focus { a { color: red } }")
	var count int
	out, err := pipeline.SubstituteVariants(sheet.Nodes, cfg, nil, zap.NewNop(), func(*pipeline.SelectorWarning) { count++ })
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("expected warning per variant, got %d", count)
	}
	if got := selectors(out); len(got) != 3 || got[1] != "a" {
		t.Errorf("unexpected selectors %q", got)
	}
}

func TestEvaluateFunctions(t *testing.T) {
	cfg := configFrom(t, twoScreens)
	sheet := parse(t, `.a {
  color: theme('colors.red.500');
  font-family: theme("fontFamily.mono");
  margin: theme('spacing.nope', 1px) theme('spacing.4');
}
@media (min-width: theme('screens.md')) { .b { color: theme('colors.white') } }`)
	out, err := pipeline.EvaluateFunctions(sheet.Nodes, cfg)
	if err != nil {
		t.Fatal(err)
	}
	decls := out[0].(*css.Rule).Declarations()
	want := []string{"#f56565", `Menlo, Monaco, Consolas, "Liberation Mono", "Courier New", monospace`, "1px 1rem"}
	for i, w := range want {
		if decls[i].Value != w {
			t.Errorf("declaration %d: %q, want %q", i, decls[i].Value, w)
		}
	}
	media := out[1].(*css.AtRule)
	if media.Params != "(min-width: 768px)" {
		t.Errorf("unexpected params %q", media.Params)
	}
	if d := media.Nodes[0].(*css.Rule).Declarations()[0]; d.Value != "#fff" {
		t.Errorf("nested value not evaluated: %q", d.Value)
	}
	if strings.Contains(sheet.String(), "#f56565") {
		t.Error("input tree was modified")
	}
}

func TestEvaluateFunctions_Missing(t *testing.T) {
	cfg := configFrom(t, "")
	sheet := parse(t, ".a { color: theme('colors.nope') }")
	_, err := pipeline.EvaluateFunctions(sheet.Nodes, cfg)
	var le *design.LookupError
	if !errors.As(err, &le) || le.Path != "colors.nope" {
		t.Errorf("expected LookupError, got %v", err)
	}
}

func TestSubstituteScreens(t *testing.T) {
	cfg := configFrom(t, twoScreens)
	sheet := parse(t, "@screen md { .a { color: red } }")
	out, err := pipeline.SubstituteScreens(sheet.Nodes, cfg)
	if err != nil {
		t.Fatal(err)
	}
	media := out[0].(*css.AtRule)
	if media.Name != "media" || media.Params != "(min-width: 768px)" || len(media.Nodes) != 1 {
		t.Errorf("unexpected output\n%s", css.Format(out))
	}

	_, err = pipeline.SubstituteScreens(parse(t, "@screen xxl { .a { color: red } }").Nodes, cfg)
	var de *pipeline.DirectiveError
	if !errors.As(err, &de) || de.Word != "xxl" {
		t.Errorf("expected DirectiveError, got %v", err)
	}
}

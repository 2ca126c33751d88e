package css_test

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"twc/css"
)

func parse(t *testing.T, src string) *css.Stylesheet {
	t.Helper()
	return css.NewParser(zap.NewNop()).Parse([]byte(src), "test.css")
}

func TestParser_Directives(t *testing.T) {
	sheet := parse(t, `@tailwind base;

@tailwind components;

.btn { color: red; }

@responsive {
  .flex { display: flex; }
}
`)
	if len(sheet.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", sheet.Warnings)
	}
	if len(sheet.Nodes) != 4 {
		t.Fatalf("expected 4 top level nodes, got %d", len(sheet.Nodes))
	}

	at, ok := sheet.Nodes[0].(*css.AtRule)
	if !ok || at.Name != "tailwind" || at.Params != "base" || at.HasBlock {
		t.Errorf("unexpected first node: %#v", sheet.Nodes[0])
	}
	if at.Source().Start.Line != 1 || at.Source().File != "test.css" {
		t.Errorf("unexpected source %s", at.Source())
	}

	rule, ok := sheet.Nodes[2].(*css.Rule)
	if !ok {
		t.Fatalf("expected rule, got %T", sheet.Nodes[2])
	}
	if rule.Selector() != ".btn" {
		t.Errorf("expected .btn, got %q", rule.Selector())
	}
	if rule.Source().Start.Line != 5 {
		t.Errorf("expected rule on line 5, got %d", rule.Source().Start.Line)
	}
	decls := rule.Declarations()
	if len(decls) != 1 || decls[0].Property != "color" || decls[0].Value != "red" {
		t.Errorf("unexpected declarations: %v", decls)
	}

	resp, ok := sheet.Nodes[3].(*css.AtRule)
	if !ok || resp.Name != "responsive" || !resp.HasBlock || len(resp.Nodes) != 1 {
		t.Fatalf("unexpected responsive node: %#v", sheet.Nodes[3])
	}
	if inner, ok := resp.Nodes[0].(*css.Rule); !ok || inner.Selector() != ".flex" {
		t.Errorf("unexpected responsive child: %#v", resp.Nodes[0])
	}
}

func TestParser_Declarations(t *testing.T) {
	sheet := parse(t, `a:hover, .x > .y {
  color : theme('colors.red.500');
  margin: 0   auto !important;
  background: url(data:image/png;base64,AAAA);
}`)
	if len(sheet.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", sheet.Warnings)
	}
	rule := sheet.Nodes[0].(*css.Rule)
	if len(rule.Selectors) != 2 || rule.Selectors[0] != "a:hover" || rule.Selectors[1] != ".x > .y" {
		t.Errorf("unexpected selectors: %q", rule.Selectors)
	}

	tests := []struct {
		property  string
		value     string
		important bool
	}{
		{"color", "theme('colors.red.500')", false},
		{"margin", "0 auto", true},
		{"background", "url(data:image/png;base64,AAAA)", false},
	}
	decls := rule.Declarations()
	if len(decls) != len(tests) {
		t.Fatalf("expected %d declarations, got %d", len(tests), len(decls))
	}
	for i, tt := range tests {
		d := decls[i]
		if d.Property != tt.property || d.Value != tt.value || d.Important != tt.important {
			t.Errorf("declaration %d: got %s: %q (important %v), want %s: %q (important %v)",
				i, d.Property, d.Value, d.Important, tt.property, tt.value, tt.important)
		}
	}
}

func TestParser_NestedAtRules(t *testing.T) {
	sheet := parse(t, `@media (min-width: 640px) {
  @variants hover, focus {
    .a { color: red }
  }
}
@font-face { font-family: "X"; src: url(x.woff) }`)
	if len(sheet.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(sheet.Nodes))
	}
	media := sheet.Nodes[0].(*css.AtRule)
	if media.Params != "(min-width: 640px)" {
		t.Errorf("unexpected media params %q", media.Params)
	}
	variants := media.Nodes[0].(*css.AtRule)
	if variants.Name != "variants" || variants.Params != "hover, focus" {
		t.Errorf("unexpected variants at-rule %q %q", variants.Name, variants.Params)
	}
	ff := sheet.Nodes[1].(*css.AtRule)
	if len(ff.Nodes) != 2 {
		t.Errorf("expected font-face declarations, got %d nodes", len(ff.Nodes))
	}
}

func TestParser_Recovers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		nodes int
	}{
		{"stray brace", "} .a { color: red }", 1},
		{"unclosed block", ".a { color: red", 1},
		{"declaration at top", "color: red; .a {}", 1},
		{"missing colon", ".a { color red; margin: 0 }", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := parse(t, tt.input)
			if len(sheet.Warnings) == 0 {
				t.Error("expected warnings")
			}
			if len(sheet.Nodes) != tt.nodes {
				t.Errorf("expected %d nodes, got %d", tt.nodes, len(sheet.Nodes))
			}
		})
	}
}

func TestParser_Comments(t *testing.T) {
	sheet := parse(t, "/* header */\n.a { /* inner */ color: /* lost */ red; }")
	if c, ok := sheet.Nodes[0].(*css.Comment); !ok || c.Text != " header " {
		t.Errorf("expected header comment, got %#v", sheet.Nodes[0])
	}
	rule := sheet.Nodes[1].(*css.Rule)
	if len(rule.Nodes) != 2 {
		t.Fatalf("expected comment and declaration, got %d nodes", len(rule.Nodes))
	}
	if d := rule.Declarations()[0]; d.Value != "red" {
		t.Errorf("expected comment in value to be dropped, got %q", d.Value)
	}
}

func TestStylesheet_String(t *testing.T) {
	input := `@tailwind base;
.a, .b { color: red; margin: 0 !important }
@media (min-width: 640px) { .sm\:a { color: red } }`

	want := strings.Join([]string{
		"@tailwind base;",
		"",
		".a,",
		".b {",
		"  color: red;",
		"  margin: 0 !important;",
		"}",
		"",
		"@media (min-width: 640px) {",
		`  .sm\:a {`,
		"    color: red;",
		"  }",
		"}",
		"",
	}, "\n")

	got := parse(t, input).String()
	if got != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", got, want)
	}

	// printing is stable
	again := parse(t, got).String()
	if again != got {
		t.Errorf("output changed after reparse:\n%s", again)
	}
}

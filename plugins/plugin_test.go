package plugins

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"twc/css"
	"twc/design"
)

func configFrom(t *testing.T, src string) *design.Configuration {
	t.Helper()
	user, err := design.ParseYAML([]byte(src))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	cfg, err := design.Resolve(user)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return cfg
}

// utilityRules flattens @variants wrappers returning rules with the
// wrapper params.
func utilityRules(res *Result) (rules []*css.Rule, params []string) {
	for _, n := range res.Utilities {
		at := n.(*css.AtRule)
		for _, c := range at.Nodes {
			if r, ok := c.(*css.Rule); ok {
				rules = append(rules, r)
				params = append(params, at.Params)
			}
		}
	}
	return rules, params
}

func TestCompose_Defaults(t *testing.T) {
	res, err := Compose(configFrom(t, ""), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Base) == 0 {
		t.Error("expected preflight base styles")
	}
	if len(res.Components) == 0 {
		t.Error("expected container component")
	}

	rules, params := utilityRules(res)
	found := map[string]string{}
	for i, r := range rules {
		found[r.Selector()] = params[i]
	}
	tests := []struct {
		selector string
		variants string
	}{
		{".flex", "responsive"},
		{".hidden", "responsive"},
		{".bg-red-500", "responsive, hover, focus"},
		{".text-blue-100", "responsive, hover, focus, group-hover"},
		{".border", "responsive"},
		{".border-t-2", "responsive"},
		{".m-auto", "responsive"},
		{".-mx-4", "responsive"},
		{".pt-px", "responsive"},
		{".z-10", "responsive"},
		{".opacity-50", "responsive, hover, focus"},
		{".font-bold", "responsive, hover, focus"},
		{".font-sans", ""},
	}
	for _, tt := range tests {
		got, ok := found[tt.selector]
		if !ok {
			t.Errorf("%s not generated", tt.selector)
			continue
		}
		if got != tt.variants {
			t.Errorf("%s variants %q, want %q", tt.selector, got, tt.variants)
		}
	}
	if _, ok := found[".border-default"]; ok {
		t.Error("default border color must not produce a utility")
	}
	if _, ok := found[".-m-0"]; ok {
		t.Error("zero margin has no negative counterpart")
	}
}

func TestCompose_CoreSelection(t *testing.T) {
	res, err := Compose(configFrom(t, "corePlugins: [display]"), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Base) != 0 || len(res.Components) != 0 {
		t.Error("only display plugin should run")
	}
	if len(res.Utilities) != 1 {
		t.Errorf("expected one utilities block, got %d", len(res.Utilities))
	}
}

func blockPlugin(name, value string) Plugin {
	return NewExternal(name, func(api *API) error {
		api.AddUtilities([]css.Node{css.NewRule(".block", css.NewDeclaration("display", value))})
		return nil
	})
}

func TestCompose_OrderKeepsDuplicates(t *testing.T) {
	cfg := configFrom(t, "corePlugins: false")
	res, err := Compose(cfg, zap.NewNop(), blockPlugin("first", "block"), blockPlugin("second", "flex"))
	if err != nil {
		t.Fatal(err)
	}
	rules, _ := utilityRules(res)
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	for i, want := range []string{"block", "flex"} {
		if rules[i].Selector() != ".block" || rules[i].Declarations()[0].Value != want {
			t.Errorf("rule %d: %s", i, rules[i])
		}
	}
}

func TestCompose_Failure(t *testing.T) {
	cfg := configFrom(t, "corePlugins: false")
	boom := errors.New("boom")
	tests := []struct {
		name   string
		plugin Plugin
	}{
		{"error", NewExternal("bad", func(*API) error { return boom })},
		{"panic", NewExternal("bad", func(*API) error { panic("boom") })},
		{"theme", NewExternal("bad", func(api *API) error {
			_, err := api.Theme("colors.nope")
			return err
		})},
		{"no function", External{ID: "bad"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compose(cfg, zap.NewNop(), blockPlugin("good", "block"), tt.plugin)
			if res != nil {
				t.Error("no partial result expected")
			}
			var ee *ExecutionError
			if !errors.As(err, &ee) || ee.Plugin != "bad" {
				t.Errorf("expected ExecutionError, got %v", err)
			}
		})
	}
}

func TestAPI_PrefixImportant(t *testing.T) {
	cfg := configFrom(t, "prefix: tw-\nimportant: true\ncorePlugins: false")
	res, err := Compose(cfg, zap.NewNop(), NewExternal("p", func(api *API) error {
		api.AddUtilities([]css.Node{css.NewRule(".group:hover .w-1\\/2", css.NewDeclaration("width", "50%"))})
		api.AddComponents([]css.Node{css.NewRule(".btn", css.NewDeclaration("color", "red"))})
		return nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	rules, _ := utilityRules(res)
	if got := rules[0].Selector(); got != `.tw-group:hover .tw-w-1\/2` {
		t.Errorf("unexpected selector %q", got)
	}
	if !rules[0].Declarations()[0].Important {
		t.Error("utility declarations should be important")
	}
	comp := res.Components[0].(*css.Rule)
	if comp.Selector() != ".tw-btn" || comp.Declarations()[0].Important {
		t.Errorf("unexpected component %s", comp)
	}
}

func TestAPI_AddVariant(t *testing.T) {
	cfg := configFrom(t, "corePlugins: false")
	gen := func(selector, className, separator string) (string, error) {
		return ".print" + separator + className, nil
	}
	res, err := Compose(cfg, zap.NewNop(), NewExternal("p", func(api *API) error {
		api.AddVariant("print", gen)
		api.AddVariant("print", gen)
		return nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	if names := res.VariantNames(); len(names) != 1 || names[0] != "print" {
		t.Errorf("unexpected variants %v", names)
	}
	if _, ok := res.Variant("print"); !ok {
		t.Error("variant not registered")
	}
}

func TestContainer(t *testing.T) {
	res, err := Compose(configFrom(t, "corePlugins: [container]\ntheme:\n  extend:\n    container:\n      center: 'true'\n"), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Components) != 5 {
		t.Fatalf("expected container rule and 4 media blocks, got %d", len(res.Components))
	}
	rule := res.Components[0].(*css.Rule)
	if len(rule.Declarations()) != 3 {
		t.Errorf("expected centered container, got %s", rule)
	}
	media := res.Components[1].(*css.AtRule)
	if media.Params != "(min-width: 640px)" {
		t.Errorf("unexpected media %q", media.Params)
	}
	if !strings.Contains(media.String(), "max-width: 640px") {
		t.Errorf("unexpected media body %s", media)
	}
}

func TestDashify(t *testing.T) {
	tests := map[string]string{
		"color":           "color",
		"backgroundColor": "background-color",
		"WebkitTransform": "-webkit-transform",
		"msFlex":          "-ms-flex",
		"--custom":        "--custom",
		"font-size":       "font-size",
	}
	for in, want := range tests {
		if got := dashify(in); got != want {
			t.Errorf("dashify(%q) = %q, want %q", in, got, want)
		}
	}
}

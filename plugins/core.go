package plugins

import (
	"fmt"
	"strings"

	"twc/css"
	"twc/design"
)

// Core identifies a built-in plugin.
type Core string

const (
	Preflight       Core = "preflight"
	Container       Core = "container"
	BackgroundColor Core = "backgroundColor"
	BorderColor     Core = "borderColor"
	BorderWidth     Core = "borderWidth"
	Display         Core = "display"
	FontFamily      Core = "fontFamily"
	FontWeight      Core = "fontWeight"
	Margin          Core = "margin"
	Opacity         Core = "opacity"
	Padding         Core = "padding"
	TextColor       Core = "textColor"
	ZIndex          Core = "zIndex"
)

// corePlugins is built-in plugin order.
var corePlugins = []struct {
	id Core
	fn Func
}{
	{Preflight, preflight},
	{Container, container},
	{BackgroundColor, colorUtilities(BackgroundColor, "bg", "background-color")},
	{BorderColor, colorUtilities(BorderColor, "border", "border-color")},
	{BorderWidth, borderWidth},
	{Display, display},
	{FontFamily, fontFamily},
	{FontWeight, simpleUtilities(FontWeight, "font", "font-weight")},
	{Margin, spacingUtilities(Margin, "m", "margin")},
	{Opacity, simpleUtilities(Opacity, "opacity", "opacity")},
	{Padding, spacingUtilities(Padding, "p", "padding")},
	{TextColor, colorUtilities(TextColor, "text", "color")},
	{ZIndex, simpleUtilities(ZIndex, "z", "z-index")},
}

// CoreNames returns identifiers of all built-in plugins in run order.
func CoreNames() []string {
	names := make([]string, 0, len(corePlugins))
	for _, c := range corePlugins {
		names = append(names, string(c.id))
	}
	return names
}

func (c Core) Name() string { return string(c) }

func (c Core) apply(api *API) error {
	for _, p := range corePlugins {
		if p.id == c {
			return p.fn(api)
		}
	}
	return fmt.Errorf("unknown core plugin %q", string(c))
}

// utility builds a single class rule from property/value pairs.
func utility(api *API, class string, pairs ...string) *css.Rule {
	rule := css.NewRule("." + api.E(class))
	for i := 0; i+1 < len(pairs); i += 2 {
		rule.Nodes = append(rule.Nodes, css.NewDeclaration(pairs[i], pairs[i+1]))
	}
	return rule
}

// className joins base and modifier. Negative modifiers ("-2") move the
// minus sign in front: "-m-2".
func className(base, modifier string) string {
	switch {
	case modifier == "" || modifier == "default":
		return base
	case strings.HasPrefix(modifier, "-"):
		return "-" + base + "-" + modifier[1:]
	}
	return base + "-" + modifier
}

func colorUtilities(id Core, base, property string) Func {
	return func(api *API) error {
		colors, err := api.ThemeMap(string(id))
		if err != nil {
			return err
		}
		var nodes []css.Node
		for name, value := range design.Flatten(colors).All() {
			if id == BorderColor && name == "default" {
				continue
			}
			nodes = append(nodes, utility(api, className(base, name), property, design.ValueString(value)))
		}
		api.AddUtilities(nodes, api.Variants(string(id))...)
		return nil
	}
}

func simpleUtilities(id Core, base, property string) Func {
	return func(api *API) error {
		values, err := api.ThemeMap(string(id))
		if err != nil {
			return err
		}
		var nodes []css.Node
		for modifier, value := range values.All() {
			nodes = append(nodes, utility(api, className(base, modifier), property, design.ValueString(value)))
		}
		api.AddUtilities(nodes, api.Variants(string(id))...)
		return nil
	}
}

func negate(value string) (string, bool) {
	if value == "0" || value == "auto" || strings.HasPrefix(value, "-") || strings.HasPrefix(value, "0 ") {
		return "", false
	}
	return "-" + value, true
}

// spacingUtilities produces all sides, axis and single side utilities. For
// margin negative counterparts are generated as well.
func spacingUtilities(id Core, base, property string) Func {
	sides := []struct {
		suffix string
		props  []string
	}{
		{"", []string{property}},
		{"y", []string{property + "-top", property + "-bottom"}},
		{"x", []string{property + "-left", property + "-right"}},
		{"t", []string{property + "-top"}},
		{"r", []string{property + "-right"}},
		{"b", []string{property + "-bottom"}},
		{"l", []string{property + "-left"}},
	}
	return func(api *API) error {
		values, err := api.ThemeMap(string(id))
		if err != nil {
			return err
		}
		type entry struct{ modifier, value string }
		entries := make([]entry, 0, values.Len())
		for modifier, value := range values.All() {
			entries = append(entries, entry{modifier, design.ValueString(value)})
		}
		if id == Margin {
			for modifier, value := range values.All() {
				if strings.HasPrefix(modifier, "-") {
					continue
				}
				if neg, ok := negate(design.ValueString(value)); ok {
					if _, exists := values.Get("-" + modifier); !exists {
						entries = append(entries, entry{"-" + modifier, neg})
					}
				}
			}
		}

		var nodes []css.Node
		for _, side := range sides {
			for _, e := range entries {
				pairs := make([]string, 0, 2*len(side.props))
				for _, p := range side.props {
					pairs = append(pairs, p, e.value)
				}
				nodes = append(nodes, utility(api, className(base+side.suffix, e.modifier), pairs...))
			}
		}
		api.AddUtilities(nodes, api.Variants(string(id))...)
		return nil
	}
}

func borderWidth(api *API) error {
	values, err := api.ThemeMap(string(BorderWidth))
	if err != nil {
		return err
	}
	sides := []struct{ suffix, property string }{
		{"", "border-width"},
		{"t", "border-top-width"},
		{"r", "border-right-width"},
		{"b", "border-bottom-width"},
		{"l", "border-left-width"},
	}
	var nodes []css.Node
	for _, side := range sides {
		base := "border"
		if side.suffix != "" {
			base += "-" + side.suffix
		}
		for modifier, value := range values.All() {
			nodes = append(nodes, utility(api, className(base, modifier), side.property, design.ValueString(value)))
		}
	}
	api.AddUtilities(nodes, api.Variants(string(BorderWidth))...)
	return nil
}

func display(api *API) error {
	values := []struct{ class, value string }{
		{"block", "block"},
		{"inline-block", "inline-block"},
		{"inline", "inline"},
		{"flex", "flex"},
		{"inline-flex", "inline-flex"},
		{"table", "table"},
		{"table-row", "table-row"},
		{"table-cell", "table-cell"},
		{"hidden", "none"},
	}
	nodes := make([]css.Node, 0, len(values))
	for _, v := range values {
		nodes = append(nodes, utility(api, v.class, "display", v.value))
	}
	api.AddUtilities(nodes, api.Variants(string(Display))...)
	return nil
}

func fontFamily(api *API) error {
	values, err := api.ThemeMap(string(FontFamily))
	if err != nil {
		return err
	}
	var nodes []css.Node
	for name, value := range values.All() {
		nodes = append(nodes, utility(api, className("font", name), "font-family", design.ValueString(value)))
	}
	api.AddUtilities(nodes, api.Variants(string(FontFamily))...)
	return nil
}

// container is a component: full width with max-width stepping at every
// screen having a minimum width.
func container(api *API) error {
	opts, _ := api.ThemeMap(string(Container))

	rule := utility(api, "container", "width", "100%")
	if center, _ := opts.Get("center"); center == "true" {
		rule.Nodes = append(rule.Nodes,
			css.NewDeclaration("margin-right", "auto"),
			css.NewDeclaration("margin-left", "auto"))
	}
	if padding, ok := opts.Get("padding"); ok {
		p := design.ValueString(padding)
		rule.Nodes = append(rule.Nodes,
			css.NewDeclaration("padding-right", p),
			css.NewDeclaration("padding-left", p))
	}

	nodes := []css.Node{rule}
	for _, screen := range api.Config().Screens() {
		for _, width := range minWidths(screen.Value) {
			nodes = append(nodes, css.NewAtRule("media", fmt.Sprintf("(min-width: %s)", width),
				utility(api, "container", "max-width", width)))
		}
	}
	api.AddComponents(nodes)
	return nil
}

func minWidths(v any) []string {
	switch v := v.(type) {
	case string:
		return []string{v}
	case *design.Map:
		if _, ok := v.Get("raw"); ok {
			return nil
		}
		for _, key := range []string{"min", "min-width"} {
			if m, ok := v.Get(key); ok {
				return []string{design.ValueString(m)}
			}
		}
	case []any:
		var out []string
		for _, e := range v {
			out = append(out, minWidths(e)...)
		}
		return out
	}
	return nil
}

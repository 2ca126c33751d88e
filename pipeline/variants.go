package pipeline

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"twc/css"
	"twc/design"
	"twc/plugins"
)

const (
	variantsDirective   = "variants"
	responsiveDirective = "responsive"
	defaultVariant      = "default"
)

// pseudo-class variants, class gets the variant prefix and pseudo-class
var pseudoVariants = map[string]string{
	"hover":        ":hover",
	"focus":        ":focus",
	"active":       ":active",
	"visited":      ":visited",
	"disabled":     ":disabled",
	"focus-within": ":focus-within",
	"first":        ":first-child",
	"last":         ":last-child",
	"odd":          ":nth-child(odd)",
	"even":         ":nth-child(even)",
}

// BuiltinVariants lists variants available without plugins.
func BuiltinVariants() []string {
	names := make([]string, 0, len(pseudoVariants)+1)
	for name := range pseudoVariants {
		names = append(names, name)
	}
	names = append(names, "group-hover")
	slices.Sort(names)
	return names
}

func pseudoGenerator(variant, pseudo string) plugins.VariantGenerator {
	return func(selector, _, separator string) (string, error) {
		c, ok := css.FirstClass(selector)
		if !ok {
			return selector, nil
		}
		return css.ReplaceClass(selector, c, "."+css.Escape(variant+separator+c.Name())+pseudo), nil
	}
}

func groupHoverGenerator(prefix string) plugins.VariantGenerator {
	return func(selector, _, separator string) (string, error) {
		c, ok := css.FirstClass(selector)
		if !ok {
			return selector, nil
		}
		group := "." + css.Escape(prefix+"group") + ":hover "
		return css.ReplaceClass(selector, c, group+"."+css.Escape("group-hover"+separator+c.Name())), nil
	}
}

type variantExpander struct {
	cfg      *design.Configuration
	gen      *plugins.Result
	log      *zap.Logger
	warnings *warnings
}

func (v *variantExpander) generator(name string) (plugins.VariantGenerator, bool) {
	if v.gen != nil {
		if g, ok := v.gen.Variant(name); ok {
			return g, true
		}
	}
	if pseudo, ok := pseudoVariants[name]; ok {
		return pseudoGenerator(name, pseudo), true
	}
	if name == "group-hover" {
		return groupHoverGenerator(v.cfg.Prefix()), true
	}
	return nil, false
}

// SubstituteVariants expands "@variants a, b { ... }" blocks: unmodified
// rules first (unless "default" is listed explicitly elsewhere), then a copy
// per listed variant with selectors rewritten. When "responsive" is listed
// result is wrapped into "@responsive" for later expansion.
func SubstituteVariants(nodes []css.Node, cfg *design.Configuration, gen *plugins.Result, log *zap.Logger, onWarning func(*SelectorWarning)) ([]css.Node, error) {
	if log == nil {
		log = zap.NewNop()
	}
	v := &variantExpander{cfg: cfg, gen: gen, log: log, warnings: &warnings{fn: onWarning}}
	return v.rewrite(nodes)
}

func (v *variantExpander) rewrite(nodes []css.Node) ([]css.Node, error) {
	return css.Rewrite(nodes, func(n css.Node) ([]css.Node, bool, error) {
		at, ok := n.(*css.AtRule)
		if !ok || at.Name != variantsDirective {
			return nil, false, nil
		}
		// nested blocks first
		children, err := v.rewrite(at.Nodes)
		if err != nil {
			return nil, false, err
		}
		repl, err := v.expand(at, children)
		if err != nil {
			return nil, false, err
		}
		return repl, true, nil
	})
}

func parseVariantList(params string) []string {
	var list []string
	for item := range strings.SplitSeq(params, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

func (v *variantExpander) expand(at *css.AtRule, children []css.Node) ([]css.Node, error) {
	list := parseVariantList(at.Params)
	responsive := slices.Contains(list, responsiveDirective)
	list = slices.DeleteFunc(list, func(s string) bool { return s == responsiveDirective })
	if !slices.Contains(list, defaultVariant) {
		list = append([]string{defaultVariant}, list...)
	}

	var out []css.Node
	for _, name := range list {
		if name == defaultVariant {
			out = append(out, css.CloneAll(children)...)
			continue
		}
		gen, ok := v.generator(name)
		if !ok {
			return nil, &UnknownVariantError{Source: at.Source(), Variant: name}
		}
		variant, err := v.apply(name, gen, children)
		if err != nil {
			return nil, fmt.Errorf("%s: variant %q: %w", at.Source(), name, err)
		}
		out = append(out, variant...)
	}
	v.log.Debug("Variants expanded", zap.Stringer("source", at.Source()), zap.Strings("variants", list), zap.Bool("responsive", responsive))

	if responsive {
		wrapper := &css.AtRule{Name: responsiveDirective, HasBlock: true, Nodes: out, Src: at.Source()}
		return []css.Node{wrapper}, nil
	}
	return out, nil
}

// apply rewrites every rule of a copy of nodes with generator.
func (v *variantExpander) apply(name string, gen plugins.VariantGenerator, nodes []css.Node) ([]css.Node, error) {
	sep := v.cfg.Separator()
	return css.Rewrite(nodes, func(n css.Node) ([]css.Node, bool, error) {
		r, ok := n.(*css.Rule)
		if !ok {
			return nil, false, nil
		}
		rule := r.Clone().(*css.Rule)
		for i, sel := range rule.Selectors {
			c, ok := css.FirstClass(sel)
			if !ok {
				v.warnings.add(&SelectorWarning{Source: r.Source(), Selector: sel, Variant: name, Message: noClassesMessage})
				continue
			}
			res, err := gen(sel, c.Name(), sep)
			if err != nil {
				return nil, false, err
			}
			rule.Selectors[i] = res
		}
		return []css.Node{rule}, true, nil
	})
}

// warnings delivers selector warnings to callback and keeps them.
type warnings struct {
	fn   func(*SelectorWarning)
	list []*SelectorWarning
}

func (w *warnings) add(warn *SelectorWarning) {
	w.list = append(w.list, warn)
	if w.fn != nil {
		w.fn(warn)
	}
}

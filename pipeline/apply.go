package pipeline

import (
	"fmt"
	"strings"

	"twc/css"
	"twc/design"
	"twc/plugins"
)

const applyDirective = "apply"

// classTable maps single class selector to rules defining it.
type classTable map[string][]*css.Rule

func (t classTable) add(nodes []css.Node) {
	for _, n := range nodes {
		r, ok := n.(*css.Rule)
		if !ok || len(r.Selectors) != 1 {
			continue
		}
		if name, ok := css.SingleClass(r.Selectors[0]); ok {
			t[name] = append(t[name], r)
		}
	}
}

// shadowTable holds generated utilities and components which did not end up
// in the document: default variant from every "@variants" wrapper.
func shadowTable(gen *plugins.Result) classTable {
	t := make(classTable)
	if gen == nil {
		return t
	}
	for _, n := range gen.Utilities {
		if at, ok := n.(*css.AtRule); ok && at.Name == variantsDirective {
			t.add(at.Nodes)
			continue
		}
		t.add([]css.Node{n})
	}
	t.add(gen.Components)
	return t
}

// SubstituteApply inlines declarations of classes listed in "@apply" at-rules.
// Classes are looked up among top level rules of the document first, then
// among generated utilities. Class defined by several rules, class not found
// and "@apply" outside of a rule are errors.
func SubstituteApply(nodes []css.Node, cfg *design.Configuration, gen *plugins.Result) ([]css.Node, error) {
	doc := make(classTable)
	doc.add(nodes)
	var shadow classTable // built on first use

	find := func(at *css.AtRule, class string) (*css.Rule, error) {
		candidates := []string{class}
		if p := cfg.Prefix(); p != "" && !strings.HasPrefix(class, p) {
			candidates = append(candidates, p+class)
		}
		for _, name := range candidates {
			if rules := doc[name]; len(rules) > 0 {
				if len(rules) > 1 {
					return nil, &DirectiveError{Source: at.Source(), Word: class,
						Message: fmt.Sprintf("`@apply` cannot be used with `.%s` because `.%s` is included in multiple rulesets.", class, class)}
				}
				return rules[0], nil
			}
		}
		if shadow == nil {
			shadow = shadowTable(gen)
		}
		for _, name := range candidates {
			if rules := shadow[name]; len(rules) > 0 {
				return rules[len(rules)-1], nil
			}
		}
		return nil, &DirectiveError{Source: at.Source(), Word: class,
			Message: fmt.Sprintf("`@apply` cannot be used with `.%s` because `.%s` either cannot be found, or its actual definition includes a pseudo-selector like :hover, :active, etc.", class, class)}
	}

	expand := func(at *css.AtRule) ([]css.Node, error) {
		var out []css.Node
		important := false
		var classes []string
		for _, item := range strings.Fields(at.Params) {
			if item == "!important" {
				important = true
				continue
			}
			classes = append(classes, css.Unescape(strings.TrimPrefix(item, ".")))
		}
		for _, class := range classes {
			rule, err := find(at, class)
			if err != nil {
				return nil, err
			}
			for _, d := range rule.Declarations() {
				decl := d.Clone().(*css.Declaration)
				decl.SetSource(at.Source())
				if important {
					decl.Important = true
				}
				out = append(out, decl)
			}
		}
		return out, nil
	}

	inRule := func(n css.Node) ([]css.Node, bool, error) {
		at, ok := n.(*css.AtRule)
		if !ok || at.Name != applyDirective {
			return nil, false, nil
		}
		repl, err := expand(at)
		return repl, true, err
	}

	return css.Rewrite(nodes, func(n css.Node) ([]css.Node, bool, error) {
		switch n := n.(type) {
		case *css.Rule:
			children, err := css.Rewrite(n.Nodes, inRule)
			if err != nil {
				return nil, false, err
			}
			if css.Same(children, n.Nodes) {
				return []css.Node{n}, true, nil
			}
			return []css.Node{n.WithChildren(children)}, true, nil
		case *css.AtRule:
			if n.Name == applyDirective {
				return nil, false, &DirectiveError{Source: n.Source(), Word: applyDirective, Message: "`@apply` may only be used inside a rule"}
			}
		}
		return nil, false, nil
	})
}

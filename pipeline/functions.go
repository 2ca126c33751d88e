package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/multierr"

	"twc/css"
	"twc/design"
)

// theme('path') or theme("path", default)
var themeCall = regexp.MustCompile(`theme\(\s*(['"])([^'"]+)['"]\s*(?:,\s*([^)]*?))?\s*\)`)

// EvaluateFunctions replaces theme() calls in declaration values and at-rule
// parameters with theme values.
func EvaluateFunctions(nodes []css.Node, cfg *design.Configuration) ([]css.Node, error) {
	return css.Rewrite(nodes, func(n css.Node) ([]css.Node, bool, error) {
		switch n := n.(type) {
		case *css.Declaration:
			if !strings.Contains(n.Value, "theme(") {
				return nil, false, nil
			}
			value, err := evaluate(n.Value, cfg)
			if err != nil {
				return nil, false, fmt.Errorf("%s: %w", n.Source(), err)
			}
			d := n.Clone().(*css.Declaration)
			d.Value = value
			return []css.Node{d}, true, nil
		case *css.AtRule:
			if !strings.Contains(n.Params, "theme(") {
				return nil, false, nil
			}
			params, err := evaluate(n.Params, cfg)
			if err != nil {
				return nil, false, fmt.Errorf("%s: %w", n.Source(), err)
			}
			// children still have to be visited
			children, err := EvaluateFunctions(n.Nodes, cfg)
			if err != nil {
				return nil, false, err
			}
			at := n.WithChildren(children).(*css.AtRule)
			at.Params = params
			return []css.Node{at}, true, nil
		}
		return nil, false, nil
	})
}

func evaluate(text string, cfg *design.Configuration) (string, error) {
	var errs error
	out := themeCall.ReplaceAllStringFunc(text, func(call string) string {
		m := themeCall.FindStringSubmatch(call)
		v, err := cfg.Theme(m[2])
		if err == nil {
			return design.ValueString(v)
		}
		if m[3] != "" {
			return unquote(m[3])
		}
		errs = multierr.Append(errs, err)
		return call
	})
	if errs != nil {
		return "", errs
	}
	return out, nil
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

package pipeline

import (
	"go.uber.org/zap"

	"twc/css"
	"twc/design"
)

// ExpandResponsive collects children of all "@responsive" blocks, leaves
// them in place unwrapped and produces a media query per screen, in
// configured order, holding copies with the last class of every selector
// prefixed by screen name and separator. Media queries replace the first
// "@tailwind screens" directive or are appended at the end of the document.
// Selectors without classes are reported through onWarning, once per
// screen, and copied unchanged.
func ExpandResponsive(nodes []css.Node, cfg *design.Configuration, log *zap.Logger, onWarning func(*SelectorWarning)) ([]css.Node, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &responsiveExpander{cfg: cfg, log: log, warnings: &warnings{fn: onWarning}}
	return r.run(nodes)
}

type responsiveExpander struct {
	cfg       *design.Configuration
	log       *zap.Logger
	warnings  *warnings
	collected []css.Node
}

func (r *responsiveExpander) run(nodes []css.Node) ([]css.Node, error) {
	out, err := r.collect(nodes)
	if err != nil {
		return nil, err
	}
	if len(r.collected) == 0 {
		return out, nil
	}

	var wrappers []css.Node
	for _, screen := range r.cfg.Screens() {
		query, err := design.MediaQuery(screen.Value)
		if err != nil {
			return nil, &design.ConfigError{Key: "theme.screens." + screen.Name, Message: err.Error(), Err: err}
		}
		body, err := r.prefixed(screen.Name)
		if err != nil {
			return nil, err
		}
		wrappers = append(wrappers, css.NewAtRule("media", query, body...))
		r.log.Debug("Screen emitted", zap.String("screen", screen.Name), zap.String("query", query), zap.Int("nodes", len(body)))
	}
	if len(wrappers) == 0 {
		return out, nil
	}
	return place(out, wrappers)
}

// collect removes "@responsive" markers accumulating copies of their
// children. Nested markers are unwrapped as well, their children are
// collected once, as part of the outermost marker.
func (r *responsiveExpander) collect(nodes []css.Node) ([]css.Node, error) {
	return css.Rewrite(nodes, func(n css.Node) ([]css.Node, bool, error) {
		at, ok := n.(*css.AtRule)
		if !ok || at.Name != responsiveDirective {
			return nil, false, nil
		}
		children, err := css.Rewrite(at.Nodes, unwrapResponsive)
		if err != nil {
			return nil, false, err
		}
		r.collected = append(r.collected, css.CloneAll(children)...)
		return children, true, nil
	})
}

func unwrapResponsive(n css.Node) ([]css.Node, bool, error) {
	at, ok := n.(*css.AtRule)
	if !ok || at.Name != responsiveDirective {
		return nil, false, nil
	}
	children, err := css.Rewrite(at.Nodes, unwrapResponsive)
	if err != nil {
		return nil, false, err
	}
	return children, true, nil
}

func (r *responsiveExpander) prefixed(screen string) ([]css.Node, error) {
	sep := r.cfg.Separator()
	return css.Rewrite(css.CloneAll(r.collected), func(n css.Node) ([]css.Node, bool, error) {
		rule, ok := n.(*css.Rule)
		if !ok {
			return nil, false, nil
		}
		for i, sel := range rule.Selectors {
			c, ok := css.LastClass(sel)
			if !ok {
				r.warnings.add(&SelectorWarning{Source: rule.Source(), Selector: sel, Variant: screen, Message: noClassesMessage})
				continue
			}
			rule.Selectors[i] = css.ReplaceClass(sel, c, "."+css.Escape(screen+sep+c.Name()))
		}
		return []css.Node{rule}, true, nil
	})
}

// place puts wrappers at the first "@tailwind screens" directive removing
// any other, or appends them when there is none.
func place(nodes []css.Node, wrappers []css.Node) ([]css.Node, error) {
	placed := false
	out, err := css.Rewrite(nodes, func(n css.Node) ([]css.Node, bool, error) {
		at, ok := n.(*css.AtRule)
		if !ok || at.Name != tailwindDirective || at.Params != screensParam {
			return nil, false, nil
		}
		if placed {
			return nil, true, nil
		}
		placed = true
		for _, w := range wrappers {
			w.SetSource(at.Source())
		}
		return wrappers, true, nil
	})
	if err != nil {
		return nil, err
	}
	if !placed {
		out = append(append(make([]css.Node, 0, len(out)+len(wrappers)), out...), wrappers...)
	}
	return out, nil
}

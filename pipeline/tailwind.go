package pipeline

import (
	"strings"

	"go.uber.org/zap"

	"twc/css"
	"twc/plugins"
)

const (
	tailwindDirective = "tailwind"
	screensParam      = "screens"
)

// SubstituteDirectives replaces "@tailwind base|components|utilities" with
// clones of generated nodes for the category. Generated nodes get the source
// of the directive they replace. "@tailwind preflight" is rejected, other
// parameters are left untouched.
func SubstituteDirectives(nodes []css.Node, gen *plugins.Result, log *zap.Logger) ([]css.Node, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var replaced int
	out, err := css.Rewrite(nodes, func(n css.Node) ([]css.Node, bool, error) {
		at, ok := n.(*css.AtRule)
		if !ok || at.Name != tailwindDirective {
			return nil, false, nil
		}
		var category []css.Node
		switch word := strings.TrimSpace(at.Params); word {
		case "preflight":
			return nil, false, &DirectiveError{
				Source:  at.Source(),
				Word:    word,
				Message: "`@tailwind preflight` is not a valid at-rule, use `@tailwind base` instead.",
			}
		case "base":
			category = gen.Base
		case "components":
			category = gen.Components
		case "utilities":
			category = gen.Utilities
		default:
			return nil, false, nil
		}
		repl := css.CloneAll(category)
		css.SetSourceAll(repl, at.Source())
		replaced++
		log.Debug("Directive substituted", zap.Stringer("source", at.Source()), zap.String("category", at.Params), zap.Int("nodes", len(repl)))
		return repl, true, nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug("Directives done", zap.Int("replaced", replaced))
	return out, nil
}

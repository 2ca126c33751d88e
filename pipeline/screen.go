package pipeline

import (
	"fmt"
	"strings"

	"twc/css"
	"twc/design"
)

const screenDirective = "screen"

// SubstituteScreens turns "@screen sm { ... }" into media query for the
// named screen.
func SubstituteScreens(nodes []css.Node, cfg *design.Configuration) ([]css.Node, error) {
	return css.Rewrite(nodes, func(n css.Node) ([]css.Node, bool, error) {
		at, ok := n.(*css.AtRule)
		if !ok || at.Name != screenDirective {
			return nil, false, nil
		}
		name := strings.TrimSpace(at.Params)
		query, err := cfg.MediaQuery(name)
		if err != nil {
			return nil, false, &DirectiveError{
				Source:  at.Source(),
				Word:    name,
				Message: fmt.Sprintf("no `%s` screen found", name),
			}
		}
		children, err := SubstituteScreens(at.Nodes, cfg)
		if err != nil {
			return nil, false, err
		}
		media := at.WithChildren(children).(*css.AtRule)
		media.Name, media.Params, media.HasBlock = "media", query, true
		return []css.Node{media}, true, nil
	})
}

package plugins

import (
	_ "embed"

	"go.uber.org/zap"

	"twc/css"
)

//go:embed preflight.css
var preflightCSS []byte

func preflight(api *API) error {
	sheet := css.NewParser(api.Log()).Parse(preflightCSS, "preflight.css")
	if len(sheet.Warnings) > 0 {
		api.Log().Warn("Problems in preflight styles", zap.Strings("warnings", sheet.Warnings))
	}
	var nodes []css.Node
	for _, n := range sheet.Nodes {
		if _, ok := n.(*css.Comment); !ok {
			nodes = append(nodes, n)
		}
	}
	api.AddBase(nodes)
	return nil
}

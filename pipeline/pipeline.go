// Package pipeline turns stylesheet with Tailwind directives into plain CSS.
//
// Passes run in fixed order over an immutable tree, each producing a new
// one: directive substitution, theme() evaluation, "@variants" expansion,
// "@responsive" expansion, "@screen" substitution and "@apply" inlining.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"twc/css"
	"twc/design"
	"twc/plugins"
)

// Options tune single Process call.
type Options struct {
	Log *zap.Logger
	// OnSelectorError is called with a message for every selector which
	// could not be rewritten, processing continues.
	OnSelectorError func(message string)
	// Plugins run after core and configured JavaScript plugins.
	Plugins []plugins.Plugin
}

// Result of successful processing.
type Result struct {
	Sheet     *css.Stylesheet
	Warnings  []*SelectorWarning
	Generated *plugins.Result
}

type pass struct {
	name string
	fn   func(nodes []css.Node) ([]css.Node, error)
}

// Process runs all passes over sheet. The input is not modified. Result is
// only returned when every pass succeeded. Context is checked between passes.
func Process(ctx context.Context, sheet *css.Stylesheet, cfg *design.Configuration, opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("pipeline").With(zap.String("source", sheet.File))
	start := time.Now()

	gen, err := plugins.Compose(cfg, log, opts.Plugins...)
	if err != nil {
		return nil, &ProcessError{Pass: "plugins", Err: err}
	}

	res := &Result{Generated: gen}
	onWarning := func(w *SelectorWarning) {
		res.Warnings = append(res.Warnings, w)
		if opts.OnSelectorError != nil {
			opts.OnSelectorError(w.Message)
		}
	}

	passes := []pass{
		{"tailwind", func(nodes []css.Node) ([]css.Node, error) {
			return SubstituteDirectives(nodes, gen, log)
		}},
		{"functions", func(nodes []css.Node) ([]css.Node, error) {
			return EvaluateFunctions(nodes, cfg)
		}},
		{"variants", func(nodes []css.Node) ([]css.Node, error) {
			return SubstituteVariants(nodes, cfg, gen, log, onWarning)
		}},
		{"responsive", func(nodes []css.Node) ([]css.Node, error) {
			return ExpandResponsive(nodes, cfg, log, onWarning)
		}},
		{"screen", func(nodes []css.Node) ([]css.Node, error) {
			return SubstituteScreens(nodes, cfg)
		}},
		{"apply", func(nodes []css.Node) ([]css.Node, error) {
			return SubstituteApply(nodes, cfg, gen)
		}},
	}

	nodes := sheet.Nodes
	for _, p := range passes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if nodes, err = p.fn(nodes); err != nil {
			return nil, &ProcessError{Pass: p.name, Err: err}
		}
	}

	res.Sheet = sheet.WithNodes(nodes)
	log.Debug("Stylesheet processed",
		zap.Int("nodes", len(nodes)),
		zap.Int("warnings", len(res.Warnings)),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

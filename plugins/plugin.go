// Package plugins runs utility generating plugins against resolved design
// configuration and collects generated nodes by category.
package plugins

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"twc/css"
	"twc/design"
)

// Func generates nodes through api. Returned error aborts composition.
type Func func(api *API) error

// Plugin is either a Core plugin identifier or an External plugin.
type Plugin interface {
	Name() string
	apply(api *API) error
}

// External plugin carries its own function.
type External struct {
	ID   string
	Func Func
}

// NewExternal wraps fn as a plugin.
func NewExternal(name string, fn Func) External {
	return External{ID: name, Func: fn}
}

func (e External) Name() string { return e.ID }

func (e External) apply(api *API) error {
	if e.Func == nil {
		return fmt.Errorf("plugin has no function")
	}
	return e.Func(api)
}

// VariantGenerator rewrites selector for a variant. className is the first
// class of selector, unescaped.
type VariantGenerator func(selector, className, separator string) (string, error)

// Result holds generated nodes by category. Utilities are wrapped into
// "@variants" at-rules listing the variants requested for them.
type Result struct {
	Base       []css.Node
	Components []css.Node
	Utilities  []css.Node

	variantNames []string
	variants     map[string]VariantGenerator
}

// Variant returns generator registered by a plugin.
func (r *Result) Variant(name string) (VariantGenerator, bool) {
	gen, ok := r.variants[name]
	return gen, ok
}

// VariantNames lists plugin registered variants in registration order.
func (r *Result) VariantNames() []string {
	return slices.Clone(r.variantNames)
}

// List returns plugins to run for configuration: enabled core plugins, then
// JavaScript plugins named in configuration, then extra.
func List(cfg *design.Configuration, extra ...Plugin) ([]Plugin, error) {
	var list []Plugin
	for _, c := range corePlugins {
		if cfg.CorePluginEnabled(string(c.id)) {
			list = append(list, c.id)
		}
	}
	for _, file := range cfg.PluginFiles() {
		p, err := LoadScript(file)
		if err != nil {
			return nil, &ExecutionError{Plugin: file, Err: err}
		}
		list = append(list, p)
	}
	return append(list, extra...), nil
}

// Compose runs every plugin once, in order, collecting generated nodes.
// Duplicate selectors coming from different plugins are kept. Any plugin
// failure aborts composition and no result is returned.
func Compose(cfg *design.Configuration, log *zap.Logger, extra ...Plugin) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("compose")

	list, err := List(cfg, extra...)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := &Result{variants: make(map[string]VariantGenerator)}
	for _, p := range list {
		api := &API{cfg: cfg, log: log.With(zap.String("plugin", p.Name())), plugin: p.Name(), res: res}
		if err := run(p, api); err != nil {
			return nil, err
		}
	}
	log.Debug("Plugins composed",
		zap.Int("plugins", len(list)),
		zap.Int("base", len(res.Base)),
		zap.Int("components", len(res.Components)),
		zap.Int("utilities", len(res.Utilities)),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

func run(p Plugin, api *API) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ExecutionError{Plugin: p.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if err := p.apply(api); err != nil {
		return &ExecutionError{Plugin: p.Name(), Err: err}
	}
	return nil
}

// API is the context handed to a plugin while it runs.
type API struct {
	cfg    *design.Configuration
	log    *zap.Logger
	plugin string
	res    *Result
}

// Config returns resolved configuration.
func (a *API) Config() *design.Configuration { return a.cfg }

// Log returns plugin logger.
func (a *API) Log() *zap.Logger { return a.log }

// E escapes arbitrary text into a valid class name fragment.
func (a *API) E(s string) string { return css.Escape(s) }

// Theme looks up theme value.
func (a *API) Theme(path string) (any, error) { return a.cfg.Theme(path) }

// ThemeMap looks up theme mapping.
func (a *API) ThemeMap(path string) (*design.Map, error) { return a.cfg.ThemeMap(path) }

// Variants returns configured variants for a utility category.
func (a *API) Variants(category string) []string { return a.cfg.Variants(category) }

// Prefix applies configured class prefix to every class of selector.
func (a *API) Prefix(selector string) string {
	prefix := a.cfg.Prefix()
	if prefix == "" {
		return selector
	}
	classes := css.Classes(selector)
	for i := len(classes) - 1; i >= 0; i-- {
		c := classes[i]
		selector = css.ReplaceClass(selector, c, "."+css.Escape(prefix+c.Name()))
	}
	return selector
}

// AddUtilities appends utility rules which may be expanded into variants.
// Nodes are copied, prefix and important configuration are applied to the
// copies.
func (a *API) AddUtilities(nodes []css.Node, variants ...string) {
	nodes = css.CloneAll(nodes)
	a.prefixAll(nodes)
	if a.cfg.Important() {
		_ = css.Walk(nodes, func(n css.Node) error {
			if d, ok := n.(*css.Declaration); ok {
				d.Important = true
			}
			return nil
		})
	}
	wrapper := css.NewAtRule("variants", strings.Join(variants, ", "), nodes...)
	a.res.Utilities = append(a.res.Utilities, wrapper)
	a.log.Debug("Utilities added", zap.Int("nodes", len(nodes)), zap.Strings("variants", variants))
}

// AddComponents appends component rules. Prefix is applied.
func (a *API) AddComponents(nodes []css.Node) {
	nodes = css.CloneAll(nodes)
	a.prefixAll(nodes)
	a.res.Components = append(a.res.Components, nodes...)
}

// AddBase appends base styles as is.
func (a *API) AddBase(nodes []css.Node) {
	a.res.Base = append(a.res.Base, css.CloneAll(nodes)...)
}

// AddVariant registers variant generator usable in "@variants". Later
// registration of the same name replaces earlier one.
func (a *API) AddVariant(name string, gen VariantGenerator) {
	if _, ok := a.res.variants[name]; !ok {
		a.res.variantNames = append(a.res.variantNames, name)
	}
	a.res.variants[name] = gen
}

func (a *API) prefixAll(nodes []css.Node) {
	if a.cfg.Prefix() == "" {
		return
	}
	_ = css.Walk(nodes, func(n css.Node) error {
		if r, ok := n.(*css.Rule); ok {
			for i, sel := range r.Selectors {
				r.Selectors[i] = a.Prefix(sel)
			}
		}
		return nil
	})
}

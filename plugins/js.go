package plugins

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"twc/css"
	"twc/design"
)

// ScriptTimeout limits single JavaScript plugin run.
var ScriptTimeout = 10 * time.Second

// LoadScript compiles JavaScript plugin file. The file has to assign a
// function to module.exports (or evaluate to one), it is called with the
// plugin context object:
//
//	module.exports = function ({ addUtilities, e, theme, variants }) {
//	  addUtilities({ ['.' + e('skew-10')]: { transform: 'skewY(-10deg)' } }, variants('skew'))
//	}
//
// Every run uses a fresh runtime.
func LoadScript(path string) (External, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return External{}, fmt.Errorf("unable to read plugin: %w", err)
	}
	return CompileScript(path, data)
}

// CompileScript is LoadScript for in-memory source.
func CompileScript(name string, src []byte) (External, error) {
	prg, err := goja.Compile(name, string(src), false)
	if err != nil {
		return External{}, fmt.Errorf("unable to compile plugin: %w", err)
	}
	return External{ID: name, Func: func(api *API) error {
		return runScript(prg, api)
	}}, nil
}

func runScript(prg *goja.Program, api *API) error {
	vm := goja.New()
	vm.SetMaxCallStackSize(1024)
	s := &script{vm: vm, api: api}
	s.setupGlobals()

	timer := time.AfterFunc(ScriptTimeout, func() {
		vm.Interrupt("plugin execution timeout exceeded")
	})
	defer timer.Stop()

	completion, err := vm.RunProgram(prg)
	if err != nil {
		return err
	}
	fn, ok := goja.AssertFunction(vm.Get("module").ToObject(vm).Get("exports"))
	if !ok {
		if fn, ok = goja.AssertFunction(completion); !ok {
			return fmt.Errorf("plugin does not export a function")
		}
	}
	_, err = fn(goja.Undefined(), s.context())
	return err
}

type script struct {
	vm  *goja.Runtime
	api *API
}

func (s *script) setupGlobals() {
	module := s.vm.NewObject()
	exports := s.vm.NewObject()
	_ = module.Set("exports", exports)
	s.vm.Set("module", module)
	s.vm.Set("exports", exports)
	s.vm.Set("require", goja.Undefined())

	console := s.vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error"} {
		_ = console.Set(level, s.consoleFunc(level))
	}
	s.vm.Set("console", console)
}

func (s *script) consoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, a := range call.Arguments {
			parts = append(parts, a.String())
		}
		msg := strings.Join(parts, " ")
		switch level {
		case "warn", "error":
			s.api.Log().Warn("Plugin console", zap.String("level", level), zap.String("message", msg))
		default:
			s.api.Log().Debug("Plugin console", zap.String("level", level), zap.String("message", msg))
		}
		return goja.Undefined()
	}
}

// throw raises JavaScript exception from Go callback.
func (s *script) throw(err error) {
	panic(s.vm.NewGoError(err))
}

func (s *script) context() *goja.Object {
	ctx := s.vm.NewObject()
	_ = ctx.Set("addUtilities", func(call goja.FunctionCall) goja.Value {
		nodes, err := s.nodes(call.Argument(0))
		if err != nil {
			s.throw(fmt.Errorf("addUtilities: %w", err))
		}
		s.api.AddUtilities(nodes, s.stringList(call.Argument(1))...)
		return goja.Undefined()
	})
	_ = ctx.Set("addComponents", func(call goja.FunctionCall) goja.Value {
		nodes, err := s.nodes(call.Argument(0))
		if err != nil {
			s.throw(fmt.Errorf("addComponents: %w", err))
		}
		s.api.AddComponents(nodes)
		return goja.Undefined()
	})
	_ = ctx.Set("addBase", func(call goja.FunctionCall) goja.Value {
		nodes, err := s.nodes(call.Argument(0))
		if err != nil {
			s.throw(fmt.Errorf("addBase: %w", err))
		}
		s.api.AddBase(nodes)
		return goja.Undefined()
	})
	_ = ctx.Set("addVariant", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		fn, ok := goja.AssertFunction(call.Argument(1))
		if !ok {
			s.throw(fmt.Errorf("addVariant: generator for %q is not a function", name))
		}
		s.api.AddVariant(name, s.variant(fn))
		return goja.Undefined()
	})
	_ = ctx.Set("e", func(call goja.FunctionCall) goja.Value {
		return s.vm.ToValue(s.api.E(call.Argument(0).String()))
	})
	_ = ctx.Set("prefix", func(call goja.FunctionCall) goja.Value {
		return s.vm.ToValue(s.api.Prefix(call.Argument(0).String()))
	})
	_ = ctx.Set("variants", func(call goja.FunctionCall) goja.Value {
		return s.vm.ToValue(s.api.Variants(call.Argument(0).String()))
	})
	_ = ctx.Set("theme", func(call goja.FunctionCall) goja.Value {
		v, err := s.api.Theme(call.Argument(0).String())
		if err != nil {
			return call.Argument(1)
		}
		return s.value(v)
	})
	_ = ctx.Set("config", func(call goja.FunctionCall) goja.Value {
		switch call.Argument(0).String() {
		case "separator":
			return s.vm.ToValue(s.api.Config().Separator())
		case "prefix":
			return s.vm.ToValue(s.api.Config().Prefix())
		case "important":
			return s.vm.ToValue(s.api.Config().Important())
		}
		return call.Argument(1)
	})
	return ctx
}

// variant adapts JavaScript generator. It is called with
// {selector, className, separator} and returns new selector.
func (s *script) variant(fn goja.Callable) VariantGenerator {
	return func(selector, className, separator string) (string, error) {
		arg := s.vm.NewObject()
		_ = arg.Set("selector", selector)
		_ = arg.Set("className", className)
		_ = arg.Set("separator", separator)
		res, err := fn(goja.Undefined(), arg)
		if err != nil {
			return "", err
		}
		if goja.IsUndefined(res) || goja.IsNull(res) {
			return "", fmt.Errorf("variant generator returned nothing for %q", selector)
		}
		return res.String(), nil
	}
}

// value converts theme value keeping mapping order.
func (s *script) value(v any) goja.Value {
	switch v := v.(type) {
	case *design.Map:
		obj := s.vm.NewObject()
		for k, e := range v.All() {
			_ = obj.Set(k, s.value(e))
		}
		return obj
	case []any:
		items := make([]any, 0, len(v))
		for _, e := range v {
			items = append(items, s.value(e))
		}
		return s.vm.NewArray(items...)
	}
	return s.vm.ToValue(v)
}

func (s *script) stringList(v goja.Value) []string {
	if isEmpty(v) {
		return nil
	}
	obj, ok := v.(*goja.Object)
	if !ok || obj.ClassName() != "Array" {
		return []string{v.String()}
	}
	n := int(obj.Get("length").ToInteger())
	out := make([]string, 0, n)
	for i := range n {
		out = append(out, obj.Get(strconv.Itoa(i)).String())
	}
	return out
}

func isEmpty(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}

// nodes converts CSS-in-JS value (object or array of objects) to rules and
// at-rules.
func (s *script) nodes(v goja.Value) ([]css.Node, error) {
	if isEmpty(v) {
		return nil, nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, fmt.Errorf("expected object, got %s", v.String())
	}
	if obj.ClassName() == "Array" {
		var out []css.Node
		n := int(obj.Get("length").ToInteger())
		for i := range n {
			nodes, err := s.nodes(obj.Get(strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out = append(out, nodes...)
		}
		return out, nil
	}
	return s.block(obj, false)
}

// block converts object keys in order: nested objects become rules (or
// at-rules for "@" keys), scalars become declarations when allowed.
func (s *script) block(obj *goja.Object, decls bool) ([]css.Node, error) {
	var out []css.Node
	for _, key := range obj.Keys() {
		val := obj.Get(key)
		child, isObj := val.(*goja.Object)
		switch {
		case isObj && child.ClassName() == "Array" && decls:
			for _, e := range s.stringList(child) {
				out = append(out, declaration(key, e))
			}
		case isObj:
			children, err := s.block(child, true)
			if err != nil {
				return nil, err
			}
			if strings.HasPrefix(key, "@") {
				name, params, _ := strings.Cut(strings.TrimPrefix(key, "@"), " ")
				out = append(out, css.NewAtRule(name, strings.TrimSpace(params), children...))
				continue
			}
			rule := &css.Rule{Nodes: children}
			for sel := range strings.SplitSeq(key, ",") {
				if sel = strings.TrimSpace(sel); sel != "" {
					rule.Selectors = append(rule.Selectors, sel)
				}
			}
			out = append(out, rule)
		case decls:
			if isEmpty(val) {
				continue
			}
			out = append(out, declaration(key, val.String()))
		default:
			return nil, fmt.Errorf("declaration %q outside of a rule", key)
		}
	}
	return out, nil
}

func declaration(key, value string) *css.Declaration {
	d := css.NewDeclaration(dashify(key), strings.TrimSpace(value))
	if v, ok := strings.CutSuffix(d.Value, "!important"); ok {
		d.Value, d.Important = strings.TrimSpace(v), true
	}
	return d
}

// dashify turns camelCase property names into CSS ones, vendor prefixes
// included: "backgroundColor" -> "background-color", "msFlex" -> "-ms-flex".
func dashify(name string) string {
	if strings.HasPrefix(name, "--") || strings.ContainsAny(name, "-") {
		return name
	}
	var sb strings.Builder
	for _, r := range name {
		if unicode.IsUpper(r) {
			sb.WriteByte('-')
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	out := sb.String()
	if strings.HasPrefix(out, "ms-") {
		out = "-" + out
	}
	return out
}

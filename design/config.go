// Package design resolves user design configuration (theme, variants,
// separator, core plugin selection) against embedded defaults.
package design

import (
	_ "embed"
	"fmt"
	"maps"
	"regexp"
	"strings"
	"sync"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// DefaultConfig returns embedded default design configuration text.
func DefaultConfig() []byte {
	return defaultsYAML
}

var loadDefaults = sync.OnceValues(func() (*UserConfig, error) {
	return ParseYAML(defaultsYAML)
})

const (
	DefaultSeparator = ":"
	spreadKey        = "..."
)

// Screen is a named breakpoint.
type Screen struct {
	Name  string
	Value any // string, *Map or []any
}

// Configuration is resolved design configuration. It is never modified after
// Resolve and is safe for concurrent use.
type Configuration struct {
	theme       *Map
	variants    map[string][]string
	separator   string
	prefix      string
	important   bool
	corePlugins CorePlugins
	plugins     []string
}

// Resolve merges user configuration over defaults. Theme keys supplied by
// user replace defaults, keys under theme.extend are merged into the
// resulting values. References to other theme values are resolved here.
func Resolve(user *UserConfig) (*Configuration, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, fmt.Errorf("unable to load default design configuration: %w", err)
	}
	if user == nil {
		user = &UserConfig{}
	}

	raw := defaults.Theme.Clone()
	var extend *Map
	for k, v := range user.Theme.All() {
		if k == "extend" {
			m, ok := v.(*Map)
			if !ok {
				return nil, &ConfigError{Key: "theme.extend", Message: "must be a mapping"}
			}
			extend = m
			continue
		}
		raw.Set(k, cloneValue(v))
	}
	for k, v := range extend.All() {
		cur, _ := raw.Get(k)
		cm, ok1 := cur.(*Map)
		em, ok2 := v.(*Map)
		if !ok1 || !ok2 {
			raw.Set(k, cloneValue(v))
			continue
		}
		merged := cm.Clone()
		for ek, ev := range em.All() {
			merged.Set(ek, cloneValue(ev))
		}
		raw.Set(k, merged)
	}

	r := &resolver{raw: raw, active: make(map[string]bool)}
	theme := NewMap()
	for k, v := range raw.All() {
		rv, err := r.value(v)
		if err != nil {
			return nil, err
		}
		theme.Set(k, rv)
	}

	cfg := &Configuration{
		theme:       theme,
		variants:    make(map[string][]string),
		separator:   firstNonEmpty(user.Separator, defaults.Separator, DefaultSeparator),
		prefix:      firstNonEmpty(user.Prefix, defaults.Prefix),
		corePlugins: user.CorePlugins,
		plugins:     append([]string(nil), user.Plugins...),
	}
	if user.Important != nil {
		cfg.important = *user.Important
	}
	maps.Copy(cfg.variants, defaults.Variants)
	maps.Copy(cfg.variants, user.Variants)

	for _, s := range cfg.Screens() {
		if _, err := MediaQuery(s.Value); err != nil {
			return nil, &ConfigError{Key: "theme.screens." + s.Name, Message: err.Error(), Err: err}
		}
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var reference = regexp.MustCompile(`^\s*theme\(\s*['"]([^'"]+)['"]\s*\)\s*$`)

type resolver struct {
	raw    *Map
	active map[string]bool
}

func (r *resolver) value(v any) (any, error) {
	switch v := v.(type) {
	case string:
		m := reference.FindStringSubmatch(v)
		if m == nil {
			return v, nil
		}
		return r.follow(m[1])
	case []any:
		out := make([]any, 0, len(v))
		for _, e := range v {
			rv, err := r.value(e)
			if err != nil {
				return nil, err
			}
			out = append(out, rv)
		}
		return out, nil
	case *Map:
		out := NewMap()
		for k, e := range v.All() {
			rv, err := r.value(e)
			if err != nil {
				return nil, err
			}
			if k != spreadKey {
				out.Set(k, rv)
				continue
			}
			spread, ok := rv.(*Map)
			if !ok {
				return nil, &ConfigError{Key: spreadKey, Message: "spliced value must be a mapping"}
			}
			for sk, sv := range spread.All() {
				out.Set(sk, sv)
			}
		}
		return out, nil
	}
	return v, nil
}

func (r *resolver) follow(path string) (any, error) {
	if r.active[path] {
		return nil, &ConfigError{Key: "theme." + path, Message: "circular theme reference"}
	}
	target, ok := lookup(r.raw, strings.Split(path, "."))
	if !ok {
		return nil, &LookupError{Path: path}
	}
	r.active[path] = true
	defer delete(r.active, path)
	return r.value(target)
}

// lookup walks dotted path. Keys may contain dots themselves ("0.5"), longer
// keys are tried first.
func lookup(m *Map, parts []string) (any, bool) {
	for i := len(parts); i >= 1; i-- {
		v, ok := m.Get(strings.Join(parts[:i], "."))
		if !ok {
			continue
		}
		if i == len(parts) {
			return v, true
		}
		if sub, ok := v.(*Map); ok {
			if res, ok := lookup(sub, parts[i:]); ok {
				return res, true
			}
		}
	}
	return nil, false
}

// Theme returns a copy of the value at dotted path, for example
// "colors.red.500" or "spacing".
func (c *Configuration) Theme(path string) (any, error) {
	if path == "" {
		return nil, &LookupError{Path: path}
	}
	v, ok := lookup(c.theme, strings.Split(path, "."))
	if !ok {
		return nil, &LookupError{Path: path}
	}
	return cloneValue(v), nil
}

// ThemeMap is Theme for values expected to be mappings.
func (c *Configuration) ThemeMap(path string) (*Map, error) {
	v, err := c.Theme(path)
	if err != nil {
		return nil, err
	}
	m, ok := v.(*Map)
	if !ok {
		return nil, fmt.Errorf("theme value %q is not a mapping", path)
	}
	return m, nil
}

// Variants returns variant list for a utility category, empty if none is
// configured.
func (c *Configuration) Variants(category string) []string {
	if v, ok := c.variants[category]; ok {
		return append([]string{}, v...)
	}
	return []string{}
}

func (c *Configuration) Separator() string { return c.separator }
func (c *Configuration) Prefix() string    { return c.prefix }
func (c *Configuration) Important() bool   { return c.important }

// CorePluginEnabled reports if built-in plugin should run.
func (c *Configuration) CorePluginEnabled(name string) bool {
	return c.corePlugins.Enabled(name)
}

// PluginFiles returns JavaScript plugin files to load after core plugins.
func (c *Configuration) PluginFiles() []string {
	return append([]string(nil), c.plugins...)
}

// Screens returns breakpoints in declared order.
func (c *Configuration) Screens() []Screen {
	v, _ := c.theme.Get("screens")
	m, _ := v.(*Map)
	screens := make([]Screen, 0, m.Len())
	for name, value := range m.All() {
		screens = append(screens, Screen{Name: name, Value: cloneValue(value)})
	}
	return screens
}

// MediaQuery returns media query for a named screen.
func (c *Configuration) MediaQuery(screen string) (string, error) {
	for _, s := range c.Screens() {
		if s.Name == screen {
			return MediaQuery(s.Value)
		}
	}
	return "", &LookupError{Path: "screens." + screen}
}

// MediaQuery builds media query text from a screen value. A string is a
// min-width, a mapping lists features (min and max are shorthands, raw is
// used verbatim), a list produces comma separated alternatives.
func MediaQuery(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return fmt.Sprintf("(min-width: %s)", v), nil
	case []any:
		parts := make([]string, 0, len(v))
		for _, e := range v {
			q, err := MediaQuery(e)
			if err != nil {
				return "", err
			}
			parts = append(parts, q)
		}
		return strings.Join(parts, ", "), nil
	case *Map:
		if raw, ok := v.Get("raw"); ok {
			return ValueString(raw), nil
		}
		features := make([]string, 0, v.Len())
		for k, e := range v.All() {
			feature := k
			switch k {
			case "min":
				feature = "min-width"
			case "max":
				feature = "max-width"
			}
			features = append(features, fmt.Sprintf("(%s: %s)", feature, ValueString(e)))
		}
		if len(features) == 0 {
			return "", fmt.Errorf("screen has no media features")
		}
		return strings.Join(features, " and "), nil
	}
	return "", fmt.Errorf("unsupported screen value %T", v)
}

package design

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/maruel/natural"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// CorePlugins selects built-in plugins. Zero value enables everything.
type CorePlugins struct {
	DisableAll bool
	Only       []string        // when not nil only these are enabled
	Disabled   map[string]bool // disabled by name
}

// Enabled reports whether core plugin name should run.
func (c CorePlugins) Enabled(name string) bool {
	if c.Only != nil {
		return slices.Contains(c.Only, name)
	}
	if c.DisableAll {
		return false
	}
	return !c.Disabled[name]
}

// UserConfig is partial design configuration as supplied by user. Absent
// fields fall back to defaults during Resolve.
type UserConfig struct {
	Prefix      string
	Important   *bool
	Separator   string
	Theme       *Map // may contain "extend"
	Variants    map[string][]string
	CorePlugins CorePlugins
	Plugins     []string // JavaScript plugin files, relative to the config file
}

// LoadFile reads design configuration choosing format by file extension.
func LoadFile(path string) (*UserConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{File: path, Message: "unable to read file", Err: err}
	}

	var cfg *UserConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		cfg, err = ParseYAML(data)
	case ".toml":
		cfg, err = ParseTOML(data)
	default:
		return nil, &ConfigError{File: path, Message: fmt.Sprintf("unsupported file format %q", ext)}
	}
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) && ce.File == "" {
			ce.File = path
		}
		return nil, err
	}

	dir := filepath.Dir(path)
	for i, p := range cfg.Plugins {
		if !filepath.IsAbs(p) {
			cfg.Plugins[i] = filepath.Join(dir, p)
		}
	}
	return cfg, nil
}

// ParseYAML decodes YAML design configuration. Mapping order is preserved.
func ParseYAML(data []byte) (*UserConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigError{Message: "bad yaml", Err: err}
	}
	cfg := &UserConfig{}
	if len(doc.Content) == 0 {
		return cfg, nil
	}
	root := deref(doc.Content[0])
	if root.Kind != yaml.MappingNode {
		return nil, &ConfigError{Message: fmt.Sprintf("line %d: top level must be a mapping", root.Line)}
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, deref(root.Content[i+1])
		var err error
		switch key {
		case "prefix":
			cfg.Prefix, err = yamlString(val)
		case "separator":
			cfg.Separator, err = yamlString(val)
		case "important":
			var b bool
			if err = val.Decode(&b); err == nil {
				cfg.Important = &b
			}
		case "theme":
			var v any
			if v, err = yamlValue(val); err == nil {
				m, ok := v.(*Map)
				if !ok {
					err = errors.New("must be a mapping")
				}
				cfg.Theme = m
			}
		case "variants":
			cfg.Variants = make(map[string][]string)
			err = val.Decode(&cfg.Variants)
		case "corePlugins":
			cfg.CorePlugins, err = yamlCorePlugins(val)
		case "plugins":
			err = val.Decode(&cfg.Plugins)
		default:
			err = errors.New("unknown key")
		}
		if err != nil {
			return nil, &ConfigError{Key: key, Message: fmt.Sprintf("line %d: %v", val.Line, err), Err: err}
		}
	}
	return cfg, nil
}

func deref(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return deref(n.Content[0])
	}
	return n
}

func yamlString(n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", errors.New("must be a string")
	}
	return n.Value, nil
}

func yamlValue(n *yaml.Node) (any, error) {
	n = deref(n)
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := deref(n.Content[i])
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key must be a scalar", k.Line)
			}
			v, err := yamlValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(k.Value, v)
		}
		return m, nil
	}
	return nil, fmt.Errorf("line %d: unsupported value", n.Line)
}

func yamlCorePlugins(n *yaml.Node) (CorePlugins, error) {
	var res CorePlugins
	switch n.Kind {
	case yaml.ScalarNode:
		var b bool
		if err := n.Decode(&b); err != nil {
			return res, err
		}
		res.DisableAll = !b
	case yaml.SequenceNode:
		res.Only = make([]string, 0, len(n.Content))
		if err := n.Decode(&res.Only); err != nil {
			return res, err
		}
	case yaml.MappingNode:
		var m map[string]bool
		if err := n.Decode(&m); err != nil {
			return res, err
		}
		res.Disabled = make(map[string]bool, len(m))
		for name, enabled := range m {
			if !enabled {
				res.Disabled[name] = true
			}
		}
	default:
		return res, errors.New("must be boolean, list or mapping")
	}
	return res, nil
}

// ParseTOML decodes TOML design configuration. TOML tables carry no order so
// keys are ordered naturally ("2" before "10"), except theme.screens which
// has to be an array of tables to keep breakpoints in declared order:
//
//	[[theme.screens]]
//	name = "sm"
//	min = "640px"
func ParseTOML(data []byte) (*UserConfig, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "bad toml", Err: err}
	}

	cfg := &UserConfig{}
	for _, key := range sortedKeys(raw) {
		val := raw[key]
		var err error
		switch key {
		case "prefix":
			cfg.Prefix, err = tomlString(val)
		case "separator":
			cfg.Separator, err = tomlString(val)
		case "important":
			b, ok := val.(bool)
			if !ok {
				err = errors.New("must be boolean")
			}
			cfg.Important = &b
		case "theme":
			cfg.Theme, err = tomlTheme(val)
		case "variants":
			cfg.Variants, err = tomlVariants(val)
		case "corePlugins":
			cfg.CorePlugins, err = tomlCorePlugins(val)
		case "plugins":
			cfg.Plugins, err = tomlStrings(val)
		default:
			err = errors.New("unknown key")
		}
		if err != nil {
			return nil, &ConfigError{Key: key, Message: err.Error(), Err: err}
		}
	}
	return cfg, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Sort(natural.StringSlice(keys))
	return keys
}

func tomlString(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	return "", fmt.Errorf("unexpected value of type %T", v)
}

func tomlStrings(v any) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, errors.New("must be an array")
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		s, err := tomlString(e)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func tomlValue(v any) (any, error) {
	switch v := v.(type) {
	case map[string]any:
		m := NewMap()
		for _, k := range sortedKeys(v) {
			e, err := tomlValue(v[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			m.Set(k, e)
		}
		return m, nil
	case []any:
		out := make([]any, 0, len(v))
		for _, e := range v {
			c, err := tomlValue(e)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, nil
	default:
		return tomlString(v)
	}
}

func tomlTheme(v any) (*Map, error) {
	table, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("must be a table")
	}
	theme := NewMap()
	for _, k := range sortedKeys(table) {
		var (
			val any
			err error
		)
		switch k {
		case "screens":
			val, err = tomlScreens(table[k])
		case "extend":
			ext, ok := table[k].(map[string]any)
			if !ok {
				return nil, errors.New("extend: must be a table")
			}
			if s, ok := ext["screens"]; ok {
				var screens *Map
				if screens, err = tomlScreens(s); err != nil {
					return nil, fmt.Errorf("extend.%w", err)
				}
				delete(ext, "screens")
				val, err = tomlValue(ext)
				if err == nil {
					val.(*Map).Set("screens", screens)
				}
				break
			}
			val, err = tomlValue(ext)
		default:
			val, err = tomlValue(table[k])
		}
		if err != nil {
			return nil, err
		}
		theme.Set(k, val)
	}
	return theme, nil
}

// screen table keys in output order, anything else follows naturally sorted
var screenKeyRank = map[string]int{"raw": 1, "min": 2, "max": 3}

func tomlScreens(v any) (*Map, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, errors.New("screens: must be an array of tables, [[theme.screens]] with name key, to preserve order")
	}
	screens := NewMap()
	for i, e := range list {
		table, ok := e.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("screens[%d]: must be a table", i)
		}
		name, ok := table["name"].(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("screens[%d]: name is required", i)
		}
		keys := make([]string, 0, len(table))
		for k := range table {
			if k != "name" {
				keys = append(keys, k)
			}
		}
		sort.Sort(natural.StringSlice(keys))
		sort.SliceStable(keys, func(a, b int) bool {
			ra, rb := screenKeyRank[keys[a]], screenKeyRank[keys[b]]
			if ra == 0 {
				ra = len(screenKeyRank) + 1
			}
			if rb == 0 {
				rb = len(screenKeyRank) + 1
			}
			return ra < rb
		})
		value := NewMap()
		for _, k := range keys {
			s, err := tomlString(table[k])
			if err != nil {
				return nil, fmt.Errorf("screens[%d].%s: %w", i, k, err)
			}
			value.Set(k, s)
		}
		screens.Set(name, value)
	}
	return screens, nil
}

func tomlVariants(v any) (map[string][]string, error) {
	table, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("must be a table")
	}
	out := make(map[string][]string, len(table))
	for k, e := range table {
		list, err := tomlStrings(e)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = list
	}
	return out, nil
}

func tomlCorePlugins(v any) (CorePlugins, error) {
	var res CorePlugins
	switch v := v.(type) {
	case bool:
		res.DisableAll = !v
	case []any:
		list, err := tomlStrings(v)
		if err != nil {
			return res, err
		}
		res.Only = list
	case map[string]any:
		res.Disabled = make(map[string]bool, len(v))
		for name, e := range v {
			b, ok := e.(bool)
			if !ok {
				return res, fmt.Errorf("%s: must be boolean", name)
			}
			if !b {
				res.Disabled[name] = true
			}
		}
	default:
		return res, errors.New("must be boolean, array or table")
	}
	return res, nil
}

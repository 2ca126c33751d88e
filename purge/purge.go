// Package purge removes rules for classes never referenced by content files.
package purge

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"twc/css"
)

// Purger is anything which can drop unused parts of a stylesheet. Input is
// never modified.
type Purger interface {
	Process(sheet *css.Stylesheet) (*css.Stylesheet, error)
}

// Extractor returns class name candidates found in content.
type Extractor func(content []byte) []string

var defaultPattern = regexp.MustCompile(`[A-Za-z0-9_\-:/]+`)

// DefaultExtractor treats every run of characters permitted in utility names
// (including variant separators and fractions) as a candidate.
func DefaultExtractor(content []byte) []string {
	matches := defaultPattern.FindAll(content, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, string(m))
	}
	return out
}

// Options of ContentPurger.
type Options struct {
	// Content lists glob patterns ("**" supported) of files to scan.
	Content []string
	// Raw content scanned in addition to files.
	Raw [][]byte
	// Whitelist names classes which are always kept.
	Whitelist []string
	// WhitelistPatterns keep every class matching any of the expressions.
	WhitelistPatterns []*regexp.Regexp
	// Keyframes drops "@keyframes" never referenced by remaining rules.
	Keyframes bool
	// FontFace drops "@font-face" with families never referenced by
	// remaining rules.
	FontFace bool
	Extractor Extractor
}

// ContentPurger keeps rules whose class selectors are found in content.
type ContentPurger struct {
	opts Options
	log  *zap.Logger
}

// New returns purger scanning content described by opts.
func New(opts Options, log *zap.Logger) *ContentPurger {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Extractor == nil {
		opts.Extractor = DefaultExtractor
	}
	return &ContentPurger{opts: opts, log: log.Named("purge")}
}

// Candidates returns set of names extracted from all content.
func (p *ContentPurger) Candidates() (map[string]struct{}, error) {
	used := make(map[string]struct{})
	add := func(data []byte) {
		for _, s := range p.opts.Extractor(data) {
			used[s] = struct{}{}
		}
	}

	files := 0
	for _, pattern := range p.opts.Content {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad content pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			p.log.Warn("Content pattern matched no files", zap.String("pattern", pattern))
		}
		for _, m := range matches {
			data, err := os.ReadFile(m)
			if err != nil {
				return nil, fmt.Errorf("unable to read content: %w", err)
			}
			add(data)
			files++
		}
	}
	for _, data := range p.opts.Raw {
		add(data)
	}
	for _, s := range p.opts.Whitelist {
		used[s] = struct{}{}
	}
	p.log.Debug("Content scanned", zap.Int("files", files), zap.Int("candidates", len(used)))
	return used, nil
}

func (p *ContentPurger) keep(used map[string]struct{}, class string) bool {
	if _, ok := used[class]; ok {
		return true
	}
	for _, re := range p.opts.WhitelistPatterns {
		if re.MatchString(class) {
			return true
		}
	}
	return false
}

// selectorUsed reports whether every top level class of selector is used.
// Selectors without classes are always kept.
func (p *ContentPurger) selectorUsed(used map[string]struct{}, selector string) bool {
	for _, c := range css.Classes(selector) {
		if c.Depth == 0 && !p.keep(used, c.Name()) {
			return false
		}
	}
	return true
}

// Process removes unused rules, at-rules left empty, and optionally unused
// keyframes and font faces.
func (p *ContentPurger) Process(sheet *css.Stylesheet) (*css.Stylesheet, error) {
	used, err := p.Candidates()
	if err != nil {
		return nil, err
	}

	removed := 0
	var purge css.RewriteFunc
	purge = func(n css.Node) ([]css.Node, bool, error) {
		switch n := n.(type) {
		case *css.Rule:
			kept := make([]string, 0, len(n.Selectors))
			for _, s := range n.Selectors {
				if p.selectorUsed(used, s) {
					kept = append(kept, s)
				}
			}
			switch {
			case len(kept) == len(n.Selectors):
				// declarations need no visiting
				return []css.Node{n}, true, nil
			case len(kept) == 0:
				removed++
				return nil, true, nil
			}
			r := n.WithChildren(n.Nodes).(*css.Rule)
			r.Selectors = kept
			return []css.Node{r}, true, nil
		case *css.AtRule:
			if !n.HasBlock || !conditional(n.Name) {
				return []css.Node{n}, true, nil
			}
			children, err := css.Rewrite(n.Nodes, purge)
			if err != nil {
				return nil, false, err
			}
			if len(children) == 0 && len(n.Nodes) > 0 {
				return nil, true, nil
			}
			if css.Same(children, n.Nodes) {
				return []css.Node{n}, true, nil
			}
			return []css.Node{n.WithChildren(children)}, true, nil
		}
		return nil, false, nil
	}

	nodes, err := css.Rewrite(sheet.Nodes, purge)
	if err != nil {
		return nil, err
	}
	if p.opts.Keyframes {
		nodes = removeUnreferenced(nodes, "keyframes", []string{"animation", "animation-name"}, keyframesName)
	}
	if p.opts.FontFace {
		nodes = removeUnreferenced(nodes, "font-face", []string{"font-family", "font"}, fontFaceName)
	}
	p.log.Debug("Stylesheet purged", zap.String("source", sheet.File), zap.Int("removed", removed))
	return sheet.WithNodes(nodes), nil
}

// conditional at-rules contain rules and are removed when empty.
func conditional(name string) bool {
	switch strings.ToLower(name) {
	case "media", "supports", "document":
		return true
	}
	return false
}

func keyframesName(at *css.AtRule) string {
	return strings.TrimSpace(at.Params)
}

func fontFaceName(at *css.AtRule) string {
	for _, n := range at.Nodes {
		if d, ok := n.(*css.Declaration); ok && strings.EqualFold(d.Property, "font-family") {
			return strings.Trim(strings.TrimSpace(d.Value), `"'`)
		}
	}
	return ""
}

// removeUnreferenced drops at-rules called name whose identifier (as returned
// by ident) is not mentioned by any of properties outside of such at-rules.
func removeUnreferenced(nodes []css.Node, name string, properties []string, ident func(*css.AtRule) string) []css.Node {
	var values []string
	_ = css.Walk(nodes, func(n css.Node) error {
		switch n := n.(type) {
		case *css.AtRule:
			if strings.EqualFold(n.Name, name) {
				return css.ErrSkipChildren
			}
		case *css.Declaration:
			for _, prop := range properties {
				if strings.EqualFold(n.Property, prop) {
					values = append(values, n.Value)
				}
			}
		}
		return nil
	})

	referenced := func(id string) bool {
		for _, v := range values {
			if strings.Contains(v, id) {
				return true
			}
		}
		return false
	}

	out, _ := css.Rewrite(nodes, func(n css.Node) ([]css.Node, bool, error) {
		at, ok := n.(*css.AtRule)
		if !ok || !strings.EqualFold(at.Name, name) {
			return nil, false, nil
		}
		if id := ident(at); id != "" && !referenced(id) {
			return nil, true, nil
		}
		return []css.Node{at}, true, nil
	})
	return out
}

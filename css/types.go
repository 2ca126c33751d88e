package css

import (
	"fmt"
	"strings"
)

// Position is a 1-based line and column in the source text.
type Position struct {
	Line   int
	Column int
}

// Source identifies where a node came from. Generated nodes inherit the
// source of the directive that produced them.
type Source struct {
	File  string
	Start Position
}

// IsZero returns true if source information is absent.
func (s Source) IsZero() bool {
	return s.File == "" && s.Start.Line == 0
}

// String returns source location in the customary file:line:column form.
func (s Source) String() string {
	file := s.File
	if file == "" {
		file = "<input>"
	}
	if s.Start.Line == 0 {
		return file
	}
	return fmt.Sprintf("%s:%d:%d", file, s.Start.Line, s.Start.Column)
}

// Node is a single element of the stylesheet tree: *Rule, *AtRule,
// *Declaration or *Comment.
type Node interface {
	Source() Source
	SetSource(Source)
	// Clone returns a deep copy of the node.
	Clone() Node
}

// Container is a node with children.
type Container interface {
	Node
	Children() []Node
	// WithChildren returns a shallow copy of the container holding nodes as
	// its children. The receiver is not modified.
	WithChildren(nodes []Node) Container
}

// Rule is a qualified rule: selector list followed by a block.
type Rule struct {
	Selectors []string
	Nodes     []Node
	Src       Source
}

// NewRule creates a rule with a single selector.
func NewRule(selector string, nodes ...Node) *Rule {
	return &Rule{Selectors: []string{selector}, Nodes: nodes}
}

func (r *Rule) Source() Source     { return r.Src }
func (r *Rule) SetSource(s Source) { r.Src = s }
func (r *Rule) Children() []Node   { return r.Nodes }
func (r *Rule) Selector() string   { return strings.Join(r.Selectors, ", ") }
func (r *Rule) String() string     { return nodeString(r) }
func (r *Rule) Clone() Node {
	return &Rule{Selectors: append([]string(nil), r.Selectors...), Nodes: CloneAll(r.Nodes), Src: r.Src}
}

func (r *Rule) WithChildren(nodes []Node) Container {
	return &Rule{Selectors: append([]string(nil), r.Selectors...), Nodes: nodes, Src: r.Src}
}

// Declarations returns direct declaration children in order.
func (r *Rule) Declarations() []*Declaration {
	var decls []*Declaration
	for _, n := range r.Nodes {
		if d, ok := n.(*Declaration); ok {
			decls = append(decls, d)
		}
	}
	return decls
}

// AtRule is an at-rule, with or without a block. Name is stored without the
// leading "@".
type AtRule struct {
	Name     string
	Params   string
	HasBlock bool
	Nodes    []Node
	Src      Source
}

// NewAtRule creates an at-rule with a block.
func NewAtRule(name, params string, nodes ...Node) *AtRule {
	return &AtRule{Name: name, Params: params, HasBlock: true, Nodes: nodes}
}

func (a *AtRule) Source() Source     { return a.Src }
func (a *AtRule) SetSource(s Source) { a.Src = s }
func (a *AtRule) Children() []Node   { return a.Nodes }
func (a *AtRule) String() string     { return nodeString(a) }
func (a *AtRule) Clone() Node {
	return &AtRule{Name: a.Name, Params: a.Params, HasBlock: a.HasBlock, Nodes: CloneAll(a.Nodes), Src: a.Src}
}

func (a *AtRule) WithChildren(nodes []Node) Container {
	return &AtRule{Name: a.Name, Params: a.Params, HasBlock: a.HasBlock, Nodes: nodes, Src: a.Src}
}

// Declaration is a property: value pair.
type Declaration struct {
	Property  string
	Value     string
	Important bool
	Src       Source
}

// NewDeclaration creates a declaration.
func NewDeclaration(property, value string) *Declaration {
	return &Declaration{Property: property, Value: value}
}

func (d *Declaration) Source() Source     { return d.Src }
func (d *Declaration) SetSource(s Source) { d.Src = s }
func (d *Declaration) String() string     { return nodeString(d) }
func (d *Declaration) Clone() Node {
	c := *d
	return &c
}

// Comment keeps comment text without the /* */ delimiters.
type Comment struct {
	Text string
	Src  Source
}

func (c *Comment) Source() Source     { return c.Src }
func (c *Comment) SetSource(s Source) { c.Src = s }
func (c *Comment) Clone() Node {
	n := *c
	return &n
}

// Stylesheet is the root of the tree.
type Stylesheet struct {
	File     string
	Nodes    []Node
	Warnings []string // Problems found while parsing, input is never rejected
}

// Clone returns a deep copy of the stylesheet.
func (s *Stylesheet) Clone() *Stylesheet {
	return &Stylesheet{File: s.File, Nodes: CloneAll(s.Nodes), Warnings: append([]string(nil), s.Warnings...)}
}

// WithNodes returns a stylesheet sharing everything but the top level nodes.
func (s *Stylesheet) WithNodes(nodes []Node) *Stylesheet {
	return &Stylesheet{File: s.File, Nodes: nodes, Warnings: s.Warnings}
}

// RulesBySelector returns all rules (at any depth) having exactly the given
// selector list.
func (s *Stylesheet) RulesBySelector(selector string) []*Rule {
	var matches []*Rule
	_ = Walk(s.Nodes, func(n Node) error {
		if r, ok := n.(*Rule); ok && r.Selector() == selector {
			matches = append(matches, r)
		}
		return nil
	})
	return matches
}

// CloneAll deep copies a list of nodes.
func CloneAll(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// SetSourceAll assigns src to every node in the list and all of their
// descendants.
func SetSourceAll(nodes []Node, src Source) {
	_ = Walk(nodes, func(n Node) error {
		n.SetSource(src)
		return nil
	})
}

func nodeString(n Node) string {
	var sb strings.Builder
	p := &printer{w: &sb}
	p.node(n, 0)
	return sb.String()
}

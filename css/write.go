package css

import (
	"fmt"
	"io"
	"strings"
)

const indentUnit = "  "

// printer keeps first write error and stops writing after it.
type printer struct {
	w   io.Writer
	n   int64
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	n, err := fmt.Fprintf(p.w, format, args...)
	p.n += int64(n)
	p.err = err
}

func (p *printer) nodes(nodes []Node, depth int) {
	for i, n := range nodes {
		if i > 0 {
			if _, ok := n.(Container); ok {
				p.printf("\n")
			} else if _, ok := nodes[i-1].(Container); ok {
				p.printf("\n")
			}
		}
		p.node(n, depth)
	}
}

func (p *printer) node(n Node, depth int) {
	indent := strings.Repeat(indentUnit, depth)
	switch n := n.(type) {
	case *Rule:
		p.printf("%s%s {\n", indent, strings.Join(n.Selectors, ",\n"+indent))
		p.nodes(n.Nodes, depth+1)
		p.printf("%s}\n", indent)
	case *AtRule:
		head := "@" + n.Name
		if n.Params != "" {
			head += " " + n.Params
		}
		if !n.HasBlock {
			p.printf("%s%s;\n", indent, head)
			return
		}
		p.printf("%s%s {\n", indent, head)
		p.nodes(n.Nodes, depth+1)
		p.printf("%s}\n", indent)
	case *Declaration:
		if n.Important {
			p.printf("%s%s: %s !important;\n", indent, n.Property, n.Value)
			return
		}
		p.printf("%s%s: %s;\n", indent, n.Property, n.Value)
	case *Comment:
		p.printf("%s/*%s*/\n", indent, n.Text)
	}
}

// WriteTo writes the stylesheet to w in document order, implementing io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	p := &printer{w: w}
	p.nodes(s.Nodes, 0)
	return p.n, p.err
}

// String returns stylesheet as CSS text.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// Format returns CSS text for a list of nodes.
func Format(nodes []Node) string {
	var sb strings.Builder
	p := &printer{w: &sb}
	p.nodes(nodes, 0)
	return sb.String()
}

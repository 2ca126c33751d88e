// Package debug has helpers for human readable dumps of internal structures.
package debug

import (
	"fmt"
	"strconv"
	"strings"

	"twc/css"
)

type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

func (tw TreeWriter) TextBlock(depth int, label, value string) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Nodes dumps stylesheet nodes one per line with their positions.
func (tw TreeWriter) Nodes(depth int, nodes []css.Node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *css.Rule:
			tw.Line(depth, "rule [%s]", n.Src)
			for _, s := range n.Selectors {
				tw.TextBlock(depth+1, "selector", s)
			}
			tw.Nodes(depth+1, n.Nodes)
		case *css.AtRule:
			tw.Line(depth, "at-rule @%s [%s]", n.Name, n.Src)
			if n.Params != "" {
				tw.TextBlock(depth+1, "params", n.Params)
			}
			tw.Nodes(depth+1, n.Nodes)
		case *css.Declaration:
			important := ""
			if n.Important {
				important = " !important"
			}
			tw.Line(depth, "declaration %s: %s%s", n.Property, encodeText(n.Value), important)
		case *css.Comment:
			tw.TextBlock(depth, "comment", n.Text)
		}
	}
}

// Stylesheet returns dump of the whole sheet including parser warnings.
func Stylesheet(sheet *css.Stylesheet) string {
	tw := NewTreeWriter()
	tw.Line(0, "stylesheet %s (%d nodes)", encodeText(sheet.File), len(sheet.Nodes))
	for _, w := range sheet.Warnings {
		tw.TextBlock(1, "warning", w)
	}
	tw.Nodes(1, sheet.Nodes)
	return tw.String()
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}

package debug

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"twc/css"
)

func TestTreeWriter_Line(t *testing.T) {
	tests := []struct {
		name   string
		depth  int
		format string
		args   []any
		want   string
	}{
		{"no depth", 0, "test", nil, "test\n"},
		{"depth 1", 1, "indented", nil, "  indented\n"},
		{"with formatting", 2, "%s=%d", []any{"n", 3}, "    n=3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.Line(tt.depth, tt.format, tt.args...)
			if got := tw.String(); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_TextBlock(t *testing.T) {
	tw := NewTreeWriter()
	tw.TextBlock(1, "label", "a \"b\"")
	tw.TextBlock(0, "empty", "")
	want := "  label: \"a \\\"b\\\"\"\nempty: \n"
	if got := tw.String(); got != want {
		t.Errorf("TextBlock() = %q, want %q", got, want)
	}
}

func TestStylesheet(t *testing.T) {
	sheet := css.NewParser(zap.NewNop()).Parse([]byte(`/* note */
@media print {
  .a, .b { color: red !important }
}`), "in.css")

	got := Stylesheet(sheet)
	want := []string{
		`stylesheet "in.css" (2 nodes)`,
		`  comment: " note "`,
		`  at-rule @media [in.css:2:1]`,
		`    params: "print"`,
		`    rule [in.css:3:3]`,
		`      selector: ".a"`,
		`      selector: ".b"`,
		`      declaration color: "red" !important`,
	}
	if strings.TrimRight(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("Stylesheet() =\n%s\nwant\n%s", got, strings.Join(want, "\n"))
	}
}

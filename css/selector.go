package css

import (
	"bytes"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// ClassToken is a class selector located in selector text.
type ClassToken struct {
	Start int    // offset of "."
	End   int    // offset just past the identifier
	Raw   string // identifier as written, escapes included
	Depth int    // nesting level, 0 outside of any functional pseudo-class
}

// Name returns unescaped class name.
func (c ClassToken) Name() string {
	return Unescape(c.Raw)
}

// Classes returns all class selectors found in a single selector in the
// order of appearance.
func Classes(selector string) []ClassToken {
	lexer := css.NewLexer(parse.NewInput(bytes.NewReader([]byte(selector))))
	var (
		classes []ClassToken
		offset  int
		depth   int
		dot     = -1
	)
	for {
		tt, text := lexer.Next()
		if tt == css.ErrorToken {
			break
		}
		switch {
		case tt == css.DelimToken && string(text) == ".":
			dot = offset
			offset += len(text)
			continue
		case tt == css.IdentToken && dot >= 0 && dot+1 == offset:
			classes = append(classes, ClassToken{Start: dot, End: offset + len(text), Raw: string(text), Depth: depth})
		case tt == css.FunctionToken, tt == css.LeftParenthesisToken, tt == css.LeftBracketToken:
			depth++
		case tt == css.RightParenthesisToken, tt == css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		}
		dot = -1
		offset += len(text)
	}
	return classes
}

// FirstClass returns the first class outside of functional pseudo-classes.
func FirstClass(selector string) (ClassToken, bool) {
	for _, c := range Classes(selector) {
		if c.Depth == 0 {
			return c, true
		}
	}
	return ClassToken{}, false
}

// LastClass returns the last class outside of functional pseudo-classes.
func LastClass(selector string) (ClassToken, bool) {
	classes := Classes(selector)
	for i := len(classes) - 1; i >= 0; i-- {
		if classes[i].Depth == 0 {
			return classes[i], true
		}
	}
	return ClassToken{}, false
}

// ReplaceClass substitutes class c in selector with text. Text is inserted
// as is, so it has to be escaped and start with "." if a class is wanted.
func ReplaceClass(selector string, c ClassToken, text string) string {
	return selector[:c.Start] + text + selector[c.End:]
}

// SingleClass reports whether selector consists of exactly one class
// selector and nothing else, returning its unescaped name.
func SingleClass(selector string) (string, bool) {
	classes := Classes(selector)
	if len(classes) != 1 || classes[0].Start != 0 || classes[0].End != len(selector) {
		return "", false
	}
	return classes[0].Name(), true
}

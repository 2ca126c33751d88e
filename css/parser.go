package css

import (
	"bytes"
	"fmt"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into a node tree. Unknown at-rules (Tailwind
// directives among them) are kept with their params and blocks so later
// stages can act on them.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

type token struct {
	tt   css.TokenType
	text string
	pos  Position
}

// Parse parses CSS text into a Stylesheet. Malformed input never fails, it
// is recovered from and reported in Stylesheet.Warnings.
// The optional source parameter names the input and ends up in node sources.
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{Warnings: make([]string, 0)}
	if len(source) > 0 {
		sheet.File = source[0]
	}
	if sheet.File != "" {
		p.log.Debug("Parsing CSS", zap.String("source", sheet.File), zap.Int("bytes", len(data)))
	}

	st := &state{file: sheet.File, tokens: lex(data)}
	sheet.Nodes = st.block(true)
	sheet.Warnings = append(sheet.Warnings, st.warnings...)

	for _, w := range sheet.Warnings {
		p.log.Debug("CSS parse problem", zap.String("source", sheet.File), zap.String("warning", w))
	}
	p.log.Debug("CSS parsed", zap.String("source", sheet.File), zap.Int("nodes", len(sheet.Nodes)), zap.Int("warnings", len(sheet.Warnings)))
	return sheet
}

// lex breaks data into tokens, computing position of each.
func lex(data []byte) []token {
	lexer := css.NewLexer(parse.NewInput(bytes.NewReader(data)))
	pos := Position{Line: 1, Column: 1}
	var tokens []token
	for {
		tt, text := lexer.Next()
		if tt == css.ErrorToken {
			break
		}
		tokens = append(tokens, token{tt: tt, text: string(text), pos: pos})
		for _, r := range string(text) {
			if r == '\n' {
				pos.Line++
				pos.Column = 1
			} else {
				pos.Column++
			}
		}
	}
	return tokens
}

type state struct {
	file     string
	tokens   []token
	cur      int
	warnings []string
}

func (s *state) eof() bool {
	return s.cur >= len(s.tokens)
}

func (s *state) peek() token {
	if s.eof() {
		return token{tt: css.ErrorToken}
	}
	return s.tokens[s.cur]
}

func (s *state) next() token {
	t := s.peek()
	if !s.eof() {
		s.cur++
	}
	return t
}

func (s *state) source(t token) Source {
	return Source{File: s.file, Start: t.pos}
}

func (s *state) warn(t token, format string, args ...any) {
	s.warnings = append(s.warnings, fmt.Sprintf("%s: %s", s.source(t), fmt.Sprintf(format, args...)))
}

// block parses a list of nodes up to matching "}" (consumed) or end of input.
func (s *state) block(top bool) []Node {
	nodes := make([]Node, 0)
	for !s.eof() {
		t := s.peek()
		switch t.tt {
		case css.WhitespaceToken, css.SemicolonToken, css.CDOToken, css.CDCToken:
			s.next()
		case css.CommentToken:
			s.next()
			nodes = append(nodes, &Comment{Text: strings.TrimSuffix(strings.TrimPrefix(t.text, "/*"), "*/"), Src: s.source(t)})
		case css.RightBraceToken:
			s.next()
			if !top {
				return nodes
			}
			s.warn(t, "unexpected '}'")
		case css.AtKeywordToken:
			nodes = append(nodes, s.atRule())
		default:
			if n := s.ruleOrDeclaration(top); n != nil {
				nodes = append(nodes, n)
			}
		}
	}
	if !top {
		s.warnings = append(s.warnings, fmt.Sprintf("%s: unclosed block at end of input", Source{File: s.file}))
	}
	return nodes
}

// prelude collects component tokens up to (not including) a top level "{",
// ";" or "}".
func (s *state) prelude() []token {
	var (
		out   []token
		depth int
	)
	for !s.eof() {
		t := s.peek()
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.LeftBraceToken, css.SemicolonToken, css.RightBraceToken:
			if depth == 0 {
				return out
			}
		case css.CommentToken:
			s.next()
			continue
		}
		out = append(out, s.next())
	}
	return out
}

func (s *state) atRule() Node {
	start := s.next()
	at := &AtRule{Name: strings.TrimPrefix(start.text, "@"), Src: s.source(start)}
	at.Params = joinTokens(s.prelude())
	switch s.peek().tt {
	case css.LeftBraceToken:
		s.next()
		at.HasBlock = true
		at.Nodes = s.block(false)
	case css.SemicolonToken:
		s.next()
	}
	return at
}

func (s *state) ruleOrDeclaration(top bool) Node {
	start := s.peek()
	tokens := s.prelude()
	if s.peek().tt == css.LeftBraceToken {
		s.next()
		rule := &Rule{Selectors: splitTokens(tokens), Src: s.source(start)}
		rule.Nodes = s.block(false)
		if len(rule.Selectors) == 0 {
			s.warn(start, "rule without selector")
		}
		return rule
	}
	if s.peek().tt == css.SemicolonToken {
		s.next()
	}
	if top {
		s.warn(start, "declaration %q outside of a rule ignored", joinTokens(tokens))
		return nil
	}
	decl := declaration(tokens)
	if decl == nil {
		s.warn(start, "invalid declaration %q ignored", joinTokens(tokens))
		return nil
	}
	decl.Src = s.source(start)
	return decl
}

func declaration(tokens []token) *Declaration {
	colon := -1
	for i, t := range tokens {
		if t.tt == css.ColonToken {
			colon = i
			break
		}
	}
	if colon <= 0 {
		return nil
	}
	decl := &Declaration{Property: joinTokens(tokens[:colon])}
	if decl.Property == "" {
		return nil
	}
	value := trimWhitespace(tokens[colon+1:])
	// "!" ws* "important" at the very end
	if n := len(value); n >= 2 && value[n-1].tt == css.IdentToken && strings.EqualFold(value[n-1].text, "important") {
		i := n - 2
		for i >= 0 && value[i].tt == css.WhitespaceToken {
			i--
		}
		if i >= 0 && value[i].tt == css.DelimToken && value[i].text == "!" {
			decl.Important = true
			value = value[:i]
		}
	}
	decl.Value = joinTokens(value)
	return decl
}

func trimWhitespace(tokens []token) []token {
	for len(tokens) > 0 && tokens[0].tt == css.WhitespaceToken {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && tokens[len(tokens)-1].tt == css.WhitespaceToken {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// joinTokens restores text collapsing any whitespace run to a single space.
func joinTokens(tokens []token) string {
	var sb strings.Builder
	for _, t := range trimWhitespace(tokens) {
		if t.tt == css.WhitespaceToken {
			sb.WriteByte(' ')
			continue
		}
		sb.WriteString(t.text)
	}
	return sb.String()
}

// splitTokens splits selector list on top level commas.
func splitTokens(tokens []token) []string {
	var (
		out   []string
		depth int
		start int
	)
	flush := func(end int) {
		if sel := joinTokens(tokens[start:end]); sel != "" {
			out = append(out, sel)
		}
	}
	for i, t := range tokens {
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.CommaToken:
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}
	flush(len(tokens))
	return out
}

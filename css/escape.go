package css

import (
	"strconv"
	"strings"
)

// Escape makes an arbitrary string usable as a CSS identifier (class name).
// Output is ASCII only: characters outside printable ASCII become hex
// escapes, punctuation gets a backslash.
func Escape(ident string) string {
	var sb strings.Builder
	for _, r := range ident {
		switch {
		case r < 0x20 || r > 0x7e:
			sb.WriteString(`\` + strings.ToUpper(strconv.FormatInt(int64(r), 16)) + " ")
		case r == '-' || r == '_' || isAlnum(r):
			sb.WriteRune(r)
		default:
			sb.WriteByte('\\')
			sb.WriteRune(r)
		}
	}
	out := sb.String()
	if len(out) > 1 && out[0] == '-' && (out[1] == '-' || isDigit(rune(out[1]))) {
		out = `\` + out
	} else if len(out) > 0 && isDigit(rune(out[0])) {
		out = `\3` + out[:1] + " " + out[1:]
	}
	return out
}

// Unescape resolves CSS escapes in identifier text.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(s) && j-i <= 6 && isHex(s[j]) {
			j++
		}
		if j == i+1 {
			// plain escaped character, may be multibyte
			r, size := firstRune(s[j:])
			sb.WriteString(r)
			i = j + size - 1
			continue
		}
		code, _ := strconv.ParseInt(s[i+1:j], 16, 32)
		if code == 0 || code > 0x10ffff {
			code = 0xfffd
		}
		sb.WriteRune(rune(code))
		if j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n') {
			j++
		}
		i = j - 1
	}
	return sb.String()
}

func firstRune(s string) (string, int) {
	for i := range s {
		if i > 0 {
			return s[:i], i
		}
	}
	return s, len(s)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isAlnum(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

package linexpr

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	kindNone tokenKind = iota
	kindNumber
	kindIdent
	kindClose
)

var symbols = strings.NewReplacer(
	"≤", "<=",
	"⩽", "<=",
	"≥", ">=",
	"⩾", ">=",
	"−", "-",
	"×", "*",
	"÷", "/",
)

// normalize rewrites the textbook notation accepted by Parse into the
// syntax of the expression parser: juxtaposition becomes an explicit
// product ("3x" -> "3*x", "(1/2)y" -> "(1/2)*y"), a lone "=" becomes "=="
// and a leading-dot decimal gets its zero back.
//
// Exponent notation is not recognised: "1e3x" reads as 1*e3x.
func normalize(s string) string {
	rs := []rune(symbols.Replace(s))

	var b strings.Builder
	b.Grow(len(rs) + 8)

	prev := kindNone
	implicit := func() {
		if prev != kindNone {
			b.WriteByte('*')
		}
	}

	for i := 0; i < len(rs); i++ {
		r := rs[i]

		switch {
		case unicode.IsSpace(r):
			b.WriteRune(r)

		case unicode.IsLetter(r) || r == '_':
			implicit()
			j := i
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_') {
				j++
			}
			b.WriteString(string(rs[i:j]))
			i = j - 1
			prev = kindIdent

		case unicode.IsDigit(r) || (r == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			implicit()
			if r == '.' {
				b.WriteByte('0')
			}
			j := i
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.') {
				j++
			}
			b.WriteString(string(rs[i:j]))
			i = j - 1
			prev = kindNumber

		case r == '(':
			implicit()
			b.WriteRune(r)
			prev = kindNone

		case r == ')':
			b.WriteRune(r)
			prev = kindClose

		case r == '<' || r == '>' || r == '!' || r == '=':
			b.WriteRune(r)
			if i+1 < len(rs) && rs[i+1] == '=' {
				b.WriteByte('=')
				i++
			} else if r == '=' {
				b.WriteByte('=')
			}
			prev = kindNone

		default:
			b.WriteRune(r)
			prev = kindNone
		}
	}

	return b.String()
}

// reserved holds the words the expression grammar reads as operators or
// literals.
var reserved = map[string]bool{
	"in": true, "not": true, "and": true, "or": true,
	"matches": true, "contains": true, "startsWith": true, "endsWith": true,
	"let": true, "if": true, "else": true,
	"true": true, "false": true, "nil": true,
}

// reservedWord returns the first reserved word used as an identifier in
// the normalized text s, or "". normalize has already split numbers from
// the identifiers that follow them.
func reservedWord(s string) string {
	rs := []rune(s)

	for i := 0; i < len(rs); i++ {
		if !unicode.IsLetter(rs[i]) && rs[i] != '_' {
			continue
		}

		j := i
		for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_') {
			j++
		}
		if w := string(rs[i:j]); reserved[w] {
			return w
		}
		i = j - 1
	}

	return ""
}

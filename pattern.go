package sqliteucf

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/coregex"
)

// Escape is the optional escape character of a LIKE pattern.
// The zero value means no escape character.
type Escape struct {
	r  rune
	ok bool
}

// NoEscape is a LIKE without an ESCAPE clause.
var NoEscape = Escape{}

// EscapeRune returns an Escape using r.
func EscapeRune(r rune) Escape {
	return Escape{r: r, ok: true}
}

// ParseEscape converts the text of an ESCAPE clause to an Escape.
// It fails unless s is exactly one character.
func ParseEscape(s string) (Escape, error) {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || (r == utf8.RuneError && size == 1) {
		return NoEscape, ErrInvalidEscape
	}
	return EscapeRune(r), nil
}

// Rune returns the escape character and whether there is one.
func (e Escape) Rune() (rune, bool) {
	return e.r, e.ok
}

// Op is a LIKE pattern instruction.
type Op uint8

const (
	// OpLiteral matches one character, ignoring case.
	OpLiteral Op = iota
	// OpAnyOne matches exactly one character ('_').
	OpAnyOne
	// OpAnyMany matches zero or more characters ('%').
	OpAnyMany
)

func (op Op) String() string {
	switch op {
	case OpLiteral:
		return "literal"
	case OpAnyOne:
		return "any-one"
	case OpAnyMany:
		return "any-many"
	default:
		return "unknown"
	}
}

// Instr is one step of a compiled pattern. Rune is set for OpLiteral only.
type Instr struct {
	Op   Op
	Rune rune
}

// Pattern is a compiled LIKE pattern. It always matches the whole
// candidate string, case-insensitively. A Pattern is immutable and safe
// for concurrent use.
type Pattern struct {
	source string
	escape Escape
	instrs []Instr
}

// Compile compiles a LIKE pattern.
//
// '_' matches one character and '%' matches any run of characters. The
// escape character, if any, makes the character after it a literal,
// including the escape itself. An escape at the very end of the pattern
// has nothing to escape and matches itself.
func Compile(pattern string, escape Escape) (*Pattern, error) {
	if !utf8.ValidString(pattern) {
		return nil, &PatternError{Pattern: pattern, Offset: invalidOffset(pattern), Err: ErrInvalidUTF8}
	}

	return &Pattern{
		source: pattern,
		escape: escape,
		instrs: scanPattern(pattern, escape),
	}, nil
}

func scanPattern(pattern string, escape Escape) []Instr {
	instrs := make([]Instr, 0, len(pattern))
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			instrs = append(instrs, Instr{Op: OpLiteral, Rune: r})
			escaped = false
		case escape.ok && r == escape.r:
			escaped = true
		case r == '_':
			instrs = append(instrs, Instr{Op: OpAnyOne})
		case r == '%':
			// "%%" matches exactly what "%" does.
			if n := len(instrs); n > 0 && instrs[n-1].Op == OpAnyMany {
				continue
			}
			instrs = append(instrs, Instr{Op: OpAnyMany})
		default:
			instrs = append(instrs, Instr{Op: OpLiteral, Rune: r})
		}
	}
	if escaped {
		instrs = append(instrs, Instr{Op: OpLiteral, Rune: escape.r})
	}
	return instrs
}

// regexSource renders instructions as the equivalent anchored,
// case-insensitive expression in which '.' also matches newlines.
func regexSource(instrs []Instr) string {
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, in := range instrs {
		switch in.Op {
		case OpAnyOne:
			b.WriteByte('.')
		case OpAnyMany:
			b.WriteString(".*")
		default:
			b.WriteString(coregex.QuoteMeta(string(in.Rune)))
		}
	}
	b.WriteByte('$')
	return b.String()
}

func invalidOffset(s string) int {
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				return i
			}
		}
	}
	return -1
}

// Match reports whether s matches the whole pattern.
//
// Only the last '%' seen is a backtracking point: when a later step fails,
// that '%' swallows one more character and matching resumes after it.
func (p *Pattern) Match(s string) bool {
	var (
		pi, si     int
		star, mark = -1, 0
	)
	for si < len(s) {
		if pi < len(p.instrs) {
			in := p.instrs[pi]
			r, size := utf8.DecodeRuneInString(s[si:])
			switch {
			case in.Op == OpAnyMany:
				star, mark = pi, si
				pi++
				continue
			case in.Op == OpAnyOne, equalFold(in.Rune, r):
				pi++
				si += size
				continue
			}
		}
		if star < 0 {
			return false
		}
		_, size := utf8.DecodeRuneInString(s[mark:])
		mark += size
		pi, si = star+1, mark
	}
	for pi < len(p.instrs) && p.instrs[pi].Op == OpAnyMany {
		pi++
	}
	return pi == len(p.instrs)
}

// equalFold reports whether a and b are equal under simple Unicode case
// folding.
func equalFold(a, b rune) bool {
	if a == b {
		return true
	}
	if b < a {
		a, b = b, a
	}
	if b < utf8.RuneSelf {
		return 'A' <= a && a <= 'Z' && b == a+'a'-'A'
	}
	// SimpleFold walks the orbit of a in increasing order, then wraps.
	r := unicode.SimpleFold(a)
	for r != a && r < b {
		r = unicode.SimpleFold(r)
	}
	return r == b
}

// Source returns the pattern as it was written.
func (p *Pattern) Source() string {
	return p.source
}

// Escape returns the escape the pattern was compiled with.
func (p *Pattern) Escape() Escape {
	return p.escape
}

// Instructions returns a copy of the compiled instructions.
func (p *Pattern) Instructions() []Instr {
	return append([]Instr(nil), p.instrs...)
}

// String returns the regular expression equivalent to the pattern.
func (p *Pattern) String() string {
	return regexSource(p.instrs)
}

package sqliteucf

import (
	"errors"
	"math/rand/v2"
	"regexp"
	"slices"
	"strings"
	"testing"
)

func TestCompileInstructions(t *testing.T) {
	lit := func(r rune) Instr { return Instr{Op: OpLiteral, Rune: r} }
	one := Instr{Op: OpAnyOne}
	many := Instr{Op: OpAnyMany}

	tests := []struct {
		name    string
		pattern string
		escape  Escape
		want    []Instr
	}{
		{"empty", "", NoEscape, []Instr{}},
		{"literals", "aB", NoEscape, []Instr{lit('a'), lit('B')}},
		{"wildcards", "_%", NoEscape, []Instr{one, many}},
		{"adjacent percent collapses", "a%%_", NoEscape, []Instr{lit('a'), many, one}},
		{"no escape configured", "/%", NoEscape, []Instr{lit('/'), many}},
		{"escaped percent", "/%", EscapeRune('/'), []Instr{lit('%')}},
		{"escaped underscore", "/_", EscapeRune('/'), []Instr{lit('_')}},
		{"escaped escape", "//", EscapeRune('/'), []Instr{lit('/')}},
		{"escaped letter", "/a", EscapeRune('/'), []Instr{lit('a')}},
		{"trailing escape", "%/", EscapeRune('/'), []Instr{many, lit('/')}},
		{"percent as escape", "a%%", EscapeRune('%'), []Instr{lit('a'), lit('%')}},
		{"regex metacharacters", ".*", NoEscape, []Instr{lit('.'), lit('*')}},
		{"escaped wildcards", "áb/%_/_%", EscapeRune('/'), []Instr{lit('á'), lit('b'), lit('%'), one, lit('_'), many}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.pattern, tt.escape)
			if err != nil {
				t.Fatalf("Compile(%q) error = %v", tt.pattern, err)
			}
			if got := p.Instructions(); !slices.Equal(got, tt.want) {
				t.Errorf("Compile(%q) = %v, want %v", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestPatternMatch(t *testing.T) {
	tests := []struct {
		pattern string
		escape  Escape
		s       string
		want    bool
	}{
		{"A_C", NoEscape, "abc", true},
		{"a%c", NoEscape, "aXXXc", true},
		{"a%c", NoEscape, "ab", false},
		{"a%c", NoEscape, "ac", true},
		{"á__", NoEscape, "ÁBC", true},
		{"á__", NoEscape, "ábcd", false},
		{"áb/%_/_%", EscapeRune('/'), "áb%c_def", true},
		{"áb/%_/_%", EscapeRune('/'), "ábxc_def", false},
		{"áb/%_/_%", EscapeRune('/'), "áb%cxdef", false},
		{"", NoEscape, "", true},
		{"", NoEscape, "a", false},
		{"%", NoEscape, "", true},
		{"_", NoEscape, "", false},
		{"_", NoEscape, "é", true},
		{"_", NoEscape, "\n", true},
		{"a%", NoEscape, "a\nb", true},
		{"%b", NoEscape, "abc", false},
		{"b%", NoEscape, "abc", false},
		{"%b%", NoEscape, "abc", true},
		{"a.c", NoEscape, "abc", false},
		{"a.c", NoEscape, "A.C", true},
		{"(x)+", NoEscape, "(X)+", true},
		{"[ab]", NoEscape, "a", false},
		{"ω%", NoEscape, "ΩΜΕΓΑ", true},
		{"ÉÉ", NoEscape, "éÉ", true},
		{"á__", NoEscape, "ábc", true},
		{"%é_", NoEscape, "aÉ𐐀", true},
		{"k", NoEscape, "\u212a", true},
		{"ß", NoEscape, "ss", false},
		{"%a%b", NoEscape, "xaxbxb", true},
		{"%a%b", NoEscape, "xaxbxc", false},
		{"𐐨_", NoEscape, "𐐀x", true},
		{"100\\%", EscapeRune('\\'), "100%", true},
		{"100\\%", EscapeRune('\\'), "1000", false},
		{"a%%", EscapeRune('%'), "a%", true},
		{"a%%", EscapeRune('%'), "ab", false},
		{"//", EscapeRune('/'), "/", true},
		{"ab/", EscapeRune('/'), "ab/", true},
		{"ab/", EscapeRune('/'), "ab", false},
		{"aXb", EscapeRune('x'), "axb", true},
		{"axb", EscapeRune('x'), "ab", true},
	}
	for _, tt := range tests {
		p, err := Compile(tt.pattern, tt.escape)
		if err != nil {
			t.Errorf("Compile(%q) error = %v", tt.pattern, err)
			continue
		}
		if got := p.Match(tt.s); got != tt.want {
			t.Errorf("%q LIKE %q (escape %v) = %v, want %v", tt.s, tt.pattern, tt.escape, got, tt.want)
		}
	}
}

// TestPatternMatchRegexp checks the matcher against an anchored
// case-insensitive regexp over runes of one to four bytes.
func TestPatternMatchRegexp(t *testing.T) {
	patternRunes := []rune("aAéÉ𐐀𐐨kK\u212a_%")
	textRunes := []rune("aAéÉ𐐀𐐨kK\u212ax")
	random := func(rng *rand.Rand, runes []rune, n int) string {
		var b strings.Builder
		for range rng.IntN(n + 1) {
			b.WriteRune(runes[rng.IntN(len(runes))])
		}
		return b.String()
	}

	rng := rand.New(rand.NewPCG(1, 2))
	for range 20000 {
		pattern := random(rng, patternRunes, 6)
		s := random(rng, textRunes, 6)

		p, err := Compile(pattern, NoEscape)
		if err != nil {
			t.Fatalf("Compile(%q) error = %v", pattern, err)
		}
		re := regexp.MustCompile(p.String())
		if got, want := p.Match(s), re.MatchString(s); got != want {
			t.Fatalf("%q LIKE %q = %v, regexp %s = %v", s, pattern, got, re, want)
		}
	}
}

func TestPatternString(t *testing.T) {
	p, err := Compile("a._%", NoEscape)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := p.String(), `(?is)^a\...*$`; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if p.Source() != "a._%" {
		t.Errorf("Source() = %q", p.Source())
	}
	if _, ok := p.Escape().Rune(); ok {
		t.Error("Escape() has a rune, want none")
	}
}

func TestCompileInvalidUTF8(t *testing.T) {
	_, err := Compile("a\xffb", NoEscape)
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("Compile error = %v, want ErrInvalidUTF8", err)
	}
	var perr *PatternError
	if !errors.As(err, &perr) {
		t.Fatalf("Compile error = %T, want *PatternError", err)
	}
	if perr.Offset != 1 {
		t.Errorf("Offset = %d, want 1", perr.Offset)
	}
}

func TestParseEscape(t *testing.T) {
	tests := []struct {
		s       string
		want    rune
		wantErr bool
	}{
		{"/", '/', false},
		{"é", 'é', false},
		{"\\", '\\', false},
		{"", 0, true},
		{"ab", 0, true},
		{"\xff", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseEscape(tt.s)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEscape(%q) error = %v, wantErr %v", tt.s, err, tt.wantErr)
			continue
		}
		if err != nil {
			if !errors.Is(err, ErrInvalidEscape) {
				t.Errorf("ParseEscape(%q) error = %v, want ErrInvalidEscape", tt.s, err)
			}
			continue
		}
		if r, ok := got.Rune(); !ok || r != tt.want {
			t.Errorf("ParseEscape(%q) = %q, %v, want %q", tt.s, r, ok, tt.want)
		}
	}
}

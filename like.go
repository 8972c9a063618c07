package sqliteucf

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Matcher evaluates LIKE patterns case-insensitively across all of
// Unicode, compiling each distinct (pattern, escape) pair once.
// A Matcher is safe for concurrent use.
type Matcher struct {
	cache  *patternCache
	logger log.Logger
}

// NewMatcher returns a Matcher whose pattern cache holds up to cacheSize
// compiled patterns. A nil logger discards output.
func NewMatcher(cacheSize int, logger log.Logger) *Matcher {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	m := &Matcher{logger: logger}
	m.cache = newPatternCache(cacheSize, m.compile)
	return m
}

func (m *Matcher) compile(pattern string, escape Escape) (*Pattern, error) {
	p, err := Compile(pattern, escape)
	if err != nil {
		level.Debug(m.logger).Log("msg", "LIKE pattern does not compile, it will match nothing", "pattern", pattern, "err", err)
	}
	return p, err
}

// Pattern returns the compiled form of pattern, from the cache if possible.
func (m *Matcher) Pattern(pattern string, escape Escape) (*Pattern, error) {
	return m.cache.getOrCompile(pattern, escape)
}

// Match reports whether s matches pattern as a whole. It never fails:
// a pattern that cannot be compiled matches nothing.
func (m *Matcher) Match(pattern, s string, escape Escape) bool {
	p, err := m.cache.getOrCompile(pattern, escape)
	if err != nil {
		return false
	}
	return p.Match(s)
}

// Stats returns statistics of the pattern cache.
func (m *Matcher) Stats() CacheStats {
	return m.cache.Stats()
}

// sqlLike implements like(X, Y), the function behind "Y LIKE X".
func (m *Matcher) sqlLike(pattern, s any) any {
	p, ok := sqlText(pattern)
	if !ok {
		return nil
	}
	v, ok := sqlText(s)
	if !ok {
		return nil
	}
	return sqlBool(m.Match(p, v, NoEscape))
}

// sqlLikeEscape implements like(X, Y, Z), the function behind
// "Y LIKE X ESCAPE Z". A bad escape yields false instead of aborting the
// statement.
func (m *Matcher) sqlLikeEscape(pattern, s, escape any) any {
	p, ok := sqlText(pattern)
	if !ok {
		return nil
	}
	v, ok := sqlText(s)
	if !ok {
		return nil
	}
	e, ok := sqlText(escape)
	if !ok {
		return nil
	}
	esc, err := ParseEscape(e)
	if err != nil {
		level.Debug(m.logger).Log("msg", "bad LIKE escape, row does not match", "escape", e, "err", err)
		return sqlBool(false)
	}
	return sqlBool(m.Match(p, v, esc))
}

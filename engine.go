package sqliteucf

import (
	"database/sql/driver"
	"fmt"
)

// CollationName is the collation replaced when Unicode case folding is on.
const CollationName = "NOCASE"

// Engine is the part of a SQL engine connection that Install needs:
// named collations, scalar functions by name and arity, and statement
// execution. *sqlite3.SQLiteConn implements it.
type Engine interface {
	RegisterCollation(name string, cmp func(string, string) int) error
	RegisterFunc(name string, impl any, pure bool) error
	Exec(query string, args []driver.Value) (driver.Result, error)
}

// Install replaces the NOCASE collation, lower(X), upper(X), like(X,Y)
// and like(X,Y,Z) on e with Unicode-aware versions, then rebuilds every
// index that uses NOCASE so stored order agrees with the new collation.
//
// f must not be shared with another connection.
func Install(e Engine, f *Folder, m *Matcher) error {
	if err := e.RegisterCollation(CollationName, f.Compare); err != nil {
		return fmt.Errorf("register collation %s: %w", CollationName, err)
	}

	for _, fn := range []struct {
		name string
		impl any
	}{
		{"lower", f.sqlLower},
		{"upper", f.sqlUpper},
		{"like", m.sqlLike},
		{"like", m.sqlLikeEscape},
	} {
		if err := e.RegisterFunc(fn.name, fn.impl, true); err != nil {
			return fmt.Errorf("register function %s: %w", fn.name, err)
		}
	}

	if _, err := e.Exec("REINDEX "+CollationName, nil); err != nil {
		return fmt.Errorf("reindex %s: %w", CollationName, err)
	}
	return nil
}

package sqliteucf

import (
	"database/sql"
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// Transact runs fn in a transaction, committing if it returns nil and
// rolling back otherwise.
func Transact(db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		} else if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

// Queryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

// Row is one result row with its column names.
type Row struct {
	Columns []string
	Values  []any
}

// Map returns the row keyed by column name. A later column wins over an
// earlier one with the same name.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, col := range r.Columns {
		m[col] = r.Values[i]
	}
	return m
}

// Strings returns the row's values as text. NULL becomes the empty string.
func (r Row) Strings() []string {
	ss := make([]string, len(r.Values))
	for i, v := range r.Values {
		if t, ok := sqlText(v); ok {
			ss[i] = t
		} else if v != nil {
			ss[i] = fmt.Sprint(v)
		}
	}
	return ss
}

// Select runs query and yields its rows. Iteration stops at the first error.
func Select(q Queryer, query string, args ...any) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		rows, err := q.Query(query, args...)
		if err != nil {
			yield(Row{}, err)
			return
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			yield(Row{}, err)
			return
		}

		for rows.Next() {
			vals := make([]any, len(cols))
			dest := make([]any, len(cols))
			for i := range vals {
				dest[i] = &vals[i]
			}
			if err := rows.Scan(dest...); err != nil {
				yield(Row{}, err)
				return
			}
			if !yield(Row{Columns: cols, Values: vals}, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(Row{}, err)
		}
	}
}

// sqlText returns the text form of a value passed to a SQL function,
// following SQLite's conversions. ok is false for NULL.
func sqlText(v any) (s string, ok bool) {
	switch v := v.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case []byte:
		// go-sqlite3 passes NULL to interface{} arguments as a nil []byte.
		if v == nil {
			return "", false
		}
		return string(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return sqlReal(v), true
	case bool:
		if v {
			return "1", true
		}
		return "0", true
	default:
		return "", false
	}
}

// sqlReal formats a REAL the way SQLite prints it: integral values keep
// a trailing ".0".
func sqlReal(f float64) string {
	s := strconv.FormatFloat(f, 'g', 15, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func sqlBool(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

package sqliteucf

import (
	"database/sql"
	"errors"

	"github.com/go-kit/log/level"
	"github.com/mattn/go-sqlite3"
)

var _ Engine = (*sqlite3.SQLiteConn)(nil)

// driverName returns the database/sql driver for connections with
// Unicode case folding on or off, registering it on first use.
func (e *Env) driverName(unicode bool) string {
	i := 0
	if unicode {
		i = 1
	}
	name := e.driverNames[i]
	e.driverOnce[i].Do(func() {
		d := &sqlite3.SQLiteDriver{}
		if unicode {
			d.ConnectHook = e.connectHook
		}
		sql.Register(name, d)
		level.Debug(e.logger).Log("msg", "registered sqlite driver", "driver", name, "unicode_case_folding", unicode)
	})
	return name
}

// connectHook runs for every new connection of a Unicode driver.
func (e *Env) connectHook(conn *sqlite3.SQLiteConn) error {
	err := Install(conn, NewFolder(), e.matcher)

	// A read-only database cannot be reindexed. The replacements are in
	// place, so keep the connection.
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrReadonly {
		level.Warn(e.logger).Log("msg", "cannot reindex read-only database", "collation", CollationName, "err", err)
		return nil
	}
	if err != nil {
		return err
	}

	level.Debug(e.logger).Log("msg", "installed unicode case folding", "collation", CollationName)
	return nil
}

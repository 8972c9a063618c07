// Package sqliteucf adds Unicode case folding to SQLite.
//
// SQLite folds case for ASCII letters only. A database opened through an
// Env with Unicode case folding enabled gets a NOCASE collation, upper,
// lower and LIKE that fold case across all of Unicode:
//
//	env := sqliteucf.NewEnv()
//	db, err := env.Open("notes.db", sqliteucf.UnicodeCaseFolding(true))
//
// Folding is opt-in per database handle. Without UnicodeCaseFolding the
// Env default applies, which is read when Open is called and never again.
package sqliteucf

import (
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-kit/log"
	"github.com/google/uuid"
)

// Env holds what databases opened through it share: the default for
// Unicode case folding, the LIKE pattern cache and the logger.
type Env struct {
	folding     atomic.Bool
	logger      log.Logger
	matcher     *Matcher
	driverNames [2]string
	driverOnce  [2]sync.Once
}

// Option configures an Env.
type Option func(*envOptions)

type envOptions struct {
	folding   bool
	cacheSize int
	logger    log.Logger
}

// WithDefaultUnicodeCaseFolding sets the initial default of the Env.
func WithDefaultUnicodeCaseFolding(enabled bool) Option {
	return func(o *envOptions) { o.folding = enabled }
}

// WithPatternCacheSize bounds the number of compiled LIKE patterns kept.
// Zero disables the cache.
func WithPatternCacheSize(n int) Option {
	return func(o *envOptions) { o.cacheSize = max(n, 0) }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger log.Logger) Option {
	return func(o *envOptions) { o.logger = logger }
}

// NewEnv returns an Env. Unicode case folding is off by default.
func NewEnv(opts ...Option) *Env {
	o := envOptions{
		cacheSize: DefaultPatternCacheSize,
		logger:    log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewNopLogger()
	}

	id := uuid.NewString()
	e := &Env{
		logger:  o.logger,
		matcher: NewMatcher(o.cacheSize, o.logger),
		driverNames: [2]string{
			"sqliteucf-native-" + id,
			"sqliteucf-unicode-" + id,
		},
	}
	e.folding.Store(o.folding)
	return e
}

// SetDefaultUnicodeCaseFolding changes the default for later Open calls.
// Databases already open keep the behavior they were opened with.
func (e *Env) SetDefaultUnicodeCaseFolding(enabled bool) {
	e.folding.Store(enabled)
}

// DefaultUnicodeCaseFolding reports the current default.
func (e *Env) DefaultUnicodeCaseFolding() bool {
	return e.folding.Load()
}

// OpenOption configures a single Open call.
type OpenOption func(*openOptions)

type openOptions struct {
	folding *bool
}

// UnicodeCaseFolding turns Unicode case folding on or off for the
// database being opened, overriding the Env default.
func UnicodeCaseFolding(enabled bool) OpenOption {
	return func(o *openOptions) { o.folding = &enabled }
}

// Open opens the SQLite database named by dataSourceName, which is passed
// to go-sqlite3 unchanged (a path, ":memory:" or a file: URI with its
// query options).
//
// With Unicode case folding, every connection of the returned pool gets
// the replacements of Install before first use. Without it, the pool
// behaves exactly like stock SQLite.
//
// Open connects once, so a bad path or option is reported here.
func (e *Env) Open(dataSourceName string, opts ...OpenOption) (*sql.DB, error) {
	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}
	enabled := e.DefaultUnicodeCaseFolding()
	if o.folding != nil {
		enabled = *o.folding
	}

	db, err := sql.Open(e.driverName(enabled), dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("sqliteucf: open %s: %w", dataSourceName, err)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqliteucf: open %s: %w", dataSourceName, err)
	}
	return db, nil
}

// DriverName returns the database/sql driver name that opens connections
// with Unicode case folding on or off, for callers that use sql.Open.
func (e *Env) DriverName(unicode bool) string {
	return e.driverName(unicode)
}

// PatternCacheStats returns statistics of the LIKE pattern cache.
func (e *Env) PatternCacheStats() CacheStats {
	return e.matcher.Stats()
}

// DefaultEnv is the Env used by the package-level functions.
var DefaultEnv = NewEnv()

// Open opens a database through DefaultEnv.
func Open(dataSourceName string, opts ...OpenOption) (*sql.DB, error) {
	return DefaultEnv.Open(dataSourceName, opts...)
}

// SetDefaultUnicodeCaseFolding sets the default of DefaultEnv.
func SetDefaultUnicodeCaseFolding(enabled bool) {
	DefaultEnv.SetDefaultUnicodeCaseFolding(enabled)
}

// DefaultUnicodeCaseFolding reports the default of DefaultEnv.
func DefaultUnicodeCaseFolding() bool {
	return DefaultEnv.DefaultUnicodeCaseFolding()
}

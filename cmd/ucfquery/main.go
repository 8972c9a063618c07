package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/alexkappa/mustache"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/klauspost/compress/zstd"

	"github.com/lftk/sqliteucf"
)

type cli struct {
	Database string   `arg:"" help:"Database path, :memory:, or a file: URI. A .zst file is decompressed to a temporary copy first."`
	Query    string   `arg:"" help:"SQL statement to run."`
	Args     []string `arg:"" optional:"" help:"Values bound to the statement's parameters."`

	UnicodeCaseFolding bool   `short:"u" help:"Fold case across all of Unicode in NOCASE, upper, lower and LIKE."`
	Template           string `short:"t" help:"Mustache template rendered for each row; columns are available by name."`
	CacheSize          int    `default:"256" help:"Number of compiled LIKE patterns to keep."`
	Stats              bool   `help:"Print LIKE pattern cache statistics to stderr."`
	LogLevel           string `default:"warn" enum:"debug,info,warn,error" help:"Log level (${enum})."`
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("ucfquery"),
		kong.Description("Run a SQL statement against a SQLite database with optional Unicode case folding."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(run(&c, os.Stdout, os.Stderr))
}

func run(c *cli, stdout, stderr io.Writer) error {
	logger := newLogger(stderr, c.LogLevel)

	path, cleanup, err := inflate(c.Database)
	if err != nil {
		return err
	}
	defer cleanup()

	env := sqliteucf.NewEnv(
		sqliteucf.WithLogger(logger),
		sqliteucf.WithPatternCacheSize(c.CacheSize),
	)
	db, err := env.Open(path, sqliteucf.UnicodeCaseFolding(c.UnicodeCaseFolding))
	if err != nil {
		return err
	}
	defer db.Close()

	write, err := rowWriter(stdout, c.Template)
	if err != nil {
		return err
	}

	args := make([]any, len(c.Args))
	for i, a := range c.Args {
		args[i] = a
	}

	// A failing write statement leaves the database untouched.
	n := 0
	err = sqliteucf.Transact(db, func(tx *sql.Tx) error {
		for row, err := range sqliteucf.Select(tx, c.Query, args...) {
			if err != nil {
				return err
			}
			if err = write(row); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return err
	}
	level.Debug(logger).Log("msg", "query done", "rows", n)

	if c.Stats {
		s := env.PatternCacheStats()
		fmt.Fprintf(stderr, "patterns: hits=%d misses=%d evictions=%d size=%d/%d\n",
			s.Hits, s.Misses, s.Evictions, s.Size, s.MaxSize)
	}
	return nil
}

func newLogger(w io.Writer, lvl string) log.Logger {
	var allow level.Option
	switch lvl {
	case "debug":
		allow = level.AllowDebug()
	case "info":
		allow = level.AllowInfo()
	case "error":
		allow = level.AllowError()
	default:
		allow = level.AllowWarn()
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = level.NewFilter(logger, allow)
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

// rowWriter prints rows tab-separated, or through a mustache template.
func rowWriter(w io.Writer, template string) (func(sqliteucf.Row) error, error) {
	if template == "" {
		return func(row sqliteucf.Row) error {
			_, err := fmt.Fprintln(w, strings.Join(row.Strings(), "\t"))
			return err
		}, nil
	}

	t, err := mustache.Parse(strings.NewReader(template))
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return func(row sqliteucf.Row) error {
		values := row.Strings()
		fields := make(map[string]string, len(row.Columns))
		for i, col := range row.Columns {
			fields[col] = values[i]
		}
		s, err := t.RenderString(fields)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, s)
		return err
	}, nil
}

// inflate returns a path SQLite can open. Paths ending in .zst are
// decompressed into a temporary file that cleanup removes.
func inflate(path string) (string, func(), error) {
	if !strings.HasSuffix(path, ".zst") {
		return path, func() {}, nil
	}

	src, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer src.Close()

	dec, err := zstd.NewReader(src)
	if err != nil {
		return "", nil, err
	}
	defer dec.Close()

	dst, err := os.CreateTemp("", "ucfquery-*.db")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.Remove(dst.Name()) }

	if _, err = io.Copy(dst, dec); err != nil {
		_ = dst.Close()
		cleanup()
		return "", nil, err
	}
	if err = dst.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return dst.Name(), cleanup, nil
}

package sqliteucf

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Folder maps strings to their Unicode upper and lower case forms and
// compares them case-insensitively.
//
// A Folder is not safe for concurrent use. Each connection gets its own;
// the package-level Compare, Fold, Upper and Lower draw from a pool.
type Folder struct {
	upper cases.Caser
	lower cases.Caser
}

// NewFolder returns a Folder using the root (language-neutral) case mappings.
func NewFolder() *Folder {
	return &Folder{
		upper: cases.Upper(language.Und),
		lower: cases.Lower(language.Und),
	}
}

// Upper returns s with the full Unicode uppercase mapping applied,
// including special casings such as "ß" to "SS".
func (f *Folder) Upper(s string) string {
	return f.upper.String(s)
}

// Lower returns s with the full Unicode lowercase mapping applied.
func (f *Folder) Lower(s string) string {
	return f.lower.String(s)
}

// Fold returns the key that s is compared by. Strings that differ only in
// case have the same key, and folding a key again returns it unchanged.
func (f *Folder) Fold(s string) string {
	return f.Upper(s)
}

// Compare orders a and b by their folded forms, code point by code point.
// It returns -1, 0 or +1.
func (f *Folder) Compare(a, b string) int {
	if a == b {
		return 0
	}
	return strings.Compare(f.Fold(a), f.Fold(b))
}

var folders = sync.Pool{
	New: func() any { return NewFolder() },
}

func withFolder[T any](fn func(*Folder) T) T {
	f := folders.Get().(*Folder)
	defer folders.Put(f)
	return fn(f)
}

// Compare is Folder.Compare on a pooled Folder. It is safe for concurrent use.
func Compare(a, b string) int {
	return withFolder(func(f *Folder) int { return f.Compare(a, b) })
}

// Fold is Folder.Fold on a pooled Folder.
func Fold(s string) string {
	return withFolder(func(f *Folder) string { return f.Fold(s) })
}

// Upper is Folder.Upper on a pooled Folder.
func Upper(s string) string {
	return withFolder(func(f *Folder) string { return f.Upper(s) })
}

// Lower is Folder.Lower on a pooled Folder.
func Lower(s string) string {
	return withFolder(func(f *Folder) string { return f.Lower(s) })
}

// sqlUpper implements upper(X). NULL stays NULL.
func (f *Folder) sqlUpper(v any) any {
	s, ok := sqlText(v)
	if !ok {
		return nil
	}
	return f.Upper(s)
}

// sqlLower implements lower(X). NULL stays NULL.
func (f *Folder) sqlLower(v any) any {
	s, ok := sqlText(v)
	if !ok {
		return nil
	}
	return f.Lower(s)
}

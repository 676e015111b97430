// Package log provides centralised audit logging for quill operations.
// Entries are stored in ~/.quill/log/quill-log.db and track CLI commands
// and web requests across wikis.
//
// # Fluent API
//
// Use the fluent builder API to construct and write log entries:
//
//	log.Event("page:write", "edit").
//		Author(editor).
//		Title(t.String()).
//		Write(err)
//
//	log.Event("page:diff", "read").
//		Title(t.String()).
//		Version(v).
//		Detail("format", string(format)).
//		Write(err)
//
// The source parameter follows the format "{area}:{command}" for CLI
// commands or "web:{route}" for the HTTP surface.
package log

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var (
	global *Logger
	mu     sync.Mutex
)

// Entry represents a single audit log entry.
type Entry struct {
	Source  string // e.g. "page:write", "web:talk"
	Author  string // who performed the action
	Action  string // verb: read, edit, rename, delete, import, etc.
	Title   string // page or topic title the operation targeted
	Version int    // revision number requested, when the caller gave one

	// Populated after the operation succeeds.
	ResolvedTitle string // title after redirect or case resolution
	ResultVersion int    // revision count after a write

	Start int64 // unix timestamp when Event() was called
	End   int64 // unix timestamp when Write() was called

	Success bool
	Error   string
	Detail  map[string]any
}

// Builder constructs a log entry using a fluent API. Create with
// [Event], chain methods to set fields, then call [Builder.Write].
type Builder struct {
	entry Entry
}

// Event creates a new log entry builder for an operation.
//
// The source identifies where the operation originated, "{area}:{command}"
// for CLI commands and "web:{route}" for HTTP handlers. The action is the
// verb performed: "read", "edit", "rename", "delete", "import" and so on.
func Event(source, action string) *Builder {
	return &Builder{
		entry: Entry{
			Source: source,
			Action: action,
			Start:  time.Now().Unix(),
		},
	}
}

// Author sets who performed the operation.
func (b *Builder) Author(author string) *Builder {
	b.entry.Author = author
	return b
}

// Title sets the page or topic title the operation targets.
func (b *Builder) Title(title string) *Builder {
	b.entry.Title = title
	return b
}

// Version sets the revision number the caller asked for.
func (b *Builder) Version(version int) *Builder {
	b.entry.Version = version
	return b
}

// Resolved records the title the operation actually landed on, when
// redirect or case-insensitive resolution changed it.
func (b *Builder) Resolved(title string) *Builder {
	b.entry.ResolvedTitle = title
	return b
}

// ResultVersion records the revision count after a successful write.
func (b *Builder) ResultVersion(version int) *Builder {
	b.entry.ResultVersion = version
	return b
}

// Detail adds a key-value pair of operation-specific data. Can be
// called multiple times.
func (b *Builder) Detail(key string, value any) *Builder {
	if b.entry.Detail == nil {
		b.entry.Detail = make(map[string]any)
	}
	b.entry.Detail[key] = value
	return b
}

// Write completes the entry, deriving success or failure from err, and
// writes it to the database.
func (b *Builder) Write(err error) {
	b.entry.End = time.Now().Unix()
	b.entry.Success = err == nil
	if err != nil {
		b.entry.Error = err.Error()
	}
	Log(b.entry)
}

// Open initialises the global logger. Safe to call multiple times.
// Errors are returned but callers may choose to ignore them; logging is
// best-effort.
func Open() error {
	mu.Lock()
	defer mu.Unlock()

	if global != nil {
		return nil
	}

	p := dbPath()
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return err
	}

	global = &Logger{db: db}
	return nil
}

// SetWiki sets the wiki identifier for subsequent log entries. The dir
// should be the absolute path to the wiki's data directory.
func SetWiki(dir string) {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		global.wiki = hash(dir)
	}
}

// Log writes an entry. Safe to call if the logger is not initialised
// (no-op).
func Log(e Entry) {
	mu.Lock()
	l := global
	mu.Unlock()

	if l == nil {
		return
	}
	l.log(e)
}

// Close closes the global logger.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		global.db.Close()
		global = nil
	}
}

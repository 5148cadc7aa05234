// Package index stores extracted attributes in a SQL database so they can be
// queried without rescanning the sources.
package index

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/satishbabariya/phpattr/attrs/reader"
	"github.com/satishbabariya/phpattr/internal/debug"
)

// Record is one stored attribute usage.
type Record struct {
	ID      int64
	File    string
	Name    string
	Target  string
	Subject string
	Line    int
	// Arguments is the JSON encoding of the evaluated arguments.
	Arguments string
}

// DecodeArguments decodes the stored arguments into positional and named
// values.
func (r Record) DecodeArguments() (positional []any, named map[string]any, err error) {
	var args struct {
		Positional []any          `json:"positional"`
		Named      map[string]any `json:"named"`
	}
	if err := json.Unmarshal([]byte(r.Arguments), &args); err != nil {
		return nil, nil, fmt.Errorf("failed to decode arguments of %s: %w", r.Name, err)
	}
	return args.Positional, args.Named, nil
}

// FileRecord describes an indexed source file.
type FileRecord struct {
	Path      string
	Checksum  string
	IndexedAt time.Time
}

// Index is an attribute index backed by database/sql.
type Index struct {
	db       *sql.DB
	provider string
}

// NormalizeProvider maps provider aliases to database/sql driver names.
func NormalizeProvider(provider string) (string, error) {
	switch strings.ToLower(provider) {
	case "postgresql", "postgres":
		return "postgres", nil
	case "sqlite", "sqlite3":
		return "sqlite3", nil
	case "mysql", "mariadb":
		return "mysql", nil
	default:
		return "", fmt.Errorf("unsupported index provider %q", provider)
	}
}

// Open connects to the database at dsn and verifies the connection.
func Open(ctx context.Context, provider, dsn string) (*Index, error) {
	driver, err := NormalizeProvider(provider)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == "sqlite3" {
		// every connection to :memory: would get its own database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	debug.Debug("Opened attribute index", "provider", driver)
	return &Index{db: db, provider: driver}, nil
}

// New wraps an existing connection. provider must be a supported driver
// name or alias.
func New(db *sql.DB, provider string) (*Index, error) {
	driver, err := NormalizeProvider(provider)
	if err != nil {
		return nil, err
	}
	return &Index{db: db, provider: driver}, nil
}

// Provider returns the database/sql driver name.
func (ix *Index) Provider() string {
	return ix.provider
}

// Close closes the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// InitSchema creates the index tables if they do not exist.
func (ix *Index) InitSchema(ctx context.Context) error {
	for _, stmt := range ix.schemaSQL() {
		if _, err := ix.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index schema: %w", err)
		}
	}
	return nil
}

// Replace swaps the stored attributes of file for annotations in a single
// transaction.
func (ix *Index) Replace(ctx context.Context, file, checksum string, annotations []*reader.Annotation) (err error) {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = ix.clear(ctx, tx, file); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		ix.rebind(`INSERT INTO phpattr_files (path, checksum, indexed_at) VALUES (?, ?, ?)`),
		file, checksum, time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("failed to record %s: %w", file, err)
	}

	insert := ix.rebind(`INSERT INTO phpattr_attributes
		(file, name, lookup_name, target, subject, line, arguments)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for _, a := range annotations {
		var args []byte
		args, err = json.Marshal(a.Arguments)
		if err != nil {
			return fmt.Errorf("failed to encode arguments of %s: %w", a.Name, err)
		}
		if _, err = tx.ExecContext(ctx, insert,
			file, a.Name, lookupName(a.Name), a.Target.String(), a.Subject(), a.Line, string(args),
		); err != nil {
			return fmt.Errorf("failed to insert %s: %w", a.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", file, err)
	}
	debug.Debug("Indexed file", "file", file, "attributes", len(annotations))
	return nil
}

// Remove deletes file and its attributes from the index.
func (ix *Index) Remove(ctx context.Context, file string) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := ix.clear(ctx, tx, file); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (ix *Index) clear(ctx context.Context, tx *sql.Tx, file string) error {
	if _, err := tx.ExecContext(ctx, ix.rebind(`DELETE FROM phpattr_attributes WHERE file = ?`), file); err != nil {
		return fmt.Errorf("failed to clear attributes of %s: %w", file, err)
	}
	if _, err := tx.ExecContext(ctx, ix.rebind(`DELETE FROM phpattr_files WHERE path = ?`), file); err != nil {
		return fmt.Errorf("failed to clear %s: %w", file, err)
	}
	return nil
}

// Find returns the attributes named name, compared the way PHP compares
// class names. Records are ordered by file and line.
func (ix *Index) Find(ctx context.Context, name string) ([]Record, error) {
	query := ix.rebind(`SELECT id, file, name, target, subject, line, arguments
		FROM phpattr_attributes WHERE lookup_name = ? ORDER BY file, line, id`)
	return ix.query(ctx, query, lookupName(name))
}

// All returns every stored attribute ordered by file and line.
func (ix *Index) All(ctx context.Context) ([]Record, error) {
	return ix.query(ctx, `SELECT id, file, name, target, subject, line, arguments
		FROM phpattr_attributes ORDER BY file, line, id`)
}

func (ix *Index) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := ix.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attributes: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.File, &r.Name, &r.Target, &r.Subject, &r.Line, &r.Arguments); err != nil {
			return nil, fmt.Errorf("failed to scan attribute: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// File returns the stored state of path, or nil when it is not indexed.
func (ix *Index) File(ctx context.Context, path string) (*FileRecord, error) {
	var (
		f         FileRecord
		indexedAt int64
	)
	err := ix.db.QueryRowContext(ctx,
		ix.rebind(`SELECT path, checksum, indexed_at FROM phpattr_files WHERE path = ?`), path,
	).Scan(&f.Path, &f.Checksum, &indexedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", path, err)
	}
	f.IndexedAt = time.Unix(indexedAt, 0)
	return &f, nil
}

// Checksum returns the hex SHA-256 of src, used to skip unchanged files.
func Checksum(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}

func lookupName(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, `\`))
}

// rebind rewrites ? placeholders for providers using numbered parameters.
func (ix *Index) rebind(query string) string {
	if ix.provider != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (ix *Index) schemaSQL() []string {
	switch ix.provider {
	case "postgres":
		return []string{
			`CREATE TABLE IF NOT EXISTS phpattr_files (
				path TEXT PRIMARY KEY,
				checksum VARCHAR(64) NOT NULL,
				indexed_at BIGINT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS phpattr_attributes (
				id SERIAL PRIMARY KEY,
				file TEXT NOT NULL,
				name TEXT NOT NULL,
				lookup_name TEXT NOT NULL,
				target VARCHAR(16) NOT NULL,
				subject TEXT NOT NULL,
				line INTEGER NOT NULL,
				arguments TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_phpattr_lookup ON phpattr_attributes (lookup_name)`,
		}
	case "mysql":
		return []string{
			`CREATE TABLE IF NOT EXISTS phpattr_files (
				path VARCHAR(512) PRIMARY KEY,
				checksum VARCHAR(64) NOT NULL,
				indexed_at BIGINT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS phpattr_attributes (
				id INT AUTO_INCREMENT PRIMARY KEY,
				file VARCHAR(512) NOT NULL,
				name VARCHAR(255) NOT NULL,
				lookup_name VARCHAR(255) NOT NULL,
				target VARCHAR(16) NOT NULL,
				subject TEXT NOT NULL,
				line INT NOT NULL,
				arguments LONGTEXT NOT NULL,
				INDEX idx_phpattr_lookup (lookup_name)
			)`,
		}
	default:
		return []string{
			`CREATE TABLE IF NOT EXISTS phpattr_files (
				path TEXT PRIMARY KEY,
				checksum TEXT NOT NULL,
				indexed_at INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS phpattr_attributes (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				file TEXT NOT NULL,
				name TEXT NOT NULL,
				lookup_name TEXT NOT NULL,
				target TEXT NOT NULL,
				subject TEXT NOT NULL,
				line INTEGER NOT NULL,
				arguments TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_phpattr_lookup ON phpattr_attributes (lookup_name)`,
		}
	}
}

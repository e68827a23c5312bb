package trace

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
)

// ErrNotInitialized is returned when writing before a successful Init.
var ErrNotInitialized = errors.New("trace database not initialized")

// SQLiteWriter writes grant records into a SQLite database.
type SQLiteWriter struct {
	*sql.DB
	statement *sql.Stmt

	dbName string
}

// NewSQLiteWriter creates a writer. The database is created at
// path+".sqlite3"; an empty path picks a unique name in the working
// directory.
func NewSQLiteWriter(path string) *SQLiteWriter {
	return &SQLiteWriter{dbName: path}
}

// FileName returns the database file name.
func (w *SQLiteWriter) FileName() string {
	return w.dbName + ".sqlite3"
}

// Init creates the database and the grant table. It refuses to overwrite
// an existing file.
func (w *SQLiteWriter) Init() error {
	if w.dbName == "" {
		w.dbName = "mpsim_trace_" + xid.New().String()
	}

	filename := w.FileName()
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("trace database %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return fmt.Errorf("failed to open trace database: %w", err)
	}

	w.DB = db

	if err := w.createTable(); err != nil {
		w.abandon()
		return err
	}

	stmt, err := w.Prepare(`INSERT INTO grants VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		w.abandon()
		return fmt.Errorf("failed to prepare grant insert: %w", err)
	}

	w.statement = stmt

	return nil
}

func (w *SQLiteWriter) abandon() {
	_ = w.DB.Close()
	w.DB = nil
}

func (w *SQLiteWriter) createTable() error {
	stmts := []string{
		`create table grants
		(
			request_id      varchar(200) not null,
			tick            integer      not null,
			lane            integer      not null,
			port            integer      not null,
			from_age_matrix integer      not null,
			inject_time     float        not null,
			grant_time      float        not null
		);`,
		`create index grants_port_index on grants (port);`,
		`create index grants_tick_index on grants (tick);`,
	}

	for _, s := range stmts {
		if _, err := w.Exec(s); err != nil {
			return fmt.Errorf("failed to create grant table: %w", err)
		}
	}

	return nil
}

// Write inserts a batch of records in one transaction.
func (w *SQLiteWriter) Write(records []GrantRecord) error {
	if w.statement == nil {
		return ErrNotInitialized
	}

	tx, err := w.Begin()
	if err != nil {
		return err
	}

	stmt := tx.Stmt(w.statement)
	for _, r := range records {
		_, err := stmt.Exec(r.ID, r.Tick, r.Lane, r.Port,
			r.FromAgeMatrix, r.InjectTime, r.GrantTime)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert grant %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// Close closes the database.
func (w *SQLiteWriter) Close() error {
	if w.DB == nil {
		return nil
	}

	if w.statement != nil {
		_ = w.statement.Close()
	}

	return w.DB.Close()
}

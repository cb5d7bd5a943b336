package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Database provides high-level helpers around a SQLite connection. It is the
// resource store for books and the credential store for accounts.
type Database struct {
	db *sql.DB

	addBookStmt    *sql.Stmt
	addAccountStmt *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// Immediate transactions take the write lock up front so read-then-write
	// sequences wait on busy_timeout instead of failing on lock upgrade.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.addBookStmt != nil {
		d.addBookStmt.Close()
	}
	if d.addAccountStmt != nil {
		d.addAccountStmt.Close()
	}
	return d.db.Close()
}

// Ping checks that the database is reachable.
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            status TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT UNIQUE NOT NULL,
            password TEXT NOT NULL,
            role TEXT NOT NULL
        );`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.addBookStmt, err = d.db.Prepare(`INSERT INTO books(name,status) VALUES(?,?)`); err != nil {
		return err
	}
	if d.addAccountStmt, err = d.db.Prepare(`INSERT INTO users(username,password,role) VALUES(?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

// AddBook inserts a book and returns the id assigned by SQLite.
func (d *Database) AddBook(ctx context.Context, name string, status Status) (int64, error) {
	res, err := d.addBookStmt.ExecContext(ctx, name, string(status))
	if err != nil {
		return 0, errors.Wrap(err, "insert book")
	}
	return res.LastInsertId()
}

func (d *Database) GetBook(ctx context.Context, id int64) (*Book, error) {
	var b Book
	err := d.db.QueryRowContext(ctx, `SELECT id,name,status FROM books WHERE id=?`, id).
		Scan(&b.ID, &b.Name, &b.Status)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get book %d", id)
	}
	return &b, nil
}

// GetAllBooks returns every book in insertion order.
func (d *Database) GetAllBooks(ctx context.Context) ([]*Book, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id,name,status FROM books ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list books")
	}
	defer rows.Close()

	books := []*Book{}
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Name, &b.Status); err != nil {
			return nil, err
		}
		books = append(books, &b)
	}
	return books, rows.Err()
}

// UpdateBook overwrites name and status and reports how many rows matched.
func (d *Database) UpdateBook(ctx context.Context, id int64, name string, status Status) (int64, error) {
	res, err := d.db.ExecContext(ctx, `UPDATE books SET name=?, status=? WHERE id=?`, name, string(status), id)
	if err != nil {
		return 0, errors.Wrapf(err, "update book %d", id)
	}
	return res.RowsAffected()
}

// DeleteBook removes a book and reports how many rows were deleted.
func (d *Database) DeleteBook(ctx context.Context, id int64) (int64, error) {
	res, err := d.db.ExecContext(ctx, `DELETE FROM books WHERE id=?`, id)
	if err != nil {
		return 0, errors.Wrapf(err, "delete book %d", id)
	}
	return res.RowsAffected()
}

// SetBookStatus reads the book and updates its status in one transaction.
// The returned book carries the name seen by the read.
func (d *Database) SetBookStatus(ctx context.Context, id int64, status Status) (*Book, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var name string
	err = tx.QueryRowContext(ctx, `SELECT name FROM books WHERE id=?`, id).Scan(&name)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read book %d", id)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE books SET status=? WHERE id=?`, string(status), id); err != nil {
		return nil, errors.Wrapf(err, "set status of book %d", id)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &Book{ID: id, Name: name, Status: status}, nil
}

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

// AddAccount provisions a user. passwordHash must already be a digest.
func (d *Database) AddAccount(ctx context.Context, username, passwordHash string, role Role) (int64, error) {
	res, err := d.addAccountStmt.ExecContext(ctx, username, passwordHash, string(role))
	if err != nil {
		var sqErr sqlite3.Error
		if errors.As(err, &sqErr) && sqErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, ErrAccountExists
		}
		return 0, errors.Wrap(err, "insert account")
	}
	return res.LastInsertId()
}

// FindAccountByUsername fetches a single account.
func (d *Database) FindAccountByUsername(ctx context.Context, username string) (*Account, error) {
	var a Account
	err := d.db.QueryRowContext(ctx, `SELECT id,username,password,role FROM users WHERE username=?`, username).
		Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Role)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find account")
	}
	return &a, nil
}

// GetAllAccounts returns all accounts ordered by id.
func (d *Database) GetAllAccounts(ctx context.Context) ([]*Account, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id,username,role FROM users ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list accounts")
	}
	defer rows.Close()
	var accounts []*Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Username, &a.Role); err != nil {
			return nil, err
		}
		accounts = append(accounts, &a)
	}
	return accounts, rows.Err()
}

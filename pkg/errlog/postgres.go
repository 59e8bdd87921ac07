package errlog

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Postgres persists entries in a PostgreSQL table, capped at MaxEntries
// by deleting the oldest rows on every append.
type Postgres struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgres connects to PostgreSQL and ensures the error-log table
// exists.
func NewPostgres(cfg *PostgresConfig) (*Postgres, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &Postgres{db: db, logger: cfg.Logger}
	if err := p.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	cfg.Logger.Info("errlog-postgres-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return p, nil
}

// newPostgresWithDB wires an existing DB handle; used by tests with sqlmock.
func newPostgresWithDB(db *sql.DB, logger *zap.Logger) *Postgres {
	return &Postgres{db: db, logger: logger}
}

func (p *Postgres) migrate() error {
	_, err := p.db.Exec(`
		CREATE TABLE IF NOT EXISTS error_log (
			id TEXT PRIMARY KEY,
			operation TEXT NOT NULL,
			attempts INT NOT NULL,
			message TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`)
	return err
}

// Append inserts an entry and trims rows beyond the cap, oldest first.
func (p *Postgres) Append(entry Entry) error {
	_, err := p.db.Exec(
		`INSERT INTO error_log (id, operation, attempts, message, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.Operation, entry.Attempts, entry.Message, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	_, err = p.db.Exec(
		`DELETE FROM error_log
		 WHERE id IN (
			SELECT id FROM error_log
			ORDER BY created_at DESC
			OFFSET $1
		 )`, MaxEntries)
	if err != nil {
		return fmt.Errorf("trim entries: %w", err)
	}

	return nil
}

// Entries returns all stored entries, oldest first.
func (p *Postgres) Entries() ([]Entry, error) {
	rows, err := p.db.Query(
		`SELECT id, operation, attempts, message, created_at
		 FROM error_log ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		err = rows.Scan(&e.ID, &e.Operation, &e.Attempts, &e.Message, &e.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

// Clear removes all stored entries.
func (p *Postgres) Clear() error {
	_, err := p.db.Exec(`DELETE FROM error_log`)
	if err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (p *Postgres) Close() error {
	p.logger.Info("errlog-postgres-closing")
	return p.db.Close()
}

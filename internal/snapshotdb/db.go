// Package snapshotdb provides SQLite-backed persistence for udpforge's
// periodic tick snapshots.
//
// Every tick interval, the recorder captures each request group's thread
// count, queue depth, and error counters, and appends one row per group to
// tick_snapshots. This gives an admin surface a short history to chart
// without needing the running process itself to hold it all in memory.
package snapshotdb

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps a SQLite database connection with thread-safe operations.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// Snapshot is one recorded row: a group's tick-time stats.
type Snapshot struct {
	ID            int64
	TakenAt       time.Time
	GroupIndex    int
	GroupName     string
	ThreadCount   int
	QueueDepth    int
	Evictions     uint64
	AgeDrops      uint64
	ProcessErrors uint64
	Zombies       uint64
}

// Open opens or creates a SQLite database at the given path and brings its
// schema up to date via embedded migrations.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)

	db := &DB{conn: conn}

	if err := db.runMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) runMigrations() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	dbDriver, err := sqlite.WithInstance(db.conn, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Health checks database connectivity.
func (db *DB) Health() error {
	return db.conn.Ping()
}

// Record appends one snapshot row.
func (db *DB) Record(s Snapshot) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(
		`INSERT INTO tick_snapshots
			(group_index, group_name, thread_count, queue_depth, evictions, age_drops, process_errors, zombies)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.GroupIndex, s.GroupName, s.ThreadCount, s.QueueDepth, s.Evictions, s.AgeDrops, s.ProcessErrors, s.Zombies,
	)
	if err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}
	return nil
}

// RecentHistory returns up to limit most recent snapshots, newest first.
func (db *DB) RecentHistory(limit int) ([]Snapshot, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	rows, err := db.conn.Query(
		`SELECT id, taken_at, group_index, group_name, thread_count, queue_depth, evictions, age_drops, process_errors, zombies
		 FROM tick_snapshots ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.TakenAt, &s.GroupIndex, &s.GroupName, &s.ThreadCount, &s.QueueDepth,
			&s.Evictions, &s.AgeDrops, &s.ProcessErrors, &s.Zombies); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

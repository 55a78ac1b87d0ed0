package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yegors/flightboard/internal/airport"
	"github.com/yegors/flightboard/pkg/logger"
)

// Open opens a SQLite database. ":memory:" keeps the history for the
// lifetime of the process only.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// every pooled connection to ":memory:" would be a separate database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}
	return db, nil
}

// HistoryStorage handles storage of flight status changes
type HistoryStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewHistoryStorage creates a new SQLite history storage and its tables
func NewHistoryStorage(db *sql.DB, log *logger.Logger) (*HistoryStorage, error) {
	storage := &HistoryStorage{
		db:     db,
		logger: log.Named("sqlite-history"),
	}

	if err := storage.initDB(); err != nil {
		return nil, err
	}
	return storage, nil
}

// initDB initializes the database tables
func (s *HistoryStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS status_changes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			flight_id TEXT NOT NULL,
			destination TEXT NOT NULL,
			vip INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			revision INTEGER NOT NULL,
			changed_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create status_changes table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_status_changes_flight_id ON status_changes(flight_id)`,
		`CREATE INDEX IF NOT EXISTS idx_status_changes_changed_at ON status_changes(changed_at)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_status_changes_revision ON status_changes(flight_id, revision)`,
	}
	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create status_changes index: %w", err)
		}
	}

	return nil
}

// StoreStatusChange stores a status change record
func (s *HistoryStorage) StoreStatusChange(record *StatusChangeRecord) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO status_changes
		(flight_id, destination, vip, status, revision, changed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.FlightID,
		record.Destination,
		record.VIP,
		record.Status,
		record.Revision,
		record.ChangedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert status change: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

// GetHistoryByFlight returns a flight's status changes, oldest first
func (s *HistoryStorage) GetHistoryByFlight(flightID string, limit int) ([]*StatusChangeRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, flight_id, destination, vip, status, revision, changed_at
		FROM status_changes
		WHERE flight_id = ?
		ORDER BY revision ASC
		LIMIT ?`,
		flightID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query status changes by flight: %w", err)
	}
	defer rows.Close()

	return s.scanStatusChangeRows(rows)
}

// GetRecentChanges returns the latest status changes across all flights
func (s *HistoryStorage) GetRecentChanges(limit int) ([]*StatusChangeRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, flight_id, destination, vip, status, revision, changed_at
		FROM status_changes
		ORDER BY id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent status changes: %w", err)
	}
	defer rows.Close()

	return s.scanStatusChangeRows(rows)
}

// Hooks records every applied transition. Storage failures are logged;
// the board keeps running without history rather than refusing transitions.
func (s *HistoryStorage) Hooks() airport.Hooks {
	return airport.Hooks{
		OnStatusChanged: func(c airport.Change) {
			_, err := s.StoreStatusChange(&StatusChangeRecord{
				FlightID:    c.FlightID,
				Destination: c.Destination,
				VIP:         c.VIP,
				Status:      c.Status.String(),
				Revision:    c.Revision,
				ChangedAt:   c.At,
			})
			if err != nil {
				s.logger.Error("Failed to store status change",
					logger.String("flight_id", c.FlightID),
					logger.Int("revision", c.Revision),
					logger.Error(err))
			}
		},
	}
}

// scanStatusChangeRows scans database rows into StatusChangeRecord structs
func (s *HistoryStorage) scanStatusChangeRows(rows *sql.Rows) ([]*StatusChangeRecord, error) {
	records := []*StatusChangeRecord{}
	for rows.Next() {
		var record StatusChangeRecord
		var changedAt string

		if err := rows.Scan(
			&record.ID,
			&record.FlightID,
			&record.Destination,
			&record.VIP,
			&record.Status,
			&record.Revision,
			&changedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan status change: %w", err)
		}

		var err error
		record.ChangedAt, err = time.Parse(time.RFC3339Nano, changedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse changed_at: %w", err)
		}

		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate status changes: %w", err)
	}

	return records, nil
}

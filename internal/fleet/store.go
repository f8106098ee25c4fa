// Package fleet provides the SQLite-backed registry of mock devices and
// task records behind the dashboard API.
package fleet

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/autorl-dev/autorl/internal/domain"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed fleet persistence
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertDevice inserts or updates a device
func (s *Store) UpsertDevice(d *domain.Device) error {
	_, err := s.db.Exec(`
		INSERT INTO devices (id, platform, status, battery, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			platform = excluded.platform,
			status = excluded.status,
			battery = excluded.battery,
			last_seen = excluded.last_seen
	`, d.ID, d.Platform, string(d.Status), d.Battery, d.LastSeen)
	return err
}

// GetDevice retrieves a device by ID, nil if absent
func (s *Store) GetDevice(id string) (*domain.Device, error) {
	row := s.db.QueryRow(`
		SELECT id, platform, status, battery, last_seen FROM devices WHERE id = ?
	`, id)

	var d domain.Device
	var status string
	err := row.Scan(&d.ID, &d.Platform, &status, &d.Battery, &d.LastSeen)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d.Status = domain.DeviceStatus(status)
	return &d, nil
}

// ListDevices returns all devices ordered by id
func (s *Store) ListDevices() ([]*domain.Device, error) {
	rows, err := s.db.Query(`
		SELECT id, platform, status, battery, last_seen FROM devices ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*domain.Device
	for rows.Next() {
		var d domain.Device
		var status string
		if err := rows.Scan(&d.ID, &d.Platform, &status, &d.Battery, &d.LastSeen); err != nil {
			return nil, err
		}
		d.Status = domain.DeviceStatus(status)
		devices = append(devices, &d)
	}
	return devices, rows.Err()
}

// SetDeviceStatus updates a device's status and last-seen time
func (s *Store) SetDeviceStatus(id string, status domain.DeviceStatus) error {
	_, err := s.db.Exec(`UPDATE devices SET status = ?, last_seen = ? WHERE id = ?`,
		string(status), time.Now(), id)
	return err
}

// InsertTaskRecord adds a task record and returns its id
func (s *Store) InsertTaskRecord(r *domain.TaskRecord) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO task_records (name, status, device, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.Name, string(r.Status), r.Device, r.Duration.Milliseconds(), r.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateTaskRecord sets the final status and duration of a record
func (s *Store) UpdateTaskRecord(id int64, status domain.TaskRecordStatus, duration time.Duration) error {
	_, err := s.db.Exec(`UPDATE task_records SET status = ?, duration_ms = ? WHERE id = ?`,
		string(status), duration.Milliseconds(), id)
	return err
}

// ListTaskRecords returns task records, newest first, up to limit
// (0 means no limit)
func (s *Store) ListTaskRecords(limit int) ([]*domain.TaskRecord, error) {
	query := `SELECT id, name, status, device, duration_ms, created_at FROM task_records ORDER BY created_at DESC, id DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.TaskRecord
	for rows.Next() {
		var r domain.TaskRecord
		var status string
		var durationMs int64
		if err := rows.Scan(&r.ID, &r.Name, &status, &r.Device, &durationMs, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Status = domain.TaskRecordStatus(status)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, &r)
	}
	return records, rows.Err()
}

// Metrics aggregates task outcomes for the dashboard
func (s *Store) Metrics() (*domain.Metrics, error) {
	row := s.db.QueryRow(`
		SELECT
			COUNT(CASE WHEN status = 'success' THEN 1 END),
			COUNT(CASE WHEN status = 'failure' THEN 1 END),
			COUNT(CASE WHEN status = 'in_progress' THEN 1 END),
			COALESCE(AVG(CASE WHEN status != 'in_progress' THEN duration_ms END), 0)
		FROM task_records
	`)

	var m domain.Metrics
	var avgMs float64
	if err := row.Scan(&m.TotalTasksSuccess, &m.TotalTasksFailure, &m.TasksInProgress, &avgMs); err != nil {
		return nil, err
	}
	m.AvgDuration = time.Duration(avgMs) * time.Millisecond
	return &m, nil
}

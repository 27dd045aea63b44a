package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/shourya0523/Pact-sub000/models"
)

// SQLiteStore is a NotificationStore backed by SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

type notificationRow struct {
	ID            string    `db:"id"`
	UserID        string    `db:"user_id"`
	Type          string    `db:"type"`
	Title         string    `db:"title"`
	Message       string    `db:"message"`
	Data          string    `db:"data"`
	IsRead        int       `db:"is_read"`
	IsArchived    int       `db:"is_archived"`
	RelatedID     string    `db:"related_id"`
	RelatedUserID string    `db:"related_user_id"`
	CreatedAt     time.Time `db:"created_at"`
}

const notificationColumns = `id, user_id, type, title, message, data, is_read, is_archived,
	related_id, related_user_id, created_at`

// NewSQLiteStore opens (or creates) the database at path and runs pending migrations.
// Pass ":memory:" for an ephemeral database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	// _time_format=sqlite stores timestamps in a sortable text form.
	db, err := sqlx.Open("sqlite", path+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// An in-memory database exists per connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// SchemaVersion returns the highest applied migration version.
func (s *SQLiteStore) SchemaVersion() (int, error) {
	var version int
	err := s.db.Get(&version, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
	return version, err
}

func (s *SQLiteStore) runMigrations() error {
	var exists int
	err := s.db.Get(&exists,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return err
	}

	current := 0
	if exists > 0 {
		if current, err = s.SchemaVersion(); err != nil {
			return err
		}
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := s.db.Beginx()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// Insert implements NotificationStore.
func (s *SQLiteStore) Insert(ctx context.Context, userID string, n models.Notification) error {
	data := ""
	if len(n.Data) > 0 {
		encoded, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("encode data: %w", err)
		}
		data = string(encoded)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (`+notificationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, userID, string(n.Type), n.Title, n.Message, data,
		boolToInt(n.IsRead), boolToInt(n.IsArchived), n.RelatedID, n.RelatedUserID,
		n.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// List implements NotificationStore. Results are newest first.
func (s *SQLiteStore) List(ctx context.Context, userID string, filter ListFilter) ([]models.Notification, error) {
	where := []string{"user_id = ?"}
	args := []interface{}{userID}
	if filter.UnreadOnly {
		where = append(where, "is_read = 0")
	}
	if !filter.IncludeArchived {
		where = append(where, "is_archived = 0")
	}

	query := "SELECT " + notificationColumns + " FROM notifications WHERE " +
		strings.Join(where, " AND ") + " ORDER BY created_at DESC, id DESC"

	// SQLite only accepts OFFSET after a LIMIT; -1 means unbounded.
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, max(filter.Offset, 0))
	}

	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	out := make([]models.Notification, 0, len(rows))
	for _, row := range rows {
		n, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Get implements NotificationStore.
func (s *SQLiteStore) Get(ctx context.Context, userID, id string) (models.Notification, error) {
	var row notificationRow
	err := s.db.GetContext(ctx, &row,
		"SELECT "+notificationColumns+" FROM notifications WHERE user_id = ? AND id = ?", userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Notification{}, ErrNotificationNotFound
	}
	if err != nil {
		return models.Notification{}, fmt.Errorf("get notification: %w", err)
	}
	return row.toModel()
}

// UnreadCount implements NotificationStore.
func (s *SQLiteStore) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0 AND is_archived = 0", userID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

// MarkRead implements NotificationStore.
func (s *SQLiteStore) MarkRead(ctx context.Context, userID, id string) error {
	return s.updateOne(ctx, "UPDATE notifications SET is_read = 1 WHERE user_id = ? AND id = ?", userID, id)
}

// MarkAllRead implements NotificationStore.
func (s *SQLiteStore) MarkAllRead(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0", userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// Archive implements NotificationStore.
func (s *SQLiteStore) Archive(ctx context.Context, userID, id string) error {
	return s.updateOne(ctx, "UPDATE notifications SET is_archived = 1 WHERE user_id = ? AND id = ?", userID, id)
}

// Delete implements NotificationStore.
func (s *SQLiteStore) Delete(ctx context.Context, userID, id string) error {
	return s.updateOne(ctx, "DELETE FROM notifications WHERE user_id = ? AND id = ?", userID, id)
}

// Close implements NotificationStore.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// updateOne runs a single-row statement and maps zero affected rows to ErrNotificationNotFound.
// An UPDATE that leaves the row unchanged still counts as affected in SQLite.
func (s *SQLiteStore) updateOne(ctx context.Context, query, userID, id string) error {
	res, err := s.db.ExecContext(ctx, query, userID, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r notificationRow) toModel() (models.Notification, error) {
	n := models.Notification{
		ID:            r.ID,
		Type:          models.NotificationType(r.Type),
		Title:         r.Title,
		Message:       r.Message,
		CreatedAt:     r.CreatedAt.UTC(),
		IsRead:        r.IsRead != 0,
		IsArchived:    r.IsArchived != 0,
		RelatedID:     r.RelatedID,
		RelatedUserID: r.RelatedUserID,
	}
	if r.Data != "" {
		if err := json.Unmarshal([]byte(r.Data), &n.Data); err != nil {
			return models.Notification{}, fmt.Errorf("decode data for %s: %w", r.ID, err)
		}
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

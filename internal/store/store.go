// Package store persists the dashboard's local activity log: which
// reports were generated or downloaded through this instance, and
// whether they succeeded. Store failures are advisory; callers log and
// drop them rather than failing the user's operation.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reportdash/internal/models"
)

type Store struct {
	db     *sql.DB
	driver string
}

func New(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// ph renders the n-th placeholder for the configured engine: "?" for
// sqlite, "$n" for postgres.
func (s *Store) ph(n int) string {
	if s.driver == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (s *Store) RecordActivity(ctx context.Context, action, fileName string, recordCount int, ok bool, detail string) (models.ActivityEntry, error) {
	e := models.ActivityEntry{
		ID:          uuid.NewString(),
		Action:      action,
		FileName:    fileName,
		RecordCount: recordCount,
		OK:          ok,
		Detail:      detail,
		CreatedAt:   time.Now().UTC(),
	}
	okInt := 0
	if e.OK {
		okInt = 1
	}
	q := fmt.Sprintf(
		`INSERT INTO activity(id,action,file_name,record_count,ok,detail,created_at) VALUES(%s,%s,%s,%s,%s,%s,%s)`,
		s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5), s.ph(6), s.ph(7),
	)
	_, err := s.db.ExecContext(ctx, q, e.ID, e.Action, e.FileName, e.RecordCount, okInt, e.Detail, e.CreatedAt)
	return e, err
}

func (s *Store) ListActivity(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}
	q := fmt.Sprintf(
		`SELECT id,action,file_name,record_count,ok,detail,created_at FROM activity ORDER BY created_at DESC, id LIMIT %s`,
		s.ph(1),
	)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ActivityEntry, 0, limit)
	for rows.Next() {
		var e models.ActivityEntry
		var okInt int
		if err := rows.Scan(&e.ID, &e.Action, &e.FileName, &e.RecordCount, &okInt, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.OK = okInt != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

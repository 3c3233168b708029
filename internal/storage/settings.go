package storage

import (
	"context"
	"database/sql"
	"errors"
)

func (r *SQLiteRepository) GetSetting(ctx context.Context, key string) (string, error) {
	var value sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value.String, nil
}

func (r *SQLiteRepository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (r *SQLiteRepository) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Setting, 0)
	for rows.Next() {
		var s Setting
		var value sql.NullString
		if err := rows.Scan(&s.Key, &value); err != nil {
			return nil, err
		}
		s.Value = value.String
		out = append(out, s)
	}
	return out, rows.Err()
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/memorizer/remindd/internal/model"
)

const itemColumns = `id, title, content, sound, daily_sound, hidden, fullscreen, active, yearly, monthly,
	date, time, remind, period, period_to, period_days, daily, daily_times, daily_days`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	// The UI process writes the same file; wait for its locks instead of failing.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) CreateItem(ctx context.Context, in model.Item) (int64, error) {
	times, err := encodeDailyTimes(in.DailyTimes)
	if err != nil {
		return 0, err
	}
	args := []any{
		in.Title, in.Content, nullString(in.Sound), nullString(in.DailySound),
		boolInt(in.Hidden), boolInt(in.FullScreen), boolInt(in.Active), boolInt(in.Yearly), boolInt(in.Monthly),
		nullDate(in.Date), in.Time.HHMM(), boolInt(in.Remind), boolInt(in.Period), nullDate(in.PeriodTo), int(in.PeriodDays),
		boolInt(in.Daily), times, int(in.DailyDays),
	}
	query := `
		INSERT INTO items (title, content, sound, daily_sound, hidden, fullscreen, active, yearly, monthly,
			date, time, remind, period, period_to, period_days, daily, daily_times, daily_days)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if in.ID > 0 {
		query = strings.Replace(query, "(title,", "(id, title,", 1)
		query = strings.Replace(query, "VALUES (", "VALUES (?, ", 1)
		args = append([]any{in.ID}, args...)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetItem(ctx context.Context, id int64) (model.Item, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Item{}, ErrNotFound
		}
		return model.Item{}, err
	}
	return item, nil
}

func (r *SQLiteRepository) UpdateItem(ctx context.Context, in model.Item) error {
	times, err := encodeDailyTimes(in.DailyTimes)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE items
		SET title = ?, content = ?, sound = ?, daily_sound = ?, hidden = ?, fullscreen = ?, active = ?, yearly = ?, monthly = ?,
			date = ?, time = ?, remind = ?, period = ?, period_to = ?, period_days = ?, daily = ?, daily_times = ?, daily_days = ?
		WHERE id = ?`,
		in.Title, in.Content, nullString(in.Sound), nullString(in.DailySound),
		boolInt(in.Hidden), boolInt(in.FullScreen), boolInt(in.Active), boolInt(in.Yearly), boolInt(in.Monthly),
		nullDate(in.Date), in.Time.HHMM(), boolInt(in.Remind), boolInt(in.Period), nullDate(in.PeriodTo), int(in.PeriodDays),
		boolInt(in.Daily), times, int(in.DailyDays), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) UpdateItemDate(ctx context.Context, id int64, date model.Date) error {
	res, err := r.db.ExecContext(ctx, `UPDATE items SET date = ? WHERE id = ?`, nullDate(date), id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteItem(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListItems(ctx context.Context, filter ItemListFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if filter.Scheduled {
		clauses = append(clauses, "(remind = 1 OR period = 1 OR daily = 1)")
	}
	if filter.Active != nil {
		clauses = append(clauses, "active = ?")
		args = append(args, boolInt(*filter.Active))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Item, 0)
	for rows.Next() {
		item, scanErr := scanItem(rows)
		var invalid *InvalidItemError
		if filter.OnInvalid != nil && errors.As(scanErr, &invalid) {
			filter.OnInvalid(invalid)
			continue
		}
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullDate(d model.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.YYYYMMDD()
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	} else if offset > 0 {
		sql += " LIMIT -1"
	}
	if offset > 0 {
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (model.Item, error) {
	var out model.Item
	var title, content, sound, dailySound, dailyTimes sql.NullString
	var hidden, fullscreen, active, yearly, monthly, remind, period, daily sql.NullInt64
	var date, tm, periodTo, periodDays, dailyDays sql.NullInt64
	if err := s.Scan(&out.ID, &title, &content, &sound, &dailySound, &hidden, &fullscreen, &active, &yearly, &monthly,
		&date, &tm, &remind, &period, &periodTo, &periodDays, &daily, &dailyTimes, &dailyDays); err != nil {
		return model.Item{}, err
	}
	out.Title = title.String
	out.Content = content.String
	out.Sound = sound.String
	out.DailySound = dailySound.String
	out.Hidden = hidden.Int64 == 1
	out.FullScreen = fullscreen.Int64 == 1
	out.Active = active.Int64 == 1
	out.Yearly = yearly.Int64 == 1
	out.Monthly = monthly.Int64 == 1
	out.Remind = remind.Int64 == 1
	out.Period = period.Int64 == 1
	out.Daily = daily.Int64 == 1

	out.Time = model.DefaultTimeOfDay
	if tm.Valid {
		parsed, err := model.ParseHHMM(int(tm.Int64))
		if err != nil {
			return model.Item{}, &InvalidItemError{ID: out.ID, Err: err}
		}
		out.Time = parsed
	}
	var err error
	if out.Date, err = parseNullableDate(date); err != nil {
		return model.Item{}, &InvalidItemError{ID: out.ID, Err: err}
	}
	if out.PeriodTo, err = parseNullableDate(periodTo); err != nil {
		return model.Item{}, &InvalidItemError{ID: out.ID, Err: err}
	}
	out.PeriodDays = maskOrDefault(periodDays)
	out.DailyDays = maskOrDefault(dailyDays)
	out.DailyTimes = decodeDailyTimes(dailyTimes)
	return out, nil
}

func parseNullableDate(v sql.NullInt64) (model.Date, error) {
	if !v.Valid || v.Int64 == 0 {
		return model.Date{}, nil
	}
	return model.ParseYYYYMMDD(int(v.Int64))
}

func maskOrDefault(v sql.NullInt64) model.DayMask {
	if !v.Valid {
		return model.AllDays
	}
	return model.DayMask(v.Int64) & model.AllDays
}

// decodeDailyTimes reads the JSON list written by the UI, e.g. ["06:33","18:33"].
// Entries that do not parse are dropped.
func decodeDailyTimes(v sql.NullString) []model.TimeOfDay {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	var raw []string
	if err := json.Unmarshal([]byte(v.String), &raw); err != nil {
		return nil
	}
	out := make([]model.TimeOfDay, 0, len(raw))
	for _, s := range raw {
		t, err := model.ParseClock(s)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out
}

func encodeDailyTimes(times []model.TimeOfDay) (any, error) {
	if len(times) == 0 {
		return nil, nil
	}
	raw := make([]string, 0, len(times))
	for _, t := range times {
		raw = append(raw, t.String())
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode daily times: %w", err)
	}
	return string(b), nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

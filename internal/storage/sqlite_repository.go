package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sandeepkv93/memoria/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

const (
	defaultMemoryLimit = 100
	defaultTaskLimit   = 200
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
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

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// DB exposes the underlying handle so callers can run migrations.
func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) AddMemory(ctx context.Context, text string) (model.Memory, error) {
	mem := model.Memory{
		Text:    text,
		Created: time.Now().UTC(),
		Tags:    model.ExtractTags(text),
	}
	if err := mem.Validate(); err != nil {
		return model.Memory{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO memories (text, created, tags) VALUES (?, ?, ?)`,
		mem.Text, mustTime(mem.Created), joinTags(mem.Tags),
	)
	if err != nil {
		return model.Memory{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Memory{}, err
	}
	mem.ID = id
	return mem, nil
}

func (r *SQLiteRepository) GetMemory(ctx context.Context, id int64) (model.Memory, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, text, created, tags FROM memories WHERE id = ?`, id)
	mem, err := scanMemory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Memory{}, ErrNotFound
		}
		return model.Memory{}, err
	}
	return mem, nil
}

func (r *SQLiteRepository) ListMemories(ctx context.Context, filter MemoryListFilter) (MemoryPage, error) {
	base := `SELECT id, text, created, tags FROM memories`
	count := `SELECT COUNT(*) FROM memories`
	args := make([]any, 0, 4)
	if filter.Query != "" {
		where := ` WHERE text LIKE ? OR tags LIKE ?`
		base += where
		count += where
		term := "%" + filter.Query + "%"
		args = append(args, term, term)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, count, args...).Scan(&total); err != nil {
		return MemoryPage{}, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultMemoryLimit
	}
	base += ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, base, args...)
	if err != nil {
		return MemoryPage{}, err
	}
	defer rows.Close()

	items := make([]model.Memory, 0)
	for rows.Next() {
		mem, scanErr := scanMemory(rows)
		if scanErr != nil {
			return MemoryPage{}, scanErr
		}
		items = append(items, mem)
	}
	return MemoryPage{Items: items, Total: total}, rows.Err()
}

func (r *SQLiteRepository) UpdateMemoryText(ctx context.Context, id int64, text string) (model.Memory, error) {
	if strings.TrimSpace(text) == "" {
		return model.Memory{}, model.ErrEmptyText
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE memories SET text = ?, tags = ? WHERE id = ?`,
		text, joinTags(model.ExtractTags(text)), id,
	)
	if err != nil {
		return model.Memory{}, err
	}
	if err := checkRowsAffected(res); err != nil {
		return model.Memory{}, err
	}
	return r.GetMemory(ctx, id)
}

func (r *SQLiteRepository) DeleteMemory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) AllMemories(ctx context.Context) ([]model.Memory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, text, created, tags FROM memories ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Memory, 0)
	for rows.Next() {
		mem, scanErr := scanMemory(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, mem)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ImportMemory(ctx context.Context, in model.Memory, overwrite bool) (ImportStatus, error) {
	if err := in.Validate(); err != nil {
		return ImportFailed, err
	}
	if in.ID > 0 {
		_, err := r.GetMemory(ctx, in.ID)
		switch {
		case err == nil && !overwrite:
			return ImportSkipped, nil
		case err == nil:
			_, err = r.db.ExecContext(ctx, `
				UPDATE memories SET text = ?, created = ?, tags = ? WHERE id = ?`,
				in.Text, mustTime(in.Created), joinTags(in.Tags), in.ID,
			)
			if err != nil {
				return ImportFailed, err
			}
			return ImportUpdated, nil
		case !errors.Is(err, ErrNotFound):
			return ImportFailed, err
		}
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO memories (id, text, created, tags) VALUES (?, ?, ?, ?)`,
			in.ID, in.Text, mustTime(in.Created), joinTags(in.Tags),
		)
		if err != nil {
			return ImportFailed, err
		}
		return ImportInserted, nil
	}
	if _, err := r.AddMemory(ctx, in.Text); err != nil {
		return ImportFailed, err
	}
	return ImportInserted, nil
}

func (r *SQLiteRepository) AddTask(ctx context.Context, title, due, rrule string) (model.Task, error) {
	task := model.Task{
		Title:   title,
		Due:     due,
		Created: time.Now().UTC(),
		Tags:    model.ExtractTags(title),
		RRule:   rrule,
	}
	if err := task.Validate(); err != nil {
		return model.Task{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (title, due, done, created, tags, rrule)
		VALUES (?, ?, 0, ?, ?, ?)`,
		task.Title, nullString(task.Due), mustTime(task.Created), joinTags(task.Tags), nullString(task.RRule),
	)
	if err != nil {
		return model.Task{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Task{}, err
	}
	task.ID = id
	return task, nil
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id int64) (model.Task, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, due, done, created, tags, notified_at, rrule
		FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return task, nil
}

func (r *SQLiteRepository) ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error) {
	query := `SELECT id, title, due, done, created, tags, notified_at, rrule FROM tasks`
	if filter.OpenOnly {
		query += ` WHERE done = 0`
	}
	// Listing order for open tasks is decided after recurrence expansion;
	// the repository only returns newest-first rows.
	query += ` ORDER BY id DESC LIMIT ?`
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultTaskLimit
	}

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateTask(ctx context.Context, id int64, patch model.TaskPatch) (model.Task, error) {
	if patch.IsEmpty() {
		return r.GetTask(ctx, id)
	}
	clauses := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return model.Task{}, model.ErrEmptyTitle
		}
		clauses = append(clauses, "title = ?", "tags = ?")
		args = append(args, *patch.Title, joinTags(model.ExtractTags(*patch.Title)))
	}
	if patch.Due != nil {
		clauses = append(clauses, "due = ?")
		args = append(args, nullString(*patch.Due))
	}
	if patch.Done != nil {
		clauses = append(clauses, "done = ?")
		args = append(args, boolInt(*patch.Done))
	}
	if patch.RRule != nil {
		clauses = append(clauses, "rrule = ?")
		args = append(args, nullString(*patch.RRule))
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET `+strings.Join(clauses, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return model.Task{}, err
	}
	if err := checkRowsAffected(res); err != nil {
		return model.Task{}, err
	}
	return r.GetTask(ctx, id)
}

func (r *SQLiteRepository) SetDone(ctx context.Context, id int64, done bool) (model.Task, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE tasks SET done = ? WHERE id = ?`, boolInt(done), id)
	if err != nil {
		return model.Task{}, err
	}
	if err := checkRowsAffected(res); err != nil {
		return model.Task{}, err
	}
	return r.GetTask(ctx, id)
}

func (r *SQLiteRepository) DeleteTask(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) AllTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, due, done, created, tags, notified_at, rrule
		FROM tasks ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ImportTask(ctx context.Context, in model.Task, overwrite bool) (ImportStatus, error) {
	if err := in.Validate(); err != nil {
		return ImportFailed, err
	}
	if in.ID > 0 {
		_, err := r.GetTask(ctx, in.ID)
		switch {
		case err == nil && !overwrite:
			return ImportSkipped, nil
		case err == nil:
			_, err = r.db.ExecContext(ctx, `
				UPDATE tasks SET title = ?, due = ?, done = ?, created = ?, tags = ?, notified_at = ?, rrule = ?
				WHERE id = ?`,
				in.Title, nullString(in.Due), boolInt(in.Done), mustTime(in.Created),
				joinTags(in.Tags), nullTime(in.NotifiedAt), nullString(in.RRule), in.ID,
			)
			if err != nil {
				return ImportFailed, err
			}
			return ImportUpdated, nil
		case !errors.Is(err, ErrNotFound):
			return ImportFailed, err
		}
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO tasks (id, title, due, done, created, tags, notified_at, rrule)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			in.ID, in.Title, nullString(in.Due), boolInt(in.Done), mustTime(in.Created),
			joinTags(in.Tags), nullTime(in.NotifiedAt), nullString(in.RRule),
		)
		if err != nil {
			return ImportFailed, err
		}
		return ImportInserted, nil
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (title, due, done, created, tags, notified_at, rrule)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.Title, nullString(in.Due), boolInt(in.Done), mustTime(in.Created),
		joinTags(in.Tags), nullTime(in.NotifiedAt), nullString(in.RRule),
	)
	if err != nil {
		return ImportFailed, err
	}
	return ImportInserted, nil
}

// DueUnnotified returns open tasks whose normalized due time has passed and
// that have not been notified yet. The comparison is lexicographic, which is
// sound for RFC 3339 UTC strings; non-normalized due values simply never
// match and are left for the caller to skip.
func (r *SQLiteRepository) DueUnnotified(ctx context.Context, now time.Time) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, due, done, created, tags, notified_at, rrule
		FROM tasks
		WHERE done = 0 AND due IS NOT NULL AND due != '' AND due <= ? AND notified_at IS NULL`,
		now.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SetNotified(ctx context.Context, id int64, when time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tasks SET notified_at = ? WHERE id = ?`,
		mustTime(when), id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func joinTags(tags []string) string {
	return strings.Join(tags, " ")
}

func splitTags(raw string) []string {
	return strings.Fields(raw)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMemory(s scanner) (model.Memory, error) {
	var out model.Memory
	var created string
	var tags string
	if err := s.Scan(&out.ID, &out.Text, &created, &tags); err != nil {
		return model.Memory{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return model.Memory{}, err
	}
	out.Created = createdAt
	out.Tags = splitTags(tags)
	return out, nil
}

func scanTask(s scanner) (model.Task, error) {
	var out model.Task
	var due sql.NullString
	var done int
	var created string
	var tags string
	var notified sql.NullString
	var rrule sql.NullString
	if err := s.Scan(&out.ID, &out.Title, &due, &done, &created, &tags, &notified, &rrule); err != nil {
		return model.Task{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return model.Task{}, err
	}
	notifiedAt, err := parseNullableTime(notified)
	if err != nil {
		return model.Task{}, err
	}
	out.Due = due.String
	out.Done = done == 1
	out.Created = createdAt
	out.Tags = splitTags(tags)
	out.NotifiedAt = notifiedAt
	out.RRule = rrule.String
	return out, nil
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

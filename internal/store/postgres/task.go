package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/worknest/worknest/internal/models"
	"github.com/worknest/worknest/internal/store"
)

const taskColumns = `id, display_id, project_id, parent_id, title, description,
	assignee_id, status, priority, due_date, reminder_sent, completed_at,
	created_by, created_at, updated_at`

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.DisplayID, &t.ProjectID, &t.ParentID, &t.Title,
		&t.Description, &t.AssigneeID, &t.Status, &t.Priority, &t.DueDate,
		&t.ReminderSent, &t.CompletedAt, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTask inserts a task.
func (s *Store) CreateTask(ctx context.Context, t *models.Task) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (id, display_id, project_id, parent_id, title, description,
			assignee_id, status, priority, due_date, reminder_sent, completed_at,
			created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		t.ID, t.DisplayID, t.ProjectID, t.ParentID, t.Title, t.Description,
		t.AssigneeID, t.Status, t.Priority, t.DueDate, t.ReminderSent,
		t.CompletedAt, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", mapErr(err))
	}
	return nil
}

// GetTask returns a task with comments, attachments, and dependencies loaded.
func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	if err := s.loadSubEntities(ctx, []*models.Task{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// GetTasks returns the tasks for the given IDs, skipping missing ones.
func (s *Store) GetTasks(ctx context.Context, ids []string) ([]*models.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	defer rows.Close()

	var out []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.loadSubEntities(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTasks returns a filtered, paginated task page for a project.
func (s *Store) ListTasks(ctx context.Context, projectID string, f store.TaskFilter) (*store.TaskPage, error) {
	f.Normalize()

	where := []string{"project_id = $1"}
	args := []interface{}{projectID}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Search != "" {
		p := arg("%" + strings.ToLower(f.Search) + "%")
		where = append(where, fmt.Sprintf("(lower(title) LIKE %s OR lower(description) LIKE %s)", p, p))
	}
	if f.AssigneeID != "" {
		where = append(where, "assignee_id = "+arg(f.AssigneeID))
	}
	if f.Status != "" {
		where = append(where, "status = "+arg(f.Status))
	}
	if f.Priority != "" {
		where = append(where, "priority = "+arg(f.Priority))
	}
	if f.DueFrom != nil {
		where = append(where, "due_date >= "+arg(*f.DueFrom))
	}
	if f.DueTo != nil {
		where = append(where, "due_date <= "+arg(*f.DueTo))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx,
		"SELECT count(*) FROM tasks WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}

	limit := arg(f.PageSize)
	offset := arg((f.Page - 1) * f.PageSize)
	rows, err := s.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE `+cond+
		` ORDER BY created_at DESC, id LIMIT `+limit+` OFFSET `+offset, args...)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.loadSubEntities(ctx, tasks); err != nil {
		return nil, err
	}
	return &store.TaskPage{Tasks: tasks, Total: total}, nil
}

// loadSubEntities fills comments, attachments, and dependencies for the tasks.
func (s *Store) loadSubEntities(ctx context.Context, tasks []*models.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	byID := make(map[string]*models.Task, len(tasks))
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, task_id, author_id, text, created_at
		FROM task_comments WHERE task_id = ANY($1) ORDER BY created_at`, ids)
	if err != nil {
		return fmt.Errorf("select comments: %w", err)
	}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Text, &c.CreatedAt); err != nil {
			rows.Close()
			return err
		}
		byID[c.TaskID].Comments = append(byID[c.TaskID].Comments, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.pool.Query(ctx, `
		SELECT id, task_id, filename, url, size, mime_type, uploaded_by, uploaded_at
		FROM task_attachments WHERE task_id = ANY($1) ORDER BY uploaded_at`, ids)
	if err != nil {
		return fmt.Errorf("select attachments: %w", err)
	}
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.TaskID, &a.Filename, &a.URL, &a.Size,
			&a.MimeType, &a.UploadedBy, &a.UploadedAt); err != nil {
			rows.Close()
			return err
		}
		byID[a.TaskID].Attachments = append(byID[a.TaskID].Attachments, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.pool.Query(ctx, `
		SELECT id, task_id, depends_on, dep_type, created_at
		FROM task_dependencies WHERE task_id = ANY($1) ORDER BY created_at`, ids)
	if err != nil {
		return fmt.Errorf("select dependencies: %w", err)
	}
	for rows.Next() {
		var d models.Dependency
		if err := rows.Scan(&d.ID, &d.TaskID, &d.DependsOn, &d.Type, &d.CreatedAt); err != nil {
			rows.Close()
			return err
		}
		byID[d.TaskID].Dependencies = append(byID[d.TaskID].Dependencies, d)
	}
	rows.Close()
	return rows.Err()
}

// UpdateTask replaces a task's scalar fields; sub-entities have their own
// operations.
func (s *Store) UpdateTask(ctx context.Context, t *models.Task) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks SET parent_id = $2, title = $3, description = $4,
			assignee_id = $5, status = $6, priority = $7, due_date = $8,
			reminder_sent = $9, completed_at = $10, updated_at = $11
		WHERE id = $1`,
		t.ID, t.ParentID, t.Title, t.Description, t.AssigneeID, t.Status,
		t.Priority, t.DueDate, t.ReminderSent, t.CompletedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update task: %w", mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteTask removes a task; the schema cascades to its sub-entities.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// MaxDisplaySeq returns the highest numeric display-ID suffix under prefix.
func (s *Store) MaxDisplaySeq(ctx context.Context, prefix string) (int64, error) {
	var max int64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(split_part(display_id, '-', 2)::bigint), 0)
		FROM tasks
		WHERE display_id LIKE $1 || '-%'
		  AND split_part(display_id, '-', 2) ~ '^[0-9]+$'`, prefix).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max display seq: %w", err)
	}
	return max, nil
}

// AddComment appends a comment.
func (s *Store) AddComment(ctx context.Context, c *models.Comment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO task_comments (id, task_id, author_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.TaskID, c.AuthorID, c.Text, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert comment: %w", mapErr(err))
	}
	return nil
}

// AddAttachment appends an attachment record.
func (s *Store) AddAttachment(ctx context.Context, a *models.Attachment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO task_attachments (id, task_id, filename, url, size, mime_type, uploaded_by, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.TaskID, a.Filename, a.URL, a.Size, a.MimeType, a.UploadedBy, a.UploadedAt)
	if err != nil {
		return fmt.Errorf("insert attachment: %w", mapErr(err))
	}
	return nil
}

// GetAttachment returns one attachment record of a task.
func (s *Store) GetAttachment(ctx context.Context, taskID, attachmentID string) (*models.Attachment, error) {
	var a models.Attachment
	err := s.pool.QueryRow(ctx, `
		SELECT id, task_id, filename, url, size, mime_type, uploaded_by, uploaded_at
		FROM task_attachments WHERE task_id = $1 AND id = $2`, taskID, attachmentID).
		Scan(&a.ID, &a.TaskID, &a.Filename, &a.URL, &a.Size, &a.MimeType, &a.UploadedBy, &a.UploadedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

// RemoveAttachment deletes an attachment record.
func (s *Store) RemoveAttachment(ctx context.Context, taskID, attachmentID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM task_attachments WHERE task_id = $1 AND id = $2`, taskID, attachmentID)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AddDependency appends a dependency edge; the unique (task_id, depends_on)
// index rejects duplicates.
func (s *Store) AddDependency(ctx context.Context, d *models.Dependency) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO task_dependencies (id, task_id, depends_on, dep_type, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		d.ID, d.TaskID, d.DependsOn, d.Type, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert dependency: %w", mapErr(err))
	}
	return nil
}

// RemoveDependency deletes a dependency edge.
func (s *Store) RemoveDependency(ctx context.Context, taskID, dependencyID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM task_dependencies WHERE task_id = $1 AND id = $2`, taskID, dependencyID)
	if err != nil {
		return fmt.Errorf("delete dependency: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Increment atomically bumps the per-prefix counter, creating it at 1.
func (s *Store) Increment(ctx context.Context, prefix string) (int64, error) {
	var seq int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO counters (prefix, seq) VALUES ($1, 1)
		ON CONFLICT (prefix) DO UPDATE SET seq = counters.seq + 1
		RETURNING seq`, prefix).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("increment counter: %w", err)
	}
	return seq, nil
}

// FastForward raises the counter to at least seq and returns the stored value.
func (s *Store) FastForward(ctx context.Context, prefix string, seq int64) (int64, error) {
	var out int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO counters (prefix, seq) VALUES ($1, $2)
		ON CONFLICT (prefix) DO UPDATE SET seq = GREATEST(counters.seq, EXCLUDED.seq)
		RETURNING seq`, prefix, seq).Scan(&out)
	if err != nil {
		return 0, fmt.Errorf("fast-forward counter: %w", err)
	}
	return out, nil
}

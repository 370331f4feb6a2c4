package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/worknest/worknest/internal/models"
	"github.com/worknest/worknest/internal/store"
)

const projectColumns = `id, title, description, workspace, owner_id,
	allow_comments, allow_file_uploads, email_notifications, created_at, updated_at`

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Workspace, &p.OwnerID,
		&p.Settings.AllowComments, &p.Settings.AllowFileUploads,
		&p.Settings.EmailNotifications, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProject inserts a project with its initial members and columns in one
// transaction.
func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO projects (id, title, description, workspace, owner_id,
			allow_comments, allow_file_uploads, email_notifications, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Title, p.Description, p.Workspace, p.OwnerID,
		p.Settings.AllowComments, p.Settings.AllowFileUploads,
		p.Settings.EmailNotifications, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", mapErr(err))
	}

	for _, m := range p.Members {
		_, err = tx.Exec(ctx, `
			INSERT INTO project_members (id, project_id, user_id, role, joined_at)
			VALUES ($1, $2, $3, $4, $5)`,
			m.ID, p.ID, m.UserID, m.Role, m.JoinedAt)
		if err != nil {
			return fmt.Errorf("insert member: %w", mapErr(err))
		}
	}
	for _, col := range p.Columns {
		if err := insertColumn(ctx, tx, p.ID, col); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func insertColumn(ctx context.Context, tx pgx.Tx, projectID string, col models.Column) error {
	taskIDs, err := json.Marshal(col.TaskIDs)
	if err != nil {
		return fmt.Errorf("marshal column task ids: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO board_columns (id, project_id, title, position, task_ids)
		VALUES ($1, $2, $3, $4, $5)`,
		col.ID, projectID, col.Title, col.Position, taskIDs)
	if err != nil {
		return fmt.Errorf("insert column: %w", mapErr(err))
	}
	return nil
}

// GetProject returns a project with members and columns loaded.
func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	p, err := scanProject(s.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}

	members, err := s.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Members = members

	rows, err := s.pool.Query(ctx, `
		SELECT id, title, position, task_ids
		FROM board_columns WHERE project_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("select columns: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var col models.Column
		var taskIDs []byte
		if err := rows.Scan(&col.ID, &col.Title, &col.Position, &taskIDs); err != nil {
			return nil, err
		}
		if len(taskIDs) > 0 {
			if err := json.Unmarshal(taskIDs, &col.TaskIDs); err != nil {
				return nil, fmt.Errorf("unmarshal column task ids: %w", err)
			}
		}
		p.Columns = append(p.Columns, col)
	}
	return p, rows.Err()
}

// ListProjectsForUser returns every project the user is a member of.
func (s *Store) ListProjectsForUser(ctx context.Context, userID string) ([]*models.Project, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE id IN (SELECT project_id FROM project_members WHERE user_id = $1)
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("select projects: %w", err)
	}
	defer rows.Close()

	var out []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateProject replaces a project's scalar fields and settings.
func (s *Store) UpdateProject(ctx context.Context, p *models.Project) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE projects SET title = $2, description = $3, workspace = $4,
			allow_comments = $5, allow_file_uploads = $6, email_notifications = $7,
			updated_at = $8
		WHERE id = $1`,
		p.ID, p.Title, p.Description, p.Workspace,
		p.Settings.AllowComments, p.Settings.AllowFileUploads,
		p.Settings.EmailNotifications, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteProject removes a project; the schema cascades to everything it owns.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// GetMember returns the membership record for (projectID, userID).
func (s *Store) GetMember(ctx context.Context, projectID, userID string) (*models.Member, error) {
	var m models.Member
	err := s.pool.QueryRow(ctx, `
		SELECT id, project_id, user_id, role, joined_at
		FROM project_members WHERE project_id = $1 AND user_id = $2`,
		projectID, userID).
		Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

// ListMembers returns all members of a project.
func (s *Store) ListMembers(ctx context.Context, projectID string) ([]models.Member, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, project_id, user_id, role, joined_at
		FROM project_members WHERE project_id = $1 ORDER BY joined_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("select members: %w", err)
	}
	defer rows.Close()

	var out []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AddMember appends a membership record.
func (s *Store) AddMember(ctx context.Context, m *models.Member) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO project_members (id, project_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.ProjectID, m.UserID, m.Role, m.JoinedAt)
	if err != nil {
		return fmt.Errorf("insert member: %w", mapErr(err))
	}
	return nil
}

// UpdateMemberRole changes a member's role.
func (s *Store) UpdateMemberRole(ctx context.Context, projectID, userID string, role models.Role) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE project_members SET role = $3 WHERE project_id = $1 AND user_id = $2`,
		projectID, userID, role)
	if err != nil {
		return fmt.Errorf("update member role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// RemoveMember deletes a membership record.
func (s *Store) RemoveMember(ctx context.Context, projectID, userID string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`,
		projectID, userID)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetColumns replaces a project's column list in one transaction.
func (s *Store) SetColumns(ctx context.Context, projectID string, cols []models.Column) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM board_columns WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("clear columns: %w", err)
	}
	for _, col := range cols {
		if err := insertColumn(ctx, tx, projectID, col); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

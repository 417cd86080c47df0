package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/castlight-live/castlight/pkg/models"
)

// ProjectService reads projects and permission grants. The live core never
// writes either table; grants are managed by the editor's project-sharing
// surface, which is out of scope here.
type ProjectService struct {
	db *sql.DB
}

// NewProjectService creates a new ProjectService
func NewProjectService(db *sql.DB) *ProjectService {
	return &ProjectService{db: db}
}

// GetProjectByName retrieves a project by name. Live-state keys and overlay
// URLs address projects by bare name, so the lookup is not owner-scoped; with
// several same-named projects the lowest id wins.
func (s *ProjectService) GetProjectByName(ctx context.Context, name string) (*models.Project, error) {
	var project models.Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at, updated_at
		 FROM projects WHERE name = $1
		 ORDER BY id LIMIT 1`, name,
	).Scan(&project.ID, &project.OwnerID, &project.Name, &project.CreatedAt, &project.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return &project, nil
}

// PermissionLevel looks up a user's explicit grant on a project. The second
// return is false when the user holds no grant row; owner-implicit rights are
// the gate's concern, not the table's.
func (s *ProjectService) PermissionLevel(ctx context.Context, projectID, userID int64) (models.PermissionLevel, bool, error) {
	var grant string
	err := s.db.QueryRowContext(ctx,
		`SELECT permission_type FROM project_permissions
		 WHERE project_id = $1 AND user_id = $2`, projectID, userID,
	).Scan(&grant)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to load permission: %w", err)
	}

	level, ok := models.ParsePermissionLevel(grant)
	if !ok {
		return 0, false, fmt.Errorf("unknown permission type %q", grant)
	}
	return level, true, nil
}

// GrantedUserIDs returns the id of every user holding a grant row on the
// project, in ascending order. Every grant level can at least view, so the
// result is the viewer-or-higher fan-out audience minus the implicit owner.
func (s *ProjectService) GrantedUserIDs(ctx context.Context, projectID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM project_permissions
		 WHERE project_id = $1 ORDER BY user_id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load grants: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan grant row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read grants: %w", err)
	}
	return ids, nil
}

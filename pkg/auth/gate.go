package auth

import (
	"context"
	"fmt"

	"github.com/castlight-live/castlight/pkg/models"
)

// PermissionReader looks up a user's explicit grant on a project. The second
// return is false when no grant row exists. Implemented by
// services.ProjectService.
type PermissionReader interface {
	PermissionLevel(ctx context.Context, projectID, userID int64) (models.PermissionLevel, bool, error)
}

// Gate decides whether a principal may observe or mutate a project. The
// project owner holds every right implicitly, without a grant row; anyone
// else needs a grant of sufficient level.
type Gate struct {
	perms PermissionReader
}

// NewGate creates a Gate backed by the given permission source.
func NewGate(perms PermissionReader) *Gate {
	return &Gate{perms: perms}
}

// RequireViewer admits viewer-or-higher principals. Read endpoints use this.
func (g *Gate) RequireViewer(ctx context.Context, project *models.Project, userID int64) error {
	return g.require(ctx, project, userID, models.PermissionViewer)
}

// RequireEditor admits editor-or-higher principals. Every mutating command
// goes through this.
func (g *Gate) RequireEditor(ctx context.Context, project *models.Project, userID int64) error {
	return g.require(ctx, project, userID, models.PermissionEditor)
}

func (g *Gate) require(ctx context.Context, project *models.Project, userID int64, want models.PermissionLevel) error {
	if userID == 0 {
		return ErrNoToken
	}
	if project.OwnerID == userID {
		return nil
	}

	level, ok, err := g.perms.PermissionLevel(ctx, project.ID, userID)
	if err != nil {
		return fmt.Errorf("failed to check permission: %w", err)
	}
	if !ok || level < want {
		return ErrPermissionDenied
	}
	return nil
}

package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/castlight-live/castlight/pkg/models"
)

// SceneService reads baseline scene content: scene rows, their ordered
// objects, and the project each belongs to.
type SceneService struct {
	db *sql.DB
}

// NewSceneService creates a new SceneService
func NewSceneService(db *sql.DB) *SceneService {
	return &SceneService{db: db}
}

// GetSceneProject retrieves a scene row together with its project. Objects
// are not loaded; call LoadObjects when the caller needs them.
func (s *SceneService) GetSceneProject(ctx context.Context, sceneID int64) (*models.Scene, *models.Project, error) {
	var scene models.Scene
	var project models.Project
	err := s.db.QueryRowContext(ctx,
		`SELECT sc.id, sc.project_id, sc.name, sc."order", sc.duration, sc.created_at, sc.updated_at,
		        p.id, p.user_id, p.name, p.created_at, p.updated_at
		 FROM scenes sc
		 JOIN projects p ON p.id = sc.project_id
		 WHERE sc.id = $1`, sceneID,
	).Scan(
		&scene.ID, &scene.ProjectID, &scene.Name, &scene.Order, &scene.Duration,
		&scene.CreatedAt, &scene.UpdatedAt,
		&project.ID, &project.OwnerID, &project.Name, &project.CreatedAt, &project.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrSceneNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load scene: %w", err)
	}
	return &scene, &project, nil
}

// GetObjectProject retrieves an object row together with the project that
// owns it, resolved through the object's scene.
func (s *SceneService) GetObjectProject(ctx context.Context, objectID int64) (*models.SceneObject, *models.Project, error) {
	var obj models.SceneObject
	var project models.Project
	var props, inMotion, outMotion, timing []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT o.id, o.scene_id, o.name, o.type, o."order",
		        o.properties, o.in_motion, o.out_motion, o.timing,
		        p.id, p.user_id, p.name, p.created_at, p.updated_at
		 FROM objects o
		 JOIN scenes sc ON sc.id = o.scene_id
		 JOIN projects p ON p.id = sc.project_id
		 WHERE o.id = $1`, objectID,
	).Scan(
		&obj.ID, &obj.SceneID, &obj.Name, &obj.Type, &obj.Order,
		&props, &inMotion, &outMotion, &timing,
		&project.ID, &project.OwnerID, &project.Name, &project.CreatedAt, &project.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load object: %w", err)
	}
	if err := decodeObjectJSON(&obj, props, inMotion, outMotion, timing); err != nil {
		return nil, nil, err
	}
	return &obj, &project, nil
}

// LoadObjects fills scene.Objects with the scene's objects in render order.
func (s *SceneService) LoadObjects(ctx context.Context, scene *models.Scene) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scene_id, name, type, "order", properties, in_motion, out_motion, timing
		 FROM objects WHERE scene_id = $1
		 ORDER BY "order", id`, scene.ID)
	if err != nil {
		return fmt.Errorf("failed to load objects: %w", err)
	}
	defer rows.Close()

	objects := []*models.SceneObject{}
	for rows.Next() {
		var obj models.SceneObject
		var props, inMotion, outMotion, timing []byte
		if err := rows.Scan(&obj.ID, &obj.SceneID, &obj.Name, &obj.Type, &obj.Order,
			&props, &inMotion, &outMotion, &timing); err != nil {
			return fmt.Errorf("failed to scan object row: %w", err)
		}
		if err := decodeObjectJSON(&obj, props, inMotion, outMotion, timing); err != nil {
			return err
		}
		objects = append(objects, &obj)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read objects: %w", err)
	}

	scene.Objects = objects
	return nil
}

// decodeObjectJSON unmarshals the four JSONB columns of an object row.
func decodeObjectJSON(obj *models.SceneObject, props, inMotion, outMotion, timing []byte) error {
	for _, col := range []struct {
		name string
		data []byte
		dst  *map[string]any
	}{
		{"properties", props, &obj.Properties},
		{"in_motion", inMotion, &obj.InMotion},
		{"out_motion", outMotion, &obj.OutMotion},
		{"timing", timing, &obj.Timing},
	} {
		if len(col.data) == 0 {
			*col.dst = map[string]any{}
			continue
		}
		if err := json.Unmarshal(col.data, col.dst); err != nil {
			return fmt.Errorf("failed to decode object %d %s: %w", obj.ID, col.name, err)
		}
	}
	return nil
}

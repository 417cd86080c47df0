package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/castlight-live/castlight/pkg/auth"
	"github.com/castlight-live/castlight/pkg/events"
	"github.com/castlight-live/castlight/pkg/livestate"
	"github.com/castlight-live/castlight/pkg/metrics"
	"github.com/castlight-live/castlight/pkg/models"
)

// Broadcaster is the fan-out surface the control path needs from the hub.
// Implemented by events.Hub; tests substitute a recorder.
type Broadcaster interface {
	Emit(event string, payload any, rooms ...events.Room)
}

// LiveService is the control core. Every operator command comes through
// here: it resolves the target entities, authorizes the caller, mutates the
// live state store, and fans the resulting events out. The datastore is
// consulted read-only; all mutation happens in memory.
type LiveService struct {
	store    *livestate.Store
	hub      Broadcaster
	projects *ProjectService
	scenes   *SceneService
	gate     *auth.Gate
}

// NewLiveService creates the control core.
func NewLiveService(store *livestate.Store, hub Broadcaster, projects *ProjectService, scenes *SceneService, gate *auth.Gate) *LiveService {
	return &LiveService{
		store:    store,
		hub:      hub,
		projects: projects,
		scenes:   scenes,
		gate:     gate,
	}
}

// LiveStateSnapshot is the state read payload: per-object overrides and
// per-scene flags for one channel of one project.
type LiveStateSnapshot struct {
	ObjectStates map[int64]livestate.ObjectOverride `json:"object_states"`
	SceneStates  map[int64]livestate.SceneFlag      `json:"scene_states"`
}

// PushScene marks a scene live on its project's channel, clearing any other
// live scene there first. Off-air events for the cleared siblings precede
// the on-air event. Requires editor rights on the scene's project. Returns
// the channel the push landed on.
func (s *LiveService) PushScene(ctx context.Context, userID, sceneID int64, channelID string) (string, error) {
	scene, project, err := s.scenes.GetSceneProject(ctx, sceneID)
	if err != nil {
		return "", err
	}
	if err := s.gate.RequireEditor(ctx, project, userID); err != nil {
		return "", err
	}

	channel := livestate.NormalizeChannel(channelID)
	rooms := s.audience(ctx, project)

	cleared := s.store.PushSceneLive(project.Name, channel, sceneID)
	for _, id := range cleared {
		s.emitSceneLive(id, false, channel, rooms)
	}
	s.emitSceneLive(sceneID, true, channel, rooms)

	metrics.IncCommand("scene_push")
	slog.Info("Scene pushed live",
		"project", project.Name, "scene_id", scene.ID, "channel", channel, "user_id", userID)
	return channel, nil
}

// OutScene takes a scene off air. Requires editor rights on the scene's
// project. Returns the channel the out landed on.
func (s *LiveService) OutScene(ctx context.Context, userID, sceneID int64, channelID string) (string, error) {
	scene, project, err := s.scenes.GetSceneProject(ctx, sceneID)
	if err != nil {
		return "", err
	}
	if err := s.gate.RequireEditor(ctx, project, userID); err != nil {
		return "", err
	}

	channel := livestate.NormalizeChannel(channelID)
	rooms := s.audience(ctx, project)

	s.store.SetSceneLive(project.Name, channel, sceneID, false)
	s.emitSceneLive(sceneID, false, channel, rooms)

	metrics.IncCommand("scene_out")
	slog.Info("Scene taken off air",
		"project", project.Name, "scene_id", scene.ID, "channel", channel, "user_id", userID)
	return channel, nil
}

// UpdateText sets the live text content of a text object.
func (s *LiveService) UpdateText(ctx context.Context, userID, objectID int64, projectName, channelID, content string) error {
	return s.updateProperty(ctx, userID, objectID, projectName, channelID,
		models.ObjectTypeText, "content", content)
}

// UpdateImage sets the live image source of an image object.
func (s *LiveService) UpdateImage(ctx context.Context, userID, objectID int64, projectName, channelID, src string) error {
	return s.updateProperty(ctx, userID, objectID, projectName, channelID,
		models.ObjectTypeImage, "src", src)
}

// UpdateShapeColor sets the live fill color of a shape object.
func (s *LiveService) UpdateShapeColor(ctx context.Context, userID, objectID int64, projectName, channelID, color string) error {
	return s.updateProperty(ctx, userID, objectID, projectName, channelID,
		models.ObjectTypeShape, "color", color)
}

// updateProperty is the shared path for live property overrides: resolve the
// object, check its persisted type, authorize, write the override, emit.
func (s *LiveService) updateProperty(ctx context.Context, userID, objectID int64, projectName, channelID, wantType, property string, value any) error {
	obj, project, err := s.resolveObject(ctx, objectID, projectName)
	if err != nil {
		return err
	}
	if obj.Type != wantType {
		return NewValidationError("object_id", fmt.Sprintf("object %d is not a %s object", objectID, wantType))
	}
	if err := s.gate.RequireEditor(ctx, project, userID); err != nil {
		return err
	}

	channel := livestate.NormalizeChannel(channelID)
	rooms := s.audience(ctx, project)

	s.store.UpdateObjectProperty(project.Name, channel, objectID, property, value)
	s.hub.Emit(events.EventObjectLiveUpdate, &events.ObjectLiveUpdatePayload{
		Type:      events.EventObjectLiveUpdate,
		ObjectID:  objectID,
		Property:  property,
		Value:     value,
		ChannelID: channel,
		Timestamp: eventTimestamp(),
	}, rooms...)

	metrics.IncCommand("object_" + wantType)
	return nil
}

// ControlTimer handles start, stop and reset for a timer object and returns
// the resulting timer state. A start picks up the display format from the
// object's persisted properties when the timer has not run before.
func (s *LiveService) ControlTimer(ctx context.Context, userID, objectID int64, projectName, channelID, action string) (livestate.TimerState, error) {
	obj, project, err := s.resolveObject(ctx, objectID, projectName)
	if err != nil {
		return livestate.TimerState{}, err
	}
	if obj.Type != models.ObjectTypeTimer {
		return livestate.TimerState{}, NewValidationError("object_id",
			fmt.Sprintf("object %d is not a timer object", objectID))
	}
	if err := s.gate.RequireEditor(ctx, project, userID); err != nil {
		return livestate.TimerState{}, err
	}

	channel := livestate.NormalizeChannel(channelID)

	var state livestate.TimerState
	switch action {
	case events.TimerActionStart:
		state = s.store.StartTimer(project.Name, channel, objectID, baselineTimerFormat(obj))
	case events.TimerActionStop:
		state = s.store.StopTimer(project.Name, channel, objectID)
	case events.TimerActionReset:
		state = s.store.ResetTimer(project.Name, channel, objectID)
	default:
		return livestate.TimerState{}, NewValidationError("action", "must be start, stop or reset")
	}

	rooms := s.audience(ctx, project)
	s.hub.Emit(events.EventTimerUpdate, &events.TimerUpdatePayload{
		Type:        events.EventTimerUpdate,
		ObjectID:    objectID,
		Action:      action,
		CurrentTime: state.CurrentTime,
		Elapsed:     state.Elapsed,
		TimeFormat:  state.TimeFormat,
		ChannelID:   channel,
		Timestamp:   eventTimestamp(),
	}, rooms...)

	metrics.IncCommand("timer_" + action)
	metrics.RunningTimers.Set(float64(s.store.RunningTimerCount()))
	slog.Info("Timer command applied",
		"project", project.Name, "object_id", objectID, "action", action, "channel", channel)
	return state, nil
}

// ClearLiveState drops a project's live state. An empty channel drops every
// channel under the project; a named channel drops only that one. Requires
// editor rights.
func (s *LiveService) ClearLiveState(ctx context.Context, userID int64, projectName, channelID string) error {
	project, err := s.projects.GetProjectByName(ctx, projectName)
	if err != nil {
		return err
	}
	if err := s.gate.RequireEditor(ctx, project, userID); err != nil {
		return err
	}

	rooms := s.audience(ctx, project)

	s.store.ClearProject(project.Name, channelID)
	s.hub.Emit(events.EventLiveStateCleared, &events.LiveStateClearedPayload{
		Type:        events.EventLiveStateCleared,
		ProjectName: project.Name,
		ChannelID:   channelID,
		Timestamp:   eventTimestamp(),
	}, rooms...)

	metrics.IncCommand("clear")
	metrics.RunningTimers.Set(float64(s.store.RunningTimerCount()))
	slog.Info("Live state cleared",
		"project", project.Name, "channel", channelID, "user_id", userID)
	return nil
}

// ProjectLiveState returns the scene flags and object overrides for one
// channel of a project. Requires viewer rights.
func (s *LiveService) ProjectLiveState(ctx context.Context, userID int64, projectName, channelID string) (*LiveStateSnapshot, error) {
	project, err := s.projects.GetProjectByName(ctx, projectName)
	if err != nil {
		return nil, err
	}
	if err := s.gate.RequireViewer(ctx, project, userID); err != nil {
		return nil, err
	}

	channel := livestate.NormalizeChannel(channelID)
	return &LiveStateSnapshot{
		ObjectStates: s.store.GetObjectOverrides(project.Name, channel),
		SceneStates:  s.store.GetSceneStates(project.Name, channel),
	}, nil
}

// MergedScene returns a scene's baseline content with the channel's live
// overrides merged over each object's properties key-by-key. Public: the
// overlay read path carries no principal.
func (s *LiveService) MergedScene(ctx context.Context, sceneID int64, channelID string) (*models.Scene, error) {
	scene, project, err := s.scenes.GetSceneProject(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	if err := s.scenes.LoadObjects(ctx, scene); err != nil {
		return nil, err
	}

	channel := livestate.NormalizeChannel(channelID)
	overrides := s.store.GetObjectOverrides(project.Name, channel)
	for _, obj := range scene.Objects {
		ov, ok := overrides[obj.ID]
		if !ok {
			continue
		}
		for key, value := range ov.Properties {
			obj.Properties[key] = value
		}
	}
	return scene, nil
}

// TimerTick implements livestate.TickSink: one per-second update for one
// running timer, fanned out to the same audience as control events. Failures
// are logged and never stop the ticker.
func (s *LiveService) TimerTick(ctx context.Context, projectName, channel string, objectID int64, state livestate.TimerState) {
	project, err := s.projects.GetProjectByName(ctx, projectName)
	if err != nil {
		slog.Warn("Timer tick dropped: project lookup failed",
			"project", projectName, "object_id", objectID, "error", err)
		return
	}

	rooms := s.audience(ctx, project)
	s.hub.Emit(events.EventTimerUpdate, &events.TimerUpdatePayload{
		Type:        events.EventTimerUpdate,
		ObjectID:    objectID,
		Action:      events.TimerActionUpdate,
		CurrentTime: state.CurrentTime,
		Elapsed:     state.Elapsed,
		TimeFormat:  state.TimeFormat,
		ChannelID:   channel,
		Timestamp:   eventTimestamp(),
	}, rooms...)
}

// resolveObject loads an object and its project, and checks the request's
// project scope against the object's actual project.
func (s *LiveService) resolveObject(ctx context.Context, objectID int64, projectName string) (*models.SceneObject, *models.Project, error) {
	if projectName == "" {
		return nil, nil, NewValidationError("project_name", "required")
	}
	obj, project, err := s.scenes.GetObjectProject(ctx, objectID)
	if err != nil {
		return nil, nil, err
	}
	if project.Name != projectName {
		return nil, nil, NewValidationError("project_name", "does not match the object's project")
	}
	return obj, project, nil
}

// audience is the fan-out set for one project's events: the workspace room,
// the owner's user room, and a user room per grant holder. Grant lookup
// failures degrade to the workspace and owner rooms.
func (s *LiveService) audience(ctx context.Context, project *models.Project) []events.Room {
	rooms := []events.Room{
		events.ProjectRoom(project.Name),
		events.UserRoom(project.OwnerID),
	}
	ids, err := s.projects.GrantedUserIDs(ctx, project.ID)
	if err != nil {
		slog.Warn("Failed to resolve fan-out audience",
			"project", project.Name, "error", err)
		return rooms
	}
	for _, id := range ids {
		if id != project.OwnerID {
			rooms = append(rooms, events.UserRoom(id))
		}
	}
	return rooms
}

func (s *LiveService) emitSceneLive(sceneID int64, isLive bool, channel string, rooms []events.Room) {
	s.hub.Emit(events.EventSceneLiveUpdate, &events.SceneLiveUpdatePayload{
		Type:      events.EventSceneLiveUpdate,
		SceneID:   sceneID,
		IsLive:    isLive,
		ChannelID: channel,
		Timestamp: eventTimestamp(),
	}, rooms...)
}

// baselineTimerFormat reads the display format a timer object was saved
// with. Editors store it in the properties record under "timeFormat".
func baselineTimerFormat(obj *models.SceneObject) string {
	if v, ok := obj.Properties["timeFormat"].(string); ok && v != "" {
		return v
	}
	return livestate.FormatMinSec
}

// eventTimestamp renders outbound event timestamps: UTC ISO-8601.
func eventTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

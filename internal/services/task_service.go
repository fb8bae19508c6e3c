package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server/internal/models"
	"github.com/studyhub/studyhub-server/internal/realtime"
	apperrors "github.com/studyhub/studyhub-server/pkg/errors"
)

// ErrTaskNotFound indicates the requested task does not exist in the group.
var ErrTaskNotFound = apperrors.New("TASK_NOT_FOUND", "Task not found", http.StatusNotFound)

// CreateTaskInput captures new task fields.
type CreateTaskInput struct {
	Title       string
	Description string
	DueAt       *time.Time
}

// TaskService manages the tasks of a study group. Every operation requires group membership.
type TaskService struct {
	db        *gorm.DB
	members   *MembershipService
	activity  *ActivityService
	publisher EventPublisher
}

// NewTaskService constructs a TaskService instance.
func NewTaskService(db *gorm.DB, members *MembershipService, activity *ActivityService, publisher EventPublisher) (*TaskService, error) {
	if db == nil {
		return nil, errors.New("task service: db is required")
	}
	if members == nil {
		return nil, errors.New("task service: membership service is required")
	}
	return &TaskService{db: db, members: members, activity: activity, publisher: publisher}, nil
}

// Create adds a TODO task to the group.
func (s *TaskService) Create(ctx context.Context, actorID, groupID string, input CreateTaskInput) (*models.Task, error) {
	ctx = ensureContext(ctx)

	if err := s.members.RequireMember(ctx, actorID, groupID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("task title is required")
	}

	task := &models.Task{
		GroupID:     strings.TrimSpace(groupID),
		CreatedByID: strings.TrimSpace(actorID),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      models.TaskTodo,
		DueAt:       input.DueAt,
	}

	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, fmt.Errorf("task service: create task: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   task.CreatedByID,
		GroupID:  task.GroupID,
		Action:   ActionTaskCreate,
		Detail:   task.Title,
		Metadata: map[string]any{"task_id": task.ID},
	})
	publishGroupEvent(s.publisher, task.GroupID, realtime.EventTaskCreated, task)

	return task, nil
}

// List returns the tasks of the group, optionally filtered by status.
func (s *TaskService) List(ctx context.Context, actorID, groupID string, status models.TaskStatus) ([]models.Task, error) {
	ctx = ensureContext(ctx)

	if err := s.members.RequireMember(ctx, actorID, groupID); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, apperrors.NewBadRequest("invalid task status")
	}

	query := s.db.WithContext(ctx).Where("group_id = ?", strings.TrimSpace(groupID))
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var tasks []models.Task
	if err := query.Order("created_at ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task service: list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateStatus moves a task to the supplied status.
func (s *TaskService) UpdateStatus(ctx context.Context, actorID, groupID, taskID string, status models.TaskStatus) (*models.Task, error) {
	ctx = ensureContext(ctx)

	if err := s.members.RequireMember(ctx, actorID, groupID); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperrors.NewBadRequest("invalid task status")
	}

	task, err := s.load(ctx, groupID, taskID)
	if err != nil {
		return nil, err
	}

	if task.Status == status {
		return task, nil
	}

	if err := s.db.WithContext(ctx).Model(task).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("task service: update status: %w", err)
	}
	previous := task.Status
	task.Status = status

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   strings.TrimSpace(actorID),
		GroupID:  task.GroupID,
		Action:   ActionTaskUpdate,
		Detail:   task.Title,
		Metadata: map[string]any{"task_id": task.ID, "from": previous, "to": status},
	})
	publishGroupEvent(s.publisher, task.GroupID, realtime.EventTaskUpdated, task)

	return task, nil
}

// Delete removes a task from the group.
func (s *TaskService) Delete(ctx context.Context, actorID, groupID, taskID string) error {
	ctx = ensureContext(ctx)

	if err := s.members.RequireMember(ctx, actorID, groupID); err != nil {
		return err
	}

	task, err := s.load(ctx, groupID, taskID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(task).Error; err != nil {
		return fmt.Errorf("task service: delete task: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		UserID:   strings.TrimSpace(actorID),
		GroupID:  task.GroupID,
		Action:   ActionTaskDelete,
		Detail:   task.Title,
		Metadata: map[string]any{"task_id": task.ID},
	})
	publishGroupEvent(s.publisher, task.GroupID, realtime.EventTaskDeleted, map[string]string{"task_id": task.ID})

	return nil
}

func (s *TaskService) load(ctx context.Context, groupID, taskID string) (*models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).
		Where("id = ? AND group_id = ?", strings.TrimSpace(taskID), strings.TrimSpace(groupID)).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("task service: load task: %w", err)
	}
	return &task, nil
}

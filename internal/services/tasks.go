package services

import (
	"context"
	"strings"
	"time"

	"taskflow/backend/internal/apperrors"
	"taskflow/backend/internal/models"
	"taskflow/backend/internal/repositories"
	"taskflow/backend/internal/utils"

	"github.com/gofrs/uuid"
)

// commentsPerTask bounds the comments embedded in a single task response.
const commentsPerTask = utils.MaxPageSize

type TaskService interface {
	Create(ctx context.Context, reporterID uuid.UUID, req CreateTaskRequest) (*TaskResponse, error)
	Get(ctx context.Context, actorID, id uuid.UUID) (*TaskResponse, error)
	List(ctx context.Context, filter repositories.TaskFilter, page utils.PageRequest) (utils.Page[TaskResponse], error)
	Update(ctx context.Context, actorID, id uuid.UUID, req UpdateTaskRequest) (*TaskResponse, error)
	UpdateStatus(ctx context.Context, actorID, id uuid.UUID, status models.TaskStatus) (*TaskResponse, error)
	UpdatePriority(ctx context.Context, actorID, id uuid.UUID, priority models.TaskPriority) (*TaskResponse, error)
	Assign(ctx context.Context, actorID, id, assigneeID uuid.UUID) (*TaskResponse, error)
	Unassign(ctx context.Context, actorID, id uuid.UUID) (*TaskResponse, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	Overdue(ctx context.Context, actorID uuid.UUID, page utils.PageRequest) (utils.Page[TaskResponse], error)
	DueBetween(ctx context.Context, actorID uuid.UUID, from, to time.Time, page utils.PageRequest) (utils.Page[TaskResponse], error)
	Search(ctx context.Context, actorID uuid.UUID, query string, page utils.PageRequest) (utils.Page[TaskResponse], error)
	Statistics(ctx context.Context, actorID, projectID uuid.UUID) (*TaskStatistics, error)
	Count(ctx context.Context, filter repositories.TaskFilter) (int64, error)
}

type TaskServiceImpl struct {
	tasks    repositories.TaskRepository
	projects repositories.ProjectRepository
	users    repositories.UserRepository
	comments repositories.CommentRepository
	now      func() time.Time
}

func NewTaskService(
	tasks repositories.TaskRepository,
	projects repositories.ProjectRepository,
	users repositories.UserRepository,
	comments repositories.CommentRepository,
) *TaskServiceImpl {
	return &TaskServiceImpl{tasks: tasks, projects: projects, users: users, comments: comments, now: time.Now}
}

func (s *TaskServiceImpl) load(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Task", "ID", id)
	}
	return task, nil
}

func (s *TaskServiceImpl) loadAccessible(ctx context.Context, actorID, id uuid.UUID) (*models.Task, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := RequireTaskAccess(actorID, task); err != nil {
		return nil, err
	}
	return task, nil
}

// assignable loads the user and checks they can see the project.
func (s *TaskServiceImpl) assignable(ctx context.Context, project *models.Project, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "User", "ID", userID)
	}
	if err := RequireProjectAccess(user.ID, project); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *TaskServiceImpl) save(ctx context.Context, task *models.Task) (*TaskResponse, error) {
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return s.respond(ctx, task.ID, false)
}

func (s *TaskServiceImpl) respond(ctx context.Context, id uuid.UUID, withComments bool) (*TaskResponse, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !withComments {
		return toTaskResponse(task, nil), nil
	}
	comments, _, err := s.comments.List(ctx, repositories.CommentFilter{TaskID: &id, Ascending: true}, utils.NewPageRequest(0, commentsPerTask))
	if err != nil {
		return nil, err
	}
	return toTaskResponse(task, comments), nil
}

// Create requires the reporter, and the assignee when one is given, to have
// access to the project. New tasks always start in TODO.
func (s *TaskServiceImpl) Create(ctx context.Context, reporterID uuid.UUID, req CreateTaskRequest) (*TaskResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperrors.Validation("title", "must not be blank")
	}

	project, err := s.projects.FindByID(ctx, req.ProjectID)
	if err != nil {
		return nil, notFoundAs(err, "Project", "ID", req.ProjectID)
	}
	reporter, err := s.assignable(ctx, project, reporterID)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       title,
		Description: req.Description,
		Status:      models.TaskTodo,
		Priority:    models.PriorityMedium,
		DueDate:     req.DueDate,
		ProjectID:   project.ID,
		ReporterID:  reporter.ID,
	}
	// The initial status is taken as given; transitions apply from here on.
	if req.Status != "" {
		status, err := models.ParseTaskStatus(req.Status)
		if err != nil {
			return nil, apperrors.Validation("status", err.Error())
		}
		task.Status = status
	}
	if req.Priority != "" {
		priority, err := models.ParseTaskPriority(req.Priority)
		if err != nil {
			return nil, apperrors.Validation("priority", err.Error())
		}
		task.Priority = priority
	}
	if req.AssigneeID != nil {
		assignee, err := s.assignable(ctx, project, *req.AssigneeID)
		if err != nil {
			return nil, err
		}
		task.AssigneeID = &assignee.ID
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return s.respond(ctx, task.ID, false)
}

func (s *TaskServiceImpl) Get(ctx context.Context, actorID, id uuid.UUID) (*TaskResponse, error) {
	if _, err := s.loadAccessible(ctx, actorID, id); err != nil {
		return nil, err
	}
	return s.respond(ctx, id, true)
}

func (s *TaskServiceImpl) List(ctx context.Context, filter repositories.TaskFilter, page utils.PageRequest) (utils.Page[TaskResponse], error) {
	page = page.Normalize()
	tasks, total, err := s.tasks.List(ctx, filter, page)
	if err != nil {
		return utils.Page[TaskResponse]{}, err
	}
	return utils.MapPage(utils.NewPage(tasks, page, total), func(t models.Task) TaskResponse {
		return *toTaskResponse(&t, nil)
	}), nil
}

// Update applies the set fields. A status change goes through the status
// machine and a new assignee must have project access.
func (s *TaskServiceImpl) Update(ctx context.Context, actorID, id uuid.UUID, req UpdateTaskRequest) (*TaskResponse, error) {
	task, err := s.loadAccessible(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperrors.Validation("title", "must not be blank")
		}
		task.Title = title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		status, err := models.ParseTaskStatus(*req.Status)
		if err != nil {
			return nil, apperrors.Validation("status", err.Error())
		}
		if err := ValidateStatusTransition(task.Status, status); err != nil {
			return nil, err
		}
		task.Status = status
	}
	if req.Priority != nil {
		priority, err := models.ParseTaskPriority(*req.Priority)
		if err != nil {
			return nil, apperrors.Validation("priority", err.Error())
		}
		task.Priority = priority
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.AssigneeID != nil && !task.IsAssignedTo(*req.AssigneeID) {
		assignee, err := s.assignable(ctx, task.Project, *req.AssigneeID)
		if err != nil {
			return nil, err
		}
		task.AssigneeID = &assignee.ID
		task.Assignee = nil
	}
	return s.save(ctx, task)
}

func (s *TaskServiceImpl) UpdateStatus(ctx context.Context, actorID, id uuid.UUID, status models.TaskStatus) (*TaskResponse, error) {
	task, err := s.loadAccessible(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateStatusTransition(task.Status, status); err != nil {
		return nil, err
	}
	task.Status = status
	return s.save(ctx, task)
}

func (s *TaskServiceImpl) UpdatePriority(ctx context.Context, actorID, id uuid.UUID, priority models.TaskPriority) (*TaskResponse, error) {
	task, err := s.loadAccessible(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	task.Priority = priority
	return s.save(ctx, task)
}

func (s *TaskServiceImpl) Assign(ctx context.Context, actorID, id, assigneeID uuid.UUID) (*TaskResponse, error) {
	task, err := s.loadAccessible(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	assignee, err := s.assignable(ctx, task.Project, assigneeID)
	if err != nil {
		return nil, err
	}
	task.AssigneeID = &assignee.ID
	task.Assignee = nil
	return s.save(ctx, task)
}

func (s *TaskServiceImpl) Unassign(ctx context.Context, actorID, id uuid.UUID) (*TaskResponse, error) {
	task, err := s.loadAccessible(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	task.AssigneeID = nil
	task.Assignee = nil
	return s.save(ctx, task)
}

// Delete refuses tasks that are in progress. Comments go with the task.
func (s *TaskServiceImpl) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	task, err := s.loadAccessible(ctx, actorID, id)
	if err != nil {
		return err
	}
	if task.Status == models.TaskInProgress {
		return apperrors.BusinessLogic("delete task", "task is currently in progress")
	}
	return notFoundAs(s.tasks.Delete(ctx, id), "Task", "ID", id)
}

func (s *TaskServiceImpl) Overdue(ctx context.Context, actorID uuid.UUID, page utils.PageRequest) (utils.Page[TaskResponse], error) {
	now := s.now()
	return s.List(ctx, repositories.TaskFilter{AccessibleBy: &actorID, OverdueAt: &now}, page)
}

func (s *TaskServiceImpl) DueBetween(ctx context.Context, actorID uuid.UUID, from, to time.Time, page utils.PageRequest) (utils.Page[TaskResponse], error) {
	if to.Before(from) {
		return utils.Page[TaskResponse]{}, apperrors.Validation("to", "must not be before from")
	}
	return s.List(ctx, repositories.TaskFilter{AccessibleBy: &actorID, DueFrom: &from, DueTo: &to}, page)
}

func (s *TaskServiceImpl) Search(ctx context.Context, actorID uuid.UUID, query string, page utils.PageRequest) (utils.Page[TaskResponse], error) {
	return s.List(ctx, repositories.TaskFilter{AccessibleBy: &actorID, Search: query}, page)
}

// Statistics counts a project's tasks per status. The actor needs project
// access.
func (s *TaskServiceImpl) Statistics(ctx context.Context, actorID, projectID uuid.UUID) (*TaskStatistics, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, notFoundAs(err, "Project", "ID", projectID)
	}
	if err := RequireProjectAccess(actorID, project); err != nil {
		return nil, err
	}

	filter := repositories.TaskFilter{ProjectID: &projectID}
	byStatus, err := s.tasks.CountByStatus(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	filter.OverdueAt = &now
	overdue, err := s.tasks.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	stats := &TaskStatistics{ProjectID: projectID, ByStatus: byStatus, Overdue: overdue}
	for _, n := range byStatus {
		stats.Total += n
	}
	return stats, nil
}

func (s *TaskServiceImpl) Count(ctx context.Context, filter repositories.TaskFilter) (int64, error) {
	return s.tasks.Count(ctx, filter)
}

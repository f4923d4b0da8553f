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

type ProjectService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req CreateProjectRequest) (*ProjectResponse, error)
	Get(ctx context.Context, actorID, id uuid.UUID) (*ProjectResponse, error)
	List(ctx context.Context, filter repositories.ProjectFilter, page utils.PageRequest) (utils.Page[ProjectResponse], error)
	Update(ctx context.Context, actorID, id uuid.UUID, req UpdateProjectRequest) (*ProjectResponse, error)
	UpdateStatus(ctx context.Context, actorID, id uuid.UUID, status models.ProjectStatus) (*ProjectResponse, error)
	AddMembers(ctx context.Context, actorID, id uuid.UUID, userIDs []uuid.UUID) (*ProjectResponse, error)
	RemoveMembers(ctx context.Context, actorID, id uuid.UUID, userIDs []uuid.UUID) (*ProjectResponse, error)
	Members(ctx context.Context, actorID, id uuid.UUID, page utils.PageRequest) (utils.Page[UserResponse], error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	Overdue(ctx context.Context, actorID uuid.UUID, page utils.PageRequest) (utils.Page[ProjectResponse], error)
	DueBetween(ctx context.Context, actorID uuid.UUID, from, to time.Time, page utils.PageRequest) (utils.Page[ProjectResponse], error)
	Search(ctx context.Context, actorID uuid.UUID, query string, page utils.PageRequest) (utils.Page[ProjectResponse], error)
	Statistics(ctx context.Context, actorID uuid.UUID) (*ProjectStatistics, error)
	Count(ctx context.Context, filter repositories.ProjectFilter) (int64, error)
}

type ProjectServiceImpl struct {
	projects repositories.ProjectRepository
	users    repositories.UserRepository
	tasks    repositories.TaskRepository
	now      func() time.Time
}

func NewProjectService(projects repositories.ProjectRepository, users repositories.UserRepository, tasks repositories.TaskRepository) *ProjectServiceImpl {
	return &ProjectServiceImpl{projects: projects, users: users, tasks: tasks, now: time.Now}
}

func (s *ProjectServiceImpl) load(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Project", "ID", id)
	}
	return project, nil
}

// loadAccessible loads the project and checks the actor is its owner or a
// member.
func (s *ProjectServiceImpl) loadAccessible(ctx context.Context, actorID, id uuid.UUID) (*models.Project, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := RequireProjectAccess(actorID, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectServiceImpl) loadUsers(ctx context.Context, ids []uuid.UUID) ([]*models.User, error) {
	seen := make(map[uuid.UUID]bool, len(ids))
	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		user, err := s.users.FindByID(ctx, id)
		if err != nil {
			return nil, notFoundAs(err, "User", "ID", id)
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *ProjectServiceImpl) respond(ctx context.Context, id uuid.UUID) (*ProjectResponse, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, project)
}

func (s *ProjectServiceImpl) toResponse(ctx context.Context, project *models.Project) (*ProjectResponse, error) {
	tasksCount, err := s.tasks.Count(ctx, repositories.TaskFilter{ProjectID: &project.ID})
	if err != nil {
		return nil, err
	}
	return toProjectResponse(project, tasksCount), nil
}

func (s *ProjectServiceImpl) Create(ctx context.Context, ownerID uuid.UUID, req CreateProjectRequest) (*ProjectResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("name", "must not be blank")
	}
	if _, err := s.users.FindByID(ctx, ownerID); err != nil {
		return nil, notFoundAs(err, "User", "ID", ownerID)
	}
	members, err := s.loadUsers(ctx, req.MemberIDs)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:        name,
		Description: req.Description,
		Deadline:    req.Deadline,
		OwnerID:     ownerID,
	}
	for _, member := range members {
		project.Members = append(project.Members, *member)
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return s.respond(ctx, project.ID)
}

func (s *ProjectServiceImpl) Get(ctx context.Context, actorID, id uuid.UUID) (*ProjectResponse, error) {
	project, err := s.loadAccessible(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, project)
}

func (s *ProjectServiceImpl) List(ctx context.Context, filter repositories.ProjectFilter, page utils.PageRequest) (utils.Page[ProjectResponse], error) {
	page = page.Normalize()
	projects, total, err := s.projects.List(ctx, filter, page)
	if err != nil {
		return utils.Page[ProjectResponse]{}, err
	}

	content := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		resp, err := s.toResponse(ctx, &projects[i])
		if err != nil {
			return utils.Page[ProjectResponse]{}, err
		}
		content = append(content, *resp)
	}
	return utils.NewPage(content, page, total), nil
}

func (s *ProjectServiceImpl) Update(ctx context.Context, actorID, id uuid.UUID, req UpdateProjectRequest) (*ProjectResponse, error) {
	project, err := s.loadAccessible(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.Validation("name", "must not be blank")
		}
		project.Name = name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil {
		status, err := models.ParseProjectStatus(*req.Status)
		if err != nil {
			return nil, apperrors.Validation("status", err.Error())
		}
		project.Status = status
	}
	if req.Deadline != nil {
		project.Deadline = req.Deadline
	}

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	if req.MemberIDs != nil {
		members, err := s.loadUsers(ctx, req.MemberIDs)
		if err != nil {
			return nil, err
		}
		if err := s.projects.ReplaceMembers(ctx, project, members...); err != nil {
			return nil, err
		}
	}
	return s.respond(ctx, id)
}

func (s *ProjectServiceImpl) UpdateStatus(ctx context.Context, actorID, id uuid.UUID, status models.ProjectStatus) (*ProjectResponse, error) {
	project, err := s.loadAccessible(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	project.Status = status
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, project)
}

func (s *ProjectServiceImpl) AddMembers(ctx context.Context, actorID, id uuid.UUID, userIDs []uuid.UUID) (*ProjectResponse, error) {
	project, err := s.loadAccessible(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	users, err := s.loadUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	var added []*models.User
	for _, user := range users {
		if !project.IsMember(user.ID) {
			added = append(added, user)
		}
	}
	if err := s.projects.AddMembers(ctx, project, added...); err != nil {
		return nil, err
	}
	return s.respond(ctx, id)
}

func (s *ProjectServiceImpl) RemoveMembers(ctx context.Context, actorID, id uuid.UUID, userIDs []uuid.UUID) (*ProjectResponse, error) {
	project, err := s.loadAccessible(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	var removed []*models.User
	for i := range project.Members {
		for _, userID := range userIDs {
			if project.Members[i].ID == userID {
				removed = append(removed, &project.Members[i])
			}
		}
	}
	if err := s.projects.RemoveMembers(ctx, project, removed...); err != nil {
		return nil, err
	}
	return s.respond(ctx, id)
}

// Members lists the owner and members of a project.
func (s *ProjectServiceImpl) Members(ctx context.Context, actorID, id uuid.UUID, page utils.PageRequest) (utils.Page[UserResponse], error) {
	if _, err := s.loadAccessible(ctx, actorID, id); err != nil {
		return utils.Page[UserResponse]{}, err
	}
	page = page.Normalize()
	users, total, err := s.users.List(ctx, repositories.UserFilter{ProjectID: &id}, page)
	if err != nil {
		return utils.Page[UserResponse]{}, err
	}
	return utils.MapPage(utils.NewPage(users, page, total), func(u models.User) UserResponse {
		return *toUserResponse(&u)
	}), nil
}

// Delete is reserved to the owner and removes every task and comment of the
// project.
func (s *ProjectServiceImpl) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	project, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := RequireProjectOwner(actorID, project, "delete"); err != nil {
		return err
	}
	return notFoundAs(s.projects.Delete(ctx, id), "Project", "ID", id)
}

func (s *ProjectServiceImpl) Overdue(ctx context.Context, actorID uuid.UUID, page utils.PageRequest) (utils.Page[ProjectResponse], error) {
	now := s.now()
	return s.List(ctx, repositories.ProjectFilter{InvolvedUserID: &actorID, OverdueAt: &now}, page)
}

func (s *ProjectServiceImpl) DueBetween(ctx context.Context, actorID uuid.UUID, from, to time.Time, page utils.PageRequest) (utils.Page[ProjectResponse], error) {
	if to.Before(from) {
		return utils.Page[ProjectResponse]{}, apperrors.Validation("to", "must not be before from")
	}
	return s.List(ctx, repositories.ProjectFilter{InvolvedUserID: &actorID, DeadlineFrom: &from, DeadlineTo: &to}, page)
}

func (s *ProjectServiceImpl) Search(ctx context.Context, actorID uuid.UUID, query string, page utils.PageRequest) (utils.Page[ProjectResponse], error) {
	return s.List(ctx, repositories.ProjectFilter{InvolvedUserID: &actorID, Search: query}, page)
}

// Statistics covers every project the actor owns or belongs to.
func (s *ProjectServiceImpl) Statistics(ctx context.Context, actorID uuid.UUID) (*ProjectStatistics, error) {
	filter := repositories.ProjectFilter{InvolvedUserID: &actorID}
	byStatus, err := s.projects.CountByStatus(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := s.now()
	filter.OverdueAt = &now
	overdue, err := s.projects.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	stats := &ProjectStatistics{ByStatus: byStatus, Overdue: overdue}
	for _, n := range byStatus {
		stats.Total += n
	}
	return stats, nil
}

func (s *ProjectServiceImpl) Count(ctx context.Context, filter repositories.ProjectFilter) (int64, error) {
	return s.projects.Count(ctx, filter)
}

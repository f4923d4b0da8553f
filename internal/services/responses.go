package services

import (
	"time"

	"taskflow/backend/internal/models"

	"github.com/gofrs/uuid"
)

type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Roles     []string  `json:"roles"`
	Enabled   bool      `json:"enabled"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Roles     []string  `json:"roles"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthResponse carries a token pair. ExpiresIn is the access token lifetime
// in milliseconds.
type AuthResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	TokenType    string      `json:"tokenType"`
	ExpiresIn    int64       `json:"expiresIn"`
	User         UserSummary `json:"user"`
}

type ProjectSummary struct {
	ID         uuid.UUID            `json:"id"`
	Name       string               `json:"name"`
	Status     models.ProjectStatus `json:"status"`
	Deadline   *time.Time           `json:"deadline,omitempty"`
	Owner      *UserSummary         `json:"owner,omitempty"`
	TasksCount int64                `json:"tasksCount"`
}

type ProjectResponse struct {
	ID          uuid.UUID            `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Status      models.ProjectStatus `json:"status"`
	Deadline    *time.Time           `json:"deadline,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
	Owner       *UserSummary         `json:"owner,omitempty"`
	Members     []UserSummary        `json:"members"`
	TasksCount  int64                `json:"tasksCount"`
}

type TaskResponse struct {
	ID          uuid.UUID           `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"dueDate,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
	Project     *ProjectSummary     `json:"project,omitempty"`
	Assignee    *UserSummary        `json:"assignee,omitempty"`
	Reporter    *UserSummary        `json:"reporter,omitempty"`
	Comments    []CommentResponse   `json:"comments,omitempty"`
}

type CommentResponse struct {
	ID        uuid.UUID    `json:"id"`
	Content   string       `json:"content"`
	TaskID    uuid.UUID    `json:"taskId"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Author    *UserSummary `json:"author,omitempty"`
}

type ProjectStatistics struct {
	Total    int64                          `json:"total"`
	ByStatus map[models.ProjectStatus]int64 `json:"byStatus"`
	Overdue  int64                          `json:"overdue"`
}

type TaskStatistics struct {
	ProjectID uuid.UUID                   `json:"projectId"`
	Total     int64                       `json:"total"`
	ByStatus  map[models.TaskStatus]int64 `json:"byStatus"`
	Overdue   int64                       `json:"overdue"`
}

func toUserSummary(user *models.User) *UserSummary {
	if user == nil {
		return nil
	}
	return &UserSummary{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Roles:     user.Roles.Strings(),
		Enabled:   user.Enabled,
	}
}

func toUserResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Roles:     user.Roles.Strings(),
		Enabled:   user.Enabled,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func toProjectSummary(project *models.Project, tasksCount int64) *ProjectSummary {
	if project == nil {
		return nil
	}
	return &ProjectSummary{
		ID:         project.ID,
		Name:       project.Name,
		Status:     project.Status,
		Deadline:   project.Deadline,
		Owner:      toUserSummary(project.Owner),
		TasksCount: tasksCount,
	}
}

func toProjectResponse(project *models.Project, tasksCount int64) *ProjectResponse {
	members := make([]UserSummary, 0, len(project.Members))
	for i := range project.Members {
		members = append(members, *toUserSummary(&project.Members[i]))
	}
	return &ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Status:      project.Status,
		Deadline:    project.Deadline,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
		Owner:       toUserSummary(project.Owner),
		Members:     members,
		TasksCount:  tasksCount,
	}
}

func toTaskResponse(task *models.Task, comments []models.Comment) *TaskResponse {
	resp := &TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		Project:     toProjectSummary(task.Project, 0),
		Assignee:    toUserSummary(task.Assignee),
		Reporter:    toUserSummary(task.Reporter),
	}
	for i := range comments {
		resp.Comments = append(resp.Comments, *toCommentResponse(&comments[i]))
	}
	return resp
}

func toCommentResponse(comment *models.Comment) *CommentResponse {
	return &CommentResponse{
		ID:        comment.ID,
		Content:   comment.Content,
		TaskID:    comment.TaskID,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
		Author:    toUserSummary(comment.Author),
	}
}

package services

import (
	"time"

	"github.com/gofrs/uuid"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=50"`
	Email     string `json:"email" binding:"required,email,max=100"`
	Password  string `json:"password" binding:"required,min=8,max=100"`
	FirstName string `json:"firstName" binding:"required,max=50"`
	LastName  string `json:"lastName" binding:"required,max=50"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=100"`
}

type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type CreateUserRequest struct {
	Username  string   `json:"username" binding:"required,min=3,max=50"`
	Email     string   `json:"email" binding:"required,email,max=100"`
	Password  string   `json:"password" binding:"required,min=8,max=100"`
	FirstName string   `json:"firstName" binding:"required,max=50"`
	LastName  string   `json:"lastName" binding:"required,max=50"`
	Roles     []string `json:"roles"`
	Enabled   *bool    `json:"enabled"`
}

type UpdateUserRequest struct {
	Username  *string `json:"username" binding:"omitempty,min=3,max=50"`
	Email     *string `json:"email" binding:"omitempty,email,max=100"`
	Password  *string `json:"password" binding:"omitempty,min=8,max=100"`
	FirstName *string `json:"firstName" binding:"omitempty,max=50"`
	LastName  *string `json:"lastName" binding:"omitempty,max=50"`
	Enabled   *bool   `json:"enabled"`
}

type RoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type CreateProjectRequest struct {
	Name        string      `json:"name" binding:"required,max=100"`
	Description string      `json:"description" binding:"max=1000"`
	Deadline    *time.Time  `json:"deadline"`
	MemberIDs   []uuid.UUID `json:"memberIds"`
}

// UpdateProjectRequest changes only the fields that are set. A non-nil empty
// MemberIDs clears the member list.
type UpdateProjectRequest struct {
	Name        *string     `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string     `json:"description" binding:"omitempty,max=1000"`
	Status      *string     `json:"status"`
	Deadline    *time.Time  `json:"deadline"`
	MemberIDs   []uuid.UUID `json:"memberIds"`
}

type ProjectStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type MembersRequest struct {
	UserIDs []uuid.UUID `json:"userIds" binding:"required,min=1"`
}

type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description" binding:"max=2000"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	ProjectID   uuid.UUID  `json:"projectId" binding:"required"`
	AssigneeID  *uuid.UUID `json:"assigneeId"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	AssigneeID  *uuid.UUID `json:"assigneeId"`
}

type TaskStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type TaskPriorityRequest struct {
	Priority string `json:"priority" binding:"required"`
}

type AssignTaskRequest struct {
	AssigneeID uuid.UUID `json:"assigneeId" binding:"required"`
}

type CreateCommentRequest struct {
	Content string    `json:"content" binding:"required,max=1000"`
	TaskID  uuid.UUID `json:"taskId" binding:"required"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required,max=1000"`
}

package services

import (
	"fmt"

	"taskflow/backend/internal/apperrors"
	"taskflow/backend/internal/models"

	"github.com/gofrs/uuid"
)

// CanAccessProject holds for the owner and for members.
func CanAccessProject(userID uuid.UUID, project *models.Project) bool {
	if project == nil {
		return false
	}
	return project.IsOwner(userID) || project.IsMember(userID)
}

// CanAccessTask holds for anyone with project access and for the task's
// assignee and reporter.
func CanAccessTask(userID uuid.UUID, task *models.Task) bool {
	if task == nil {
		return false
	}
	if task.ReporterID == userID || task.IsAssignedTo(userID) {
		return true
	}
	return CanAccessProject(userID, task.Project)
}

func CanAccessComment(userID uuid.UUID, comment *models.Comment) bool {
	if comment == nil {
		return false
	}
	return CanAccessTask(userID, comment.Task)
}

func IsCommentAuthor(userID uuid.UUID, comment *models.Comment) bool {
	return comment != nil && comment.AuthorID == userID
}

func RequireProjectAccess(userID uuid.UUID, project *models.Project) error {
	if !CanAccessProject(userID, project) {
		return apperrors.BusinessLogic("access project", "user is not a member or owner of the project")
	}
	return nil
}

func RequireTaskAccess(userID uuid.UUID, task *models.Task) error {
	if !CanAccessTask(userID, task) {
		return apperrors.BusinessLogic("access task", "user does not have permission to access this task")
	}
	return nil
}

func RequireCommentAuthor(userID uuid.UUID, comment *models.Comment, action string) error {
	if !IsCommentAuthor(userID, comment) {
		return apperrors.AccessDenied(action, fmt.Sprintf("comment - only author can %s their own comments", action))
	}
	return nil
}

func RequireProjectOwner(userID uuid.UUID, project *models.Project, action string) error {
	if project == nil || !project.IsOwner(userID) {
		return apperrors.AccessDenied(action, fmt.Sprintf("project - only the owner can %s the project", action))
	}
	return nil
}

// ValidateStatusTransition rejects every move the task status machine does
// not allow, including staying in the same status.
func ValidateStatusTransition(from, to models.TaskStatus) error {
	if !from.CanTransitionTo(to) {
		return apperrors.BusinessLogic("change task status", fmt.Sprintf("invalid transition from %s to %s", from, to))
	}
	return nil
}

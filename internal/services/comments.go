package services

import (
	"context"
	"strings"

	"taskflow/backend/internal/apperrors"
	"taskflow/backend/internal/models"
	"taskflow/backend/internal/repositories"
	"taskflow/backend/internal/utils"

	"github.com/gofrs/uuid"
)

type CommentService interface {
	Create(ctx context.Context, authorID uuid.UUID, req CreateCommentRequest) (*CommentResponse, error)
	Get(ctx context.Context, actorID, id uuid.UUID) (*CommentResponse, error)
	List(ctx context.Context, filter repositories.CommentFilter, page utils.PageRequest) (utils.Page[CommentResponse], error)
	ListTaskComments(ctx context.Context, actorID, taskID uuid.UUID, filter repositories.CommentFilter, page utils.PageRequest) (utils.Page[CommentResponse], error)
	Update(ctx context.Context, actorID, id uuid.UUID, req UpdateCommentRequest) (*CommentResponse, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	IsCommentAuthor(ctx context.Context, userID, id uuid.UUID) (bool, error)
	CanUserAccessComment(ctx context.Context, userID, id uuid.UUID) (bool, error)
	Count(ctx context.Context, filter repositories.CommentFilter) (int64, error)
}

type CommentServiceImpl struct {
	comments repositories.CommentRepository
	tasks    repositories.TaskRepository
}

func NewCommentService(comments repositories.CommentRepository, tasks repositories.TaskRepository) *CommentServiceImpl {
	return &CommentServiceImpl{comments: comments, tasks: tasks}
}

func (s *CommentServiceImpl) load(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Comment", "ID", id)
	}
	return comment, nil
}

func (s *CommentServiceImpl) loadTask(ctx context.Context, actorID, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, notFoundAs(err, "Task", "ID", taskID)
	}
	if err := RequireTaskAccess(actorID, task); err != nil {
		return nil, err
	}
	return task, nil
}

func validContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperrors.Validation("content", "must not be blank")
	}
	return content, nil
}

// Create requires the author to have access to the task.
func (s *CommentServiceImpl) Create(ctx context.Context, authorID uuid.UUID, req CreateCommentRequest) (*CommentResponse, error) {
	content, err := validContent(req.Content)
	if err != nil {
		return nil, err
	}
	task, err := s.loadTask(ctx, authorID, req.TaskID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{Content: content, TaskID: task.ID, AuthorID: authorID}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	created, err := s.load(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	return toCommentResponse(created), nil
}

func (s *CommentServiceImpl) Get(ctx context.Context, actorID, id uuid.UUID) (*CommentResponse, error) {
	comment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := RequireTaskAccess(actorID, comment.Task); err != nil {
		return nil, err
	}
	return toCommentResponse(comment), nil
}

func (s *CommentServiceImpl) List(ctx context.Context, filter repositories.CommentFilter, page utils.PageRequest) (utils.Page[CommentResponse], error) {
	page = page.Normalize()
	comments, total, err := s.comments.List(ctx, filter, page)
	if err != nil {
		return utils.Page[CommentResponse]{}, err
	}
	return utils.MapPage(utils.NewPage(comments, page, total), func(c models.Comment) CommentResponse {
		return *toCommentResponse(&c)
	}), nil
}

// ListTaskComments pages through one task's comments, oldest first when
// filter.Ascending is set.
func (s *CommentServiceImpl) ListTaskComments(ctx context.Context, actorID, taskID uuid.UUID, filter repositories.CommentFilter, page utils.PageRequest) (utils.Page[CommentResponse], error) {
	if _, err := s.loadTask(ctx, actorID, taskID); err != nil {
		return utils.Page[CommentResponse]{}, err
	}
	filter.TaskID = &taskID
	return s.List(ctx, filter, page)
}

// Update is allowed for the author only.
func (s *CommentServiceImpl) Update(ctx context.Context, actorID, id uuid.UUID, req UpdateCommentRequest) (*CommentResponse, error) {
	comment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := RequireCommentAuthor(actorID, comment, "update"); err != nil {
		return nil, err
	}
	content, err := validContent(req.Content)
	if err != nil {
		return nil, err
	}

	comment.Content = content
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}
	return toCommentResponse(comment), nil
}

func (s *CommentServiceImpl) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	comment, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := RequireCommentAuthor(actorID, comment, "delete"); err != nil {
		return err
	}
	return notFoundAs(s.comments.Delete(ctx, id), "Comment", "ID", id)
}

func (s *CommentServiceImpl) IsCommentAuthor(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	comment, err := s.load(ctx, id)
	if err != nil {
		return false, err
	}
	return IsCommentAuthor(userID, comment), nil
}

func (s *CommentServiceImpl) CanUserAccessComment(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	comment, err := s.load(ctx, id)
	if err != nil {
		return false, err
	}
	return CanAccessComment(userID, comment), nil
}

func (s *CommentServiceImpl) Count(ctx context.Context, filter repositories.CommentFilter) (int64, error) {
	return s.comments.Count(ctx, filter)
}

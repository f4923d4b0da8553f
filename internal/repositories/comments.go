package repositories

import (
	"context"

	"taskflow/backend/internal/models"
	"taskflow/backend/internal/utils"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var commentPreloads = []string{"Author", "Task", "Task.Project", "Task.Project.Members"}

type GormCommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *GormCommentRepository {
	return &GormCommentRepository{db: db}
}

func (r *GormCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return translate("create comment", r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error)
}

func (r *GormCommentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	query := r.db.WithContext(ctx)
	for _, p := range commentPreloads {
		query = query.Preload(p)
	}

	var comment models.Comment
	if err := query.First(&comment, "id = ?", id).Error; err != nil {
		return nil, translate("find comment", err)
	}
	return &comment, nil
}

func (r *GormCommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	return translate("update comment", r.db.WithContext(ctx).Omit(clause.Associations).Save(comment).Error)
}

func (r *GormCommentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", id)
	if result.Error != nil {
		return translate("delete comment", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormCommentRepository) filtered(ctx context.Context, filter CommentFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Comment{})

	if filter.TaskID != nil {
		query = query.Where("comments.task_id = ?", *filter.TaskID)
	}
	if filter.AuthorID != nil {
		query = query.Where("comments.author_id = ?", *filter.AuthorID)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(comments.content) LIKE ?", likePattern(filter.Search))
	}
	if filter.CreatedFrom != nil {
		query = query.Where("comments.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("comments.created_at <= ?", *filter.CreatedTo)
	}
	return query
}

func (r *GormCommentRepository) List(ctx context.Context, filter CommentFilter, page utils.PageRequest) ([]models.Comment, int64, error) {
	order := "comments.created_at DESC"
	if filter.Ascending {
		order = "comments.created_at ASC"
	}
	comments, total, err := paged[models.Comment](r.filtered(ctx, filter), page, order, "Author")
	return comments, total, translate("list comments", err)
}

func (r *GormCommentRepository) Count(ctx context.Context, filter CommentFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, translate("count comments", err)
}

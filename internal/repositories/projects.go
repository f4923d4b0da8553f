package repositories

import (
	"context"

	"taskflow/backend/internal/models"
	"taskflow/backend/internal/utils"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var projectSortColumns = map[string]string{
	"name":      "projects.name",
	"status":    "projects.status",
	"deadline":  "projects.deadline",
	"createdAt": "projects.created_at",
	"updatedAt": "projects.updated_at",
}

type GormProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create inserts the project and links any members already set on it.
// Member rows themselves are never written here.
func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project) error {
	err := r.db.WithContext(ctx).Omit("Owner", "Members.*").Create(project).Error
	return translate("create project", err)
}

func (r *GormProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("users.username ASC") }).
		First(&project, "id = ?", id).Error
	if err != nil {
		return nil, translate("find project", err)
	}
	return &project, nil
}

func (r *GormProjectRepository) Update(ctx context.Context, project *models.Project) error {
	return translate("update project", r.db.WithContext(ctx).Omit(clause.Associations).Save(project).Error)
}

// Delete removes the project with its tasks, their comments and the member
// links in one transaction.
func (r *GormProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taskIDs := tx.Model(&models.Task{}).Select("id").Where("project_id = ?", id)
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.Comment{}).Error; err != nil {
			return translate("delete project comments", err)
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return translate("delete project tasks", err)
		}
		if err := tx.Exec("DELETE FROM project_members WHERE project_id = ?", id).Error; err != nil {
			return translate("delete project members", err)
		}

		result := tx.Delete(&models.Project{}, "id = ?", id)
		if result.Error != nil {
			return translate("delete project", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormProjectRepository) filtered(ctx context.Context, filter ProjectFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Project{})

	if filter.OwnerID != nil {
		query = query.Where("projects.owner_id = ?", *filter.OwnerID)
	}
	if filter.MemberID != nil {
		memberOf := r.db.Table("project_members").Select("project_id").Where("user_id = ?", *filter.MemberID)
		query = query.Where("projects.id IN (?)", memberOf)
	}
	if filter.InvolvedUserID != nil {
		memberOf := r.db.Table("project_members").Select("project_id").Where("user_id = ?", *filter.InvolvedUserID)
		query = query.Where("projects.owner_id = ? OR projects.id IN (?)", *filter.InvolvedUserID, memberOf)
	}
	if filter.Status != nil {
		query = query.Where("projects.status = ?", *filter.Status)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(projects.name) LIKE ? OR LOWER(projects.description) LIKE ?", pattern, pattern)
	}
	if filter.DeadlineFrom != nil {
		query = query.Where("projects.deadline >= ?", *filter.DeadlineFrom)
	}
	if filter.DeadlineTo != nil {
		query = query.Where("projects.deadline <= ?", *filter.DeadlineTo)
	}
	if filter.OverdueAt != nil {
		query = query.Where("projects.deadline < ? AND projects.status <> ?", *filter.OverdueAt, models.ProjectCompleted)
	}
	return query
}

func (r *GormProjectRepository) List(ctx context.Context, filter ProjectFilter, page utils.PageRequest) ([]models.Project, int64, error) {
	projects, total, err := paged[models.Project](
		r.filtered(ctx, filter), page,
		page.OrderBy(projectSortColumns, "projects.created_at DESC"),
		"Owner", "Members",
	)
	return projects, total, translate("list projects", err)
}

func (r *GormProjectRepository) Count(ctx context.Context, filter ProjectFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, translate("count projects", err)
}

func (r *GormProjectRepository) CountByStatus(ctx context.Context, filter ProjectFilter) (map[models.ProjectStatus]int64, error) {
	var rows []struct {
		Status models.ProjectStatus
		Total  int64
	}
	err := r.filtered(ctx, filter).
		Select("projects.status AS status, COUNT(*) AS total").
		Group("projects.status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate("count projects by status", err)
	}

	counts := make(map[models.ProjectStatus]int64, len(models.ProjectStatuses))
	for _, status := range models.ProjectStatuses {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (r *GormProjectRepository) AddMembers(ctx context.Context, project *models.Project, users ...*models.User) error {
	if len(users) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(project).Omit("Members.*").Association("Members").Append(users)
	return translate("add project members", err)
}

func (r *GormProjectRepository) RemoveMembers(ctx context.Context, project *models.Project, users ...*models.User) error {
	if len(users) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(project).Association("Members").Delete(users)
	return translate("remove project members", err)
}

// ReplaceMembers swaps the whole member set for the given users.
func (r *GormProjectRepository) ReplaceMembers(ctx context.Context, project *models.Project, users ...*models.User) error {
	assoc := r.db.WithContext(ctx).Model(project).Omit("Members.*").Association("Members")
	if len(users) == 0 {
		return translate("clear project members", assoc.Clear())
	}
	return translate("replace project members", assoc.Replace(users))
}

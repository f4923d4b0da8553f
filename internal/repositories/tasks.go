package repositories

import (
	"context"

	"taskflow/backend/internal/models"
	"taskflow/backend/internal/utils"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var taskSortColumns = map[string]string{
	"title":     "tasks.title",
	"status":    "tasks.status",
	"priority":  "tasks.priority",
	"dueDate":   "tasks.due_date",
	"createdAt": "tasks.created_at",
	"updatedAt": "tasks.updated_at",
}

var taskPreloads = []string{"Project", "Project.Members", "Reporter", "Assignee"}

type GormTaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return translate("create task", r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error)
}

// FindByID loads the task with its project (including members), reporter
// and assignee so access checks need no further queries.
func (r *GormTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := r.db.WithContext(ctx)
	for _, p := range taskPreloads {
		query = query.Preload(p)
	}

	var task models.Task
	if err := query.First(&task, "id = ?", id).Error; err != nil {
		return nil, translate("find task", err)
	}
	return &task, nil
}

func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	return translate("update task", r.db.WithContext(ctx).Omit(clause.Associations).Save(task).Error)
}

func (r *GormTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return translate("delete task comments", err)
		}
		result := tx.Delete(&models.Task{}, "id = ?", id)
		if result.Error != nil {
			return translate("delete task", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormTaskRepository) filtered(ctx context.Context, filter TaskFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Task{})

	if filter.ProjectID != nil {
		query = query.Where("tasks.project_id = ?", *filter.ProjectID)
	}
	if filter.AssigneeID != nil {
		query = query.Where("tasks.assignee_id = ?", *filter.AssigneeID)
	}
	if filter.Unassigned {
		query = query.Where("tasks.assignee_id IS NULL")
	}
	if filter.ReporterID != nil {
		query = query.Where("tasks.reporter_id = ?", *filter.ReporterID)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.DueFrom != nil {
		query = query.Where("tasks.due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("tasks.due_date <= ?", *filter.DueTo)
	}
	if filter.OverdueAt != nil {
		query = query.Where("tasks.due_date < ? AND tasks.status NOT IN ?",
			*filter.OverdueAt, []models.TaskStatus{models.TaskDone, models.TaskCancelled})
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(tasks.title) LIKE ? OR LOWER(tasks.description) LIKE ?", pattern, pattern)
	}
	if filter.AccessibleBy != nil {
		userID := *filter.AccessibleBy
		memberOf := r.db.Table("project_members").Select("project_id").Where("user_id = ?", userID)
		owned := r.db.Model(&models.Project{}).Select("id").Where("owner_id = ?", userID)
		query = query.Where(
			"tasks.reporter_id = ? OR tasks.assignee_id = ? OR tasks.project_id IN (?) OR tasks.project_id IN (?)",
			userID, userID, memberOf, owned,
		)
	}
	return query
}

func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter, page utils.PageRequest) ([]models.Task, int64, error) {
	tasks, total, err := paged[models.Task](
		r.filtered(ctx, filter), page,
		page.OrderBy(taskSortColumns, "tasks.created_at DESC"),
		taskPreloads...,
	)
	return tasks, total, translate("list tasks", err)
}

func (r *GormTaskRepository) Count(ctx context.Context, filter TaskFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, translate("count tasks", err)
}

func (r *GormTaskRepository) CountByStatus(ctx context.Context, filter TaskFilter) (map[models.TaskStatus]int64, error) {
	var rows []struct {
		Status models.TaskStatus
		Total  int64
	}
	err := r.filtered(ctx, filter).
		Select("tasks.status AS status, COUNT(*) AS total").
		Group("tasks.status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate("count tasks by status", err)
	}

	counts := make(map[models.TaskStatus]int64, len(models.TaskStatuses))
	for _, status := range models.TaskStatuses {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

package repositories

import (
	"context"

	"taskflow/backend/internal/models"
	"taskflow/backend/internal/utils"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var userSortColumns = map[string]string{
	"username":  "users.username",
	"email":     "users.email",
	"firstName": "users.first_name",
	"lastName":  "users.last_name",
	"createdAt": "users.created_at",
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return translate("create user", r.db.WithContext(ctx).Create(user).Error)
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate("find user", err)
	}
	return &user, nil
}

func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, translate("find user by username", err)
	}
	return &user, nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translate("find user by email", err)
	}
	return &user, nil
}

func (r *GormUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, translate("check username", err)
}

func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, translate("check email", err)
}

func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	return translate("update user", r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error)
}

// Delete removes the user's memberships and assignments before the user row.
// Projects, tasks and comments still owned, reported or authored by the user
// keep the foreign key and make the delete fail.
func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM project_members WHERE user_id = ?", id).Error; err != nil {
			return translate("delete user memberships", err)
		}
		if err := tx.Model(&models.Task{}).Where("assignee_id = ?", id).Update("assignee_id", nil).Error; err != nil {
			return translate("unassign user tasks", err)
		}
		result := tx.Delete(&models.User{}, "id = ?", id)
		if result.Error != nil {
			return translate("delete user", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormUserRepository) filtered(ctx context.Context, filter UserFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.User{})

	if filter.Role != nil {
		query = query.Where("users.roles LIKE ?", "%"+string(*filter.Role)+"%")
	}
	if filter.Enabled != nil {
		query = query.Where("users.enabled = ?", *filter.Enabled)
	}
	if filter.ProjectID != nil {
		members := r.db.Table("project_members").Select("user_id").Where("project_id = ?", *filter.ProjectID)
		owner := r.db.Model(&models.Project{}).Select("owner_id").Where("id = ?", *filter.ProjectID)
		query = query.Where("users.id IN (?) OR users.id IN (?)", members, owner)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where(
			"LOWER(users.username) LIKE ? OR LOWER(users.email) LIKE ? OR LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	return query
}

func (r *GormUserRepository) List(ctx context.Context, filter UserFilter, page utils.PageRequest) ([]models.User, int64, error) {
	users, total, err := paged[models.User](r.filtered(ctx, filter), page, page.OrderBy(userSortColumns, "users.username ASC"))
	return users, total, translate("list users", err)
}

func (r *GormUserRepository) Count(ctx context.Context, filter UserFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Count(&count).Error
	return count, translate("count users", err)
}

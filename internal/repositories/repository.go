package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskflow/backend/internal/models"
	"taskflow/backend/internal/utils"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

type UserFilter struct {
	Role      *models.Role
	Enabled   *bool
	ProjectID *uuid.UUID
	Search    string
}

type ProjectFilter struct {
	OwnerID        *uuid.UUID
	MemberID       *uuid.UUID
	InvolvedUserID *uuid.UUID
	Status         *models.ProjectStatus
	Search         string
	DeadlineFrom   *time.Time
	DeadlineTo     *time.Time
	// OverdueAt selects projects whose deadline passed before this instant
	// and that are not completed.
	OverdueAt *time.Time
}

type TaskFilter struct {
	ProjectID  *uuid.UUID
	AssigneeID *uuid.UUID
	ReporterID *uuid.UUID
	Status     *models.TaskStatus
	Priority   *models.TaskPriority
	DueFrom    *time.Time
	DueTo      *time.Time
	OverdueAt  *time.Time
	Unassigned bool
	Search     string
	// AccessibleBy restricts results to tasks the user reports, is assigned
	// to, or can see through project ownership or membership.
	AccessibleBy *uuid.UUID
}

type CommentFilter struct {
	TaskID      *uuid.UUID
	AuthorID    *uuid.UUID
	Search      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Ascending   bool
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter UserFilter, page utils.PageRequest) ([]models.User, int64, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)
}

type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ProjectFilter, page utils.PageRequest) ([]models.Project, int64, error)
	Count(ctx context.Context, filter ProjectFilter) (int64, error)
	CountByStatus(ctx context.Context, filter ProjectFilter) (map[models.ProjectStatus]int64, error)
	AddMembers(ctx context.Context, project *models.Project, users ...*models.User) error
	RemoveMembers(ctx context.Context, project *models.Project, users ...*models.User) error
	ReplaceMembers(ctx context.Context, project *models.Project, users ...*models.User) error
}

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter TaskFilter, page utils.PageRequest) ([]models.Task, int64, error)
	Count(ctx context.Context, filter TaskFilter) (int64, error)
	CountByStatus(ctx context.Context, filter TaskFilter) (map[models.TaskStatus]int64, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter CommentFilter, page utils.PageRequest) ([]models.Comment, int64, error)
	Count(ctx context.Context, filter CommentFilter) (int64, error)
}

// translate maps driver-level outcomes onto repository sentinels and wraps
// everything else with the failed operation.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

// paged counts the filtered query and then loads the requested slice.
func paged[T any](query *gorm.DB, page utils.PageRequest, order string, preloads ...string) ([]T, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []T
	if total == 0 {
		return items, 0, nil
	}

	listQuery := query.Scopes(utils.Paginate(page)).Order(order)
	for _, p := range preloads {
		listQuery = listQuery.Preload(p)
	}
	if err := listQuery.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

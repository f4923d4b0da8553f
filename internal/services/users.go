package services

import (
	"context"
	"fmt"
	"strings"

	"taskflow/backend/internal/apperrors"
	"taskflow/backend/internal/models"
	"taskflow/backend/internal/repositories"
	"taskflow/backend/internal/utils"

	"github.com/gofrs/uuid"
)

type UserService interface {
	Create(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*UserResponse, error)
	GetByUsername(ctx context.Context, username string) (*UserResponse, error)
	GetByEmail(ctx context.Context, email string) (*UserResponse, error)
	List(ctx context.Context, filter repositories.UserFilter, page utils.PageRequest) (utils.Page[UserResponse], error)
	Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddRole(ctx context.Context, id uuid.UUID, role models.Role) (*UserResponse, error)
	RemoveRole(ctx context.Context, id uuid.UUID, role models.Role) (*UserResponse, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context, filter repositories.UserFilter) (int64, error)
}

type UserServiceImpl struct {
	users    repositories.UserRepository
	projects repositories.ProjectRepository
	tasks    repositories.TaskRepository
	comments repositories.CommentRepository
	hasher   PasswordHasher
}

func NewUserService(
	users repositories.UserRepository,
	projects repositories.ProjectRepository,
	tasks repositories.TaskRepository,
	comments repositories.CommentRepository,
	hasher PasswordHasher,
) *UserServiceImpl {
	return &UserServiceImpl{users: users, projects: projects, tasks: tasks, comments: comments, hasher: hasher}
}

func parseRoles(values []string) (models.RoleSet, error) {
	if len(values) == 0 {
		return models.NewRoleSet(models.RoleUser), nil
	}
	roles := make([]models.Role, 0, len(values))
	for _, value := range values {
		role, err := models.ParseRole(value)
		if err != nil {
			return nil, apperrors.Validation("roles", err.Error())
		}
		roles = append(roles, role)
	}
	return models.NewRoleSet(roles...), nil
}

func ensureUniqueUsername(ctx context.Context, users repositories.UserRepository, username string) error {
	exists, err := users.ExistsByUsername(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.Duplicate(fmt.Sprintf("Username already exists: %s", username))
	}
	return nil
}

func ensureUniqueEmail(ctx context.Context, users repositories.UserRepository, email string) error {
	exists, err := users.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.Duplicate(fmt.Sprintf("Email already exists: %s", email))
	}
	return nil
}

// createUser is shared by registration and administrative creation. Accounts
// start enabled with the USER role unless the request says otherwise.
func createUser(ctx context.Context, users repositories.UserRepository, hasher PasswordHasher, req CreateUserRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" {
		return nil, apperrors.Validation("username", "must not be blank")
	}
	if email == "" {
		return nil, apperrors.Validation("email", "must not be blank")
	}
	if req.Password == "" {
		return nil, apperrors.Validation("password", "must not be blank")
	}

	if err := ensureUniqueUsername(ctx, users, username); err != nil {
		return nil, err
	}
	if err := ensureUniqueEmail(ctx, users, email); err != nil {
		return nil, err
	}

	roles, err := parseRoles(req.Roles)
	if err != nil {
		return nil, err
	}
	hashed, err := hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	user := &models.User{
		Username:  username,
		Email:     email,
		Password:  hashed,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Roles:     roles,
		Enabled:   enabled,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, duplicateAs(err, fmt.Sprintf("Username or email already exists: %s", username))
	}
	return user, nil
}

func (s *UserServiceImpl) Create(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	user, err := createUser(ctx, s.users, s.hasher, req)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *UserServiceImpl) load(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "User", "ID", id)
	}
	return user, nil
}

func (s *UserServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *UserServiceImpl) GetByUsername(ctx context.Context, username string) (*UserResponse, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFoundAs(err, "User", "username", username)
	}
	return toUserResponse(user), nil
}

func (s *UserServiceImpl) GetByEmail(ctx context.Context, email string) (*UserResponse, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, notFoundAs(err, "User", "email", email)
	}
	return toUserResponse(user), nil
}

func (s *UserServiceImpl) List(ctx context.Context, filter repositories.UserFilter, page utils.PageRequest) (utils.Page[UserResponse], error) {
	page = page.Normalize()
	users, total, err := s.users.List(ctx, filter, page)
	if err != nil {
		return utils.Page[UserResponse]{}, err
	}
	return utils.MapPage(utils.NewPage(users, page, total), func(u models.User) UserResponse {
		return *toUserResponse(&u)
	}), nil
}

// Update applies the set fields. Changing the username or email re-checks
// uniqueness against every other account.
func (s *UserServiceImpl) Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username != user.Username {
			if err := ensureUniqueUsername(ctx, s.users, username); err != nil {
				return nil, err
			}
			user.Username = username
		}
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != user.Email {
			if err := ensureUniqueEmail(ctx, s.users, email); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}
	if req.Password != nil {
		hashed, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Enabled != nil {
		user.Enabled = *req.Enabled
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, duplicateAs(err, fmt.Sprintf("Username or email already exists: %s", user.Username))
	}
	return toUserResponse(user), nil
}

// Delete refuses to remove users that still own projects, reported tasks or
// authored comments.
func (s *UserServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	owned, err := s.projects.Count(ctx, repositories.ProjectFilter{OwnerID: &id})
	if err != nil {
		return err
	}
	if owned > 0 {
		return apperrors.BusinessLogic("delete user", "user still owns projects")
	}
	reported, err := s.tasks.Count(ctx, repositories.TaskFilter{ReporterID: &id})
	if err != nil {
		return err
	}
	if reported > 0 {
		return apperrors.BusinessLogic("delete user", "user is the reporter of existing tasks")
	}
	authored, err := s.comments.Count(ctx, repositories.CommentFilter{AuthorID: &id})
	if err != nil {
		return err
	}
	if authored > 0 {
		return apperrors.BusinessLogic("delete user", "user has authored comments")
	}

	return notFoundAs(s.users.Delete(ctx, id), "User", "ID", id)
}

func (s *UserServiceImpl) AddRole(ctx context.Context, id uuid.UUID, role models.Role) (*UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Roles = user.Roles.With(role)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// RemoveRole never leaves a user without roles.
func (s *UserServiceImpl) RemoveRole(ctx context.Context, id uuid.UUID, role models.Role) (*UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	remaining := user.Roles.Without(role)
	if len(remaining) == 0 {
		return nil, apperrors.BusinessLogic("remove role", "user must keep at least one role")
	}
	user.Roles = remaining
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *UserServiceImpl) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.users.ExistsByUsername(ctx, username)
}

func (s *UserServiceImpl) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.users.ExistsByEmail(ctx, email)
}

func (s *UserServiceImpl) Count(ctx context.Context, filter repositories.UserFilter) (int64, error) {
	return s.users.Count(ctx, filter)
}

package services_test

import (
	"context"
	"testing"

	"taskflow/backend/internal/apperrors"
	"taskflow/backend/internal/models"
	"taskflow/backend/internal/repositories"
	"taskflow/backend/internal/services"
	"taskflow/backend/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_CreateWithRoles(t *testing.T) {
	f := newFixture(t)

	user := f.createUser(t, "maria", "manager", "USER")
	assert.Equal(t, models.NewRoleSet(models.RoleManager, models.RoleUser), user.Roles)
	assert.True(t, user.Enabled)
	assert.NotEqual(t, testPassword, user.Password)
	assert.True(t, f.hasher.Verify(testPassword, user.Password))

	_, err := f.users.Create(f.ctx, services.CreateUserRequest{
		Username: "root", Email: "root@example.com", Password: testPassword, Roles: []string{"SUPERUSER"},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	disabled := false
	resp, err := f.users.Create(f.ctx, services.CreateUserRequest{
		Username: "sleepy", Email: "sleepy@example.com", Password: testPassword, Enabled: &disabled,
	})
	require.NoError(t, err)
	assert.False(t, resp.Enabled)
}

func TestUser_Lookups(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")

	byName, err := f.users.GetByUsername(f.ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	byEmail, err := f.users.GetByEmail(f.ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	_, err = f.users.GetByID(f.ctx, newID())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = f.users.GetByUsername(f.ctx, "nobody")
	assert.EqualError(t, err, "User not found with username: nobody")

	exists, err := f.users.ExistsByUsername(f.ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = f.users.ExistsByEmail(f.ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUser_UpdateRechecksUniqueness(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	f.createUser(t, "bob")

	taken := "bob"
	_, err := f.users.Update(f.ctx, alice.ID, services.UpdateUserRequest{Username: &taken})
	assert.EqualError(t, err, "Username already exists: bob")

	takenEmail := "bob@example.com"
	_, err = f.users.Update(f.ctx, alice.ID, services.UpdateUserRequest{Email: &takenEmail})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	same := "alice"
	first := "Alicia"
	password := "brand-new-pass"
	resp, err := f.users.Update(f.ctx, alice.ID, services.UpdateUserRequest{Username: &same, FirstName: &first, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", resp.FirstName)

	ok, err := f.auth.VerifyPassword(f.ctx, "alice", password)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUser_Roles(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")

	resp, err := f.users.AddRole(f.ctx, alice.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, []string{"ADMIN", "USER"}, resp.Roles)

	resp, err = f.users.RemoveRole(f.ctx, alice.ID, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, []string{"ADMIN"}, resp.Roles)

	_, err = f.users.RemoveRole(f.ctx, alice.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, apperrors.ErrBusinessLogic)

	admins, err := f.users.List(f.ctx, repositories.UserFilter{Role: ptr(models.RoleAdmin)}, utils.NewPageRequest(0, 10))
	require.NoError(t, err)
	require.Len(t, admins.Content, 1)
	assert.Equal(t, "alice", admins.Content[0].Username)
}

func TestUser_DeleteGuardsOwnedData(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	carol := f.createUser(t, "carol")
	project := f.createProject(t, alice, bob.ID, carol.ID)
	task := f.createTask(t, alice, project.ID)
	_, err := f.tasks.Assign(f.ctx, alice.ID, task.ID, carol.ID)
	require.NoError(t, err)

	err = f.users.Delete(f.ctx, alice.ID)
	assert.EqualError(t, err, "Cannot delete user: user still owns projects")

	_, err = f.comments.Create(f.ctx, bob.ID, services.CreateCommentRequest{Content: "hello", TaskID: task.ID})
	require.NoError(t, err)
	err = f.users.Delete(f.ctx, bob.ID)
	assert.EqualError(t, err, "Cannot delete user: user has authored comments")

	require.NoError(t, f.users.Delete(f.ctx, carol.ID))
	_, err = f.users.GetByID(f.ctx, carol.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	reloaded, err := f.tasks.Get(f.ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.Assignee)

	err = f.users.Delete(f.ctx, carol.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUser_ListAndCount(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "alice")
	f.createUser(t, "bob")
	f.createUser(t, "carol")
	require.NoError(t, f.auth.DisableAccount(f.ctx, "carol"))

	page, err := f.users.List(f.ctx, repositories.UserFilter{}, utils.PageRequest{Page: 0, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, "alice", page.Content[0].Username)
	assert.True(t, page.First)
	assert.False(t, page.Last)

	enabled, err := f.users.Count(f.ctx, repositories.UserFilter{Enabled: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), enabled)

	found, err := f.users.List(f.ctx, repositories.UserFilter{Search: "BO"}, utils.NewPageRequest(0, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), found.TotalElements)
}

func ptr[T any](v T) *T {
	return &v
}

// staleExistenceRepo answers existence checks as if a concurrent insert had
// not landed yet, leaving the unique index as the only guard.
type staleExistenceRepo struct {
	repositories.UserRepository
}

func (staleExistenceRepo) ExistsByUsername(context.Context, string) (bool, error) { return false, nil }
func (staleExistenceRepo) ExistsByEmail(context.Context, string) (bool, error)    { return false, nil }

func TestUser_UniqueIndexReportsDuplicate(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "alice")
	bob := f.createUser(t, "bob")
	users := services.NewUserService(staleExistenceRepo{f.userRepo}, f.projectRepo, f.taskRepo, f.commentRepo, f.hasher)

	_, err := users.Create(f.ctx, services.CreateUserRequest{
		Username: "alice", Email: "alice2@example.com", Password: testPassword, FirstName: "A", LastName: "B",
	})
	require.ErrorIs(t, err, apperrors.ErrDuplicate)
	assert.Equal(t, 409, apperrors.HTTPStatus(err))
	assert.EqualError(t, err, "Username or email already exists: alice")

	_, err = users.Update(f.ctx, bob.ID, services.UpdateUserRequest{Email: ptr("alice@example.com")})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

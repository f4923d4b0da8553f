package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"taskflow/backend/internal/models"
	"taskflow/backend/internal/repositories"
	"taskflow/backend/internal/utils"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type RepositorySuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	users    *repositories.GormUserRepository
	projects *repositories.GormProjectRepository
	tasks    *repositories.GormTaskRepository
	comments *repositories.GormCommentRepository
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	s.Require().NoError(err)

	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.Require().NoError(db.AutoMigrate(models.All()...))

	s.ctx = context.Background()
	s.db = db
	s.users = repositories.NewUserRepository(db)
	s.projects = repositories.NewProjectRepository(db)
	s.tasks = repositories.NewTaskRepository(db)
	s.comments = repositories.NewCommentRepository(db)
}

func (s *RepositorySuite) TearDownTest() {
	sqlDB, _ := s.db.DB()
	sqlDB.Close()
}

func (s *RepositorySuite) createUser(username string, roles ...models.Role) *models.User {
	if len(roles) == 0 {
		roles = []models.Role{models.RoleUser}
	}
	user := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  "hash",
		FirstName: username,
		LastName:  "Tester",
		Roles:     models.NewRoleSet(roles...),
		Enabled:   true,
	}
	s.Require().NoError(s.users.Create(s.ctx, user))
	return user
}

func (s *RepositorySuite) createProject(name string, owner *models.User, members ...models.User) *models.Project {
	project := &models.Project{Name: name, Description: name + " description", OwnerID: owner.ID, Members: members}
	s.Require().NoError(s.projects.Create(s.ctx, project))
	return project
}

func (s *RepositorySuite) createTask(title string, project *models.Project, reporter *models.User, assignee *models.User) *models.Task {
	task := &models.Task{Title: title, ProjectID: project.ID, ReporterID: reporter.ID}
	if assignee != nil {
		task.AssigneeID = &assignee.ID
	}
	s.Require().NoError(s.tasks.Create(s.ctx, task))
	return task
}

func (s *RepositorySuite) TestUser_FindAndExists() {
	alice := s.createUser("alice")

	found, err := s.users.FindByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(alice.ID, found.ID)

	found, err = s.users.FindByEmail(s.ctx, "alice@example.com")
	s.Require().NoError(err)
	s.Equal("alice", found.Username)

	_, err = s.users.FindByID(s.ctx, uuid.Must(uuid.NewV4()))
	s.ErrorIs(err, repositories.ErrNotFound)

	exists, err := s.users.ExistsByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.users.ExistsByEmail(s.ctx, "nobody@example.com")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *RepositorySuite) TestUser_UniqueUsername() {
	s.createUser("alice")

	duplicate := &models.User{Username: "alice", Email: "other@example.com", Password: "x", Roles: models.NewRoleSet(models.RoleUser)}
	err := s.users.Create(s.ctx, duplicate)
	s.ErrorIs(err, repositories.ErrDuplicate)
	s.NotErrorIs(err, repositories.ErrNotFound)

	bob := s.createUser("bob")
	bob.Email = "alice@example.com"
	s.ErrorIs(s.users.Update(s.ctx, bob), repositories.ErrDuplicate)
}

func (s *RepositorySuite) TestUser_ListFilters() {
	s.createUser("alice", models.RoleUser)
	bob := s.createUser("bob", models.RoleManager)
	carol := s.createUser("carol", models.RoleAdmin, models.RoleUser)

	bob.Enabled = false
	s.Require().NoError(s.users.Update(s.ctx, bob))

	admin := models.RoleAdmin
	users, total, err := s.users.List(s.ctx, repositories.UserFilter{Role: &admin}, utils.NewPageRequest(0, 10))
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(carol.ID, users[0].ID)

	disabled := false
	count, err := s.users.Count(s.ctx, repositories.UserFilter{Enabled: &disabled})
	s.Require().NoError(err)
	s.Equal(int64(1), count)

	users, total, err = s.users.List(s.ctx, repositories.UserFilter{Search: "CAR"}, utils.NewPageRequest(0, 10))
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal("carol", users[0].Username)

	users, total, err = s.users.List(s.ctx, repositories.UserFilter{}, utils.PageRequest{Page: 1, Size: 2, Sort: "username"})
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Len(users, 1)
	s.Equal("carol", users[0].Username)
}

func (s *RepositorySuite) TestUser_ListByProjectIncludesOwner() {
	owner := s.createUser("owner")
	member := s.createUser("member")
	s.createUser("outsider")
	project := s.createProject("Apollo", owner, *member)

	users, total, err := s.users.List(s.ctx, repositories.UserFilter{ProjectID: &project.ID}, utils.NewPageRequest(0, 10))
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Equal("member", users[0].Username)
	s.Equal("owner", users[1].Username)
}

func (s *RepositorySuite) TestProject_CreateWithMembersAndReload() {
	owner := s.createUser("owner")
	member := s.createUser("member")

	project := s.createProject("Apollo", owner, *member)

	loaded, err := s.projects.FindByID(s.ctx, project.ID)
	s.Require().NoError(err)
	s.Equal(models.ProjectActive, loaded.Status)
	s.Require().NotNil(loaded.Owner)
	s.Equal("owner", loaded.Owner.Username)
	s.Require().Len(loaded.Members, 1)
	s.True(loaded.IsMember(member.ID))
}

func (s *RepositorySuite) TestProject_AddAndRemoveMembers() {
	owner := s.createUser("owner")
	a := s.createUser("a")
	b := s.createUser("b")
	project := s.createProject("Apollo", owner)

	s.Require().NoError(s.projects.AddMembers(s.ctx, project, a, b))
	loaded, err := s.projects.FindByID(s.ctx, project.ID)
	s.Require().NoError(err)
	s.Len(loaded.Members, 2)

	s.Require().NoError(s.projects.RemoveMembers(s.ctx, loaded, a))
	loaded, err = s.projects.FindByID(s.ctx, project.ID)
	s.Require().NoError(err)
	s.Require().Len(loaded.Members, 1)
	s.Equal(b.ID, loaded.Members[0].ID)

	var userCount int64
	s.db.Model(&models.User{}).Count(&userCount)
	s.Equal(int64(3), userCount)
}

func (s *RepositorySuite) TestProject_ReplaceMembers() {
	owner := s.createUser("owner")
	a := s.createUser("a")
	b := s.createUser("b")
	c := s.createUser("c")
	project := s.createProject("Apollo", owner, *a, *b)

	s.Require().NoError(s.projects.ReplaceMembers(s.ctx, project, b, c))
	loaded, err := s.projects.FindByID(s.ctx, project.ID)
	s.Require().NoError(err)
	s.Require().Len(loaded.Members, 2)
	s.Equal("b", loaded.Members[0].Username)
	s.Equal("c", loaded.Members[1].Username)

	s.Require().NoError(s.projects.ReplaceMembers(s.ctx, loaded))
	loaded, err = s.projects.FindByID(s.ctx, project.ID)
	s.Require().NoError(err)
	s.Empty(loaded.Members)
}

func (s *RepositorySuite) TestProject_ListFilters() {
	owner := s.createUser("owner")
	member := s.createUser("member")
	other := s.createUser("other")

	p1 := s.createProject("Apollo", owner, *member)
	s.createProject("Gemini", other)
	p3 := s.createProject("Mercury", other)

	past := time.Now().UTC().Add(-48 * time.Hour)
	p3.Deadline = &past
	p3.Status = models.ProjectOnHold
	s.Require().NoError(s.projects.Update(s.ctx, p3))

	_, total, err := s.projects.List(s.ctx, repositories.ProjectFilter{OwnerID: &owner.ID}, utils.NewPageRequest(0, 10))
	s.Require().NoError(err)
	s.Equal(int64(1), total)

	projects, total, err := s.projects.List(s.ctx, repositories.ProjectFilter{InvolvedUserID: &member.ID}, utils.NewPageRequest(0, 10))
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(p1.ID, projects[0].ID)

	now := time.Now().UTC()
	projects, _, err = s.projects.List(s.ctx, repositories.ProjectFilter{OverdueAt: &now}, utils.NewPageRequest(0, 10))
	s.Require().NoError(err)
	s.Require().Len(projects, 1)
	s.Equal("Mercury", projects[0].Name)

	counts, err := s.projects.CountByStatus(s.ctx, repositories.ProjectFilter{})
	s.Require().NoError(err)
	s.Equal(int64(2), counts[models.ProjectActive])
	s.Equal(int64(1), counts[models.ProjectOnHold])
	s.Equal(int64(0), counts[models.ProjectArchived])

	count, err := s.projects.Count(s.ctx, repositories.ProjectFilter{Search: "gem"})
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *RepositorySuite) TestProject_DeleteCascades() {
	owner := s.createUser("owner")
	member := s.createUser("member")
	project := s.createProject("Apollo", owner, *member)
	keep := s.createProject("Gemini", owner)

	task := s.createTask("Launch", project, owner, member)
	kept := s.createTask("Orbit", keep, owner, nil)
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.comments.Create(s.ctx, &models.Comment{Content: fmt.Sprintf("c%d", i), TaskID: task.ID, AuthorID: owner.ID}))
	}
	s.Require().NoError(s.comments.Create(s.ctx, &models.Comment{Content: "keep", TaskID: kept.ID, AuthorID: owner.ID}))

	s.Require().NoError(s.projects.Delete(s.ctx, project.ID))

	_, err := s.projects.FindByID(s.ctx, project.ID)
	s.ErrorIs(err, repositories.ErrNotFound)
	_, err = s.tasks.FindByID(s.ctx, task.ID)
	s.ErrorIs(err, repositories.ErrNotFound)

	count, err := s.comments.Count(s.ctx, repositories.CommentFilter{})
	s.Require().NoError(err)
	s.Equal(int64(1), count)

	var links int64
	s.db.Table("project_members").Where("project_id = ?", project.ID).Count(&links)
	s.Equal(int64(0), links)

	s.ErrorIs(s.projects.Delete(s.ctx, project.ID), repositories.ErrNotFound)
}

func (s *RepositorySuite) TestTask_FindPreloadsProjectMembers() {
	owner := s.createUser("owner")
	member := s.createUser("member")
	project := s.createProject("Apollo", owner, *member)
	task := s.createTask("Launch", project, owner, member)

	loaded, err := s.tasks.FindByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Require().NotNil(loaded.Project)
	s.True(loaded.Project.IsMember(member.ID))
	s.Require().NotNil(loaded.Assignee)
	s.Equal("member", loaded.Assignee.Username)
	s.Equal("owner", loaded.Reporter.Username)
}

func (s *RepositorySuite) TestTask_ListFilters() {
	owner := s.createUser("owner")
	member := s.createUser("member")
	stranger := s.createUser("stranger")
	project := s.createProject("Apollo", owner, *member)
	other := s.createProject("Hidden", stranger)

	t1 := s.createTask("Write docs", project, owner, member)
	t2 := s.createTask("Fix bug", project, member, nil)
	s.createTask("Secret", other, stranger, nil)
	assignedToMember := s.createTask("Visible via assignment", other, stranger, member)

	past := time.Now().UTC().Add(-24 * time.Hour)
	t1.DueDate = &past
	t1.Priority = models.PriorityHigh
	s.Require().NoError(s.tasks.Update(s.ctx, t1))

	t2.Status = models.TaskDone
	t2.DueDate = &past
	s.Require().NoError(s.tasks.Update(s.ctx, t2))

	tasks, total, err := s.tasks.List(s.ctx, repositories.TaskFilter{ProjectID: &project.ID}, utils.PageRequest{Size: 10, Sort: "title"})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Equal("Fix bug", tasks[0].Title)

	now := time.Now().UTC()
	tasks, _, err = s.tasks.List(s.ctx, repositories.TaskFilter{OverdueAt: &now}, utils.NewPageRequest(0, 10))
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)
	s.Equal(t1.ID, tasks[0].ID)

	high := models.PriorityHigh
	count, err := s.tasks.Count(s.ctx, repositories.TaskFilter{Priority: &high})
	s.Require().NoError(err)
	s.Equal(int64(1), count)

	count, err = s.tasks.Count(s.ctx, repositories.TaskFilter{Unassigned: true})
	s.Require().NoError(err)
	s.Equal(int64(2), count)

	tasks, _, err = s.tasks.List(s.ctx, repositories.TaskFilter{AccessibleBy: &member.ID}, utils.NewPageRequest(0, 10))
	s.Require().NoError(err)
	s.Len(tasks, 3)
	ids := map[uuid.UUID]bool{}
	for _, task := range tasks {
		ids[task.ID] = true
	}
	s.True(ids[assignedToMember.ID])

	count, err = s.tasks.Count(s.ctx, repositories.TaskFilter{Search: "BUG"})
	s.Require().NoError(err)
	s.Equal(int64(1), count)

	counts, err := s.tasks.CountByStatus(s.ctx, repositories.TaskFilter{ProjectID: &project.ID})
	s.Require().NoError(err)
	s.Equal(int64(1), counts[models.TaskTodo])
	s.Equal(int64(1), counts[models.TaskDone])
	s.Equal(int64(0), counts[models.TaskInReview])
}

func (s *RepositorySuite) TestTask_UnassignPersistsNull() {
	owner := s.createUser("owner")
	project := s.createProject("Apollo", owner)
	task := s.createTask("Launch", project, owner, owner)

	task.AssigneeID = nil
	task.Assignee = nil
	s.Require().NoError(s.tasks.Update(s.ctx, task))

	loaded, err := s.tasks.FindByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Nil(loaded.AssigneeID)
	s.Nil(loaded.Assignee)
}

func (s *RepositorySuite) TestTask_DeleteRemovesComments() {
	owner := s.createUser("owner")
	project := s.createProject("Apollo", owner)
	task := s.createTask("Launch", project, owner, nil)
	s.Require().NoError(s.comments.Create(s.ctx, &models.Comment{Content: "hello", TaskID: task.ID, AuthorID: owner.ID}))

	s.Require().NoError(s.tasks.Delete(s.ctx, task.ID))

	count, err := s.comments.Count(s.ctx, repositories.CommentFilter{TaskID: &task.ID})
	s.Require().NoError(err)
	s.Equal(int64(0), count)
	s.ErrorIs(s.tasks.Delete(s.ctx, task.ID), repositories.ErrNotFound)
}

func (s *RepositorySuite) TestComment_ListOrderingAndSearch() {
	owner := s.createUser("owner")
	other := s.createUser("other")
	project := s.createProject("Apollo", owner)
	task := s.createTask("Launch", project, owner, nil)

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	for i, content := range []string{"first note", "second NOTE", "third"} {
		comment := &models.Comment{Content: content, TaskID: task.ID, AuthorID: owner.ID, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if i == 2 {
			comment.AuthorID = other.ID
		}
		s.Require().NoError(s.comments.Create(s.ctx, comment))
	}

	asc, _, err := s.comments.List(s.ctx, repositories.CommentFilter{TaskID: &task.ID, Ascending: true}, utils.NewPageRequest(0, 10))
	s.Require().NoError(err)
	s.Require().Len(asc, 3)
	s.Equal("first note", asc[0].Content)
	s.Require().NotNil(asc[0].Author)

	desc, _, err := s.comments.List(s.ctx, repositories.CommentFilter{TaskID: &task.ID}, utils.NewPageRequest(0, 10))
	s.Require().NoError(err)
	s.Equal("third", desc[0].Content)

	count, err := s.comments.Count(s.ctx, repositories.CommentFilter{Search: "note"})
	s.Require().NoError(err)
	s.Equal(int64(2), count)

	count, err = s.comments.Count(s.ctx, repositories.CommentFilter{AuthorID: &other.ID})
	s.Require().NoError(err)
	s.Equal(int64(1), count)

	from := base.Add(30 * time.Minute)
	count, err = s.comments.Count(s.ctx, repositories.CommentFilter{CreatedFrom: &from})
	s.Require().NoError(err)
	s.Equal(int64(2), count)
}

func (s *RepositorySuite) TestComment_FindPreloadsTaskProject() {
	owner := s.createUser("owner")
	member := s.createUser("member")
	project := s.createProject("Apollo", owner, *member)
	task := s.createTask("Launch", project, owner, nil)
	comment := &models.Comment{Content: "hi", TaskID: task.ID, AuthorID: member.ID}
	s.Require().NoError(s.comments.Create(s.ctx, comment))

	loaded, err := s.comments.FindByID(s.ctx, comment.ID)
	s.Require().NoError(err)
	s.Require().NotNil(loaded.Task)
	s.Require().NotNil(loaded.Task.Project)
	s.True(loaded.Task.Project.IsMember(member.ID))
	s.Equal("member", loaded.Author.Username)

	s.Require().NoError(s.comments.Delete(s.ctx, comment.ID))
	s.ErrorIs(s.comments.Delete(s.ctx, comment.ID), repositories.ErrNotFound)
}

package handlers

import (
	"context"
	"net/http"

	"taskflow/backend/internal/models"
	"taskflow/backend/internal/repositories"
	"taskflow/backend/internal/services"
	"taskflow/backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type ProjectHandler struct {
	projectService services.ProjectService
}

func NewProjectHandler(projectService services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// projectFilter always restricts results to projects the caller owns or
// belongs to.
func projectFilter(c *gin.Context) (repositories.ProjectFilter, bool) {
	actorID, ok := currentUser(c)
	if !ok {
		return repositories.ProjectFilter{}, false
	}

	filter := repositories.ProjectFilter{InvolvedUserID: &actorID, Search: c.Query("search")}
	var err error
	if filter.Status, err = queryEnum(c, "status", models.ParseProjectStatus); err != nil {
		respondError(c, err)
		return filter, false
	}
	if filter.OwnerID, err = queryID(c, "ownerId"); err != nil {
		respondError(c, err)
		return filter, false
	}
	if filter.MemberID, err = queryID(c, "memberId"); err != nil {
		respondError(c, err)
		return filter, false
	}
	return filter, true
}

func (h *ProjectHandler) List(c *gin.Context) {
	filter, ok := projectFilter(c)
	if !ok {
		return
	}

	page, err := h.projectService.List(c.Request.Context(), filter, utils.GetPageRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ProjectHandler) Count(c *gin.Context) {
	filter, ok := projectFilter(c)
	if !ok {
		return
	}

	count, err := h.projectService.Count(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *ProjectHandler) Create(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), actorID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) Get(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.Get(c.Request.Context(), actorID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) Update(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), actorID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.ProjectStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	status, err := parseEnum("status", req.Status, models.ParseProjectStatus)
	if err != nil {
		respondError(c, err)
		return
	}

	project, err := h.projectService.UpdateStatus(c.Request.Context(), actorID, id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), actorID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProjectHandler) Members(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	page, err := h.projectService.Members(c.Request.Context(), actorID, id, utils.GetPageRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ProjectHandler) AddMembers(c *gin.Context) {
	h.changeMembers(c, h.projectService.AddMembers)
}

func (h *ProjectHandler) RemoveMembers(c *gin.Context) {
	h.changeMembers(c, h.projectService.RemoveMembers)
}

type membersFunc func(ctx context.Context, actorID, id uuid.UUID, userIDs []uuid.UUID) (*services.ProjectResponse, error)

func (h *ProjectHandler) changeMembers(c *gin.Context, change membersFunc) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.MembersRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := change(c.Request.Context(), actorID, id, req.UserIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) Overdue(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}

	page, err := h.projectService.Overdue(c.Request.Context(), actorID, utils.GetPageRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ProjectHandler) DueBetween(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	from, err := requiredTime(c, "from")
	if err != nil {
		respondError(c, err)
		return
	}
	to, err := requiredTime(c, "to")
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.projectService.DueBetween(c.Request.Context(), actorID, from, to, utils.GetPageRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ProjectHandler) Search(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}

	page, err := h.projectService.Search(c.Request.Context(), actorID, c.Query("q"), utils.GetPageRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ProjectHandler) Statistics(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.projectService.Statistics(c.Request.Context(), actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

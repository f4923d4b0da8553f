package handlers

import (
	"net/http"

	"taskflow/backend/internal/apperrors"
	"taskflow/backend/internal/models"
	"taskflow/backend/internal/repositories"
	"taskflow/backend/internal/services"
	"taskflow/backend/internal/utils"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	taskService services.TaskService
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// taskFilter reads the list filters and scopes them to tasks the caller can
// see.
func taskFilter(c *gin.Context) (repositories.TaskFilter, bool) {
	actorID, ok := currentUser(c)
	if !ok {
		return repositories.TaskFilter{}, false
	}

	filter := repositories.TaskFilter{AccessibleBy: &actorID, Search: c.Query("search")}
	parsers := []func() error{
		func() (err error) { filter.ProjectID, err = queryID(c, "projectId"); return },
		func() (err error) { filter.AssigneeID, err = queryID(c, "assigneeId"); return },
		func() (err error) { filter.ReporterID, err = queryID(c, "reporterId"); return },
		func() (err error) { filter.Status, err = queryEnum(c, "status", models.ParseTaskStatus); return },
		func() (err error) { filter.Priority, err = queryEnum(c, "priority", models.ParseTaskPriority); return },
		func() (err error) { filter.DueFrom, err = queryTime(c, "dueFrom"); return },
		func() (err error) { filter.DueTo, err = queryTime(c, "dueTo"); return },
		func() error {
			unassigned, err := queryBool(c, "unassigned")
			if unassigned != nil {
				filter.Unassigned = *unassigned
			}
			return err
		},
	}
	for _, parse := range parsers {
		if err := parse(); err != nil {
			respondError(c, err)
			return filter, false
		}
	}
	return filter, true
}

func (h *TaskHandler) List(c *gin.Context) {
	filter, ok := taskFilter(c)
	if !ok {
		return
	}

	page, err := h.taskService.List(c.Request.Context(), filter, utils.GetPageRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *TaskHandler) Count(c *gin.Context) {
	filter, ok := taskFilter(c)
	if !ok {
		return
	}

	count, err := h.taskService.Count(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *TaskHandler) Create(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), actorID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) Get(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), actorID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Update(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), actorID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.TaskStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	status, err := parseEnum("status", req.Status, models.ParseTaskStatus)
	if err != nil {
		respondError(c, err)
		return
	}

	task, err := h.taskService.UpdateStatus(c.Request.Context(), actorID, id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UpdatePriority(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.TaskPriorityRequest
	if !bindJSON(c, &req) {
		return
	}
	priority, err := parseEnum("priority", req.Priority, models.ParseTaskPriority)
	if err != nil {
		respondError(c, err)
		return
	}

	task, err := h.taskService.UpdatePriority(c.Request.Context(), actorID, id, priority)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Assign(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.AssignTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.Assign(c.Request.Context(), actorID, id, req.AssigneeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Unassign(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.Unassign(c.Request.Context(), actorID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), actorID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) Overdue(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}

	page, err := h.taskService.Overdue(c.Request.Context(), actorID, utils.GetPageRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *TaskHandler) DueBetween(c *gin.Context) {
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

	page, err := h.taskService.DueBetween(c.Request.Context(), actorID, from, to, utils.GetPageRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *TaskHandler) Search(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}

	page, err := h.taskService.Search(c.Request.Context(), actorID, c.Query("q"), utils.GetPageRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Statistics reports per-status counts for the projectId query parameter.
func (h *TaskHandler) Statistics(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, err := queryID(c, "projectId")
	if err == nil && projectID == nil {
		err = apperrors.Validation("projectId", "is required")
	}
	if err != nil {
		respondError(c, err)
		return
	}

	stats, err := h.taskService.Statistics(c.Request.Context(), actorID, *projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

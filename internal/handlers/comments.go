package handlers

import (
	"net/http"
	"strings"

	"taskflow/backend/internal/repositories"
	"taskflow/backend/internal/services"
	"taskflow/backend/internal/utils"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService services.CommentService
}

func NewCommentHandler(commentService services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func commentFilter(c *gin.Context) (repositories.CommentFilter, error) {
	filter := repositories.CommentFilter{
		Search:    c.Query("search"),
		Ascending: strings.EqualFold(c.Query("order"), "asc"),
	}
	var err error
	if filter.CreatedFrom, err = queryTime(c, "createdFrom"); err != nil {
		return filter, err
	}
	if filter.CreatedTo, err = queryTime(c, "createdTo"); err != nil {
		return filter, err
	}
	return filter, nil
}

// List pages through one task's comments when taskId is given, otherwise
// through the caller's own comments.
func (h *CommentHandler) List(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	filter, err := commentFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	taskID, err := queryID(c, "taskId")
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	page := utils.GetPageRequest(c)

	var result utils.Page[services.CommentResponse]
	if taskID != nil {
		result, err = h.commentService.ListTaskComments(ctx, actorID, *taskID, filter, page)
	} else {
		filter.AuthorID = &actorID
		result, err = h.commentService.List(ctx, filter, page)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CommentHandler) Count(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	filter, err := commentFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	filter.AuthorID = &actorID

	count, err := h.commentService.Count(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *CommentHandler) Create(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.CreateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), actorID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) Get(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	comment, err := h.commentService.Get(c.Request.Context(), actorID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) Update(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.commentService.Update(c.Request.Context(), actorID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.commentService.Delete(c.Request.Context(), actorID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Permissions reports what the caller may do with a comment.
func (h *CommentHandler) Permissions(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	canAccess, err := h.commentService.CanUserAccessComment(ctx, actorID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	isAuthor, err := h.commentService.IsCommentAuthor(ctx, actorID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"canAccess": canAccess, "isAuthor": isAuthor})
}

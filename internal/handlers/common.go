package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"taskflow/backend/internal/apperrors"
	"taskflow/backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
)

// respondError writes the error envelope. Unclassified errors are logged
// because the client only sees a generic message.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, apperrors.NewResponse(err))
}

// bindJSON decodes the body into req and writes a 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apperrors.ValidationResponse(bindingDetails(err)))
		return false
	}
	return true
}

func bindingDetails(err error) interface{} {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, apperrors.Authentication("User not authenticated"))
	}
	return id, ok
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param(name))
	if err != nil {
		respondError(c, apperrors.Validation(name, "must be a valid UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional UUID query parameter.
func queryID(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.FromString(raw)
	if err != nil {
		return nil, apperrors.Validation(name, "must be a valid UUID")
	}
	return &id, nil
}

// queryTime parses an optional RFC 3339 query parameter.
func queryTime(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperrors.Validation(name, "must be an RFC 3339 timestamp")
	}
	return &t, nil
}

func requiredTime(c *gin.Context, name string) (time.Time, error) {
	t, err := queryTime(c, name)
	if err != nil {
		return time.Time{}, err
	}
	if t == nil {
		return time.Time{}, apperrors.Validation(name, "is required")
	}
	return *t, nil
}

func queryBool(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.Validation(name, "must be true or false")
	}
	return &b, nil
}

// queryEnum parses an optional enumerated query parameter with parse.
func queryEnum[T any](c *gin.Context, name string, parse func(string) (T, error)) (*T, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := parse(raw)
	if err != nil {
		return nil, apperrors.Validation(name, err.Error())
	}
	return &v, nil
}

func parseEnum[T any](field, raw string, parse func(string) (T, error)) (T, error) {
	v, err := parse(raw)
	if err != nil {
		return v, apperrors.Validation(field, err.Error())
	}
	return v, nil
}

func message(c *gin.Context, status int, text string) {
	c.JSON(status, gin.H{"success": true, "message": text})
}

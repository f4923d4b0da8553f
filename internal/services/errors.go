package services

import (
	"errors"

	"taskflow/backend/internal/apperrors"
	"taskflow/backend/internal/repositories"
)

// notFoundAs turns a repository miss into a classified not-found error and
// leaves store failures untouched.
func notFoundAs(err error, resource, field string, value interface{}) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NotFound(resource, field, value)
	}
	return err
}

// duplicateAs reports a unique-key violation that slipped past the
// existence checks as a duplicate.
func duplicateAs(err error, message string) error {
	if errors.Is(err, repositories.ErrDuplicate) {
		return apperrors.Duplicate(message)
	}
	return err
}

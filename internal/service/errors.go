// Package service holds the business logic between HTTP handlers and repositories.
package service

import (
	"errors"
	"fmt"

	"vacancyhub/internal/models"
	"vacancyhub/internal/repository"
)

// postingError maps repository errors of a posting operation to AppErrors.
func postingError(op string, kind models.Kind, id uint, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return models.NewNotFoundError("Vacancy", id)
	case errors.Is(err, repository.ErrAlreadyResolved):
		return models.NewAlreadyResolvedError(kind, id)
	case errors.Is(err, repository.ErrUnknownKind):
		return models.NewValidationError("Wrong vacancy type")
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(fmt.Errorf("%s %s %d: %w", op, kind, id, err))
}

func checkKind(kind models.Kind) error {
	if !kind.Valid() {
		return models.NewValidationError("Wrong vacancy type")
	}
	return nil
}

package service

import (
	"context"
	"errors"

	"vacancyhub/internal/models"
	"vacancyhub/internal/repository"
)

// checkLocation rejects a country that does not exist and a region outside it.
func checkLocation(ctx context.Context, users repository.UserRepository, countryID uint, regionID *uint) error {
	err := users.CheckLocation(ctx, countryID, regionID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrUnknownCountry):
		return models.NewNotFoundError("Country", countryID)
	case errors.Is(err, repository.ErrUnknownRegion):
		return models.NewNotFoundError("Region", *regionID)
	default:
		return models.NewInternalError(err)
	}
}

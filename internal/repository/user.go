package repository

import (
	"context"

	"vacancyhub/internal/models"
	"vacancyhub/internal/observability"

	"gorm.io/gorm"
)

// UserRepository reads end users and their company profiles. Users are created by
// the bot front-end; this service never writes them.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetWithProfile(ctx context.Context, id uint) (*models.User, error)
	ExistsIdentity(ctx context.Context, userID uint, telegramID int64) (bool, error)
	LocationNames(ctx context.Context, countryID uint, regionID *uint) (country, region string, err error)
	CheckLocation(ctx context.Context, countryID uint, regionID *uint) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	defer observability.TrackQuery("select", "users")()

	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetWithProfile(ctx context.Context, id uint) (*models.User, error) {
	defer observability.TrackQuery("select", "users")()

	var u models.User
	if err := r.db.WithContext(ctx).Preload("Client").First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) ExistsIdentity(ctx context.Context, userID uint, telegramID int64) (bool, error) {
	defer observability.TrackQuery("count", "users")()

	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND telegram_id = ?", userID, telegramID).
		Count(&n).Error
	return n > 0, err
}

// LocationNames returns display names; unknown ids yield empty names.
func (r *userRepository) LocationNames(ctx context.Context, countryID uint, regionID *uint) (string, string, error) {
	defer observability.TrackQuery("select", "country")()

	var country, region []string
	if err := r.db.WithContext(ctx).Model(&models.Country{}).
		Where("id = ?", countryID).Limit(1).Pluck("name", &country).Error; err != nil {
		return "", "", err
	}
	if regionID != nil {
		if err := r.db.WithContext(ctx).Model(&models.Region{}).
			Where("id = ?", *regionID).Limit(1).Pluck("name", &region).Error; err != nil {
			return "", "", err
		}
	}
	return first(country), first(region), nil
}

// CheckLocation verifies that the country exists and that the region, when
// given, is one of its regions.
func (r *userRepository) CheckLocation(ctx context.Context, countryID uint, regionID *uint) error {
	defer observability.TrackQuery("select", "region")()

	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Country{}).
		Where("id = ?", countryID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrUnknownCountry
	}
	if regionID == nil {
		return nil
	}

	var owner []uint
	if err := r.db.WithContext(ctx).Model(&models.Region{}).
		Where("id = ?", *regionID).Limit(1).Pluck("country_id", &owner).Error; err != nil {
		return err
	}
	if len(owner) == 0 || owner[0] != countryID {
		return ErrUnknownRegion
	}
	return nil
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

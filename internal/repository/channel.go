package repository

import (
	"context"
	"errors"
	"time"

	"vacancyhub/internal/cache"
	"vacancyhub/internal/database"
	"vacancyhub/internal/models"
	"vacancyhub/internal/observability"

	"gorm.io/gorm"
)

// ChannelRepository maps (country, region) pairs to publication channels.
type ChannelRepository interface {
	// Find returns the channel registered for exactly (countryID, regionID). A nil
	// regionID only matches rows without a region.
	Find(ctx context.Context, countryID uint, regionID *uint) (*models.Channel, error)
	GetByID(ctx context.Context, id uint) (*models.Channel, error)
	List(ctx context.Context) ([]*models.Channel, error)
	Create(ctx context.Context, ch *models.Channel) error
	Update(ctx context.Context, ch *models.Channel) error
	Delete(ctx context.Context, id uint) error
}

type channelRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewChannelRepository creates a channel repository; c may be nil to disable caching.
func NewChannelRepository(db *gorm.DB, c *cache.Cache) ChannelRepository {
	return &channelRepository{db: db, cache: c}
}

func whereLocation(db *gorm.DB, countryID uint, regionID *uint) *gorm.DB {
	if regionID == nil {
		return db.Where("country_id = ? AND region_id IS NULL", countryID)
	}
	return db.Where("country_id = ? AND region_id = ?", countryID, *regionID)
}

func (r *channelRepository) Find(ctx context.Context, countryID uint, regionID *uint) (*models.Channel, error) {
	var ch models.Channel
	key := cache.ChannelResolveKey(countryID, regionID)

	err := r.cache.Aside(ctx, key, &ch, cache.ChannelTTL, func() error {
		defer observability.TrackQuery("select", "channels")()
		return whereLocation(r.db.WithContext(ctx), countryID, regionID).
			Order("id ASC").
			First(&ch).Error
	})
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *channelRepository) GetByID(ctx context.Context, id uint) (*models.Channel, error) {
	defer observability.TrackQuery("select", "channels")()

	var ch models.Channel
	if err := r.db.WithContext(ctx).Preload("Country").Preload("Region").First(&ch, id).Error; err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *channelRepository) List(ctx context.Context) ([]*models.Channel, error) {
	defer observability.TrackQuery("select", "channels")()

	var channels []*models.Channel
	err := r.db.WithContext(ctx).
		Preload("Country").
		Preload("Region").
		Order("created_at DESC, id DESC").
		Find(&channels).Error
	return channels, err
}

func (r *channelRepository) Create(ctx context.Context, ch *models.Channel) error {
	defer observability.TrackQuery("insert", "channels")()

	err := r.db.WithContext(ctx).Omit("Country", "Region").Create(ch).Error
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	if err == nil {
		r.cache.InvalidateChannels(ctx)
	}
	return err
}

// Update rewrites every mutable column. A collision with another row's location is
// checked up front for a clear error; the unique index still closes the race.
func (r *channelRepository) Update(ctx context.Context, ch *models.Channel) error {
	defer observability.TrackQuery("update", "channels")()

	var clash int64
	err := whereLocation(r.db.WithContext(ctx).Model(&models.Channel{}), ch.CountryID, ch.RegionID).
		Where("id <> ?", ch.ID).
		Count(&clash).Error
	if err != nil {
		return err
	}
	if clash > 0 {
		return ErrDuplicate
	}

	ch.UpdatedAt = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.Channel{ID: ch.ID}).
		Select("country_id", "region_id", "channel_url", "language_code", "updated_at").
		Updates(ch)
	if database.IsUniqueViolation(res.Error) {
		return ErrDuplicate
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	r.cache.InvalidateChannels(ctx)
	return nil
}

func (r *channelRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "channels")()

	res := r.db.WithContext(ctx).Delete(&models.Channel{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	r.cache.InvalidateChannels(ctx)
	return nil
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vacancyhub/internal/i18n"
	"vacancyhub/internal/models"
	"vacancyhub/internal/notifications"
	"vacancyhub/internal/repository"
	"vacancyhub/internal/validation"
)

// DefaultChannelLanguage is used for channels created without a language.
const DefaultChannelLanguage = "kaa"

// ChannelInput is the admin payload for creating or replacing a channel.
type ChannelInput struct {
	CountryID    uint   `json:"country_id" validate:"required"`
	RegionID     *uint  `json:"region_id"`
	ChannelURL   string `json:"channel_url" validate:"required,notblank"`
	LanguageCode string `json:"language_code"`
}

// ChannelService manages the (country, region) to channel directory.
type ChannelService struct {
	repo     repository.ChannelRepository
	users    repository.UserRepository
	notifier notifications.Notifier
}

func NewChannelService(repo repository.ChannelRepository, users repository.UserRepository, notifier notifications.Notifier) *ChannelService {
	return &ChannelService{repo: repo, users: users, notifier: notifier}
}

func (s *ChannelService) build(ctx context.Context, in ChannelInput) (*models.Channel, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	handle, err := validation.ChannelHandle(in.ChannelURL)
	if err != nil {
		return nil, err
	}
	lang := strings.ToLower(strings.TrimSpace(in.LanguageCode))
	if lang == "" {
		lang = DefaultChannelLanguage
	}
	if !i18n.Supported(lang) {
		return nil, models.NewValidationError(fmt.Sprintf("unsupported language_code %q", in.LanguageCode))
	}
	if err := checkLocation(ctx, s.users, in.CountryID, in.RegionID); err != nil {
		return nil, err
	}
	return &models.Channel{
		CountryID:    in.CountryID,
		RegionID:     in.RegionID,
		ChannelURL:   handle,
		LanguageCode: i18n.Normalize(lang),
	}, nil
}

func (s *ChannelService) Create(ctx context.Context, in ChannelInput) (*models.Channel, error) {
	ch, err := s.build(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, ch); err != nil {
		return nil, channelError(ch.ID, err)
	}
	return ch, nil
}

func (s *ChannelService) Update(ctx context.Context, id uint, in ChannelInput) (*models.Channel, error) {
	ch, err := s.build(ctx, in)
	if err != nil {
		return nil, err
	}
	ch.ID = id
	if err := s.repo.Update(ctx, ch); err != nil {
		return nil, channelError(id, err)
	}
	return s.Get(ctx, id)
}

func (s *ChannelService) Get(ctx context.Context, id uint) (*models.Channel, error) {
	ch, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, channelError(id, err)
	}
	return ch, nil
}

func (s *ChannelService) Delete(ctx context.Context, id uint) error {
	return channelError(id, s.repo.Delete(ctx, id))
}

// List returns every channel, newest first.
func (s *ChannelService) List(ctx context.Context) ([]*models.Channel, error) {
	channels, err := s.repo.List(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return channels, nil
}

// Find returns the channel registered for exactly (countryID, regionID).
func (s *ChannelService) Find(ctx context.Context, countryID uint, regionID *uint) (*models.Channel, error) {
	ch, err := s.repo.Find(ctx, countryID, regionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, models.NewNotFoundError("Channel for country", countryID)
		}
		return nil, models.NewInternalError(err)
	}
	return ch, nil
}

// ResolveChatID looks up the numeric chat id of a public channel handle.
func (s *ChannelService) ResolveChatID(ctx context.Context, handle string) (int64, error) {
	h := strings.TrimSpace(handle)
	if h == "" {
		return 0, models.NewValidationError("channel handle is required")
	}
	if !strings.HasPrefix(h, "@") {
		h = "@" + h
	}
	info, err := s.notifier.ResolveChat(ctx, h)
	if err != nil {
		return 0, err
	}
	return info.ID, nil
}

func channelError(id uint, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrDuplicate):
		return models.NewDuplicateError("A channel for this country and region already exists")
	case repository.IsNotFound(err):
		return models.NewNotFoundError("Channel", id)
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}

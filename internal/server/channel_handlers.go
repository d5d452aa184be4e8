package server

import (
	"vacancyhub/internal/models"
	"vacancyhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListChannels handles GET /api/bot/channels
// @Summary List channels
// @Tags channels
// @Produce json
// @Success 200 {array} models.Channel
// @Security ApiKeyAuth
// @Router /bot/channels [get]
func (s *Server) ListChannels(c *fiber.Ctx) error {
	channels, err := s.channelService.List(c.UserContext())
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(channels)
}

// CreateChannel handles POST /api/bot/channels
// @Summary Register a channel for a location
// @Tags channels
// @Accept json
// @Produce json
// @Param request body service.ChannelInput true "Channel"
// @Success 201 {object} models.Channel
// @Failure 400 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /bot/channels [post]
func (s *Server) CreateChannel(c *fiber.Ctx) error {
	var in service.ChannelInput
	if err := c.BodyParser(&in); err != nil {
		return respond(c, models.NewValidationError("Invalid request body"))
	}

	ch, err := s.channelService.Create(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ch)
}

// ChannelLookup is the channel a location publishes to, with its resolved chat id
// when the bot can see it.
type ChannelLookup struct {
	Channel *models.Channel `json:"channel"`
	ChatID  *int64          `json:"chat_id,omitempty"`
}

// LookupChannel handles GET /api/bot/channels/lookup?country_id=&region_id=
// @Summary Find the channel a location publishes to
// @Tags channels
// @Produce json
// @Param country_id query int true "Country ID"
// @Param region_id query int false "Region ID"
// @Success 200 {object} ChannelLookup
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /bot/channels/lookup [get]
func (s *Server) LookupChannel(c *fiber.Ctx) error {
	countryID := c.QueryInt("country_id", 0)
	if countryID <= 0 {
		return respond(c, models.NewValidationError("country_id is required"))
	}
	var regionID *uint
	if r := c.QueryInt("region_id", 0); r > 0 {
		v := uint(r)
		regionID = &v
	}

	ch, err := s.channelService.Find(c.UserContext(), uint(countryID), regionID)
	if err != nil {
		return respond(c, err)
	}

	out := ChannelLookup{Channel: ch}
	if chatID, err := s.channelService.ResolveChatID(c.UserContext(), ch.Handle()); err == nil {
		out.ChatID = &chatID
	}
	return c.JSON(out)
}

// GetChannel handles GET /api/bot/channels/:id
// @Summary Get a channel
// @Tags channels
// @Produce json
// @Param id path int true "Channel ID"
// @Success 200 {object} models.Channel
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /bot/channels/{id} [get]
func (s *Server) GetChannel(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ch, err := s.channelService.Get(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(ch)
}

// UpdateChannel handles PUT /api/bot/channels/:id
// @Summary Replace a channel
// @Tags channels
// @Accept json
// @Produce json
// @Param id path int true "Channel ID"
// @Param request body service.ChannelInput true "Channel"
// @Success 200 {object} models.Channel
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /bot/channels/{id} [put]
func (s *Server) UpdateChannel(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var in service.ChannelInput
	if err := c.BodyParser(&in); err != nil {
		return respond(c, models.NewValidationError("Invalid request body"))
	}

	ch, err := s.channelService.Update(c.UserContext(), id, in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(ch)
}

// DeleteChannel handles DELETE /api/bot/channels/:id
// @Summary Delete a channel
// @Tags channels
// @Param id path int true "Channel ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /bot/channels/{id} [delete]
func (s *Server) DeleteChannel(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.channelService.Delete(c.UserContext(), id); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetPostingStats handles GET /api/stats/postings
// @Summary Posting counts per kind and status
// @Tags stats
// @Produce json
// @Success 200 {array} service.KindStats
// @Security ApiKeyAuth
// @Router /stats/postings [get]
func (s *Server) GetPostingStats(c *fiber.Ctx) error {
	stats, err := s.statsService.Counts(c.UserContext())
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(stats)
}

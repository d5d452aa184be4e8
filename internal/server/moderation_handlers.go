package server

import (
	"vacancyhub/internal/models"
	"vacancyhub/internal/notifications"
	"vacancyhub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ModerationRequest identifies a posting either directly or through the
// callback data of a moderation-queue button.
type ModerationRequest struct {
	VacancyType  string `json:"vacancy_type" validate:"required_without=CallbackData"`
	VacancyID    uint   `json:"vacancy_id" validate:"required_without=CallbackData"`
	CallbackData string `json:"callback_data"`
	ModeratorTID int64  `json:"moderator_tid" validate:"required"`
	Reason       string `json:"reason,omitempty"`
}

// RepublishRequest identifies an approved posting to publish again.
type RepublishRequest struct {
	VacancyType string `json:"vacancy_type" validate:"required"`
	VacancyID   uint   `json:"vacancy_id" validate:"required"`
}

// target resolves the posting a request points at. Callback data must carry
// the action of the endpoint it was posted to.
func (s *Server) target(req ModerationRequest, action string) (models.Kind, uint, error) {
	if req.CallbackData != "" {
		cb, err := notifications.ParseCallback(s.config.CallbackSecret, req.CallbackData)
		if err != nil {
			return "", 0, models.NewValidationError("Invalid callback data")
		}
		if cb.Action != action {
			return "", 0, models.NewValidationError("Callback data is for " + cb.Action)
		}
		return cb.Kind, cb.PostingID, nil
	}
	kind, err := models.ParseKind(req.VacancyType)
	if err != nil {
		return "", 0, err
	}
	return kind, req.VacancyID, nil
}

func (s *Server) parseModeration(c *fiber.Ctx, action string) (ModerationRequest, models.Kind, uint, error) {
	var req ModerationRequest
	if err := c.BodyParser(&req); err != nil {
		return req, "", 0, models.NewValidationError("Invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return req, "", 0, err
	}
	kind, id, err := s.target(req, action)
	return req, kind, id, err
}

// ApproveVacancy handles POST /api/moderation/approve
// @Summary Approve a vacancy
// @Description Marks a NEW vacancy APPROVED and publishes it to the channel of its location.
// @Tags moderation
// @Accept json
// @Produce json
// @Param request body ModerationRequest true "Vacancy reference"
// @Success 200 {object} service.ApproveResult
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /moderation/approve [post]
func (s *Server) ApproveVacancy(c *fiber.Ctx) error {
	req, kind, id, err := s.parseModeration(c, notifications.ActionAccept)
	if err != nil {
		return respond(c, err)
	}

	res, err := s.moderationService.Approve(c.UserContext(), kind, id, req.ModeratorTID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// RejectVacancy handles POST /api/moderation/reject
// @Summary Reject a vacancy
// @Description Marks a NEW vacancy REJECTED with a reason and tells the author.
// @Tags moderation
// @Accept json
// @Produce json
// @Param request body ModerationRequest true "Vacancy reference and reason"
// @Success 200 {object} service.RejectResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /moderation/reject [post]
func (s *Server) RejectVacancy(c *fiber.Ctx) error {
	req, kind, id, err := s.parseModeration(c, notifications.ActionReject)
	if err != nil {
		return respond(c, err)
	}

	res, err := s.moderationService.Reject(c.UserContext(), kind, id, req.ModeratorTID, req.Reason)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// RepublishVacancy handles POST /api/moderation/republish
// @Summary Publish an approved vacancy again
// @Tags moderation
// @Accept json
// @Produce json
// @Param request body RepublishRequest true "Vacancy reference"
// @Success 200 {object} service.ApproveResult
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /moderation/republish [post]
func (s *Server) RepublishVacancy(c *fiber.Ctx) error {
	var req RepublishRequest
	if err := c.BodyParser(&req); err != nil {
		return respond(c, models.NewValidationError("Invalid request body"))
	}
	if err := validation.Struct(req); err != nil {
		return respond(c, err)
	}
	kind, err := models.ParseKind(req.VacancyType)
	if err != nil {
		return respond(c, err)
	}

	res, err := s.moderationService.Republish(c.UserContext(), kind, req.VacancyID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

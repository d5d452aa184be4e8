package server

import (
	"io"
	"strconv"
	"strings"

	"vacancyhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SubmitResponse is returned after a vacancy was stored.
type SubmitResponse struct {
	OK bool `json:"ok"`
	ID uint `json:"id"`
}

// SubmitVacancy handles POST /api/:kind
// @Summary Submit a vacancy for moderation
// @Description JSON body for every kind; opportunities_grants also accepts multipart/form-data with an optional "img" file.
// @Tags vacancies
// @Accept json,mpfd
// @Produce json
// @Param kind path string true "job_vacancy, internship, one_time_task or opportunities_grants"
// @Success 201 {object} SubmitResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /{kind} [post]
func (s *Server) SubmitVacancy(c *fiber.Ctx) error {
	kind := c.Locals("kind").(models.Kind)
	userID := currentUserID(c)

	p, imageKey, err := s.bindPosting(c, kind, userID)
	if err != nil {
		return respond(c, err)
	}

	id, err := s.submissionService.Submit(c.UserContext(), userID, p)
	if err != nil {
		s.imageService.Discard(c.UserContext(), imageKey)
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(SubmitResponse{OK: true, ID: id})
}

// ListMyVacancies handles GET /api/:kind/mine
// @Summary List the caller's vacancies of a kind
// @Tags vacancies
// @Produce json
// @Param kind path string true "job_vacancy, internship, one_time_task or opportunities_grants"
// @Success 200 {array} object
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /{kind}/mine [get]
func (s *Server) ListMyVacancies(c *fiber.Ctx) error {
	kind := c.Locals("kind").(models.Kind)

	items, err := s.submissionService.ListMine(c.UserContext(), currentUserID(c), kind)
	if err != nil {
		return respond(c, err)
	}
	for _, p := range items {
		if g, ok := p.(*models.OpportunitiesGrant); ok && g.ImgPath != nil {
			g.ImageURL = s.imageService.URL(*g.ImgPath)
		}
	}
	return c.JSON(items)
}

// UpdateVacancy handles PUT /api/:kind/:id
// @Summary Replace the content of the caller's vacancy
// @Tags vacancies
// @Accept json,mpfd
// @Produce json
// @Param kind path string true "job_vacancy, internship, one_time_task or opportunities_grants"
// @Param id path int true "Vacancy ID"
// @Success 200 {object} SubmitResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /{kind}/{id} [put]
func (s *Server) UpdateVacancy(c *fiber.Ctx) error {
	kind := c.Locals("kind").(models.Kind)
	userID := currentUserID(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	p, imageKey, err := s.bindPosting(c, kind, userID)
	if err != nil {
		return respond(c, err)
	}

	if err := s.submissionService.Update(c.UserContext(), userID, id, p); err != nil {
		s.imageService.Discard(c.UserContext(), imageKey)
		return respond(c, err)
	}
	return c.JSON(SubmitResponse{OK: true, ID: id})
}

// DeleteVacancy handles DELETE /api/:kind/:id
// @Summary Delete the caller's vacancy
// @Description Hides the vacancy; a message already published to a channel stays.
// @Tags vacancies
// @Param kind path string true "job_vacancy, internship, one_time_task or opportunities_grants"
// @Param id path int true "Vacancy ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /{kind}/{id} [delete]
func (s *Server) DeleteVacancy(c *fiber.Ctx) error {
	kind := c.Locals("kind").(models.Kind)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.submissionService.SoftDelete(c.UserContext(), currentUserID(c), kind, id); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// bindPosting decodes the request body into a posting of kind. A grant sent as
// multipart may carry an image, which is stored before the posting and whose
// key is returned so a failed save can discard it.
func (s *Server) bindPosting(c *fiber.Ctx, kind models.Kind, userID uint) (models.Posting, string, error) {
	if kind == models.KindOpportunitiesGrant && strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return s.bindGrantForm(c, userID)
	}

	p := kind.New()
	if err := c.BodyParser(p); err != nil {
		return nil, "", models.NewValidationError("Invalid request body")
	}
	return p, "", nil
}

func (s *Server) bindGrantForm(c *fiber.Ctx, userID uint) (models.Posting, string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, "", models.NewValidationError("Invalid multipart form")
	}

	g := &models.OpportunitiesGrant{Content: c.FormValue("content")}
	g.Contact = c.FormValue("contact")
	if g.CountryID, err = formUint(c, "country_id"); err != nil {
		return nil, "", err
	}
	region, err := formUint(c, "region_id")
	if err != nil {
		return nil, "", err
	}
	if region != 0 {
		g.RegionID = &region
	}

	files := form.File["img"]
	if len(files) == 0 {
		return g, "", nil
	}

	src, err := files[0].Open()
	if err != nil {
		return nil, "", models.NewValidationError("Unable to read uploaded file")
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return nil, "", models.NewValidationError("Unable to read uploaded file")
	}

	key, err := s.imageService.StoreGrantImage(c.UserContext(), userID, files[0].Filename, content)
	if err != nil {
		return nil, "", err
	}
	g.ImgPath = &key
	return g, key, nil
}

// formUint reads an optional numeric form field; a missing field is 0.
func formUint(c *fiber.Ctx, name string) (uint, error) {
	raw := strings.TrimSpace(c.FormValue(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, models.NewValidationError(name + " must be a positive integer")
	}
	return uint(n), nil
}

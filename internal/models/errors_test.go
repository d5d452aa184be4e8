package models

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NewNotFoundError("job_vacancy", 4), fiber.StatusNotFound},
		{NewAlreadyResolvedError(KindJobVacancy, 4), fiber.StatusConflict},
		{NewConflictError("x"), fiber.StatusConflict},
		{NewProfileIncompleteError([]string{"phone"}), fiber.StatusBadRequest},
		{NewDuplicateError("x"), fiber.StatusBadRequest},
		{NewValidationError("x"), fiber.StatusBadRequest},
		{NewForbiddenError("x"), fiber.StatusForbidden},
		{NewUnauthorizedError("x"), fiber.StatusUnauthorized},
		{NewInternalError(io.EOF), fiber.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NewValidationError("x")), fiber.StatusBadRequest},
		{&AppError{Code: "SOMETHING_ELSE"}, fiber.StatusInternalServerError},
		{errors.New("plain"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestAppError_MessageAndUnwrap(t *testing.T) {
	err := NewInternalError(io.EOF)
	assert.Equal(t, "Internal server error: EOF", err.Error())
	assert.ErrorIs(t, err, io.EOF)
	assert.True(t, IsCode(err, CodeInternal))
	assert.False(t, IsCode(io.EOF, CodeInternal))

	assert.Equal(t, "50% off", NewValidationError("50% off").Error())
}

func TestRespondWithError_HidesInternalCause(t *testing.T) {
	app := fiber.New()
	app.Get("/internal", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, NewInternalError(errors.New("dsn=secret")))
	})
	app.Get("/validation", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusBadRequest, NewValidationError("Invalid id"))
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/internal", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"Internal server error","code":"INTERNAL_ERROR"}`, string(body))

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/validation", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	body, _ = io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"Invalid id","code":"VALIDATION_ERROR"}`, string(body))
}

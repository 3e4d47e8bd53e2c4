package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestKindStatusMapping(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
	}{
		{KindInvalidArgument, fiber.StatusBadRequest},
		{KindFailedPrecondition, fiber.StatusBadRequest},
		{KindUnauthenticated, fiber.StatusUnauthorized},
		{KindUnauthorized, fiber.StatusUnauthorized},
		{KindNotFound, fiber.StatusNotFound},
		{KindInternal, fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.kind.HTTPStatus())
		})
	}
}

func TestKindOfSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("update booking: %w", NotFound("Booking not found."))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, "Booking not found.", PublicMessage(err))
}

func TestPlainErrorsAreInternal(t *testing.T) {
	err := errors.New("disk full")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "disk full", PublicMessage(err))
}

func TestCauseIsUnwrappable(t *testing.T) {
	cause := errors.New("401 from provider")
	err := Unauthorized("Invalid API key.", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Invalid API key.", PublicMessage(err))
	assert.Contains(t, err.Error(), "unauthorized")
}

package serverutils

import (
	"fmt"
	"testing"

	"stallpick-be/internal/entity"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", fmt.Errorf("resolve: %w", entity.ErrNotFound), 404},
		{"invalid input", fmt.Errorf("request dish: %w", entity.ErrInvalidInput), 400},
		{"persistence", fmt.Errorf("set availability: %w: %w", entity.ErrPersistenceFailed, fmt.Errorf("conn reset")), 503},
		{"fiber error", fiber.NewError(fiber.StatusUnprocessableEntity, "bad body"), 422},
		{"validation", &ValidationError{Fields: map[string]string{"text": "required"}}, 400},
		{"unknown", fmt.Errorf("boom"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := MapError(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.code, body.Code)
			assert.False(t, body.Success)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Text string `json:"text" validate:"required,max=5"`
	}

	assert.NoError(t, ValidateRequest(req{Text: "ok"}))

	err := ValidateRequest(req{})
	var vErr *ValidationError
	if assert.ErrorAs(t, err, &vErr) {
		assert.Equal(t, "required", vErr.Fields["text"])
	}

	err = ValidateRequest(req{Text: "toolong"})
	if assert.ErrorAs(t, err, &vErr) {
		assert.Equal(t, "max=5", vErr.Fields["text"])
	}
}

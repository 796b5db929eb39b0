package serverutils

import (
	"fmt"
	"testing"

	"prompt-manager-core/internal/deeplink"
	"prompt-manager-core/internal/dto"
	"prompt-manager-core/internal/repository/contract"
	"prompt-manager-core/internal/service"
	"prompt-manager-core/pkg/remote"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: name", dto.ErrInvalidRequest), fiber.StatusBadRequest},
		{"deep link", deeplink.ErrHostMismatch, fiber.StatusBadRequest},
		{"missing prompt", service.ErrPromptNotFound, fiber.StatusNotFound},
		{"missing remote", fmt.Errorf("key: %w", remote.ErrNotFound), fiber.StatusNotFound},
		{"last history", service.ErrLastHistory, fiber.StatusConflict},
		{"remote conflict", &remote.ConflictError{RecordID: "r1"}, fiber.StatusConflict},
		{"remote delete", &service.DeleteError{SharedCreationID: uuid.New(), Err: fmt.Errorf("boom")}, fiber.StatusBadGateway},
		{"transport", remote.Transport("push", fmt.Errorf("timeout")), fiber.StatusBadGateway},
		{"persistence", &contract.PersistenceError{Op: "create", Err: fmt.Errorf("disk full")}, fiber.StatusInternalServerError},
		{"fiber", fiber.ErrUpgradeRequired, fiber.StatusUpgradeRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

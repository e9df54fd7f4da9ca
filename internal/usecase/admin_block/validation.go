package admin_block

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

var validate = validator.New()

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if err := validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%w: %s failed on '%s'", ErrInvalidInput, e.Field(), e.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if req.Note != nil && utf8.RuneCountInString(*req.Note) > domain.MaxNoteLength {
		return fmt.Errorf("%w: note must not exceed %d characters", ErrInvalidInput, domain.MaxNoteLength)
	}

	maxSpan := time.Duration(domain.MaxAdminBlockDays) * 24 * time.Hour
	if req.EndAt.Sub(req.StartAt) > maxSpan {
		return fmt.Errorf("%w: block must not exceed %d days", ErrInvalidInput, domain.MaxAdminBlockDays)
	}

	return nil
}

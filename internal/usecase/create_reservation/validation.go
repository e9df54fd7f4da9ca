package create_reservation

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

var validate = validator.New()

// validateRequest валидирует входные данные запроса по тегам и межполевым правилам
func validateRequest(req *Request) error {
	if err := validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return fmt.Errorf("%w: %s", ErrInvalidInput, describe(validationErrs))
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if req.ExpectedTotal.IsNegative() {
		return fmt.Errorf("%w: expected total must not be negative", ErrInvalidInput)
	}

	// Лимиты из доменных констант
	if len(req.Items) > domain.MaxLineItems {
		return fmt.Errorf("%w: at most %d items per reservation", ErrInvalidInput, domain.MaxLineItems)
	}
	for i, item := range req.Items {
		if item.Quantity > domain.MaxItemQuantity {
			return fmt.Errorf("%w: item %d quantity must not exceed %d", ErrInvalidInput, i, domain.MaxItemQuantity)
		}
		if item.DurationMinutes > domain.MaxSlotDurationMinutes {
			return fmt.Errorf("%w: item %d duration must not exceed %d minutes", ErrInvalidInput, i, domain.MaxSlotDurationMinutes)
		}
	}
	if req.Note != nil && utf8.RuneCountInString(*req.Note) > domain.MaxNoteLength {
		return fmt.Errorf("%w: note must not exceed %d characters", ErrInvalidInput, domain.MaxNoteLength)
	}

	return nil
}

func describe(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("%s failed on '%s'", e.Namespace(), e.Tag()))
	}
	return strings.Join(parts, "; ")
}

// buildLineItems сопоставляет позиции запроса с ресурсами каталога
func buildLineItems(items []LineItemRequest, resources map[int64]*domain.Resource) ([]domain.LineItem, error) {
	out := make([]domain.LineItem, 0, len(items))

	for i, item := range items {
		res, ok := resources[item.ResourceID]
		if !ok {
			return nil, fmt.Errorf("%w: id=%d", ErrResourceNotFound, item.ResourceID)
		}

		li := domain.LineItem{Resource: res, Quantity: item.Quantity}

		if res.Kind.IsTimed() {
			if item.StartAt == nil || item.DurationMinutes <= 0 {
				return nil, fmt.Errorf("%w: item %d (%s) requires startAt and duration", ErrInvalidInput, i, res.Ref())
			}
			window, err := domain.IntervalOf(*item.StartAt, time.Duration(item.DurationMinutes)*time.Minute)
			if err != nil {
				return nil, fmt.Errorf("%w: item %d: %v", ErrInvalidInput, i, err)
			}
			li.Window = window
		}

		switch {
		case res.Kind.IsExclusive() && item.Quantity != 1:
			return nil, fmt.Errorf("%w: item %d (%s) quantity must be 1", ErrInvalidInput, i, res.Ref())
		case res.Kind.IsPooled() && item.Quantity > domain.MaxRoleQuantity:
			return nil, fmt.Errorf("%w: item %d (%s) quantity must not exceed %d", ErrInvalidInput, i, res.Ref(), domain.MaxRoleQuantity)
		}

		out = append(out, li)
	}

	if !out[0].Resource.Kind.IsExclusive() {
		return nil, fmt.Errorf("%w: first item must be an exclusive resource", ErrInvalidInput)
	}

	return out, nil
}

// validateAddonWindows проверяет, что дополнения лежат внутри окна основного ресурса
func validateAddonWindows(items []domain.LineItem) error {
	base := items[0].Window
	for _, item := range items[1:] {
		if !item.Resource.Kind.IsTimed() {
			continue
		}
		if !base.Contains(item.Window) {
			return fmt.Errorf("%w: %s window %s is outside of %s", ErrInvalidTimeSlot, item.Ref(), item.Window, base)
		}
	}
	return nil
}

// validateNotice проверяет минимальное время до начала слота
func validateNotice(start, now time.Time, minNoticeMinutes int) error {
	earliest := now.Add(time.Duration(minNoticeMinutes) * time.Minute)
	if start.Before(earliest) {
		return fmt.Errorf("%w: must book at least %d minutes in advance", ErrTooLateToBook, minNoticeMinutes)
	}
	return nil
}

// uniqueResourceIDs возвращает ID ресурсов без повторов в исходном порядке
func uniqueResourceIDs(items []LineItemRequest) []int64 {
	seen := make(map[int64]bool, len(items))
	out := make([]int64, 0, len(items))
	for _, item := range items {
		if seen[item.ResourceID] {
			continue
		}
		seen[item.ResourceID] = true
		out = append(out, item.ResourceID)
	}
	return out
}

package conflicts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

var (
	// ErrConflict возвращается, когда запрошенный ресурс занят в указанном окне
	ErrConflict = errors.New("conflicts: resource is not available")

	// ErrCapacityExhausted возвращается, когда у роли не осталось свободных работников
	ErrCapacityExhausted = errors.New("conflicts: role capacity exhausted")

	// ErrInternal возвращается при внутренних ошибках детектора
	ErrInternal = errors.New("conflicts: internal error")
)

// Conflict описывает одну позицию, которую нельзя удержать
type Conflict struct {
	Resource  domain.ResourceRef
	Window    domain.Interval
	Requested int
	Free      int
}

// ConflictError перечисляет все конфликтующие позиции черновика
// errors.Is срабатывает на ErrConflict всегда и на ErrCapacityExhausted,
// если среди конфликтов есть роль
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s %s (requested %d, free %d)", c.Resource, c.Window, c.Requested, c.Free))
	}
	return fmt.Sprintf("%s: %s", ErrConflict, strings.Join(parts, "; "))
}

func (e *ConflictError) Is(target error) bool {
	switch target {
	case ErrConflict:
		return true
	case ErrCapacityExhausted:
		for _, c := range e.Conflicts {
			if c.Resource.Kind.IsPooled() {
				return true
			}
		}
	}
	return false
}

// Resources возвращает ссылки на конфликтующие ресурсы
func (e *ConflictError) Resources() []domain.ResourceRef {
	out := make([]domain.ResourceRef, len(e.Conflicts))
	for i, c := range e.Conflicts {
		out[i] = c.Resource
	}
	return out
}

package claim_assignment

import (
	"github.com/google/uuid"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// Request модель запроса на принятие предложения роли
type Request struct {
	Token string // Токен из ссылки предложения
}

// Response исход попытки принять предложение
// AlreadyTaken - не ошибка: предложение забрал другой работник
type Response struct {
	Outcome       domain.ClaimOutcome
	ReservationID uuid.UUID
	RoleID        int64
	WorkerID      int64
	HoldID        int64 // 0, если предложение уже забрано
	Completed     bool  // бронирование завершено этим назначением
}

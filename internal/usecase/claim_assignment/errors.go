package claim_assignment

import "errors"

var (
	// ErrInvalidToken возвращается, когда токен предложения не расшифровывается
	ErrInvalidToken = errors.New("claim_assignment: invalid claim token")

	// ErrNotEligible возвращается, когда работник не входит в состав роли
	ErrNotEligible = errors.New("claim_assignment: worker is not eligible for this role")

	// ErrWorkerBusy возвращается, когда у работника уже есть удержание в этом окне
	ErrWorkerBusy = errors.New("claim_assignment: worker is busy in this window")

	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = errors.New("claim_assignment: reservation not found")

	// ErrReservationCancelled возвращается, когда бронирование уже отменено
	ErrReservationCancelled = errors.New("claim_assignment: reservation is cancelled")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("claim_assignment: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("claim_assignment: internal error")
)

// errWonConcurrently откатывает транзакцию, если тот же работник выиграл
// другое удержание этого бронирования параллельно
var errWonConcurrently = errors.New("claim_assignment: won concurrently by the same worker")

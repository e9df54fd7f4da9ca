package reservation

import "errors"

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = errors.New("reservation.repository: reservation not found")

	// ErrHoldNotFound возвращается, когда удержание ресурса не найдено
	ErrHoldNotFound = errors.New("reservation.repository: hold not found")

	// ErrHoldOverlap возвращается, когда ограничение исключения отклонило пересекающееся удержание
	ErrHoldOverlap = errors.New("reservation.repository: hold overlaps an existing hold")

	// ErrStaleTransition возвращается, когда условное обновление статуса не затронуло ни одной строки
	ErrStaleTransition = errors.New("reservation.repository: status precondition no longer holds")

	// ErrDuplicateReservation возвращается при повторной вставке бронирования с тем же ID
	ErrDuplicateReservation = errors.New("reservation.repository: duplicate reservation id")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("reservation.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("reservation.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("reservation.repository: failed to scan row")
)

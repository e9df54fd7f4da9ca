package create_reservation

import (
	"errors"
	"fmt"
)

var (
	// ErrResourceNotFound возвращается, когда ресурс позиции не найден или неактивен
	ErrResourceNotFound = errors.New("create_reservation: resource not found")

	// ErrInvalidTimeSlot возвращается, когда окно не совпадает со слотом расписания
	// или дополнение выходит за окно основного ресурса
	ErrInvalidTimeSlot = errors.New("create_reservation: invalid time slot")

	// ErrTooLateToBook возвращается, когда слот начинается раньше минимального времени до бронирования
	ErrTooLateToBook = errors.New("create_reservation: too late to book this slot")

	// ErrTotalMismatch возвращается, когда рассчитанная сумма не совпадает с ожидаемой клиентом
	// Это ошибка валидации: errors.Is(ErrTotalMismatch, ErrInvalidInput) истинно
	ErrTotalMismatch = fmt.Errorf("%w: total amount mismatch", ErrInvalidInput)

	// ErrPaymentDeclined возвращается, когда шлюз отклонил авторизацию
	ErrPaymentDeclined = errors.New("create_reservation: payment authorization declined")

	// ErrPaymentUnavailable возвращается, когда платежный шлюз недоступен
	ErrPaymentUnavailable = errors.New("create_reservation: payment gateway unavailable")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_reservation: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_reservation: internal error")
)

package get_available_addons

import "errors"

var (
	// ErrResourceNotFound возвращается, когда основной ресурс не найден или неактивен
	ErrResourceNotFound = errors.New("get_available_addons: resource not found")

	// ErrInvalidTimeSlot возвращается, когда окно не является слотом расписания или уже прошло
	ErrInvalidTimeSlot = errors.New("get_available_addons: invalid time slot")

	// ErrSlotNotAvailable возвращается, когда сам слот основного ресурса занят
	ErrSlotNotAvailable = errors.New("get_available_addons: slot is not available")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("get_available_addons: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_available_addons: internal error")
)

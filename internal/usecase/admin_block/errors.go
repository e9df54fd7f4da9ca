package admin_block

import "errors"

var (
	// ErrResourceNotFound возвращается, когда ресурс не найден или неактивен
	ErrResourceNotFound = errors.New("admin_block: resource not found")

	// ErrNotExclusive возвращается для ресурсов, которые нельзя заблокировать целиком
	ErrNotExclusive = errors.New("admin_block: only exclusive resources can be blocked")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("admin_block: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("admin_block: internal error")
)

package payment

import "errors"

var (
	// ErrPaymentNotFound возвращается, когда у бронирования нет платежа
	ErrPaymentNotFound = errors.New("payment.repository: payment not found")

	// ErrStaleTransition возвращается, когда условное обновление статуса не затронуло ни одной строки
	ErrStaleTransition = errors.New("payment.repository: status precondition no longer holds")

	// ErrDuplicatePayment возвращается при попытке создать второй платеж для бронирования
	ErrDuplicatePayment = errors.New("payment.repository: payment already exists for reservation")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("payment.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("payment.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("payment.repository: failed to scan row")
)

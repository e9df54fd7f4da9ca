package payments

import "errors"

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = errors.New("payments: reservation not found")

	// ErrPaymentNotFound возвращается, когда у бронирования нет платежной авторизации
	ErrPaymentNotFound = errors.New("payments: payment not found")

	// ErrPaymentMismatch возвращается, когда ссылка на платеж не совпадает с сохраненной
	ErrPaymentMismatch = errors.New("payments: payment reference does not match reservation")

	// ErrReservationExpired возвращается при подтверждении оплаты уже отмененного бронирования
	ErrReservationExpired = errors.New("payments: reservation is no longer awaiting payment")

	// ErrPaymentDeclined возвращается, когда шлюз отклонил авторизацию или списание
	ErrPaymentDeclined = errors.New("payments: payment declined")

	// ErrGatewayUnavailable возвращается при недоступности платежного шлюза
	ErrGatewayUnavailable = errors.New("payments: payment gateway unavailable")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("payments: internal error")
)

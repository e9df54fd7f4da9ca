package paymentgateway

import "errors"

var (
	// ErrDeclined возвращается, когда шлюз отклонил операцию (недостаточно средств, карта заблокирована и т.д.)
	ErrDeclined = errors.New("payment gateway: operation declined")

	// ErrAuthorizationNotFound возвращается, когда шлюз не знает указанную авторизацию
	ErrAuthorizationNotFound = errors.New("payment gateway: authorization not found")

	// ErrUnavailable возвращается при недоступности шлюза или открытом circuit breaker
	ErrUnavailable = errors.New("payment gateway: unavailable")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("payment gateway client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от шлюза
	ErrInvalidResponse = errors.New("payment gateway client: invalid response")
)

package get_available_addons

import (
	"context"

	getAvailableAddons "github.com/m04kA/SMC-ReservationService/internal/usecase/get_available_addons"
)

type GetAvailableAddonsUseCase interface {
	Execute(ctx context.Context, req *getAvailableAddons.Request) (*getAvailableAddons.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

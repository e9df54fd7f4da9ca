package admin_block

import (
	"context"

	adminBlock "github.com/m04kA/SMC-ReservationService/internal/usecase/admin_block"
)

type AdminBlockUseCase interface {
	Execute(ctx context.Context, req *adminBlock.Request) (*adminBlock.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

package claim

import "errors"

var (
	// ErrClaimNotFound возвращается, когда работник еще не выигрывал предложение по бронированию
	ErrClaimNotFound = errors.New("claim.repository: claim not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("claim.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("claim.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("claim.repository: failed to scan row")
)

package update_resource_status

import (
	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// UpdateStatusRequest HTTP request model
type UpdateStatusRequest struct {
	Active *bool `json:"active"`
}

// StatusResponse HTTP response model
type StatusResponse struct {
	ResourceID int64  `json:"resourceId"`
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	Active     bool   `json:"active"`
}

func FromDomain(res *domain.Resource) *StatusResponse {
	return &StatusResponse{
		ResourceID: res.ID,
		Kind:       string(res.Kind),
		Name:       res.Name,
		Active:     res.Active,
	}
}

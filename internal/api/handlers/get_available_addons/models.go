package get_available_addons

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	getAvailableAddons "github.com/m04kA/SMC-ReservationService/internal/usecase/get_available_addons"
	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

// AvailableAddonsResponse HTTP response model
type AvailableAddonsResponse struct {
	ResourceID int64        `json:"resourceId"`
	StartAt    time.Time    `json:"startAt"`
	EndAt      time.Time    `json:"endAt"`
	Groups     []AddonGroup `json:"groups"`
}

// AddonGroup дополнения одного вида
type AddonGroup struct {
	Kind  string  `json:"kind"`
	Items []Addon `json:"items"`
}

// Addon свободное дополнение
type Addon struct {
	ResourceID int64  `json:"resourceId"`
	Name       string `json:"name"`
	FreeUnits  int    `json:"freeUnits"`
	TotalUnits int    `json:"totalUnits"`
	Price      string `json:"price"`
}

// ToUseCaseRequest создает запрос use case из query параметров
func ToUseCaseRequest(resourceID int64, dateStr, startTimeStr string, durationMinutes int) (*getAvailableAddons.Request, error) {
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return nil, err
	}

	startTime, err := types.NewTimeStringFromString(startTimeStr)
	if err != nil {
		return nil, err
	}

	return &getAvailableAddons.Request{
		ResourceID:      resourceID,
		Date:            date,
		StartTime:       startTime,
		DurationMinutes: durationMinutes,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableAddons.Response) *AvailableAddonsResponse {
	groups := make([]AddonGroup, 0, len(resp.Groups))
	for _, g := range resp.Groups {
		items := make([]Addon, len(g.Items))
		for i, a := range g.Items {
			items[i] = Addon{
				ResourceID: a.ResourceID,
				Name:       a.Name,
				FreeUnits:  a.FreeUnits,
				TotalUnits: a.TotalUnits,
				Price:      a.Price.StringFixed(2),
			}
		}
		groups = append(groups, AddonGroup{Kind: g.Kind, Items: items})
	}

	return &AvailableAddonsResponse{
		ResourceID: resp.ResourceID,
		StartAt:    resp.StartAt,
		EndAt:      resp.EndAt,
		Groups:     groups,
	}
}

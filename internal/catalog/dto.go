package catalog

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

// ProductDTO is the wire shape of a catalog entry.
type ProductDTO struct {
	ID           uuid.UUID `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	DisplayName  string    `json:"displayName"`
	Description  *string   `json:"description,omitempty"`
	Category     *string   `json:"category,omitempty"`
	Capacity     int       `json:"capacity"`
	NightlyPrice float64   `json:"nightlyPrice"`
	SetupFee     float64   `json:"setupFee"`
	IsActive     bool      `json:"isActive"`
}

func ToDTO(p models.Product) ProductDTO {
	return ProductDTO{
		ID:           p.ID,
		Slug:         p.Slug,
		Name:         p.Name,
		DisplayName:  p.DisplayName,
		Description:  p.Description,
		Category:     p.Category,
		Capacity:     p.Capacity,
		NightlyPrice: types.MoneyAmount(p.NightlyPrice),
		SetupFee:     types.MoneyAmount(p.SetupFee),
		IsActive:     p.IsActive,
	}
}

func ToDTOs(products []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, ToDTO(p))
	}
	return out
}

package blockouts

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	"github.com/angelmondragon/relacksation-backend/pkg/pagination"
	"github.com/angelmondragon/relacksation-backend/pkg/types"
)

// BlockedDateDTO is the admin view of a blocked date.
type BlockedDateDTO struct {
	ID          uuid.UUID         `json:"id"`
	Date        types.Date        `json:"date"`
	Reason      enums.BlockReason `json:"reason"`
	Description *string           `json:"description,omitempty"`
	AllProducts bool              `json:"isAllProductsBlocked"`
	Products    []string          `json:"products"`
	BlockedBy   string            `json:"blockedBy"`
	IsActive    bool              `json:"isActive"`
	DeletedAt   *time.Time        `json:"deletedAt,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

type ListResult struct {
	BlockedDates []BlockedDateDTO `json:"blockedDates"`
	Pagination   pagination.Meta  `json:"pagination"`
}

type ReasonCount struct {
	Reason enums.BlockReason `json:"reason"`
	Count  int               `json:"count"`
}

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type ProductCount struct {
	Product     string `json:"product"`
	ProductName string `json:"productName,omitempty"`
	Count       int    `json:"count"`
}

// Stats summarizes active blocked dates.
type Stats struct {
	TotalBlockedDates     int            `json:"totalBlockedDates"`
	BlockedByReason       []ReasonCount  `json:"blockedByReason"`
	BlockedByMonth        []MonthCount   `json:"blockedByMonth"`
	ProductSpecificBlocks []ProductCount `json:"productSpecificBlocks"`
}

func ToDTO(b models.BlockedDate) BlockedDateDTO {
	products := []string{}
	if !b.AllProducts {
		products = append(products, b.Products...)
	}
	return BlockedDateDTO{
		ID:          b.ID,
		Date:        b.Date,
		Reason:      b.Reason,
		Description: b.Description,
		AllProducts: b.AllProducts,
		Products:    products,
		BlockedBy:   b.BlockedBy,
		IsActive:    b.IsActive,
		DeletedAt:   b.DeletedAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func ToDTOs(blocks []models.BlockedDate) []BlockedDateDTO {
	out := make([]BlockedDateDTO, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, ToDTO(b))
	}
	return out
}

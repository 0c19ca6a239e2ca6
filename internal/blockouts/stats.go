package blockouts

import (
	"sort"

	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	"github.com/angelmondragon/relacksation-backend/pkg/enums"
)

// summarize groups active blocks by reason (most frequent first), by month
// (chronological) and by product for product-scoped blocks.
func summarize(blocks []models.BlockedDate, names map[string]string) Stats {
	byReason := map[enums.BlockReason]int{}
	byMonth := map[string]int{}
	byProduct := map[string]int{}
	total := 0

	for _, b := range blocks {
		if !b.IsActive {
			continue
		}
		total++
		byReason[b.Reason]++
		byMonth[b.Date.MonthKey()]++
		if b.AllProducts {
			continue
		}
		for _, slug := range b.Products {
			byProduct[slug]++
		}
	}

	stats := Stats{
		TotalBlockedDates:     total,
		BlockedByReason:       make([]ReasonCount, 0, len(byReason)),
		BlockedByMonth:        make([]MonthCount, 0, len(byMonth)),
		ProductSpecificBlocks: make([]ProductCount, 0, len(byProduct)),
	}
	for reason, count := range byReason {
		stats.BlockedByReason = append(stats.BlockedByReason, ReasonCount{Reason: reason, Count: count})
	}
	sort.Slice(stats.BlockedByReason, func(i, j int) bool {
		a, b := stats.BlockedByReason[i], stats.BlockedByReason[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Reason < b.Reason
	})

	for month, count := range byMonth {
		stats.BlockedByMonth = append(stats.BlockedByMonth, MonthCount{Month: month, Count: count})
	}
	sort.Slice(stats.BlockedByMonth, func(i, j int) bool {
		return stats.BlockedByMonth[i].Month < stats.BlockedByMonth[j].Month
	})

	for slug, count := range byProduct {
		stats.ProductSpecificBlocks = append(stats.ProductSpecificBlocks, ProductCount{
			Product:     slug,
			ProductName: names[slug],
			Count:       count,
		})
	}
	sort.Slice(stats.ProductSpecificBlocks, func(i, j int) bool {
		a, b := stats.ProductSpecificBlocks[i], stats.ProductSpecificBlocks[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Product < b.Product
	})
	return stats
}

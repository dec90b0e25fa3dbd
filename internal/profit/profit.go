package profit

import (
	"sort"
	"time"

	"order-service/internal/entity"
)

// Line is one completed-order item with the catalog figures current at read
// time, keyed by the owning order's creation date.
type Line struct {
	CreatedDate time.Time
	Quantity    int
	UnitCost    float64
	UnitPrice   float64
}

// LineTotals returns the cost and price totals for a single line.
func LineTotals(unitCost, unitPrice float64, quantity int) (totalCost, totalPrice float64) {
	return unitCost * float64(quantity), unitPrice * float64(quantity)
}

// ByMonth buckets line profit by the owning order's UTC year and month.
// Profit per line is quantity x (unit price - unit cost). The result holds
// each (year, month) at most once, sorted by year descending then month
// descending. Lines drive bucket existence: no lines, no bucket.
func ByMonth(lines []Line) []entity.MonthlyProfit {
	type key struct {
		year  int
		month time.Month
	}

	buckets := make(map[key]float64)
	for _, l := range lines {
		created := l.CreatedDate.UTC()
		k := key{year: created.Year(), month: created.Month()}
		buckets[k] += float64(l.Quantity) * (l.UnitPrice - l.UnitCost)
	}

	result := make([]entity.MonthlyProfit, 0, len(buckets))
	for k, p := range buckets {
		result = append(result, entity.MonthlyProfit{
			Year:      k.year,
			Month:     int(k.month),
			Profit:    p,
			MonthName: k.month.String(),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year > result[j].Year
		}
		return result[i].Month > result[j].Month
	})

	return result
}

package domain

import "time"

// DefaultDailyLimit is how many clothes the service processes per day.
const DefaultDailyLimit = 8

// EstimateReadyDate returns the day an order of newClothesCount items is expected
// to be ready, assuming every pending order is still outstanding.
//
// The estimate is today plus ceil(total/dailyLimit)-1 calendar days, where total
// is the pending volume plus the new order. The time of day of now is kept so the
// result is never before the order's creation time.
func EstimateReadyDate(pending []Order, newClothesCount, dailyLimit int, now time.Time) time.Time {
	if dailyLimit < 1 {
		dailyLimit = DefaultDailyLimit
	}
	total := TotalClothes(pending) + newClothesCount
	if total < 1 {
		total = 1
	}
	daysNeeded := (total + dailyLimit - 1) / dailyLimit
	return now.AddDate(0, 0, daysNeeded-1)
}

// TotalClothes sums clothesCount over orders.
func TotalClothes(orders []Order) int {
	total := 0
	for _, o := range orders {
		total += o.ClothesCount
	}
	return total
}

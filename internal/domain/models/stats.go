package models

// BarnStatistics is computed client-side from the full barn collection.
type BarnStatistics struct {
	TotalBarns    int `json:"totalBarns"`
	TotalChickens int `json:"totalChickens"`
	DailyEggs     int `json:"dailyEggs"`
	Alerts        int `json:"alerts"`
	Warnings      int `json:"warnings"`
	OK            int `json:"ok"`
	Unknown       int `json:"unknown"`
}

// AlertCount is the combined alert indicator shown on the dashboard.
func (s BarnStatistics) AlertCount() int {
	return s.Alerts + s.Warnings
}

// ComputeBarnStatistics folds the barn list into totals and status counts.
func ComputeBarnStatistics(barns []Barn) BarnStatistics {
	stats := BarnStatistics{TotalBarns: len(barns)}
	for _, b := range barns {
		stats.TotalChickens += b.ChickenCount()
		stats.DailyEggs += b.EggCount()
		switch b.Status {
		case StatusAlert:
			stats.Alerts++
		case StatusWarning:
			stats.Warnings++
		case StatusOK:
			stats.OK++
		default:
			stats.Unknown++
		}
	}
	return stats
}

// FeedStatistics is computed client-side from the full feed collection.
type FeedStatistics struct {
	TotalRecords           int     `json:"totalRecords"`
	TotalAmount            float64 `json:"totalAmount"`
	AverageConsumptionRate float64 `json:"averageConsumptionRate"`
	LowStockAlerts         int     `json:"lowStockAlerts"`
}

// ComputeFeedStatistics folds the feed records into totals. The average is zero for an empty list.
func ComputeFeedStatistics(records []FeedRecord) FeedStatistics {
	stats := FeedStatistics{TotalRecords: len(records)}
	var rateSum float64
	for _, r := range records {
		stats.TotalAmount += FloatValue(r.Amount)
		rateSum += FloatValue(r.ConsumptionRate)
		if r.LowStock() {
			stats.LowStockAlerts++
		}
	}
	if len(records) > 0 {
		stats.AverageConsumptionRate = rateSum / float64(len(records))
	}
	return stats
}

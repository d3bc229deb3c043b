package models

import "time"

// DailySnapshot is the end-of-day farm summary archived in MongoDB.
type DailySnapshot struct {
	Date           time.Time `bson:"date" json:"date"`
	TotalBarns     int       `bson:"total_barns" json:"total_barns"`
	TotalChickens  int       `bson:"total_chickens" json:"total_chickens"`
	DailyEggs      int       `bson:"daily_eggs" json:"daily_eggs"`
	Alerts         int       `bson:"alerts" json:"alerts"`
	Warnings       int       `bson:"warnings" json:"warnings"`
	OK             int       `bson:"ok" json:"ok"`
	FeedRecords    int       `bson:"feed_records" json:"feed_records"`
	FeedAmount     float64   `bson:"feed_amount" json:"feed_amount"`
	LowStockAlerts int       `bson:"low_stock_alerts" json:"low_stock_alerts"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}

// NewDailySnapshot combines barn and feed statistics for the given day.
func NewDailySnapshot(day time.Time, barns BarnStatistics, feed FeedStatistics, now time.Time) DailySnapshot {
	return DailySnapshot{
		Date:           time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()),
		TotalBarns:     barns.TotalBarns,
		TotalChickens:  barns.TotalChickens,
		DailyEggs:      barns.DailyEggs,
		Alerts:         barns.Alerts,
		Warnings:       barns.Warnings,
		OK:             barns.OK,
		FeedRecords:    feed.TotalRecords,
		FeedAmount:     feed.TotalAmount,
		LowStockAlerts: feed.LowStockAlerts,
		CreatedAt:      now,
	}
}

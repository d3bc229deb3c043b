package models

import (
	"strings"
	"time"
)

// LowStockDays is the estimated-days-remaining threshold below which a feed record counts as low stock.
const LowStockDays = 7

// FeedRecord is one feed-dispensing observation tied to a barn.
type FeedRecord struct {
	ID                     string      `json:"id"`
	BarnID                 string      `json:"barn_id"`
	ProfileID              string      `json:"profile_id"`
	Type                   string      `json:"type"`
	Amount                 *float64    `json:"amount,omitempty"`
	Date                   *time.Time  `json:"date,omitempty"`
	DeviceID               *string     `json:"device_id,omitempty"`
	ConsumptionRate        *float64    `json:"consumption_rate,omitempty"`
	EstimatedDaysRemaining *int        `json:"estimated_days_remaining,omitempty"`
	LastRefill             *time.Time  `json:"last_refill,omitempty"`
	CreatedAt              *time.Time  `json:"created_at,omitempty"`
	Barn                   *BarnRef    `json:"barns,omitempty"`
	Profile                *ProfileRef `json:"profiles,omitempty"`
}

// LowStock reports whether the record predicts fewer than LowStockDays of feed left.
func (f FeedRecord) LowStock() bool {
	return f.EstimatedDaysRemaining != nil && *f.EstimatedDaysRemaining < LowStockDays
}

// BarnName returns the embedded barn name, if any.
func (f FeedRecord) BarnName() string {
	if f.Barn == nil {
		return ""
	}
	return f.Barn.Name
}

// ProfileEmail returns the embedded profile email, if any.
func (f FeedRecord) ProfileEmail() string {
	if f.Profile == nil {
		return ""
	}
	return f.Profile.Email
}

// Matches reports whether the search term appears, case-insensitively, in the
// barn name, feed type, or profile email.
func (f FeedRecord) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range []string{f.BarnName(), f.Type, f.ProfileEmail()} {
		if field != "" && strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// FeedInput carries the fields submitted by the feed form.
type FeedInput struct {
	BarnID                 string     `json:"barn_id"`
	ProfileID              string     `json:"profile_id"`
	Type                   string     `json:"type"`
	Amount                 float64    `json:"amount"`
	Date                   *time.Time `json:"date,omitempty"`
	DeviceID               *string    `json:"device_id,omitempty"`
	ConsumptionRate        *float64   `json:"consumption_rate,omitempty"`
	EstimatedDaysRemaining *int       `json:"estimated_days_remaining,omitempty"`
	LastRefill             *time.Time `json:"last_refill,omitempty"`
}

// FeedFilter narrows a feed listing. Search is matched against joined fields.
type FeedFilter struct {
	Search    string
	Type      string
	BarnID    string
	ProfileID string
}

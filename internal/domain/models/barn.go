package models

import (
	"strings"
	"time"
)

// BarnStatus is the health classification of a barn.
type BarnStatus string

const (
	StatusOK      BarnStatus = "ok"
	StatusWarning BarnStatus = "warning"
	StatusAlert   BarnStatus = "alert"
	StatusUnknown BarnStatus = "unknown"
)

// ParseBarnStatus normalizes free-form input. Empty or unrecognized values map to StatusUnknown.
func ParseBarnStatus(value string) BarnStatus {
	switch BarnStatus(strings.ToLower(strings.TrimSpace(value))) {
	case StatusOK:
		return StatusOK
	case StatusWarning:
		return StatusWarning
	case StatusAlert:
		return StatusAlert
	default:
		return StatusUnknown
	}
}

// Known reports whether the status is one of ok, warning, or alert.
func (s BarnStatus) Known() bool {
	return s == StatusOK || s == StatusWarning || s == StatusAlert
}

// NeedsAttention reports whether the barn should show up in alert checks.
func (s BarnStatus) NeedsAttention() bool {
	return s == StatusWarning || s == StatusAlert
}

// Barn is a monitored chicken house.
type Barn struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Chickens    *int        `json:"chickens,omitempty"`
	EggsToday   *int        `json:"eggs_today,omitempty"`
	Temperature *float64    `json:"temperature,omitempty"`
	Humidity    *float64    `json:"humidity,omitempty"`
	Status      BarnStatus  `json:"status"`
	ProfileID   string      `json:"profile_id"`
	Owner       *ProfileRef `json:"profiles,omitempty"`
	CreatedAt   *time.Time  `json:"created_at,omitempty"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
}

// ChickenCount returns the chicken count, treating a missing value as zero.
func (b Barn) ChickenCount() int { return IntValue(b.Chickens) }

// EggCount returns today's egg count, treating a missing value as zero.
func (b Barn) EggCount() int { return IntValue(b.EggsToday) }

// TemperatureValue returns the temperature, treating a missing value as zero.
func (b Barn) TemperatureValue() float64 { return FloatValue(b.Temperature) }

// HumidityValue returns the humidity, treating a missing value as zero.
func (b Barn) HumidityValue() float64 { return FloatValue(b.Humidity) }

// BarnRef is the embedded barn summary returned alongside feed records.
type BarnRef struct {
	Name string `json:"name,omitempty"`
}

// BarnInput carries the fields submitted by the create/edit form.
type BarnInput struct {
	Name        string     `json:"name"`
	Chickens    int        `json:"chickens"`
	EggsToday   int        `json:"eggs_today"`
	Temperature float64    `json:"temperature"`
	Humidity    float64    `json:"humidity"`
	Status      BarnStatus `json:"status"`
	ProfileID   string     `json:"profile_id"`
}

// Patch converts a full form submission into an update patch.
func (in BarnInput) Patch() BarnPatch {
	name := in.Name
	status := in.Status
	profileID := in.ProfileID
	return BarnPatch{
		Name:        &name,
		Chickens:    Int(in.Chickens),
		EggsToday:   Int(in.EggsToday),
		Temperature: Float(in.Temperature),
		Humidity:    Float(in.Humidity),
		Status:      &status,
		ProfileID:   &profileID,
	}
}

// BarnPatch is a partial update; nil fields are left untouched.
type BarnPatch struct {
	Name        *string     `json:"name,omitempty"`
	Chickens    *int        `json:"chickens,omitempty"`
	EggsToday   *int        `json:"eggs_today,omitempty"`
	Temperature *float64    `json:"temperature,omitempty"`
	Humidity    *float64    `json:"humidity,omitempty"`
	Status      *BarnStatus `json:"status,omitempty"`
	ProfileID   *string     `json:"profile_id,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p BarnPatch) Empty() bool {
	return p.Name == nil && p.Chickens == nil && p.EggsToday == nil && p.Temperature == nil &&
		p.Humidity == nil && p.Status == nil && p.ProfileID == nil
}

// Apply writes the non-nil patch fields onto the barn.
func (p BarnPatch) Apply(b *Barn) {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Chickens != nil {
		b.Chickens = Int(*p.Chickens)
	}
	if p.EggsToday != nil {
		b.EggsToday = Int(*p.EggsToday)
	}
	if p.Temperature != nil {
		b.Temperature = Float(*p.Temperature)
	}
	if p.Humidity != nil {
		b.Humidity = Float(*p.Humidity)
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.ProfileID != nil {
		b.ProfileID = *p.ProfileID
	}
}

// BarnFilter narrows a barn listing. Zero values mean "no filter"; Limit 0 means no limit.
type BarnFilter struct {
	Search    string
	Status    BarnStatus
	ProfileID string
	Offset    int
	Limit     int
}

// IntValue dereferences p, returning zero for nil.
func IntValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// FloatValue dereferences p, returning zero for nil.
func FloatValue(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

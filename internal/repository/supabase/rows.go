package supabase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mamadbah2/telurku/internal/domain/models"
)

// The backend hands rows back as loosely typed JSON: ids may be uuids or
// bigints, numeric columns may arrive as numbers or strings, and timestamps
// come with or without a zone. The types below coerce those shapes into
// the typed records at this single boundary.

var null = []byte("null")

type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, null) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	*s = flexString(b)
	return nil
}

type optInt struct{ v *int }

func (o *optInt) UnmarshalJSON(b []byte) error {
	raw, ok, err := numericText(b)
	if err != nil || !ok {
		o.v = nil
		return err
	}
	if n, err := strconv.Atoi(raw); err == nil {
		o.v = &n
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("coerce %q to int: %w", raw, err)
	}
	n := int(f)
	o.v = &n
	return nil
}

type optFloat struct{ v *float64 }

func (o *optFloat) UnmarshalJSON(b []byte) error {
	raw, ok, err := numericText(b)
	if err != nil || !ok {
		o.v = nil
		return err
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("coerce %q to float: %w", raw, err)
	}
	o.v = &f
	return nil
}

// numericText returns the textual number inside b, which may be a JSON number or a quoted string.
func numericText(b []byte) (string, bool, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, null) {
		return "", false, nil
	}
	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return "", false, err
		}
		str = strings.TrimSpace(str)
		return str, str != "", nil
	}
	return string(b), true, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05.999999",
	"2006-01-02",
}

type optTime struct{ v *time.Time }

func (o *optTime) UnmarshalJSON(b []byte) error {
	var str *string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	if str == nil || strings.TrimSpace(*str) == "" {
		o.v = nil
		return nil
	}
	t, err := parseTime(*str)
	if err != nil {
		return err
	}
	o.v = &t
	return nil
}

func parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

type barnRow struct {
	ID          flexString         `json:"id"`
	Name        string             `json:"name"`
	Chickens    optInt             `json:"chickens"`
	EggsToday   optInt             `json:"eggs_today"`
	Temperature optFloat           `json:"temperature"`
	Humidity    optFloat           `json:"humidity"`
	Status      *string            `json:"status"`
	ProfileID   flexString         `json:"profile_id"`
	Profiles    *models.ProfileRef `json:"profiles"`
	CreatedAt   optTime            `json:"created_at"`
	UpdatedAt   optTime            `json:"updated_at"`
}

func (r barnRow) toModel() models.Barn {
	status := models.StatusUnknown
	if r.Status != nil {
		status = models.ParseBarnStatus(*r.Status)
	}
	return models.Barn{
		ID:          string(r.ID),
		Name:        r.Name,
		Chickens:    r.Chickens.v,
		EggsToday:   r.EggsToday.v,
		Temperature: r.Temperature.v,
		Humidity:    r.Humidity.v,
		Status:      status,
		ProfileID:   string(r.ProfileID),
		Owner:       r.Profiles,
		CreatedAt:   r.CreatedAt.v,
		UpdatedAt:   r.UpdatedAt.v,
	}
}

func barnsFromRows(rows []barnRow) []models.Barn {
	out := make([]models.Barn, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out
}

type barnWrite struct {
	Name        string            `json:"name"`
	Chickens    int               `json:"chickens"`
	EggsToday   int               `json:"eggs_today"`
	Temperature float64           `json:"temperature"`
	Humidity    float64           `json:"humidity"`
	Status      models.BarnStatus `json:"status"`
	ProfileID   string            `json:"profile_id"`
}

func newBarnWrite(in models.BarnInput) barnWrite {
	status := in.Status
	if !status.Known() {
		status = models.StatusOK
	}
	return barnWrite{
		Name:        in.Name,
		Chickens:    in.Chickens,
		EggsToday:   in.EggsToday,
		Temperature: in.Temperature,
		Humidity:    in.Humidity,
		Status:      status,
		ProfileID:   in.ProfileID,
	}
}

type feedRow struct {
	ID                     flexString         `json:"id"`
	BarnID                 flexString         `json:"barn_id"`
	ProfileID              flexString         `json:"profile_id"`
	Type                   string             `json:"type"`
	Amount                 optFloat           `json:"amount"`
	Date                   optTime            `json:"date"`
	DeviceID               *string            `json:"device_id"`
	ConsumptionRate        optFloat           `json:"consumption_rate"`
	EstimatedDaysRemaining optInt             `json:"estimated_days_remaining"`
	LastRefill             optTime            `json:"last_refill"`
	CreatedAt              optTime            `json:"created_at"`
	Barns                  *models.BarnRef    `json:"barns"`
	Profiles               *models.ProfileRef `json:"profiles"`
}

func (r feedRow) toModel() models.FeedRecord {
	return models.FeedRecord{
		ID:                     string(r.ID),
		BarnID:                 string(r.BarnID),
		ProfileID:              string(r.ProfileID),
		Type:                   r.Type,
		Amount:                 r.Amount.v,
		Date:                   r.Date.v,
		DeviceID:               r.DeviceID,
		ConsumptionRate:        r.ConsumptionRate.v,
		EstimatedDaysRemaining: r.EstimatedDaysRemaining.v,
		LastRefill:             r.LastRefill.v,
		CreatedAt:              r.CreatedAt.v,
		Barn:                   r.Barns,
		Profile:                r.Profiles,
	}
}

type feedWrite struct {
	BarnID                 string   `json:"barn_id"`
	ProfileID              string   `json:"profile_id"`
	Type                   string   `json:"type"`
	Amount                 float64  `json:"amount"`
	Date                   *string  `json:"date"`
	DeviceID               *string  `json:"device_id"`
	ConsumptionRate        *float64 `json:"consumption_rate"`
	EstimatedDaysRemaining *int     `json:"estimated_days_remaining"`
	LastRefill             *string  `json:"last_refill"`
}

func newFeedWrite(in models.FeedInput) feedWrite {
	w := feedWrite{
		BarnID:                 in.BarnID,
		ProfileID:              in.ProfileID,
		Type:                   in.Type,
		Amount:                 in.Amount,
		DeviceID:               in.DeviceID,
		ConsumptionRate:        in.ConsumptionRate,
		EstimatedDaysRemaining: in.EstimatedDaysRemaining,
	}
	if in.Date != nil {
		w.Date = models.String(in.Date.Format("2006-01-02"))
	}
	if in.LastRefill != nil {
		w.LastRefill = models.String(in.LastRefill.UTC().Format(time.RFC3339))
	}
	return w
}

type profileRow struct {
	ID    flexString `json:"id"`
	Name  *string    `json:"name"`
	Email *string    `json:"email"`
	Role  *string    `json:"role"`
}

func (r profileRow) toModel() models.Profile {
	p := models.Profile{ID: string(r.ID)}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Email != nil {
		p.Email = *r.Email
	}
	if r.Role != nil {
		p.Role = models.Role(strings.ToLower(strings.TrimSpace(*r.Role)))
	}
	return p
}

type auditRow struct {
	BarnID    flexString      `json:"barn_id"`
	Operation string          `json:"operation"`
	OldData   json.RawMessage `json:"old_data"`
	NewData   json.RawMessage `json:"new_data"`
	CreatedAt optTime         `json:"created_at"`
}

func (r auditRow) toModel() models.AuditEntry {
	return models.AuditEntry{
		BarnID:    string(r.BarnID),
		Operation: models.Operation(strings.ToUpper(strings.TrimSpace(r.Operation))),
		OldData:   decodeObject(r.OldData),
		NewData:   decodeObject(r.NewData),
		CreatedAt: r.CreatedAt.v,
	}
}

// decodeObject accepts a JSON object or a string holding one; anything else yields nil.
func decodeObject(raw json.RawMessage) map[string]any {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, null) {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if err := json.Unmarshal([]byte(str), &obj); err == nil {
			return obj
		}
	}
	return nil
}

package view

import (
	"time"

	"github.com/mamadbah2/telurku/internal/domain/models"
)

// BarnRow is a barn ready for display.
type BarnRow struct {
	models.Barn
	StatusColor string    `json:"statusColor"`
	Indicator   Indicator `json:"indicator"`
	OwnerName   string    `json:"ownerName"`
	Created     string    `json:"created"`
	Updated     string    `json:"updated"`
}

// NewBarnRow decorates b.
func NewBarnRow(b models.Barn, loc *time.Location) BarnRow {
	row := BarnRow{
		Barn:        b,
		StatusColor: StatusColor(b.Status),
		Indicator:   StatusIndicator(b.Status),
		Created:     FormatDate(b.CreatedAt, loc),
		Updated:     FormatDate(b.UpdatedAt, loc),
	}
	if b.Owner != nil {
		row.OwnerName = b.Owner.Name
		if row.OwnerName == "" {
			row.OwnerName = b.Owner.Email
		}
	}
	return row
}

// BarnRows decorates a slice of barns.
func BarnRows(barns []models.Barn, loc *time.Location) []BarnRow {
	out := make([]BarnRow, 0, len(barns))
	for _, b := range barns {
		out = append(out, NewBarnRow(b, loc))
	}
	return out
}

// FeedRow is a feed record ready for display.
type FeedRow struct {
	models.FeedRecord
	BarnName   string `json:"barnName"`
	Email      string `json:"email"`
	LowStock   bool   `json:"lowStock"`
	DateText   string `json:"dateText"`
	RefillText string `json:"refillText"`
}

// FeedRows decorates a slice of feed records.
func FeedRows(records []models.FeedRecord, loc *time.Location) []FeedRow {
	out := make([]FeedRow, 0, len(records))
	for _, r := range records {
		name := r.BarnName()
		if name == "" {
			name = "Unknown Barn"
		}
		out = append(out, FeedRow{
			FeedRecord: r,
			BarnName:   name,
			Email:      r.ProfileEmail(),
			LowStock:   r.LowStock(),
			DateText:   FormatDate(r.Date, loc),
			RefillText: FormatDateTime(r.LastRefill, loc),
		})
	}
	return out
}

// AuditRow is an audit log entry ready for display.
type AuditRow struct {
	Operation models.Operation `json:"operation"`
	Color     string           `json:"color"`
	When      string           `json:"when"`
	Details   string           `json:"details"`
}

// AuditRows decorates the audit log.
func AuditRows(entries []models.AuditEntry, loc *time.Location) []AuditRow {
	out := make([]AuditRow, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditRow{
			Operation: e.Operation,
			Color:     OperationColor(e.Operation),
			When:      FormatDateTime(e.CreatedAt, loc),
			Details:   AuditDetails(e),
		})
	}
	return out
}

// StatusSlice is one segment of the status distribution chart.
type StatusSlice struct {
	Status models.BarnStatus `json:"status"`
	Count  int               `json:"count"`
	Color  string            `json:"color"`
}

// StatusDistribution splits the barn statistics by status.
func StatusDistribution(s models.BarnStatistics) []StatusSlice {
	return []StatusSlice{
		{Status: models.StatusOK, Count: s.OK, Color: ColorSuccess},
		{Status: models.StatusWarning, Count: s.Warnings, Color: ColorWarning},
		{Status: models.StatusAlert, Count: s.Alerts, Color: ColorDanger},
		{Status: models.StatusUnknown, Count: s.Unknown, Color: ColorSecondary},
	}
}

// UserInfo is the header block for the signed-in user.
type UserInfo struct {
	UserID    string      `json:"userId"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	RoleLabel string      `json:"roleLabel"`
	IsAdmin   bool        `json:"isAdmin"`
}

// NewUserInfo builds the header block. IsAdmin only toggles admin-only
// controls; writes are authorized again server-side.
func NewUserInfo(userID, email string, role models.Role) UserInfo {
	return UserInfo{
		UserID:    userID,
		Email:     email,
		Role:      role,
		RoleLabel: RoleLabel(role),
		IsAdmin:   role.CanWrite(),
	}
}

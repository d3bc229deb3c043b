// Package view turns domain records into the display hints the dashboard
// renders: badge colors, indicator icons, formatted dates, the pagination
// band and notification banners.
package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/mamadbah2/telurku/internal/domain/models"
)

// Badge colors.
const (
	ColorSuccess   = "success"
	ColorWarning   = "warning"
	ColorDanger    = "danger"
	ColorSecondary = "secondary"
	ColorInfo      = "info"
)

// BannerDismissAfter is how long a banner stays on screen.
const BannerDismissAfter = 5 * time.Second

// StatusColor maps a barn status to its badge color.
func StatusColor(s models.BarnStatus) string {
	switch s {
	case models.StatusOK:
		return ColorSuccess
	case models.StatusWarning:
		return ColorWarning
	case models.StatusAlert:
		return ColorDanger
	default:
		return ColorSecondary
	}
}

// Indicator is the small status icon shown next to a barn.
type Indicator struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Title string `json:"title"`
}

// StatusIndicator returns the icon and tooltip for a barn status.
func StatusIndicator(s models.BarnStatus) Indicator {
	switch s {
	case models.StatusOK:
		return Indicator{Icon: "bi-check-circle-fill", Color: ColorSuccess, Title: "All systems operational"}
	case models.StatusWarning:
		return Indicator{Icon: "bi-exclamation-triangle-fill", Color: ColorWarning, Title: "Attention needed"}
	case models.StatusAlert:
		return Indicator{Icon: "bi-x-circle-fill", Color: ColorDanger, Title: "Immediate action required"}
	default:
		return Indicator{Icon: "bi-question-circle-fill", Color: ColorSecondary, Title: "Status unknown"}
	}
}

// OperationColor maps an audit operation to its badge color.
func OperationColor(op models.Operation) string {
	switch op {
	case models.OperationCreate:
		return ColorSuccess
	case models.OperationUpdate:
		return ColorWarning
	case models.OperationDelete:
		return ColorDanger
	default:
		return ColorSecondary
	}
}

// AuditDetails summarizes an audit entry in one line.
func AuditDetails(e models.AuditEntry) string {
	if e.Operation == models.OperationDelete {
		return "Barn was deleted"
	}
	data := e.OldData
	if e.Operation == models.OperationCreate {
		data = e.NewData
	}
	if data == nil {
		return "No details available"
	}
	name, _ := data["name"].(string)
	if name == "" {
		name = "N/A"
	}
	return "Barn: " + name
}

// FormatDate renders t as a date, or an empty string when t is unset.
func FormatDate(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(location(loc)).Format("2006-01-02")
}

// FormatDateTime renders t with time of day, or an empty string when t is unset.
func FormatDateTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(location(loc)).Format("2006-01-02 15:04:05")
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// RoleLabel is the header label for the signed-in user.
func RoleLabel(r models.Role) string {
	if r == "" {
		return ""
	}
	s := string(r)
	return "Role: " + strings.ToUpper(s[:1]) + s[1:]
}

// PageLink is one numbered entry of the pagination band.
type PageLink struct {
	Number int  `json:"number"`
	Active bool `json:"active"`
}

// Pagination is the band of page links under a paged listing.
type Pagination struct {
	Pages        []PageLink `json:"pages"`
	Previous     int        `json:"previous"`
	Next         int        `json:"next"`
	PrevDisabled bool       `json:"prevDisabled"`
	NextDisabled bool       `json:"nextDisabled"`
}

// PageWindow builds the band around page. It returns nil when there is at
// most one page.
func PageWindow(page, totalPages int) *Pagination {
	if totalPages <= 1 {
		return nil
	}
	page = max(1, min(page, totalPages))

	p := &Pagination{
		Previous:     page - 1,
		Next:         page + 1,
		PrevDisabled: page == 1,
		NextDisabled: page == totalPages,
	}
	for i := max(1, page-2); i <= min(totalPages, page+2); i++ {
		p.Pages = append(p.Pages, PageLink{Number: i, Active: i == page})
	}
	return p
}

// Banner is a transient notification shown at the top of the page.
type Banner struct {
	Type           string `json:"type"`
	Message        string `json:"message"`
	DismissAfterMS int64  `json:"dismiss_after_ms"`
}

// NewBanner builds a banner of the given type.
func NewBanner(kind, message string) Banner {
	return Banner{Type: kind, Message: message, DismissAfterMS: BannerDismissAfter.Milliseconds()}
}

// Bannerf is NewBanner with a formatted message.
func Bannerf(kind, format string, args ...any) Banner {
	return NewBanner(kind, fmt.Sprintf(format, args...))
}

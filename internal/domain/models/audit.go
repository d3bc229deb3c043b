package models

import "time"

// Operation is the kind of change recorded in the barn audit log.
type Operation string

const (
	OperationCreate Operation = "CREATE"
	OperationUpdate Operation = "UPDATE"
	OperationDelete Operation = "DELETE"
)

// AuditEntry is one backend-written audit log row. The client only reads these.
type AuditEntry struct {
	BarnID    string         `json:"barn_id"`
	Operation Operation      `json:"operation"`
	OldData   map[string]any `json:"old_data,omitempty"`
	NewData   map[string]any `json:"new_data,omitempty"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
}

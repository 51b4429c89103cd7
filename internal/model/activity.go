package model

import "time"

// ActivityType categorizes an audit trail entry.
type ActivityType string

const (
	ActivityNote         ActivityType = "NOTE"
	ActivityStatusChange ActivityType = "STATUS_CHANGE"
	ActivityDataUpdate   ActivityType = "DATA_UPDATE"
)

// ActivityLog is one append-only audit entry for a merchant, attributed to
// the acting user. Entries are never updated or deleted individually.
type ActivityLog struct {
	ID         string       `json:"id"`
	MerchantID string       `json:"merchant_id"`
	UserID     string       `json:"user_id"`
	Type       ActivityType `json:"type"`
	Message    string       `json:"message"`
	CreatedAt  time.Time    `json:"created_at"`

	// UserName is joined in on reads for display.
	UserName string `json:"user_name,omitempty"`
}

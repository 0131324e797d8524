package crm

import (
	"context"
	"time"
)

// Case status and severity values.
const (
	StatusOpen       = "open"
	StatusActive     = "active"
	SeverityCritical = "Critical"
	SeverityHigh     = "High"
)

// Repository provides read access to the CRM data.
type Repository interface {
	// Opportunities returns the active opportunities,
	// of all accounts when accountID is empty.
	Opportunities(ctx context.Context, accountID string) ([]*Opportunity, error)
	// SupportCases returns the cases of the account, newest first.
	SupportCases(ctx context.Context, accountID string) ([]*SupportCase, error)
	// AccountInfo returns the account summary, or nil when the account does not exist.
	AccountInfo(ctx context.Context, accountID string) (*AccountInfo, error)
	// RecentSupportCases returns the cases of the account created since the given time, newest first.
	RecentSupportCases(ctx context.Context, accountID string, since time.Time) ([]*SupportCase, error)
}

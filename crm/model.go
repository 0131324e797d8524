package crm

import "time"

// OpportunityItem is a line of an opportunity.
type OpportunityItem struct {
	ItemID      string  `json:"item_id" yaml:"item_id"`
	Description string  `json:"description" yaml:"description"`
	Amount      float64 `json:"amount" yaml:"amount"`
	Year        int     `json:"year" yaml:"year"`
}

// Opportunity is an active sales opportunity with its items.
type Opportunity struct {
	OpportunityID string             `json:"opportunity_id" yaml:"opportunity_id"`
	Status        string             `json:"status" yaml:"status"`
	AccountID     string             `json:"account_id" yaml:"account_id"`
	AccountName   string             `json:"account_name" yaml:"account_name"`
	Items         []*OpportunityItem `json:"items" yaml:"items"`
}

// SupportCase is a customer support case.
type SupportCase struct {
	CaseID      string    `json:"case_id" yaml:"case_id"`
	Subject     string    `json:"subject" yaml:"subject"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Status      string    `json:"status" yaml:"status"`
	Severity    string    `json:"severity" yaml:"severity"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	AccountName string    `json:"account_name,omitempty" yaml:"account_name,omitempty"`
}

// IsOpen returns true if the case is open.
func (c *SupportCase) IsOpen() bool {
	return c.Status == StatusOpen
}

// AccountInfo is the account with its opportunity and case counts.
type AccountInfo struct {
	ID                  string `json:"id" yaml:"id"`
	Name                string `json:"name" yaml:"name"`
	TotalOpportunities  int    `json:"total_opportunities" yaml:"total_opportunities"`
	ActiveOpportunities int    `json:"active_opportunities" yaml:"active_opportunities"`
	TotalSupportCases   int    `json:"total_support_cases" yaml:"total_support_cases"`
	OpenCases           int    `json:"open_cases" yaml:"open_cases"`
	CriticalCases       int    `json:"critical_cases" yaml:"critical_cases"`
}

// HealthMetrics are the case counts the health status is derived from.
type HealthMetrics struct {
	OpenCriticalCases int `json:"open_critical_cases" yaml:"open_critical_cases"`
	OpenHighCases     int `json:"open_high_cases" yaml:"open_high_cases"`
	TotalOpenCases    int `json:"total_open_cases" yaml:"total_open_cases"`
	RecentCases90Days int `json:"recent_cases_90_days" yaml:"recent_cases_90_days"`
}

// HealthReport is the result of the account health analysis.
type HealthReport struct {
	AccountID    string         `json:"account_id" yaml:"account_id"`
	HealthStatus string         `json:"health_status" yaml:"health_status"`
	Metrics      HealthMetrics  `json:"metrics" yaml:"metrics"`
	RecentCases  []*SupportCase `json:"recent_cases" yaml:"recent_cases"`
}

package crm

import "time"

// HealthWindow is how far back support cases count for the account health.
const HealthWindow = 90 * 24 * time.Hour

// recentCasesLimit is the number of cases included in a HealthReport.
const recentCasesLimit = 5

// Health statuses, from the worst.
const (
	HealthUnhappy    = "UNHAPPY - Critical issues need immediate attention"
	HealthAtRisk     = "AT RISK - Multiple high-severity issues open"
	HealthConcerning = "CONCERNING - High volume of open cases"
	HealthExcellent  = "EXCELLENT - No recent support cases"
	HealthGood       = "GOOD - Normal support activity"
)

// AnalyzeHealth derives the account health from its recent cases,
// the cases are expected newest first.
func AnalyzeHealth(accountID string, recent []*SupportCase) *HealthReport {
	var m HealthMetrics
	for _, c := range recent {
		if !c.IsOpen() {
			continue
		}
		m.TotalOpenCases++
		switch c.Severity {
		case SeverityCritical:
			m.OpenCriticalCases++
		case SeverityHigh:
			m.OpenHighCases++
		}
	}
	m.RecentCases90Days = len(recent)

	var status string
	switch {
	case m.OpenCriticalCases > 0:
		status = HealthUnhappy
	case m.OpenHighCases > 1:
		status = HealthAtRisk
	case m.TotalOpenCases > 3:
		status = HealthConcerning
	case m.RecentCases90Days == 0:
		status = HealthExcellent
	default:
		status = HealthGood
	}

	last := recent
	if len(last) > recentCasesLimit {
		last = last[:recentCasesLimit]
	}
	if last == nil {
		last = []*SupportCase{}
	}

	return &HealthReport{
		AccountID:    accountID,
		HealthStatus: status,
		Metrics:      m,
		RecentCases:  last,
	}
}

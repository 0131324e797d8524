package crm

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/pkg/llmutils"
	"github.com/effective-security/agentloop/tools"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentloop", "crm")

// Tool names.
const (
	ToolGetOpportunities     = "get_opportunities"
	ToolGetSupportCases      = "get_support_cases"
	ToolGetAccountInfo       = "get_account_info"
	ToolAnalyzeAccountHealth = "analyze_account_health"
)

// DefaultAccountID is used when the model omits the account.
const DefaultAccountID = "1"

// OpportunitiesRequest is the input of get_opportunities.
type OpportunitiesRequest struct {
	AccountID string `json:"account_id,omitempty" jsonschema:"description=Optional account ID to filter opportunities"`
}

// SupportCasesRequest is the input of get_support_cases.
type SupportCasesRequest struct {
	AccountID string `json:"account_id,omitempty" jsonschema:"description=Account ID to get support cases for,default=1"`
}

// AccountInfoRequest is the input of get_account_info.
type AccountInfoRequest struct {
	AccountID string `json:"account_id,omitempty" jsonschema:"description=Account ID to get information for,default=1"`
}

// AccountHealthRequest is the input of analyze_account_health.
type AccountHealthRequest struct {
	AccountID string `json:"account_id,omitempty" jsonschema:"description=Account ID to analyze,default=1"`
}

// Tools provides the CRM operations, as plain methods and as assistant tools.
//
// The tool results are indented JSON, or a sentence when nothing was found.
type Tools struct {
	repo Repository
	now  func() time.Time
}

// NewTools returns the CRM tools over the repository.
func NewTools(repo Repository) *Tools {
	return &Tools{repo: repo, now: time.Now}
}

// WithClock sets the clock used for the health window.
func (t *Tools) WithClock(now func() time.Time) *Tools {
	t.now = now
	return t
}

// List returns the tools to register with the assistant.
func (t *Tools) List() []tools.ITool {
	return []tools.ITool{
		tools.MustFunc(ToolGetOpportunities,
			"Get active opportunities from the CRM system. Optionally filter by account_id.",
			func(ctx context.Context, in *OpportunitiesRequest) (*string, error) {
				return ptr(t.GetOpportunities(ctx, in.AccountID))
			}),
		tools.MustFunc(ToolGetSupportCases,
			"Get support cases for an account. Defaults to account ID '1'.",
			func(ctx context.Context, in *SupportCasesRequest) (*string, error) {
				return ptr(t.GetSupportCases(ctx, in.AccountID))
			}),
		tools.MustFunc(ToolGetAccountInfo,
			"Get comprehensive account information including opportunity and case counts.",
			func(ctx context.Context, in *AccountInfoRequest) (*string, error) {
				return ptr(t.GetAccountInfo(ctx, in.AccountID))
			}),
		tools.MustFunc(ToolAnalyzeAccountHealth,
			"Analyze account health status based on support case activity and severity.",
			func(ctx context.Context, in *AccountHealthRequest) (*string, error) {
				return ptr(t.AnalyzeAccountHealth(ctx, in.AccountID))
			}),
	}
}

// Register adds the CRM tools to the registry.
func (t *Tools) Register(r *tools.Registry) error {
	for _, tool := range t.List() {
		if err := r.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

// GetOpportunities returns the active opportunities, of all accounts when accountID is empty.
func (t *Tools) GetOpportunities(ctx context.Context, accountID string) (string, error) {
	list, err := t.repo.Opportunities(ctx, accountID)
	if err != nil {
		return "", errors.WithMessage(err, "error fetching opportunities")
	}
	if len(list) == 0 {
		return "No active opportunities found.", nil
	}
	return llmutils.ToJSONIndent(list), nil
}

// GetSupportCases returns the support cases of the account.
func (t *Tools) GetSupportCases(ctx context.Context, accountID string) (string, error) {
	accountID = values.StringsCoalesce(accountID, DefaultAccountID)
	list, err := t.repo.SupportCases(ctx, accountID)
	if err != nil {
		return "", errors.WithMessage(err, "error fetching support cases")
	}
	if len(list) == 0 {
		return fmt.Sprintf("No support cases found for account %s.", accountID), nil
	}
	return llmutils.ToJSONIndent(list), nil
}

// GetAccountInfo returns the account with its opportunity and case counts.
func (t *Tools) GetAccountInfo(ctx context.Context, accountID string) (string, error) {
	accountID = values.StringsCoalesce(accountID, DefaultAccountID)
	info, err := t.repo.AccountInfo(ctx, accountID)
	if err != nil {
		return "", errors.WithMessage(err, "error fetching account info")
	}
	if info == nil {
		return fmt.Sprintf("No account found with ID %s.", accountID), nil
	}
	return llmutils.ToJSONIndent(info), nil
}

// AnalyzeAccountHealth returns the health report of the account.
func (t *Tools) AnalyzeAccountHealth(ctx context.Context, accountID string) (string, error) {
	report, err := t.Health(ctx, accountID)
	if err != nil {
		return "", err
	}
	return llmutils.ToJSONIndent(report), nil
}

// Health returns the health report of the account.
func (t *Tools) Health(ctx context.Context, accountID string) (*HealthReport, error) {
	accountID = values.StringsCoalesce(accountID, DefaultAccountID)
	recent, err := t.repo.RecentSupportCases(ctx, accountID, t.now().Add(-HealthWindow))
	if err != nil {
		return nil, errors.WithMessage(err, "error analyzing account health")
	}

	report := AnalyzeHealth(accountID, recent)
	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "account_health",
		"account_id", accountID,
		"health", report.HealthStatus,
		"recent_cases", report.Metrics.RecentCases90Days,
	)
	return report, nil
}

func ptr(s string, err error) (*string, error) {
	if err != nil {
		return nil, err
	}
	return &s, nil
}

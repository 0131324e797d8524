package crm

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is the Repository over the CRM schema in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository connects to the database.
// The connection is established lazily, on the first query.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.WithMessage(err, "invalid database DSN")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to connect to database")
	}

	logger.KV(xlog.INFO,
		"status", "database_pool",
		"host", cfg.ConnConfig.Host,
		"database", cfg.ConnConfig.Database,
	)
	return &PostgresRepository{pool: pool}, nil
}

// Ping checks the database connection.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return errors.WithStack(r.pool.Ping(ctx))
}

// Close closes the connection pool.
func (r *PostgresRepository) Close() {
	r.pool.Close()
}

const opportunitiesQuery = `
SELECT
	opportunities.id::text AS opportunity_id,
	opportunities.status,
	opportunities.account_id::text,
	COALESCE(accounts.name, '') AS account_name,
	opportunity_items.id::text AS item_id,
	opportunity_items.description,
	opportunity_items.amount::float8,
	opportunity_items.year::int
FROM opportunities
LEFT JOIN opportunity_items ON opportunities.id = opportunity_items.opportunityid
LEFT JOIN accounts ON opportunities.account_id = accounts.id
WHERE opportunities.status = 'active'
	AND ($1 = '' OR opportunities.account_id::text = $1)
ORDER BY opportunities.id, opportunity_items.id`

// Opportunities returns the active opportunities grouped with their items.
func (r *PostgresRepository) Opportunities(ctx context.Context, accountID string) ([]*Opportunity, error) {
	rows, err := r.pool.Query(ctx, opportunitiesQuery, accountID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	var list []*Opportunity
	byID := map[string]*Opportunity{}
	for rows.Next() {
		var (
			opp         Opportunity
			itemID      *string
			description *string
			amount      *float64
			year        *int32
		)
		if err := rows.Scan(&opp.OpportunityID, &opp.Status, &opp.AccountID, &opp.AccountName,
			&itemID, &description, &amount, &year); err != nil {
			return nil, errors.WithStack(err)
		}

		cur, ok := byID[opp.OpportunityID]
		if !ok {
			cur = &opp
			cur.Items = []*OpportunityItem{}
			byID[opp.OpportunityID] = cur
			list = append(list, cur)
		}
		if itemID != nil {
			item := &OpportunityItem{ItemID: *itemID}
			if description != nil {
				item.Description = *description
			}
			if amount != nil {
				item.Amount = *amount
			}
			if year != nil {
				item.Year = int(*year)
			}
			cur.Items = append(cur.Items, item)
		}
	}
	return list, errors.WithStack(rows.Err())
}

const supportCasesQuery = `
SELECT
	support_cases.id::text AS case_id,
	COALESCE(support_cases.subject, ''),
	COALESCE(support_cases.description, ''),
	COALESCE(support_cases.status, ''),
	COALESCE(support_cases.severity, ''),
	support_cases.created_at::timestamptz,
	COALESCE(accounts.name, '') AS account_name
FROM support_cases
LEFT JOIN accounts ON support_cases.account_id = accounts.id
WHERE support_cases.account_id::text = $1
ORDER BY support_cases.created_at DESC`

// SupportCases returns the cases of the account, newest first.
func (r *PostgresRepository) SupportCases(ctx context.Context, accountID string) ([]*SupportCase, error) {
	return r.queryCases(ctx, supportCasesQuery, accountID)
}

const recentSupportCasesQuery = `
SELECT
	support_cases.id::text AS case_id,
	COALESCE(support_cases.subject, ''),
	'' AS description,
	COALESCE(support_cases.status, ''),
	COALESCE(support_cases.severity, ''),
	support_cases.created_at::timestamptz,
	'' AS account_name
FROM support_cases
WHERE support_cases.account_id::text = $1
	AND support_cases.created_at >= $2
ORDER BY support_cases.created_at DESC`

// RecentSupportCases returns the cases of the account created since the given time.
func (r *PostgresRepository) RecentSupportCases(ctx context.Context, accountID string, since time.Time) ([]*SupportCase, error) {
	return r.queryCases(ctx, recentSupportCasesQuery, accountID, since)
}

func (r *PostgresRepository) queryCases(ctx context.Context, query string, args ...any) ([]*SupportCase, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*SupportCase, error) {
		c := new(SupportCase)
		err := row.Scan(&c.CaseID, &c.Subject, &c.Description, &c.Status, &c.Severity, &c.CreatedAt, &c.AccountName)
		return c, err
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return list, nil
}

const accountInfoQuery = `
SELECT
	accounts.id::text,
	accounts.name,
	COUNT(DISTINCT opportunities.id),
	COUNT(DISTINCT CASE WHEN opportunities.status = 'active' THEN opportunities.id END),
	COUNT(DISTINCT support_cases.id),
	COUNT(DISTINCT CASE WHEN support_cases.status = 'open' THEN support_cases.id END),
	COUNT(DISTINCT CASE WHEN support_cases.severity = 'Critical' THEN support_cases.id END)
FROM accounts
LEFT JOIN opportunities ON accounts.id = opportunities.account_id
LEFT JOIN support_cases ON accounts.id = support_cases.account_id
WHERE accounts.id::text = $1
GROUP BY accounts.id, accounts.name`

// AccountInfo returns the account summary, or nil when the account does not exist.
func (r *PostgresRepository) AccountInfo(ctx context.Context, accountID string) (*AccountInfo, error) {
	info := new(AccountInfo)
	err := r.pool.QueryRow(ctx, accountInfoQuery, accountID).Scan(
		&info.ID,
		&info.Name,
		&info.TotalOpportunities,
		&info.ActiveOpportunities,
		&info.TotalSupportCases,
		&info.OpenCases,
		&info.CriticalCases,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return info, nil
}

// Package crm provides the CRM tools of the assistant: opportunities,
// support cases, account information and account health, read from
// a PostgreSQL database.
package crm

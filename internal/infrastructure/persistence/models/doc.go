// Package models contains GORM persistence models for the receivables store.
// Domain types carry no ORM tags; each model converts with ToDomain and a
// <Type>ModelFromDomain constructor, and repositories only touch models.
//
// Files:
//   - base.go: shared columns (id, timestamps, version, schema_version)
//   - json.go: JSON column types for invoice item groups and bank accounts
//   - receivable.go: invoices, payments, allocations, customers, ledgers
//   - settings.go: catalog items and issuer metadata
package models

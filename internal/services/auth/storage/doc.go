// Package storage defines persistence contracts for identity assets.
//
// These interfaces exist so services can depend on stable domain semantics
// without coupling to SQLite schema details. Multi-row writes that must land
// together (an account with its first credential and activation link, a
// password change with its history row) are single methods so the
// implementation can commit them in one transaction.
package storage

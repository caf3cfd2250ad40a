// Package sqlite implements the auth storage contracts on a single SQLite
// file using modernc.org/sqlite.
//
// Timestamps are stored as UTC unix milliseconds. Every multi-row write runs
// in one transaction.
package sqlite

// Package httpmw holds the HTTP middleware and JSON response helpers shared
// by the service edges.
package httpmw

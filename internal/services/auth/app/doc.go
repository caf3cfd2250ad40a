// Package server composes and runs the auth process boundary.
//
// It hosts the VerifyToken gRPC API and the HTTP edge. Both share one SQLite
// store and one token service, so every token decision is made from a
// single source of truth.
package server

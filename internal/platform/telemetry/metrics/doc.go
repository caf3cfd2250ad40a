// Package metrics provides operational metrics collection.
//
// Collectors live on a Registry owned by the process so tests can build
// isolated instances. The registry is exposed in Prometheus text format by
// Handler and fed by:
//
//   - the gRPC unary interceptor (request count and latency by method and code)
//   - the authentication flows (attempts, issued tokens, token verifications,
//     passkey ceremonies)
package metrics

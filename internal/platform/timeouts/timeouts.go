// Package timeouts defines shared timeout constants used across services.
// Centralizing these values prevents drift between service boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing a gRPC peer.
const GRPCDial = 2 * time.Second

// GRPCRequest caps a single inter-service call, such as token verification
// from a downstream service or an email dispatch.
const GRPCRequest = 2 * time.Second

// CaptchaRequest caps the call to the captcha provider.
const CaptchaRequest = 5 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// TokenSweep is the interval between expired-token cleanups.
const TokenSweep = 10 * time.Minute

// CeremonySweep is the interval between sweeps of expired ceremony state.
const CeremonySweep = time.Minute

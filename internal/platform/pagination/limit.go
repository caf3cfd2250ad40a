// Package pagination normalizes caller-supplied page sizes.
package pagination

import (
	"strconv"
	"strings"
)

// LimitConfig configures limit normalization.
type LimitConfig struct {
	Default int
	Max     int
}

// ClampLimit applies defaults and bounds. Out-of-range values are clamped,
// never rejected.
func ClampLimit(value int, cfg LimitConfig) int {
	limit := value
	if limit <= 0 {
		limit = cfg.Default
	}
	if cfg.Max > 0 && limit > cfg.Max {
		limit = cfg.Max
	}
	if limit <= 0 {
		limit = 1
	}
	return limit
}

// ParseLimit reads a limit from a query value. Unparseable input falls back
// to the default.
func ParseLimit(raw string, cfg LimitConfig) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ClampLimit(0, cfg)
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return ClampLimit(0, cfg)
	}
	return ClampLimit(value, cfg)
}

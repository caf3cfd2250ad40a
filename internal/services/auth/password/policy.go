package password

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	apperrors "github.com/ledgerly/ledgerly/internal/platform/errors"
)

// Violation names one unmet complexity rule.
type Violation string

const (
	ViolationTooShort       Violation = "too_short"
	ViolationMissingUpper   Violation = "missing_uppercase"
	ViolationMissingLower   Violation = "missing_lowercase"
	ViolationMissingDigit   Violation = "missing_digit"
	ViolationMissingSpecial Violation = "missing_special"
)

// Code returns the error code carried by the violation.
func (v Violation) Code() apperrors.Code {
	switch v {
	case ViolationTooShort:
		return apperrors.CodePasswordTooShort
	case ViolationMissingUpper:
		return apperrors.CodePasswordMissingUpper
	case ViolationMissingLower:
		return apperrors.CodePasswordMissingLower
	case ViolationMissingDigit:
		return apperrors.CodePasswordMissingDigit
	default:
		return apperrors.CodePasswordMissingSpecial
	}
}

const (
	// DefaultMinLength is the minimum password length.
	DefaultMinLength = 8
	// DefaultHistoryDepth is how many previous passwords are kept and
	// refused for reuse.
	DefaultHistoryDepth = 5
)

// Policy combines complexity rules, hashing and the reuse window.
type Policy struct {
	hasher       *Hasher
	minLength    int
	historyDepth int
}

// NewPolicy returns a policy. Non-positive values fall back to defaults.
func NewPolicy(hasher *Hasher, minLength, historyDepth int) *Policy {
	if hasher == nil {
		hasher = NewHasher(DefaultParams, "")
	}
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	if historyDepth <= 0 {
		historyDepth = DefaultHistoryDepth
	}
	return &Policy{hasher: hasher, minLength: minLength, historyDepth: historyDepth}
}

// HistoryDepth returns N, the number of hashes kept and checked for reuse.
func (p *Policy) HistoryDepth() int {
	return p.historyDepth
}

// Hash hashes password with a fresh salt.
func (p *Policy) Hash(password string) (string, error) {
	hash, err := p.hasher.Hash(password)
	if err != nil {
		return "", apperrors.FromCrypto("hash password", err)
	}
	return hash, nil
}

// Verify checks password against a stored hash.
func (p *Policy) Verify(password, encoded string) (bool, error) {
	ok, err := p.hasher.Verify(password, encoded)
	if err != nil {
		return false, apperrors.FromCrypto("verify password", err)
	}
	return ok, nil
}

// Violations lists every complexity rule password fails, in a stable order.
func (p *Policy) Violations(password string) []Violation {
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			special = true
		}
	}

	var violations []Violation
	if utf8.RuneCountInString(password) < p.minLength {
		violations = append(violations, ViolationTooShort)
	}
	if !upper {
		violations = append(violations, ViolationMissingUpper)
	}
	if !lower {
		violations = append(violations, ViolationMissingLower)
	}
	if !digit {
		violations = append(violations, ViolationMissingDigit)
	}
	if !special {
		violations = append(violations, ViolationMissingSpecial)
	}
	return violations
}

// ValidateComplexity returns nil or a validation error whose code is the
// first violation. Every violation is listed in the "Violations" metadata.
func (p *Policy) ValidateComplexity(password string) error {
	violations := p.Violations(password)
	if len(violations) == 0 {
		return nil
	}
	names := make([]string, len(violations))
	for i, v := range violations {
		names[i] = string(v)
	}
	return apperrors.WithMetadata(violations[0].Code(), "password fails complexity rules", map[string]string{
		"MinLength":  strconv.Itoa(p.minLength),
		"Violations": strings.Join(names, ","),
	})
}

// CheckReuse rejects password if it matches any of the newest N history
// hashes. A malformed stored hash aborts the check with an internal error.
func (p *Policy) CheckReuse(password string, history []string) error {
	if len(history) > p.historyDepth {
		history = history[:p.historyDepth]
	}
	for _, encoded := range history {
		ok, err := p.hasher.Verify(password, encoded)
		if err != nil {
			return apperrors.FromCrypto("check password history", err)
		}
		if ok {
			return apperrors.New(apperrors.CodePasswordReused, "password matches a recent password")
		}
	}
	return nil
}

// IsMalformedHash reports whether err stems from an unparseable stored hash.
func IsMalformedHash(err error) bool {
	return errors.Is(err, ErrMalformedHash)
}

package helpers

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// Reasons reported by ValidateStrength, in the order the rules are checked.
const (
	ReasonTooShort      = "Password must be at least 8 characters long."
	ReasonMissingDigit  = "Password must contain at least 1 number."
	ReasonMissingLetter = "Password must contain at least 1 letter."
	ReasonTooLong       = "Password must be at most 72 bytes long."
)

// WeakPasswordError reports the first strength rule a password violates.
type WeakPasswordError struct {
	Reason string
}

func (e *WeakPasswordError) Error() string { return e.Reason }

// PasswordHasher hashes and verifies passwords with bcrypt at a fixed cost.
type PasswordHasher struct {
	cost  int
	dummy []byte
}

// NewPasswordHasher builds a hasher. Out of range costs fall back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), cost)
	if err != nil {
		return nil, fmt.Errorf("init dummy hash: %w", err)
	}
	return &PasswordHasher{cost: cost, dummy: dummy}, nil
}

// Cost returns the configured bcrypt cost.
func (h *PasswordHasher) Cost() int { return h.cost }

// Hash hashes the plain text password using bcrypt
func (h *PasswordHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify compares a bcrypt hash with a plain password
func (h *PasswordHasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// VerifyAndRehash verifies plain against hash and, when the stored hash was
// produced with a lower cost than configured, returns a fresh hash to persist.
func (h *PasswordHasher) VerifyAndRehash(plain, hash string) (bool, string, error) {
	if !h.Verify(plain, hash) {
		return false, "", nil
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil || cost >= h.cost {
		return true, "", nil
	}
	fresh, err := h.Hash(plain)
	if err != nil {
		return true, "", err
	}
	return true, fresh, nil
}

// DummyVerify burns the same amount of work as Verify against a fixed hash.
// Used when the account does not exist so both failure paths cost the same.
func (h *PasswordHasher) DummyVerify(plain string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
}

// ValidateStrength checks the length, digit and letter rules, then the bcrypt
// input limit, and reports the first failure.
func (h *PasswordHasher) ValidateStrength(plain string) error {
	return ValidatePasswordStrength(plain)
}

func ValidatePasswordStrength(plain string) error {
	if utf8.RuneCountInString(plain) < MinPasswordLength {
		return &WeakPasswordError{Reason: ReasonTooShort}
	}
	var hasDigit, hasLetter bool
	for _, r := range plain {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLetter(r):
			hasLetter = true
		}
	}
	if !hasDigit {
		return &WeakPasswordError{Reason: ReasonMissingDigit}
	}
	if !hasLetter {
		return &WeakPasswordError{Reason: ReasonMissingLetter}
	}
	if len(plain) > MaxPasswordBytes {
		return &WeakPasswordError{Reason: ReasonTooLong}
	}
	return nil
}

// IsWeakPassword reports whether err carries a strength violation.
func IsWeakPassword(err error) (*WeakPasswordError, bool) {
	var wp *WeakPasswordError
	if errors.As(err, &wp) {
		return wp, true
	}
	return nil, false
}

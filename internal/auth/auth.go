// Package auth gates the form behind a single shared password.
package auth

import (
	"crypto/subtle"

	"ics-egress/internal/errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNoPassword        = errors.New("no password configured")
	ErrIncorrectPassword = errors.New("incorrect password")
)

// Gate checks submitted passwords against a bcrypt hash, or against a plain
// password when no hash is configured.
type Gate struct {
	hash  []byte
	plain []byte
}

// NewGate prefers hash over plain. At least one must be set.
func NewGate(hash, plain string) (*Gate, error) {
	switch {
	case hash != "":
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, errors.Wrap(err, "server.password_hash")
		}
		return &Gate{hash: []byte(hash)}, nil
	case plain != "":
		return &Gate{plain: []byte(plain)}, nil
	default:
		return nil, errors.WithHint(ErrNoPassword,
			"set server.password_hash (see `ics-egress hash-password`) or server.password")
	}
}

// Check returns ErrIncorrectPassword on any mismatch.
func (g *Gate) Check(password string) error {
	if g.hash != nil {
		if err := bcrypt.CompareHashAndPassword(g.hash, []byte(password)); err != nil {
			return ErrIncorrectPassword
		}
		return nil
	}
	if subtle.ConstantTimeCompare(g.plain, []byte(password)) != 1 {
		return ErrIncorrectPassword
	}
	return nil
}

// Hash returns a bcrypt hash suitable for server.password_hash.
func Hash(password string) (string, error) {
	if password == "" {
		return "", ErrNoPassword
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(h), nil
}

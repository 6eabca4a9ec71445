package auth

import "golang.org/x/crypto/bcrypt"

// hashCost is the fixed bcrypt work factor used for all new hashes.
const hashCost = 10

// PasswordHasher produces and verifies salted one-way password hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)

	// Verify reports whether password matches hash. The comparison inside
	// the bcrypt primitive is constant time.
	Verify(password, hash string) bool
}

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher with the fixed work factor.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: hashCost}
}

// Hash produces a salted bcrypt hash of the password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether password matches hash.
func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var _ PasswordHasher = (*BcryptHasher)(nil)

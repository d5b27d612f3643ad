package services

import "golang.org/x/crypto/bcrypt"

// BcryptCost is the work factor used for stored passwords.
const BcryptCost = 12

// Hasher hashes and verifies account passwords.
type Hasher interface {
	Hash(secret string) (string, error)
	Compare(hash, secret string) bool
}

// BcryptHasher implements Hasher with bcrypt.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher using BcryptCost.
func NewBcryptHasher() BcryptHasher {
	return BcryptHasher{Cost: BcryptCost}
}

func (h BcryptHasher) Hash(secret string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = BcryptCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h BcryptHasher) Compare(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

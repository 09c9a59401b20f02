package utils

import "golang.org/x/crypto/bcrypt" // Password hashing

// BcryptHasher hashes passwords with bcrypt
type BcryptHasher struct {
	Cost int // bcrypt cost; zero means bcrypt.DefaultCost
}

// Hash returns the bcrypt hash of password
func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(hash), err
}

// Compare reports whether password matches hash
func (h BcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

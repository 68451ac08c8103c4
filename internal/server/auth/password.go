package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a bcrypt hash from the plain-text password.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// CheckPassword reports whether the candidate password matches the stored
// bcrypt hash.
func CheckPassword(hash []byte, candidate string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(candidate)) == nil
}

package utils

import "golang.org/x/crypto/bcrypt"

// HashOTP returns a bcrypt hash of the one-time code. Codes are short
// lived so the default cost is plenty.
func HashOTP(code string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckOTP compares a stored hash with a submitted one-time code.
func CheckOTP(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

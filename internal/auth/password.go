package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/abrezinsky/surveydesk/internal/errors"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

// Survey-themed words for generated admin passwords
var pollWords = []string{
	"ballot", "quorum", "tally", "survey", "option",
	"answer", "poll", "census", "sample", "rating",
	"choice", "panel", "verdict", "review", "insight",
}

// GeneratePassword creates a random password of three capitalized words and a digit
func GeneratePassword() string {
	words := make([]string, 3)
	for i := range words {
		w := pollWords[randomInt(len(pollWords))]
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, "-") + fmt.Sprint(randomInt(10))
}

// HashPassword returns the bcrypt hash of password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword checks the password rules and adds messages under
// field and confirmField.
func ValidatePassword(fields apperrors.FieldErrors, field, confirmField, password, confirm string) {
	if len(password) < MinPasswordLength {
		fields.Add(field, fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r):
			special = true
		}
	}
	if !upper {
		fields.Add(field, "must contain an uppercase letter")
	}
	if !lower {
		fields.Add(field, "must contain a lowercase letter")
	}
	if !digit {
		fields.Add(field, "must contain a digit")
	}
	if !special {
		fields.Add(field, "must contain a special character")
	}

	if confirmField != "" && password != confirm {
		fields.Add(confirmField, "passwords do not match")
	}
}

// GenerateOTP returns a random 6-digit one-time code
func GenerateOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64())
}

// randomInt returns a random int in [0, max)
func randomInt(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic(err)
	}
	return int(n.Int64())
}

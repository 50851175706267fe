package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"trivia-quiz-service/internal/domain"
)

// MinPasswordLength mirrors the registration rule.
const MinPasswordLength = 6

func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", &domain.ValidationError{Fields: []domain.FieldError{{
			Field:   "password",
			Message: fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength),
		}}}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

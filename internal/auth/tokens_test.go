package auth

import (
	"errors"
	"testing"
	"time"

	"trivia-quiz-service/internal/domain"
)

func TestIssueAndParse(t *testing.T) {
	tokens, err := NewTokens("0123456789abcdef", time.Hour)
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	raw, err := tokens.Issue(domain.User{ID: "u1", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	identity, err := tokens.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if identity.UserID != "u1" || identity.Email != "alice@example.com" {
		t.Fatalf("unexpected identity %+v", identity)
	}
	if identity.TokenID == "" {
		t.Fatalf("expected token id")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := issuedAt
	tokens, err := NewTokensWithClock("0123456789abcdef", time.Minute, func() time.Time { return now })
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	raw, err := tokens.Issue(domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	now = issuedAt.Add(2 * time.Minute)
	if _, err := tokens.Parse(raw); !errors.Is(err, domain.ErrAuthInvalid) {
		t.Fatalf("expected ErrAuthInvalid, got %v", err)
	}
}

func TestParseRejectsForeignSignature(t *testing.T) {
	issuer, _ := NewTokens("0123456789abcdef", time.Hour)
	verifier, _ := NewTokens("fedcba9876543210", time.Hour)
	raw, _ := issuer.Issue(domain.User{ID: "u1"})

	if _, err := verifier.Parse(raw); !errors.Is(err, domain.ErrAuthInvalid) {
		t.Fatalf("expected ErrAuthInvalid, got %v", err)
	}
	if _, err := verifier.Parse(""); !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if _, err := verifier.Parse("not-a-jwt"); !errors.Is(err, domain.ErrAuthInvalid) {
		t.Fatalf("expected ErrAuthInvalid for garbage, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	if _, err := HashPassword("123"); err == nil {
		t.Fatalf("expected short password to be rejected")
	}
	hash, err := HashPassword("secret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "secret-pass") {
		t.Fatalf("expected password to match")
	}
	if CheckPassword(hash, "Secret-pass") {
		t.Fatalf("expected case-sensitive mismatch")
	}
}

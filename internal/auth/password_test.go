package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPassword_Format(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	// bcrypt hashes carry the $2a$ (or $2b$) prefix and the cost
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash should be a bcrypt hash, got: %s", hash)
	}
	if !strings.Contains(hash, "$12$") {
		t.Errorf("Hash should use cost 12, got: %s", hash)
	}
}

func TestHashPassword_Uniqueness(t *testing.T) {
	t.Parallel()

	password := "the_same_password_12345"

	hash1, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	hash2, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	// Same password should produce different hashes due to random salt
	if hash1 == hash2 {
		t.Error("Same password should produce different hashes")
	}

	if !VerifyPassword(password, hash1) {
		t.Error("First hash should verify")
	}
	if !VerifyPassword(password, hash2) {
		t.Error("Second hash should verify")
	}
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("right-password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if VerifyPassword("wrong-password", hash) {
		t.Error("Wrong password should not verify")
	}
	if VerifyPassword("", hash) {
		t.Error("Empty password should not verify")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	if VerifyPassword("whatever", "not-a-bcrypt-hash") {
		t.Error("Malformed hash should not verify")
	}
	if VerifyPassword("whatever", "") {
		t.Error("Empty hash should not verify")
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid", "longenough", nil},
		{"exactly min length", "12345678", nil},
		{"too short", "1234567", ErrPasswordTooShort},
		{"empty", "", ErrPasswordTooShort},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePassword(tc.password)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ValidatePassword(%q) = %v, want %v", tc.password, err, tc.wantErr)
			}
		})
	}
}

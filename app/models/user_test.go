package models

import "testing"

func TestCreateUser(t *testing.T) {
	u, err := CreateUser("Test User", "test@example.com", "secret123")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.Role != ROLE_USER || u.Status != STATUS_ACTIVE {
		t.Fatalf("CreateUser role/status = %q/%q, want %q/%q", u.Role, u.Status, ROLE_USER, STATUS_ACTIVE)
	}
	if u.Password == "secret123" {
		t.Fatal("CreateUser stored the plaintext password")
	}
	if !CheckPasswordHash("secret123", u.Password) {
		t.Fatal("CheckPasswordHash rejects the original password")
	}
	if CheckPasswordHash("wrong-password", u.Password) {
		t.Fatal("CheckPasswordHash accepts a wrong password")
	}
}

func TestCreateUser_Invalid(t *testing.T) {
	if _, err := CreateUser("Test User", "not-an-email", "secret123"); err == nil {
		t.Fatal("CreateUser accepted an invalid email")
	}
	if _, err := CreateUser("Test User", "test@example.com", "short"); err == nil {
		t.Fatal("CreateUser accepted a too-short password")
	}
}

func TestHashPasswordProducesDistinctHashes(t *testing.T) {
	a, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	b, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	// bcrypt salts every hash
	if a == b {
		t.Fatal("HashPassword returned identical hashes for two calls")
	}
}

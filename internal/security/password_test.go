package security_test

import (
	"strings"
	"testing"

	"github.com/geocoder89/postboard/internal/security"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := security.HashPassword("secretpass")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	if hash == "secretpass" || strings.Contains(hash, "secretpass") {
		t.Fatal("hash contains the plaintext")
	}

	if err := security.CheckPassword(hash, "secretpass"); err != nil {
		t.Fatalf("check failed for the right password: %v", err)
	}

	if err := security.CheckPassword(hash, "wrongpass"); err == nil {
		t.Fatal("check passed for the wrong password")
	}
}

func TestHashPasswordSaltsPerCall(t *testing.T) {
	a, err := security.HashPassword("secretpass")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	b, err := security.HashPassword("secretpass")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	if a == b {
		t.Fatal("two hashes of the same password are identical")
	}
}

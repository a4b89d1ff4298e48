package utils

import (
	"strings"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Setenv("DATA_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")

	encrypted, err := EncryptSecret("imap-password")
	if err != nil {
		t.Fatal(err)
	}
	if encrypted == "imap-password" {
		t.Fatal("ciphertext must differ from plaintext")
	}

	decrypted, err := DecryptSecret(encrypted)
	if err != nil {
		t.Fatal(err)
	}
	if decrypted != "imap-password" {
		t.Fatalf("decrypted = %q", decrypted)
	}
}

func TestEncryptRequiresKey(t *testing.T) {
	t.Setenv("DATA_ENCRYPTION_KEY", "too-short")

	if _, err := EncryptSecret("secret"); err == nil {
		t.Fatal("expected error for invalid key length")
	}
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	t.Setenv("DATA_ENCRYPTION_KEY", "0123456789abcdef0123456789abcdef")
	encrypted, err := EncryptSecret("secret")
	if err != nil {
		t.Fatal(err)
	}

	t.Setenv("DATA_ENCRYPTION_KEY", "ffffffffffffffffffffffffffffffff")
	if _, err := DecryptSecret(encrypted); err == nil {
		t.Fatal("expected error when decrypting with a different key")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword("s3cret-pass", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("wrong-pass", hash) {
		t.Error("wrong password accepted")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	token, err := GenerateAccessToken("user-1", "tester")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := ValidateAccessToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "user-1" || claims.Username != "tester" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestValidateAccessTokenRejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	if _, err := ValidateAccessToken("not.a.token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestMaskingInProduction(t *testing.T) {
	orig := IsProduction
	IsProduction = true
	defer func() { IsProduction = orig }()

	masked := MaskEmail("tester@example.com")
	if strings.Contains(masked, "tester") {
		t.Errorf("masked email still reveals local part: %q", masked)
	}

	line := MaskString("parsed ₹500 from <m1@netflix.com> for tester@example.com")
	for _, leak := range []string{"500", "m1@netflix.com", "tester"} {
		if strings.Contains(line, leak) {
			t.Errorf("masked log line still contains %q: %q", leak, line)
		}
	}
}

func TestMaskingDisabledInDevelopment(t *testing.T) {
	orig := IsProduction
	IsProduction = false
	defer func() { IsProduction = orig }()

	if got := MaskString("tester@example.com"); got != "tester@example.com" {
		t.Errorf("development logs should be unmasked, got %q", got)
	}
}

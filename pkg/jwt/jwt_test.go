package jwt

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestGenerateSignValidate(t *testing.T) {
	dir := t.TempDir()

	privPath, pubPath, err := GenerateKeys(dir)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	priv, err := LoadECDSAPrivateKey(privPath)
	if err != nil {
		t.Fatalf("load private: %v", err)
	}

	pub, err := LoadECDSAPublicKey(pubPath)
	if err != nil {
		t.Fatalf("load public: %v", err)
	}

	tok, err := NewToken(priv, time.Minute, WithClaim("sub", "alice"), WithClaim("role", "operator"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := ValidateToken(tok, pub)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	if claims["sub"] != "alice" || claims["role"] != "operator" {
		t.Fatalf("unexpected claims: %v", claims)
	}
}

func TestValidateRejectsExpiredAndForeignTokens(t *testing.T) {
	priv, _, err := GenerateKeys(t.TempDir())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	key, err := LoadECDSAPrivateKey(priv)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	expired, err := NewToken(key, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ValidateToken(expired, &key.PublicKey); err == nil {
		t.Fatal("expired token accepted")
	}

	_, otherPub, err := GenerateKeys(t.TempDir())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	other, err := LoadECDSAPublicKey(otherPub)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	valid, _ := NewToken(key, time.Minute)

	if _, err := ValidateToken(valid, other); err == nil {
		t.Fatal("token signed by another key accepted")
	}
}

func TestValidateOperatorToken(t *testing.T) {
	priv, _, err := GenerateKeys(t.TempDir())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	key, err := LoadECDSAPrivateKey(priv)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	tok, err := NewOperatorToken(key, time.Minute, Operator{ID: "alice", Role: "operator"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	op, err := ValidateOperatorToken(tok, &key.PublicKey)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	if op.ID != "alice" || op.Role != "operator" {
		t.Fatalf("unexpected operator: %+v", op)
	}

	anonymous, _ := NewToken(key, time.Minute, WithClaim(ClaimRole, "operator"))

	if _, err := ValidateOperatorToken(anonymous, &key.PublicKey); !errors.Is(err, ErrMissingClaim) {
		t.Fatalf("expected ErrMissingClaim, got %v", err)
	}
}

func TestLoadMissingKey(t *testing.T) {
	if _, err := LoadECDSAPublicKey(filepath.Join(t.TempDir(), "nope.pem")); err == nil {
		t.Fatal("expected an error")
	}
}

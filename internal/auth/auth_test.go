package auth

import (
	"testing"

	"github.com/example/profinder/internal/config"
)

func TestTokenRoundtrip(t *testing.T) {
	cfg := &config.JWTConfig{Secret: "test-secret"}

	token, err := GenerateToken(cfg, 7, 42, "zhang_shifu")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := ParseToken(cfg, token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.ProfessionalID != 7 {
		t.Errorf("professional id = %d, want 7", claims.ProfessionalID)
	}
	if claims.AccountID != 42 {
		t.Errorf("account id = %d, want 42", claims.AccountID)
	}
	if claims.Username != "zhang_shifu" {
		t.Errorf("username = %q, want zhang_shifu", claims.Username)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(&config.JWTConfig{Secret: "secret-a"}, 1, 2, "u")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := ParseToken(&config.JWTConfig{Secret: "secret-b"}, token); err == nil {
		t.Error("token signed with another secret must not parse")
	}
}

func TestConsistentHashRingStable(t *testing.T) {
	ring := NewConsistentHashRing([]string{"n1", "n2", "n3"}, 50)

	first := ring.GetNode("some-token")
	for i := 0; i < 10; i++ {
		if got := ring.GetNode("some-token"); got != first {
			t.Fatalf("node for same key changed: %q -> %q", first, got)
		}
	}
}

func TestConsistentHashRingDistributes(t *testing.T) {
	ring := NewConsistentHashRing([]string{"n1", "n2", "n3"}, 50)

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		seen[ring.GetNode("key-"+string(rune('a'+i%26))+string(rune('0'+i%10)))] = true
	}
	if len(seen) < 2 {
		t.Errorf("expected keys to spread across nodes, got %v", seen)
	}
}

func TestConsistentHashRingEmptyNodes(t *testing.T) {
	ring := NewConsistentHashRing(nil, 0)
	if got := ring.GetNode("k"); got == "" {
		t.Error("ring with default node should still route keys")
	}
}

package auth_test

import (
	"errors"
	"testing"
	"time"

	"brainbuster-service/internal/auth"
	"brainbuster-service/internal/testutil"
)

func TestIssueAndParse(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour, 24*time.Hour)

	access, refresh, err := tokens.IssuePair("alice", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := tokens.Parse(access, auth.TypeAccess)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.Subject != "alice" || claims.Role != "admin" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if _, err := tokens.Parse(refresh, auth.TypeAccess); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("refresh token accepted as access token: %v", err)
	}
	if name, err := tokens.RefreshSubject(refresh); err != nil || name != "alice" {
		t.Fatalf("refresh subject: %q %v", name, err)
	}
}

func TestParseRejectsForeignAndExpired(t *testing.T) {
	clock := testutil.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	tokens := auth.NewTokens("secret", time.Minute, time.Hour).WithClock(clock.Now)

	access, _, err := tokens.IssuePair("alice", "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := auth.NewTokens("other-secret", time.Minute, time.Hour).WithClock(clock.Now)
	if _, err := other.Parse(access, auth.TypeAccess); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("token signed with another secret accepted: %v", err)
	}
	if _, err := tokens.Parse("not-a-token", auth.TypeAccess); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("garbage accepted: %v", err)
	}

	clock.Advance(2 * time.Minute)
	if tokens.AccessValid(access, "alice") {
		t.Fatalf("expired token still valid")
	}
}

func TestHasher(t *testing.T) {
	h := auth.NewHasher(4)
	hash, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "secret1" {
		t.Fatalf("password stored in clear")
	}
	if !h.Compare(hash, "secret1") {
		t.Fatalf("matching password rejected")
	}
	if h.Compare(hash, "secret2") {
		t.Fatalf("wrong password accepted")
	}
}

package jwtutil

import (
	"testing"

	"school-service/pkg/config"
)

func initTestConfig() {
	Initialize(&config.JWTConfig{
		SigningKey:           "test-signing-key",
		AccessExpirationMin:  5,
		RefreshExpirationHrs: 1,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	initTestConfig()

	token, err := GenerateAccessToken("teacher@school.test", 42, "teacher", "KA-BLR-001", "Green Valley")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "teacher@school.test" {
		t.Fatalf("claims lost identity: %+v", claims)
	}
	if claims.Role != "teacher" {
		t.Fatalf("claims lost role: %q", claims.Role)
	}
	if claims.SchoolID != "KA-BLR-001" || claims.SchoolName != "Green Valley" {
		t.Fatalf("claims lost school: %q %q", claims.SchoolID, claims.SchoolName)
	}
	if claims.TokenType != TokenTypeAccess {
		t.Fatalf("token type = %q, want access", claims.TokenType)
	}
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	initTestConfig()

	refresh, err := GenerateRefreshToken("admin@school.test", 7, "management_admin", "", "")
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	claims, err := ValidateToken(refresh)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TokenType != TokenTypeRefresh {
		t.Fatalf("token type = %q, want refresh", claims.TokenType)
	}

	if _, err := ValidateRefreshToken(refresh); err != nil {
		t.Fatalf("ValidateRefreshToken rejected a refresh token: %v", err)
	}
}

func TestAccessTokenRejectedByRefreshValidation(t *testing.T) {
	initTestConfig()

	access, err := GenerateAccessToken("admin@school.test", 7, "management_admin", "", "")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := ValidateRefreshToken(access); err == nil {
		t.Fatal("ValidateRefreshToken accepted an access token")
	}
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	initTestConfig()
	token, err := GenerateAccessToken("x@y.test", 1, "teacher", "", "")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	Initialize(&config.JWTConfig{SigningKey: "another-key", AccessExpirationMin: 5, RefreshExpirationHrs: 1})
	if _, err := ValidateToken(token); err == nil {
		t.Fatal("token signed with a different key validated")
	}
}

package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"school-service/pkg/config"
)

const (
	// TokenTypeAccess marks short-lived API tokens
	TokenTypeAccess = "access"
	// TokenTypeRefresh marks long-lived tokens accepted only by the refresh endpoint
	TokenTypeRefresh = "refresh"
)

var cfg *config.JWTConfig

// UserClaims represents the JWT claims for user authentication.
// SchoolID carries the caller's resolved school so downstream scoping
// does not re-resolve on every request that already has a token.
type UserClaims struct {
	Email      string `json:"email"`
	UserID     uint   `json:"user_id"`
	Role       string `json:"role"`
	SchoolID   string `json:"school_id,omitempty"`
	SchoolName string `json:"school_name,omitempty"`
	TokenType  string `json:"token_type"`
	jwt.RegisteredClaims
}

// Initialize stores the JWT configuration for the package
func Initialize(c *config.JWTConfig) {
	cfg = c
}

// GenerateAccessToken creates a short-lived token with user, role and school claims
func GenerateAccessToken(email string, userID uint, role, schoolID, schoolName string) (string, error) {
	if cfg == nil {
		return "", errors.New("JWT configuration not provided")
	}
	return generate(email, userID, role, schoolID, schoolName, TokenTypeAccess,
		time.Duration(cfg.AccessExpirationMin)*time.Minute)
}

// GenerateRefreshToken creates a long-lived token accepted only for refreshing
func GenerateRefreshToken(email string, userID uint, role, schoolID, schoolName string) (string, error) {
	if cfg == nil {
		return "", errors.New("JWT configuration not provided")
	}
	return generate(email, userID, role, schoolID, schoolName, TokenTypeRefresh,
		time.Duration(cfg.RefreshExpirationHrs)*time.Hour)
}

func generate(email string, userID uint, role, schoolID, schoolName, tokenType string, ttl time.Duration) (string, error) {
	claims := UserClaims{
		Email:      email,
		UserID:     userID,
		Role:       role,
		SchoolID:   schoolID,
		SchoolName: schoolName,
		TokenType:  tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.SigningKey))
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	if cfg == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(cfg.SigningKey), nil
		},
	)

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// ValidateRefreshToken validates a token and requires it to be a refresh token
func ValidateRefreshToken(tokenString string) (*UserClaims, error) {
	claims, err := ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, errors.New("not a refresh token")
	}
	return claims, nil
}

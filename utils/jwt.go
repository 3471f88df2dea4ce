package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

// ConsoleSessionCookie carries the signed console session.
const ConsoleSessionCookie = "travis_session"

var ErrInvalidToken = errors.New("invalid token")

// GenerateToken creates a signed HS256 token for subject and email that
// expires after duration.
func GenerateToken(secret []byte, subject, email string, duration time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("empty signing secret")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(secret []byte, tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
}

// SessionClaims returns the subject and email of a valid token.
func SessionClaims(secret []byte, tokenString string) (subject, email string, err error) {
	token, err := ValidateToken(secret, tokenString)
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", ErrInvalidToken
	}

	subject, ok = claims["sub"].(string)
	if !ok || subject == "" {
		return "", "", errors.New("token does not contain a valid 'sub' claim")
	}
	email, _ = claims["email"].(string)
	return subject, email, nil
}

// RandomSecret returns a process-local signing secret for development runs
// without JWT_SECRET.
func RandomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}

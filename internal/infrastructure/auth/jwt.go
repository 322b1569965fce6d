package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kodbank/kodbank/internal/domain"
)

// Claims are the JWT claims carried by a session token.
type Claims struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// JWTManager implements usecase.TokenManager with HMAC-signed JWTs. The JWT
// expiry alone does not make a token valid; the session gate additionally
// requires a live session record.
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
}

// NewJWTManager creates a new JWT manager.
func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
	}
}

// Issue signs a new token for an account.
func (m *JWTManager) Issue(accountID, email string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(m.tokenDuration)

	claims := Claims{
		AccountID: accountID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Verify validates a token and returns the account identity it carries.
func (m *JWTManager) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domain.ErrSessionExpired
		}
		return "", domain.ErrUnauthenticated
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", domain.ErrUnauthenticated
	}

	return claims.AccountID, nil
}

package util

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken          = errors.New("invalid token")
	ErrExpiredToken          = errors.New("token has expired")
	ErrSigningKeyUnavailable = errors.New("signing key is not available")
)

var signingMethod = jwt.SigningMethodRS256

const defaultIssuer = "adminplus"

func init() {
	// iat с миллисекундами: отметка "выйти отовсюду" должна отсекать
	// токены, выданные в ту же секунду до нее
	jwt.TimePrecision = time.Millisecond
}

// JWTClaims - claims access токена. Subject содержит username.
type JWTClaims struct {
	UserID      int64    `json:"user_id"`
	DeptID      *int64   `json:"dept_id,omitempty"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"perms"`
	jwt.RegisteredClaims
}

// TokenSubject - данные, зашиваемые в access токен
type TokenSubject struct {
	UserID      int64
	Username    string
	DeptID      *int64
	Roles       []string
	Permissions []string
}

// JWTManager подписывает токены приватным RSA ключом и проверяет публичным.
// Менеджер без приватного ключа умеет только проверять.
type JWTManager struct {
	privateKey          *rsa.PrivateKey
	publicKey           *rsa.PublicKey
	keyID               string
	issuer              string
	accessTokenDuration time.Duration
	now                 func() time.Time
}

func NewJWTManager(privateKey *rsa.PrivateKey, keyID, issuer string, accessDuration time.Duration) *JWTManager {
	if issuer == "" {
		issuer = defaultIssuer
	}
	return &JWTManager{
		privateKey:          privateKey,
		publicKey:           &privateKey.PublicKey,
		keyID:               keyID,
		issuer:              issuer,
		accessTokenDuration: accessDuration,
		now:                 time.Now,
	}
}

// NewJWTVerifier создает менеджер только для проверки токенов
func NewJWTVerifier(publicKey *rsa.PublicKey, issuer string) *JWTManager {
	if issuer == "" {
		issuer = defaultIssuer
	}
	return &JWTManager{
		publicKey: publicKey,
		issuer:    issuer,
		now:       time.Now,
	}
}

// GenerateAccessToken выпускает подписанный токен и возвращает его claims
func (m *JWTManager) GenerateAccessToken(subject TokenSubject) (string, *JWTClaims, error) {
	if m.privateKey == nil {
		return "", nil, ErrSigningKeyUnavailable
	}

	now := m.now()
	claims := &JWTClaims{
		UserID:      subject.UserID,
		DeptID:      subject.DeptID,
		Roles:       nonNil(subject.Roles),
		Permissions: nonNil(subject.Permissions),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   subject.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenDuration)),
		},
	}

	token := jwt.NewWithClaims(signingMethod, claims)
	if m.keyID != "" {
		token.Header["kid"] = m.keyID
	}

	signed, err := token.SignedString(m.privateKey)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, claims, nil
}

// ValidateToken проверяет подпись, издателя и срок действия.
// Хранилища не используются: черный список проверяет вызывающий.
func (m *JWTManager) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&JWTClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.publicKey, nil
		},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (m *JWTManager) GetAccessTokenDuration() time.Duration {
	return m.accessTokenDuration
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

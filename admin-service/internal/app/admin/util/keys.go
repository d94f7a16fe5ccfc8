package util

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// MinRSAKeyBits - минимальная длина ключа подписи
const MinRSAKeyBits = 2048

// DevKeyID - kid эфемерного ключа режима разработки
const DevKeyID = "adminplus-dev-key"

var (
	ErrKeyProvisioningMissing = errors.New("signing key must be provided in production")
	ErrWeakSigningKey         = errors.New("signing key is too weak")
	ErrMalformedSigningKey    = errors.New("signing key is malformed")
)

// SigningKey - загруженный ключ подписи
type SigningKey struct {
	PrivateKey *rsa.PrivateKey
	KeyID      string
	// Ephemeral выставлен, если ключ сгенерирован при старте (только dev)
	Ephemeral bool
}

// LoadSigningKey разбирает PEM ключ из конфигурации.
// В production отсутствие или слабость ключа - ошибка старта.
// В dev без ключа генерируется эфемерный RSA-2048; вызывающий обязан об этом залогировать.
func LoadSigningKey(pemData, keyID string, production bool) (*SigningKey, error) {
	if strings.TrimSpace(pemData) == "" {
		if production {
			return nil, ErrKeyProvisioningMissing
		}
		key, err := rsa.GenerateKey(rand.Reader, MinRSAKeyBits)
		if err != nil {
			return nil, fmt.Errorf("failed to generate ephemeral signing key: %w", err)
		}
		return &SigningKey{PrivateKey: key, KeyID: DevKeyID, Ephemeral: true}, nil
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pemData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSigningKey, err)
	}

	if bits := key.N.BitLen(); bits < MinRSAKeyBits {
		return nil, fmt.Errorf("%w: %d bits, need at least %d", ErrWeakSigningKey, bits, MinRSAKeyBits)
	}

	return &SigningKey{PrivateKey: key, KeyID: keyID}, nil
}

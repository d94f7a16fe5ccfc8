package util

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword хэширует пароль с использованием bcrypt
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedPassword), nil
}

// CheckPassword сравнивает пароль с хэшем за постоянное время
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// dummyHash используется при неизвестном логине, чтобы время ответа не выдавало
// существование пользователя
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("adminplus-timing-guard"), bcrypt.DefaultCost)

// CheckPasswordAgainstDummy выполняет сравнение с фиктивным хэшем и всегда возвращает false
func CheckPasswordAgainstDummy(password string) bool {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
	return false
}

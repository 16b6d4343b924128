package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Hasher вычисляет HMAC-SHA256 паролей на секрете сервиса.
type Hasher struct {
	secret []byte
}

// NewHasher создаёт Hasher с указанным секретом.
func NewHasher(secret string) *Hasher {
	return &Hasher{secret: []byte(secret)}
}

// Hash возвращает хеш пароля в hex.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrHashingFailed
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(password))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify сравнивает пароль с сохранённым хешем за постоянное время.
func (h *Hasher) Verify(password, hashed string) bool {
	want, err := hex.DecodeString(hashed)
	if err != nil || password == "" {
		return false
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(password))
	return hmac.Equal(mac.Sum(nil), want)
}

package service

import (
	"crypto/rand"
	"fmt"
)

const (
	idLength   = 20
	idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// maxUnbiased: наибольший байт, не искажающий распределение при делении по модулю.
const maxUnbiased = 256 - 256%len(idAlphabet)

// NewID возвращает случайный идентификатор из 20 символов [a-z0-9].
func NewID() (string, error) {
	out := make([]byte, 0, idLength)
	buf := make([]byte, idLength*2)

	for len(out) < idLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate id: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			out = append(out, idAlphabet[int(b)%len(idAlphabet)])
			if len(out) == idLength {
				break
			}
		}
	}
	return string(out), nil
}

// IsValidID сообщает, похожа ли строка на идентификатор токена, корзины или заказа.
func IsValidID(id string) bool {
	return len(id) == idLength
}

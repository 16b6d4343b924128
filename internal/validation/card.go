// Package validation содержит проверку номеров банковских карт.
package validation

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// FailureSource обозначает источник оплаты, который всегда приводит к отказу в платеже.
const FailureSource = "failure_test"

var (
	// ErrInvalidCard возвращается для номеров, не прошедших проверку по алгоритму Луна.
	ErrInvalidCard = errors.New("invalid card number")
	// ErrUnknownCard возвращается для корректных номеров, не входящих в таблицу тестовых карт.
	ErrUnknownCard = errors.New("card number is not accepted")
)

// testCards сопоставляет тестовые номера карт токенам платёжного шлюза.
// Ключи нормализованы: без пробелов и ведущих нулей.
var testCards = map[string]string{
	"4242424242424242": "tok_visa",
	"4000056655665556": "tok_visa_debit",
	"5555555555554444": "tok_mastercard",
	"5200828282828210": "tok_mastercard_debit",
	"5105105105105100": "tok_mastercard_prepaid",
	"378282246310005":  "tok_amex",
	"371449635398431":  "tok_amex",
	"6011111111111117": "tok_discover",
	"909090909090909":  FailureSource,
}

// NormalizeCardNumber убирает пробелы, дефисы и ведущие нули.
func NormalizeCardNumber(number string) (string, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.TrimSpace(number))

	n, err := strconv.ParseUint(cleaned, 10, 64)
	if err != nil || n == 0 {
		return "", false
	}
	return strconv.FormatUint(n, 10), true
}

// ResolveCard возвращает токен шлюза для тестового номера карты.
func ResolveCard(number string) (string, error) {
	key, ok := NormalizeCardNumber(number)
	if !ok {
		return "", ErrInvalidCard
	}
	if source, ok := testCards[key]; ok {
		return source, nil
	}
	if !IsValidCardNumber(key) {
		return "", ErrInvalidCard
	}
	return "", ErrUnknownCard
}

// IsFailureSource сообщает, зарезервирован ли источник для имитации отказа.
func IsFailureSource(source string) bool {
	return source == FailureSource
}

// IsValidCardNumber проверяет номер карты по алгоритму Луна.
func IsValidCardNumber(number string) bool {
	if number == "" {
		return false
	}

	sum := 0
	double := false

	for i := len(number) - 1; i >= 0; i-- {
		ch := rune(number[i])
		if !unicode.IsDigit(ch) {
			return false
		}
		digit := int(ch - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}

	return sum%10 == 0
}

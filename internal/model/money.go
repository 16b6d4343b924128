package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Money хранит денежную сумму в центах. В JSON представляется строкой вида "$20" или "$12.50".
type Money int64

// ErrInvalidMoney возвращается при разборе некорректной суммы.
var ErrInvalidMoney = errors.New("invalid money value")

// Dollars создаёт сумму из целого количества долларов.
func Dollars(d int64) Money {
	return Money(d * 100)
}

// ParseMoney разбирает строку "$10", "10" или "12.50".
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidMoney)
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || dollars < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
	}

	var cents int64
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
		}
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil || cents < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
		}
	}

	m := Money(dollars*100 + cents)
	if neg {
		m = -m
	}
	return m, nil
}

// Cents возвращает сумму в центах.
func (m Money) Cents() int64 {
	return int64(m)
}

// Times возвращает сумму, умноженную на количество.
func (m Money) Times(n int) Money {
	return m * Money(n)
}

// String форматирует сумму: "$20" для целых долларов, "$12.50" иначе.
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	if v%100 == 0 {
		return fmt.Sprintf("%s$%d", sign, v/100)
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}

// MarshalJSON реализует json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON принимает строку ("$20", пустая строка означает ноль) или число долларов.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidMoney, string(data))
		}
		s = strconv.FormatFloat(f, 'f', 2, 64)
	}
	if strings.TrimSpace(s) == "" {
		*m = 0
		return nil
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// MarshalYAML реализует yaml.Marshaler.
func (m Money) MarshalYAML() (any, error) {
	return m.String(), nil
}

// UnmarshalYAML принимает цену в виде строки "$10" или числа.
func (m *Money) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

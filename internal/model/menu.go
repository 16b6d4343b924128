package model

import (
	"encoding/json"
	"maps"
	"slices"
)

// Menu хранит неизменяемый снимок меню: название позиции и её цену.
type Menu struct {
	prices map[string]Money
}

// NewMenu создаёт снимок меню из копии переданных цен.
func NewMenu(prices map[string]Money) Menu {
	return Menu{prices: maps.Clone(prices)}
}

// Price возвращает цену позиции.
func (m Menu) Price(name string) (Money, bool) {
	p, ok := m.prices[name]
	return p, ok
}

// Has сообщает, есть ли позиция в меню.
func (m Menu) Has(name string) bool {
	_, ok := m.prices[name]
	return ok
}

// Items возвращает копию цен меню.
func (m Menu) Items() map[string]Money {
	return maps.Clone(m.prices)
}

// Names возвращает отсортированные названия позиций.
func (m Menu) Names() []string {
	return slices.Sorted(maps.Keys(m.prices))
}

// Len возвращает количество позиций.
func (m Menu) Len() int {
	return len(m.prices)
}

// MarshalJSON сериализует меню как {"название": "$цена"}.
func (m Menu) MarshalJSON() ([]byte, error) {
	if m.prices == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.prices)
}

// UnmarshalJSON разбирает меню из {"название": "$цена"}.
func (m *Menu) UnmarshalJSON(data []byte) error {
	prices := map[string]Money{}
	if err := json.Unmarshal(data, &prices); err != nil {
		return err
	}
	m.prices = prices
	return nil
}

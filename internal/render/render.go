// Package render подставляет значения в текстовые шаблоны вида "Hello, {name}".
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mmeshcher/pizza-portal/internal/model"
)

// Шаблон письма с подтверждением заказа.
const (
	ConfirmationSubject  = "Your order is confirmed!"
	confirmationTemplate = "Your pizza order is confirmed!\n\n{summary}\n\nHave a nice day!\n{global.companyName}"
)

// Globals содержит значения, доступные во всех шаблонах под префиксом "global.".
type Globals struct {
	AppName     string
	CompanyName string
	YearCreated string
	BaseURL     string
}

func (g Globals) pairs() map[string]string {
	return map[string]string{
		"appName":     g.AppName,
		"companyName": g.CompanyName,
		"yearCreated": g.YearCreated,
		"baseUrl":     g.BaseURL,
	}
}

// Renderer подставляет данные и глобальные значения в шаблоны.
type Renderer struct {
	globals map[string]string
}

// New создаёт Renderer с глобальными значениями.
func New(g Globals) *Renderer {
	return &Renderer{globals: g.pairs()}
}

// Interpolate заменяет все вхождения {key} значениями из data и {global.key} глобальными значениями.
// Неизвестные плейсхолдеры остаются без изменений.
func (r *Renderer) Interpolate(tmpl string, data map[string]string) string {
	oldnew := make([]string, 0, 2*(len(data)+len(r.globals)))
	for k, v := range r.globals {
		oldnew = append(oldnew, "{global."+k+"}", v)
	}
	for k, v := range data {
		oldnew = append(oldnew, "{"+k+"}", v)
	}
	return strings.NewReplacer(oldnew...).Replace(tmpl)
}

// OrderSummary формирует перечень позиций заказа и итоговую сумму.
func OrderSummary(order model.Order) string {
	names := make([]string, 0, len(order.OrderItems))
	for name := range order.OrderItems {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Order summary:\n------------\n")
	for _, name := range names {
		item := order.OrderItems[name]
		fmt.Fprintf(&b, "%d x %s = %s\n", item.Quantity, name, item.Amount)
	}
	fmt.Fprintf(&b, "\nTotal amount: %s", order.TotalAmount)
	return b.String()
}

// Confirmation возвращает текст письма с подтверждением заказа.
func (r *Renderer) Confirmation(order model.Order) string {
	return r.Interpolate(confirmationTemplate, map[string]string{
		"summary": OrderSummary(order),
	})
}

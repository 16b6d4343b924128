package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmeshcher/pizza-portal/internal/model"
)

func TestInterpolate(t *testing.T) {
	r := New(Globals{AppName: "PizzaPortal", CompanyName: "Papa's Pizza Palace"})

	tests := []struct {
		name string
		tmpl string
		data map[string]string
		want string
	}{
		{
			name: "data and globals",
			tmpl: "Hi {name}, welcome to {global.appName}",
			data: map[string]string{"name": "Ann"},
			want: "Hi Ann, welcome to PizzaPortal",
		},
		{
			name: "repeated placeholder",
			tmpl: "{x}-{x}",
			data: map[string]string{"x": "1"},
			want: "1-1",
		},
		{
			name: "unknown placeholder kept",
			tmpl: "{missing} {global.nope}",
			want: "{missing} {global.nope}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Interpolate(tt.tmpl, tt.data))
		})
	}
}

func TestConfirmation(t *testing.T) {
	r := New(Globals{CompanyName: "Papa's Pizza Palace"})
	order := model.Order{
		OrderItems: map[string]model.CartItem{
			"Pizza": {Quantity: 2, Amount: model.Dollars(20)},
			"Coke":  {Quantity: 1, Amount: model.Dollars(2)},
		},
		TotalAmount: model.Dollars(22),
	}

	want := "Your pizza order is confirmed!\n\n" +
		"Order summary:\n------------\n" +
		"1 x Coke = $2\n" +
		"2 x Pizza = $20\n" +
		"\nTotal amount: $22" +
		"\n\nHave a nice day!\nPapa's Pizza Palace"
	assert.Equal(t, want, r.Confirmation(order))
}

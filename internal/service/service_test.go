package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/pizza-portal/internal/model"
	"github.com/mmeshcher/pizza-portal/internal/render"
	"github.com/mmeshcher/pizza-portal/internal/repository"
)

type charge struct {
	key    string
	source string
	amount model.Money
	email  string
}

type stubPayments struct {
	mu      sync.Mutex
	err     error
	charges []charge
}

func (p *stubPayments) Charge(ctx context.Context, key, source string, amount model.Money, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.charges = append(p.charges, charge{key: key, source: source, amount: amount, email: email})
	return p.err
}

type email struct {
	recipient string
	subject   string
	body      string
}

type stubMailer struct {
	mu   sync.Mutex
	err  error
	sent []email
}

func (m *stubMailer) SendEmail(ctx context.Context, recipient, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email{recipient: recipient, subject: subject, body: body})
	return m.err
}

// failingStore возвращает ошибку при удалении выбранной записи.
type failingStore struct {
	repository.Store
	failDelete string
}

func (s *failingStore) Delete(ctx context.Context, collection, id string) error {
	if collection+"/"+id == s.failDelete {
		return errors.New("disk is on fire")
	}
	return s.Store.Delete(ctx, collection, id)
}

type fixture struct {
	svc      *Service
	store    repository.Store
	payments *stubPayments
	mailer   *stubMailer
	now      time.Time
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, repository.NewMemoryStore())
}

func newFixtureWithStore(t *testing.T, store repository.Store) *fixture {
	t.Helper()

	f := &fixture{
		store:    store,
		payments: &stubPayments{},
		mailer:   &stubMailer{},
		now:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = New(Options{
		Store: store,
		Menu: model.NewMenu(map[string]model.Money{
			"Pizza": model.Dollars(10),
			"Coke":  model.Dollars(2),
		}),
		Hasher:   NewHasher("secret"),
		Payments: f.payments,
		Mailer:   f.mailer,
		Renderer: render.New(render.Globals{CompanyName: "Papa's Pizza Palace"}),
		Logger:   zap.NewNop(),
		Now:      func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) register(t *testing.T, email string) {
	t.Helper()
	_, err := f.svc.Users.Register(context.Background(), RegisterRequest{
		FirstName:     "Ann",
		LastName:      "Lee",
		Email:         email,
		StreetAddress: "1 Main St",
		Password:      "pw1",
		TOSAgreement:  true,
	})
	require.NoError(t, err)
}

func (f *fixture) login(t *testing.T, email string) string {
	t.Helper()
	token, err := f.svc.Tokens.Issue(context.Background(), LoginRequest{Email: email, Password: "pw1"})
	require.NoError(t, err)
	return token.ID
}

// userWithCart регистрирует пользователя, выдаёт токен и создаёт корзину.
func (f *fixture) userWithCart(t *testing.T, email string) (token, cartID string) {
	t.Helper()
	f.register(t, email)
	token = f.login(t, email)
	cartID, err := f.svc.Carts.Create(context.Background(), token, CreateCartRequest{Email: email})
	require.NoError(t, err)
	return token, cartID
}

func requireKind(t *testing.T, err error, kind error) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, errors.Is(err, kind), "error %v is not %v", err, kind)
}

package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/pizza-portal/internal/menu"
	"github.com/mmeshcher/pizza-portal/internal/model"
	"github.com/mmeshcher/pizza-portal/internal/repository"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestConsole(t *testing.T) (*Console, *repository.MemoryStore, *bytes.Buffer) {
	t.Helper()

	store := repository.NewMemoryStore()
	out := &bytes.Buffer{}
	c := New(store, out,
		WithClock(func() time.Time { return testNow }),
		WithStats(func(context.Context) ([]Stat, error) {
			return []Stat{{Name: "CPU Count", Value: "4"}}, nil
		}),
	)
	return c, store, out
}

func TestExecute_UnknownCommand(t *testing.T) {
	c, _, _ := newTestConsole(t)

	err := c.Execute(context.Background(), "order pizza")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	assert.NoError(t, c.Execute(context.Background(), "   "))
}

func TestExecute_Help(t *testing.T) {
	c, _, out := newTestConsole(t)

	require.NoError(t, c.Execute(context.Background(), "HELP"))
	assert.Contains(t, out.String(), "CONSOLE MANUAL")
	assert.Contains(t, out.String(), "more user info --{email}")
	assert.Contains(t, out.String(), "list orders [--all]")
}

func TestExecute_Exit(t *testing.T) {
	c, _, _ := newTestConsole(t)

	assert.ErrorIs(t, c.Execute(context.Background(), "exit"), ErrExit)
}

func TestExecute_Stats(t *testing.T) {
	c, _, out := newTestConsole(t)

	require.NoError(t, c.Execute(context.Background(), "stats"))
	assert.Contains(t, out.String(), "SYSTEM STATISTICS")
	assert.Contains(t, out.String(), "CPU Count")

	failing := New(repository.NewMemoryStore(), out, WithStats(func(context.Context) ([]Stat, error) {
		return nil, errors.New("no procfs")
	}))
	assert.Error(t, failing.Execute(context.Background(), "stats"))
}

func TestExecute_ListUsersAndMoreInfo(t *testing.T) {
	c, store, out := newTestConsole(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, repository.CollectionUsers, "ann@x.com", model.User{
		FirstName:      "Ann",
		LastName:       "Lee",
		Email:          "ann@x.com",
		HashedPassword: "secret-hash",
		Orders:         []string{"o1", "o2"},
	}))

	require.NoError(t, c.Execute(ctx, "list users"))
	assert.Contains(t, out.String(), "Name: Ann Lee")
	assert.Contains(t, out.String(), "Orders: 2")

	out.Reset()
	require.NoError(t, c.Execute(ctx, "more user info --ann@x.com"))
	assert.Contains(t, out.String(), `"email": "ann@x.com"`)
	assert.NotContains(t, out.String(), "secret-hash")

	assert.Error(t, c.Execute(ctx, "more user info"))
	assert.ErrorIs(t, c.Execute(ctx, "more user info --bob@x.com"), repository.ErrNotFound)
}

func TestExecute_ListMenu(t *testing.T) {
	c, store, out := newTestConsole(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, repository.CollectionMenu, menu.RecordID,
		model.NewMenu(map[string]model.Money{"Margherita": model.Dollars(10)})))

	require.NoError(t, c.Execute(ctx, "list menu"))
	assert.Contains(t, out.String(), "Margherita")
	assert.Contains(t, out.String(), "Price: $10")
}

func TestExecute_ListOrders(t *testing.T) {
	c, store, out := newTestConsole(t)
	ctx := context.Background()

	recent := model.Order{ID: "recent", OrderPlacedAt: testNow.Add(-time.Hour).UnixMilli()}
	old := model.Order{ID: "old", OrderPlacedAt: testNow.Add(-48 * time.Hour).UnixMilli()}
	require.NoError(t, store.Create(ctx, repository.CollectionOrders, recent.ID, recent))
	require.NoError(t, store.Create(ctx, repository.CollectionOrders, old.ID, old))

	require.NoError(t, c.Execute(ctx, "list orders"))
	assert.Contains(t, out.String(), `"id": "recent"`)
	assert.NotContains(t, out.String(), `"id": "old"`)

	out.Reset()
	require.NoError(t, c.Execute(ctx, "list orders --all"))
	assert.Contains(t, out.String(), `"id": "recent"`)
	assert.Contains(t, out.String(), `"id": "old"`)
	assert.Less(t, strings.Index(out.String(), `"id": "old"`), strings.Index(out.String(), `"id": "recent"`))
}

func TestRun(t *testing.T) {
	c, _, out := newTestConsole(t)

	in := strings.NewReader("help\nbogus\nmore user info --nobody@x.com\nexit\nstats\n")
	require.NoError(t, c.Run(context.Background(), in))

	assert.Contains(t, out.String(), "CONSOLE MANUAL")
	assert.Contains(t, out.String(), "Sorry, try again")
	assert.Contains(t, out.String(), "Caught an error")
	assert.NotContains(t, out.String(), "SYSTEM STATISTICS")
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenuRequiresValidToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "a@x.com")
	token := f.login(t, "a@x.com")

	_, err := f.svc.Menu.Get(ctx, "")
	requireKind(t, err, ErrForbidden)

	m, err := f.svc.Menu.Get(ctx, token)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Coke", "Pizza"}, m.Names())

	f.advance(2 * time.Hour)
	_, err = f.svc.Menu.Get(ctx, token)
	requireKind(t, err, ErrForbidden)
}
